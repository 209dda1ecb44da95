package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/urfave/cli/v2"
)

// UserName returns the name of the i-th virtual user
func UserName(i int) string {
	return fmt.Sprintf("%s%d", models.LoadTestUserPrefix, i)
}

// HandleCreateUserIds names one virtual user per requested user
func HandleCreateUserIds(ctx context.Context, input models.LoadTestInput) (models.LoadTestUsers, error) {
	logger := zerolog.Ctx(ctx)

	logger.Info().
		Int("users", input.NumberOfUsers).
		Int("likes_per_user", input.NumberOfLikesPerUser).
		Int("duration_minutes", input.TestDurationMinutes).
		Msg("Generating user ids")

	users := make([]models.LoadTestUser, 0, input.NumberOfUsers)
	for i := 0; i < input.NumberOfUsers; i++ {
		users = append(users, models.LoadTestUser{
			UserName:             UserName(i),
			NumberOfLikesPerUser: input.NumberOfLikesPerUser,
			TestDurationMinutes:  input.TestDurationMinutes,
		})
	}

	return models.LoadTestUsers{
		StatusCode: http.StatusOK,
		UserNames:  users,
	}, nil
}

func main() {
	logger := di.ProvideLambdaLogger("create-user-ids")

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		wrappedHandler := func(ctx context.Context, input models.LoadTestInput) (models.LoadTestUsers, error) {
			ctx = logger.WithContext(ctx)
			return HandleCreateUserIds(ctx, input)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "create-user-ids",
		Usage: "Generate the virtual users of a load test",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "users",
				Usage: "Number of virtual users",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "likes",
				Usage: "Likes per user",
				Value: models.DefaultLoadTestLikes,
			},
			&cli.IntFlag{
				Name:  "minutes",
				Usage: "Test duration in minutes",
				Value: models.DefaultLoadTestMinutes,
			},
		},
		Action: func(c *cli.Context) error {
			ctx := logger.WithContext(context.Background())
			out, err := HandleCreateUserIds(ctx, models.LoadTestInput{
				NumberOfUsers:        c.Int("users"),
				NumberOfLikesPerUser: c.Int("likes"),
				TestDurationMinutes:  c.Int("minutes"),
			})
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal output: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

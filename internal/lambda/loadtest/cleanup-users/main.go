package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/urfave/cli/v2"
)

type Config struct {
	UserPoolID string `env:"USER_POOL_ID,required"`
}

// CognitoAdminDelete removes users from a user pool
type CognitoAdminDelete interface {
	AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error)
}

type Handler struct {
	cognito    CognitoAdminDelete
	userPoolID string
}

func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewHandlerWithDeps(cognitoidentityprovider.NewFromConfig(awsCfg), cfg.UserPoolID), nil
}

// NewHandlerWithDeps creates a Handler with injected dependencies (for testing)
func NewHandlerWithDeps(cognito CognitoAdminDelete, userPoolID string) *Handler {
	return &Handler{
		cognito:    cognito,
		userPoolID: userPoolID,
	}
}

// HandleCleanUp deletes every virtual user. Users already gone are ignored.
func (h *Handler) HandleCleanUp(ctx context.Context, users []models.LoadTestUser) (models.StepResult, error) {
	logger := zerolog.Ctx(ctx)

	for _, user := range users {
		_, err := h.cognito.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
			UserPoolId: aws.String(h.userPoolID),
			Username:   aws.String(user.UserName),
		})
		if err != nil {
			var notFound *types.UserNotFoundException
			if stderrors.As(err, &notFound) {
				logger.Info().Str("user", user.UserName).Msg("User not found")
				continue
			}
			return models.StepResult{}, fmt.Errorf("failed to delete %s: %w", user.UserName, err)
		}
		logger.Info().Str("user", user.UserName).Msg("User deleted")
	}

	return models.StepResult{StatusCode: http.StatusOK}, nil
}

func main() {
	logger := di.ProvideLambdaLogger("cleanup-users")
	ctx := logger.WithContext(context.Background())

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		cfg, err := di.ParseEnv[Config]()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read configuration")
			os.Exit(1)
		}

		handler, err := NewHandler(ctx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create handler")
			os.Exit(1)
		}

		wrappedHandler := func(ctx context.Context, users []models.LoadTestUser) (models.StepResult, error) {
			ctx = logger.WithContext(ctx)
			return handler.HandleCleanUp(ctx, users)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "cleanup-users",
		Usage: "Delete load test users",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user-pool-id",
				Usage:    "Cognito user pool id",
				EnvVars:  []string{"USER_POOL_ID"},
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "user",
				Usage:    "User name (repeatable)",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			handler, err := NewHandler(ctx, Config{UserPoolID: c.String("user-pool-id")})
			if err != nil {
				return err
			}

			var users []models.LoadTestUser
			for _, name := range c.StringSlice("user") {
				users = append(users, models.LoadTestUser{UserName: name})
			}

			_, err = handler.HandleCleanUp(ctx, users)
			return err
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

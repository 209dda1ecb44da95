package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/apigw"
	"github.com/savaki/aws-bootstrap-kit/internal/dao/postdao"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/urfave/cli/v2"
)

// UserIDParam is the path parameter of GET /users/{user_id}
const UserIDParam = "user_id"

type Config struct {
	TableName string `env:"POSTS_TABLE_NAME,required"`
}

// PostFinder queries the posts of one user
type PostFinder interface {
	FindByUser(ctx context.Context, userID string) ([]postdao.Record, error)
}

type Handler struct {
	posts PostFinder
}

func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewHandlerWithDeps(postdao.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName)), nil
}

// NewHandlerWithDeps creates a Handler with injected dependencies (for testing)
func NewHandlerWithDeps(posts PostFinder) *Handler {
	return &Handler{posts: posts}
}

// HandleRequest serves GET /users/{user_id}
func (h *Handler) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := zerolog.Ctx(ctx)

	userID := req.PathParameters[UserIDParam]
	if userID == "" {
		return apigw.Error(http.StatusBadRequest, "user_id is required"), nil
	}

	records, err := h.posts.FindByUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to query posts")
		return apigw.Error(http.StatusInternalServerError, "unable to query posts"), nil
	}

	logger.Info().
		Str("user_id", userID).
		Int("count", len(records)).
		Msg("Queried posts of user")
	return apigw.JSON(http.StatusOK, records), nil
}

func main() {
	logger := di.ProvideLambdaLogger("get-posts-by-user")
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

		wrappedHandler := func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			ctx = logger.WithContext(ctx)
			return handler.HandleRequest(ctx, req)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "get-posts-by-user",
		Usage: "List the posts of a user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB posts table",
				EnvVars:  []string{"POSTS_TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "user",
				Usage:    "User id",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			handler, err := NewHandler(ctx, Config{TableName: c.String("table-name")})
			if err != nil {
				return err
			}

			resp, err := handler.HandleRequest(ctx, events.APIGatewayProxyRequest{
				HTTPMethod:     http.MethodGet,
				PathParameters: map[string]string{UserIDParam: c.String("user")},
			})
			if err != nil {
				return err
			}
			fmt.Println(resp.Body)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

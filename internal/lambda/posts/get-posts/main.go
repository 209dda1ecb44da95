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

type Config struct {
	TableName string `env:"POSTS_TABLE_NAME,required"`
}

// PostLister returns the feed
type PostLister interface {
	FindRecent(ctx context.Context, limit int) ([]postdao.Record, error)
}

type Handler struct {
	posts PostLister
}

func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewHandlerWithDeps(postdao.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName)), nil
}

// NewHandlerWithDeps creates a Handler with injected dependencies (for testing)
func NewHandlerWithDeps(posts PostLister) *Handler {
	return &Handler{posts: posts}
}

// HandleRequest serves GET / with the most recent page of posts
func (h *Handler) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := zerolog.Ctx(ctx)

	records, err := h.posts.FindRecent(ctx, postdao.DefaultPageSize)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list posts")
		return apigw.Error(http.StatusInternalServerError, "unable to list posts"), nil
	}

	logger.Info().Int("count", len(records)).Msg("Listed posts")
	return apigw.JSON(http.StatusOK, records), nil
}

func main() {
	logger := di.ProvideLambdaLogger("get-posts")
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

		// Wrap handler to inject logger into context
		wrappedHandler := func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			ctx = logger.WithContext(ctx)
			return handler.HandleRequest(ctx, req)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "get-posts",
		Usage: "List the most recent posts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB posts table",
				EnvVars:  []string{"POSTS_TABLE_NAME"},
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			handler, err := NewHandler(ctx, Config{TableName: c.String("table-name")})
			if err != nil {
				return err
			}

			resp, err := handler.HandleRequest(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/"})
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

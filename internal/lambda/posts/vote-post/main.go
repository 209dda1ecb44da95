package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
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
	"github.com/savaki/aws-bootstrap-kit/internal/errors"
	"github.com/urfave/cli/v2"
)

// Direction is the vote applied by a deployment of this function
type Direction string

const (
	DirectionLike    Direction = "like"
	DirectionDislike Direction = "dislike"
)

// Delta returns the change applied to the likes counter
func (d Direction) Delta() (int, error) {
	switch d {
	case DirectionLike:
		return 1, nil
	case DirectionDislike:
		return -1, nil
	default:
		return 0, fmt.Errorf("unknown vote direction %q", string(d))
	}
}

type Config struct {
	TableName string    `env:"POSTS_TABLE_NAME,required"`
	Direction Direction `env:"VOTE_DIRECTION" envDefault:"like"`
}

// Voter updates the likes of a post
type Voter interface {
	Vote(ctx context.Context, userID, postID string, delta int) (*postdao.VoteResult, error)
}

// Request identifies the voted post by its owner and id
type Request struct {
	User string `json:"user"`
	Post string `json:"post"`
}

// Response mirrors the attributes changed by the update
type Response struct {
	Attributes postdao.VoteResult `json:"Attributes"`
}

type Handler struct {
	voter Voter
	delta int
}

func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewHandlerWithDeps(postdao.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName), cfg.Direction)
}

// NewHandlerWithDeps creates a Handler with injected dependencies (for testing)
func NewHandlerWithDeps(voter Voter, direction Direction) (*Handler, error) {
	delta, err := direction.Delta()
	if err != nil {
		return nil, err
	}
	return &Handler{voter: voter, delta: delta}, nil
}

// HandleRequest serves PUT /like and PUT /dislike
func (h *Handler) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := zerolog.Ctx(ctx)

	var body Request
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil || body.User == "" || body.Post == "" {
		return apigw.Error(http.StatusBadRequest, "user and post are required"), nil
	}

	result, err := h.voter.Vote(ctx, body.User, body.Post, h.delta)
	if err != nil {
		if stderrors.Is(err, errors.ErrPostNotFound) {
			return apigw.Error(http.StatusNotFound, "post not found"), nil
		}
		logger.Error().Err(err).
			Str("user", body.User).
			Str("post", body.Post).
			Msg("Failed to vote")
		return apigw.Error(http.StatusInternalServerError, "unable to vote"), nil
	}

	logger.Info().
		Str("user", body.User).
		Str("post", body.Post).
		Int("delta", h.delta).
		Int("likes", result.Likes).
		Msg("Voted")
	return apigw.JSON(http.StatusOK, Response{Attributes: *result}), nil
}

func main() {
	logger := di.ProvideLambdaLogger("vote-post")
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
		Name:  "vote-post",
		Usage: "Like or dislike a post",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB posts table",
				EnvVars:  []string{"POSTS_TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "direction",
				Usage:   "like or dislike",
				EnvVars: []string{"VOTE_DIRECTION"},
				Value:   string(DirectionLike),
			},
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Owner of the post",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "post",
				Usage:    "Post id",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			handler, err := NewHandler(ctx, Config{
				TableName: c.String("table-name"),
				Direction: Direction(c.String("direction")),
			})
			if err != nil {
				return err
			}

			body, err := json.Marshal(Request{User: c.String("user"), Post: c.String("post")})
			if err != nil {
				return err
			}

			resp, err := handler.HandleRequest(ctx, events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodPut,
				Body:       string(body),
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

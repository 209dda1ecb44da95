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
	"github.com/savaki/gox/slicex"
	"github.com/urfave/cli/v2"
)

// concurrency bounds the SignUp calls in flight
const concurrency = 8

type Config struct {
	ClientID string `env:"CLIENT_ID,required"`
	Password string `env:"DEFAULT_PASSWORD" envDefault:"Password1/"`
}

// CognitoSignUp registers users in a user pool client
type CognitoSignUp interface {
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
}

type Handler struct {
	cognito  CognitoSignUp
	clientID string
	password string
}

func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewHandlerWithDeps(cognitoidentityprovider.NewFromConfig(awsCfg), cfg.ClientID, cfg.Password), nil
}

// NewHandlerWithDeps creates a Handler with injected dependencies (for testing)
func NewHandlerWithDeps(cognito CognitoSignUp, clientID, password string) *Handler {
	if password == "" {
		password = models.LoadTestDefaultPassword
	}
	return &Handler{
		cognito:  cognito,
		clientID: clientID,
		password: password,
	}
}

// Email returns the address registered for a virtual user
func Email(userName string) string {
	return userName + "@" + models.LoadTestUserEmailDomain
}

// HandleCreateUsers signs up every virtual user. Existing users are kept.
func (h *Handler) HandleCreateUsers(ctx context.Context, users []models.LoadTestUser) (models.StepResult, error) {
	callback := func(ctx context.Context, user models.LoadTestUser) (bool, error) {
		return h.createUser(ctx, user.UserName)
	}
	_, err := slicex.MapConcurrent(callback).
		Concurrency(concurrency).
		CollectErrors().
		DoValues(ctx, users...)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("failed to create users: %w", err)
	}

	return models.StepResult{StatusCode: http.StatusOK}, nil
}

func (h *Handler) createUser(ctx context.Context, userName string) (bool, error) {
	logger := zerolog.Ctx(ctx).With().Str("user", userName).Logger()

	_, err := h.cognito.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(h.clientID),
		Username: aws.String(userName),
		Password: aws.String(h.password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(Email(userName))},
		},
	})
	if err != nil {
		var exists *types.UsernameExistsException
		if stderrors.As(err, &exists) {
			logger.Info().Msg("User already exists")
			return false, nil
		}
		return false, fmt.Errorf("failed to sign up %s: %w", userName, err)
	}

	logger.Info().Msg("User created")
	return true, nil
}

func main() {
	logger := di.ProvideLambdaLogger("create-users")
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
			return handler.HandleCreateUsers(ctx, users)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "create-users",
		Usage: "Sign up load test users",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "client-id",
				Usage:    "Cognito user pool client id",
				EnvVars:  []string{"CLIENT_ID"},
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "user",
				Usage:    "User name (repeatable)",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			handler, err := NewHandler(ctx, Config{ClientID: c.String("client-id")})
			if err != nil {
				return err
			}

			var users []models.LoadTestUser
			for _, name := range c.StringSlice("user") {
				users = append(users, models.LoadTestUser{UserName: name})
			}

			_, err = handler.HandleCreateUsers(ctx, users)
			return err
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/urfave/cli/v2"
)

type Config struct {
	TrustedDomain string `env:"TRUSTED_EMAIL_DOMAIN" envDefault:"octank.com"`
}

type Handler struct {
	trustedDomain string
}

func NewHandler(trustedDomain string) *Handler {
	if trustedDomain == "" {
		trustedDomain = models.LoadTestUserEmailDomain
	}
	return &Handler{trustedDomain: strings.ToLower(trustedDomain)}
}

// IsTrusted reports whether email belongs to domain
func IsTrusted(email, domain string) bool {
	_, host, ok := strings.Cut(email, "@")
	return ok && strings.EqualFold(host, domain)
}

// HandlePreSignup confirms users of the trusted domain without a verification code
func (h *Handler) HandlePreSignup(ctx context.Context, event events.CognitoEventUserPoolsPreSignup) (events.CognitoEventUserPoolsPreSignup, error) {
	logger := zerolog.Ctx(ctx)

	email := event.Request.UserAttributes["email"]
	trusted := IsTrusted(email, h.trustedDomain)

	event.Response.AutoConfirmUser = trusted
	event.Response.AutoVerifyEmail = trusted

	logger.Info().
		Str("user", event.UserName).
		Str("user_pool", event.UserPoolID).
		Bool("auto_confirm", trusted).
		Msg("Pre sign-up")
	return event, nil
}

func main() {
	logger := di.ProvideLambdaLogger("pre-signup")

	cfg, err := di.ParseEnv[Config]()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read configuration")
		os.Exit(1)
	}
	handler := NewHandler(cfg.TrustedDomain)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		wrappedHandler := func(ctx context.Context, event events.CognitoEventUserPoolsPreSignup) (events.CognitoEventUserPoolsPreSignup, error) {
			ctx = logger.WithContext(ctx)
			return handler.HandlePreSignup(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "pre-signup",
		Usage: "Evaluate the Cognito pre sign-up trigger for an email",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Usage:    "Email of the new user",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			event := events.CognitoEventUserPoolsPreSignup{}
			event.UserName = c.String("email")
			event.Request.UserAttributes = map[string]string{"email": c.String("email")}

			ctx := logger.WithContext(context.Background())
			out, err := handler.HandlePreSignup(ctx, event)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(out.Response, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal response: %w", err)
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

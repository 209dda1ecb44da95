package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/apigw"
	"github.com/savaki/aws-bootstrap-kit/internal/dao/feedbackdao"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/urfave/cli/v2"
)

// LocalOrigin is always allowed so the page can be developed locally
const LocalOrigin = "http://localhost:3000"

// Config is read from the function environment
type Config struct {
	TableName   string `env:"TABLE_NAME,required"`
	AllowOrigin string `env:"Access_Control_Allow_Origin"`
}

// FeedbackStore persists feedback entries
type FeedbackStore interface {
	Create(ctx context.Context, input feedbackdao.CreateInput) (*feedbackdao.Record, error)
}

// Request is the body posted by the landing page survey form
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject"`
	Details string `json:"details"`
}

// Response is the message returned to the form
type Response struct {
	Message string `json:"message"`
}

type Handler struct {
	store          FeedbackStore
	allowedOrigins []string
	validate       *validator.Validate
}

// NewHandler creates a Handler backed by the DynamoDB table of cfg
func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	store := feedbackdao.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName)
	return NewHandlerWithDeps(store, cfg.AllowOrigin), nil
}

// NewHandlerWithDeps creates a Handler with injected dependencies (for testing)
func NewHandlerWithDeps(store FeedbackStore, allowOrigin string) *Handler {
	origins := []string{LocalOrigin}
	if allowOrigin != "" {
		origins = append(origins, allowOrigin)
	}
	return &Handler{
		store:          store,
		allowedOrigins: origins,
		validate:       validator.New(),
	}
}

// Router returns the HTTP routes served behind API Gateway
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /feedback", h.handleFeedback)
	mux.HandleFunc("OPTIONS /feedback", h.handlePreflight)
	return mux
}

func (h *Handler) setCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && slices.Contains(h.allowedOrigins, origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "OPTIONS,POST")
}

func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	h.setCORS(w, r)

	data, err := io.ReadAll(r.Body)
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		h.jsonResponse(w, http.StatusBadRequest, Response{Message: "Missing paramters"})
		return
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		h.jsonResponse(w, http.StatusBadRequest, Response{Message: "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.jsonResponse(w, http.StatusBadRequest, Response{Message: "Invalid email"})
		return
	}

	record, err := h.store.Create(ctx, feedbackdao.CreateInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Details: req.Details,
	})
	if err != nil {
		logger.Error().Err(err).Str("email", req.Email).Msg("Failed to store feedback")
		h.jsonResponse(w, http.StatusInternalServerError, Response{Message: "Unable to store feedback"})
		return
	}

	logger.Info().
		Str("key", record.Key.String()).
		Str("subject", record.Subject).
		Msg("Stored feedback")

	h.jsonResponse(w, http.StatusOK, Response{Message: "success"})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func main() {
	logger := di.ProvideLambdaLogger("feedback")
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

		httpHandler := apigw.LoggingMiddleware(logger)(handler.Router())
		lambda.Start(httpadapter.New(httpHandler).ProxyWithContext)
		return
	}

	app := &cli.App{
		Name:  "feedback",
		Usage: "Landing page feedback API",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start local HTTP server for testing",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "port",
						Usage: "Port to listen on",
						Value: "8080",
					},
					&cli.StringFlag{
						Name:     "table-name",
						Usage:    "DynamoDB feedback table",
						EnvVars:  []string{"TABLE_NAME"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "allow-origin",
						Usage:   "Additional CORS origin",
						EnvVars: []string{"Access_Control_Allow_Origin"},
					},
				},
				Action: func(c *cli.Context) error {
					handler, err := NewHandler(ctx, Config{
						TableName:   c.String("table-name"),
						AllowOrigin: c.String("allow-origin"),
					})
					if err != nil {
						return err
					}

					addr := fmt.Sprintf(":%s", c.String("port"))
					logger.Info().Str("addr", addr).Msg("Starting HTTP server")

					server := &http.Server{
						Addr:    addr,
						Handler: apigw.LoggingMiddleware(logger)(handler.Router()),
					}
					return server.ListenAndServe()
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

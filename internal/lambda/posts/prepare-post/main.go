package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/apigw"
	"github.com/savaki/aws-bootstrap-kit/internal/dao/postdao"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

const (
	// UploadExpiry bounds the lifetime of the presigned upload URL
	UploadExpiry = 15 * time.Minute

	// UsernameClaim carries the Cognito user name of the caller
	UsernameClaim = "cognito:username"

	contentType = "image/jpg"
)

type Config struct {
	BucketName string `env:"POST_BUCKET_NAME,required"`
}

// Presigner signs S3 PutObject requests
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Response tells the client where to upload the picture and which metadata to send with it
type Response struct {
	URL       string `json:"url"`
	PostID    string `json:"postid"`
	UserID    string `json:"userid"`
	CreatedAt string `json:"createdat"`
	OwnerName string `json:"ownername"`
}

type Handler struct {
	presigner Presigner
	bucket    string
	now       func() time.Time
	newID     func() string
}

func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	presigner := s3.NewPresignClient(s3.NewFromConfig(awsCfg))
	return NewHandlerWithDeps(presigner, cfg.BucketName, time.Now, func() string { return ksuid.New().String() }), nil
}

// NewHandlerWithDeps creates a Handler with injected dependencies (for testing)
func NewHandlerWithDeps(presigner Presigner, bucket string, now func() time.Time, newID func() string) *Handler {
	return &Handler{
		presigner: presigner,
		bucket:    bucket,
		now:       now,
		newID:     newID,
	}
}

// HandleRequest serves PUT /preparepost
func (h *Handler) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := zerolog.Ctx(ctx)

	userID := apigw.Claim(req, UsernameClaim)
	if userID == "" {
		return apigw.Error(http.StatusUnauthorized, "missing user"), nil
	}

	var (
		postID    = h.newID()
		createdAt = strconv.FormatInt(h.now().Unix(), 10)
		key       = postdao.ObjectKey(postID)
	)

	presigned, err := h.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			postdao.MetaUserID:    userID,
			postdao.MetaPostID:    postID,
			postdao.MetaCreatedAt: createdAt,
			postdao.MetaOwnerName: userID,
		},
	}, s3.WithPresignExpires(UploadExpiry))
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to presign upload")
		return apigw.Error(http.StatusInternalServerError, "unable to prepare post"), nil
	}

	logger.Info().
		Str("user", userID).
		Str("post", postID).
		Str("bucket", h.bucket).
		Msg("Prepared post upload")

	return apigw.JSON(http.StatusOK, Response{
		URL:       presigned.URL,
		PostID:    postID,
		UserID:    userID,
		CreatedAt: createdAt,
		OwnerName: userID,
	}), nil
}

func main() {
	logger := di.ProvideLambdaLogger("prepare-post")
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
		Name:  "prepare-post",
		Usage: "Create a presigned upload URL for a new post",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "bucket",
				Usage:    "Media bucket",
				EnvVars:  []string{"POST_BUCKET_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Cognito user name",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			handler, err := NewHandler(ctx, Config{BucketName: c.String("bucket")})
			if err != nil {
				return err
			}

			resp, err := handler.HandleRequest(ctx, events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodPut,
				RequestContext: events.APIGatewayProxyRequestContext{
					Authorizer: map[string]interface{}{
						"claims": map[string]interface{}{UsernameClaim: c.String("user")},
					},
				},
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

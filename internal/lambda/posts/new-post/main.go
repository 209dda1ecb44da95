package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/dao/postdao"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/urfave/cli/v2"
)

type Config struct {
	TableName    string `env:"POSTS_TABLE_NAME,required"`
	Distribution string `env:"CLOUDFRONT_DIST,required"`
}

// S3HeadObject reads object metadata
type S3HeadObject interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// PostCreator stores new posts
type PostCreator interface {
	Create(ctx context.Context, record postdao.Record) error
}

type Handler struct {
	s3Client     S3HeadObject
	posts        PostCreator
	distribution string
}

func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewHandlerWithDeps(
		s3.NewFromConfig(awsCfg),
		postdao.New(dynamodb.NewFromConfig(awsCfg), cfg.TableName),
		cfg.Distribution,
	), nil
}

// NewHandlerWithDeps creates a Handler with injected dependencies (for testing)
func NewHandlerWithDeps(s3Client S3HeadObject, posts PostCreator, distribution string) *Handler {
	return &Handler{
		s3Client:     s3Client,
		posts:        posts,
		distribution: distribution,
	}
}

func (h *Handler) HandleS3Event(ctx context.Context, event events.S3Event) error {
	logger := zerolog.Ctx(ctx)

	for i := range event.Records {
		if err := h.processS3Record(ctx, &event.Records[i]); err != nil {
			logger.Error().Err(err).Msg("Error processing S3 record")
			return err
		}
	}
	return nil
}

func (h *Handler) processS3Record(ctx context.Context, record *events.S3EventRecord) error {
	logger := zerolog.Ctx(ctx)

	bucket := record.S3.Bucket.Name
	key := record.S3.Object.URLDecodedKey
	if key == "" {
		key = record.S3.Object.Key
	}

	head, err := h.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to read metadata of s3://%s/%s: %w", bucket, key, err)
	}

	meta := head.Metadata
	if meta[postdao.MetaUserID] == "" || meta[postdao.MetaPostID] == "" {
		// uploads not prepared by prepare-post carry no metadata
		logger.Warn().
			Str("bucket", bucket).
			Str("key", key).
			Msg("Ignoring object without post metadata")
		return nil
	}

	post := postdao.Record{
		UserID:    meta[postdao.MetaUserID],
		PostID:    meta[postdao.MetaPostID],
		CreatedAt: meta[postdao.MetaCreatedAt],
		OwnerName: meta[postdao.MetaOwnerName],
		MediaURL:  postdao.MediaURL(h.distribution, key),
	}
	if err := h.posts.Create(ctx, post); err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}

	logger.Info().
		Str("user", post.UserID).
		Str("post", post.PostID).
		Str("media_url", post.MediaURL).
		Msg("Created post")
	return nil
}

func main() {
	logger := di.ProvideLambdaLogger("new-post")
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
		wrappedHandler := func(ctx context.Context, event events.S3Event) error {
			ctx = logger.WithContext(ctx)
			return handler.HandleS3Event(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "new-post",
		Usage: "Simulate the S3 event of an uploaded picture",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB posts table",
				EnvVars:  []string{"POSTS_TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "distribution",
				Usage:    "CloudFront domain serving the media bucket",
				EnvVars:  []string{"CLOUDFRONT_DIST"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "bucket",
				Usage:    "S3 bucket name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "key",
				Usage:    "S3 object key (e.g., {postId}.jpg)",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			handler, err := NewHandler(ctx, Config{
				TableName:    c.String("table-name"),
				Distribution: c.String("distribution"),
			})
			if err != nil {
				return err
			}

			event := events.S3Event{
				Records: []events.S3EventRecord{
					{
						S3: events.S3Entity{
							Bucket: events.S3Bucket{
								Name: c.String("bucket"),
							},
							Object: events.S3Object{
								Key: c.String("key"),
							},
						},
					},
				},
			}
			return handler.HandleS3Event(ctx, event)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

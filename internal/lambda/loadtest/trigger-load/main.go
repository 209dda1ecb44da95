package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/dao/postdao"
	"github.com/savaki/aws-bootstrap-kit/internal/di"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/urfave/cli/v2"
)

const (
	// MaxSleep bounds the random pause between two calls of a virtual user
	MaxSleep = 2 * time.Second

	// DislikeRatio is the share of liked pictures disliked right after
	DislikeRatio = 0.3

	pictureContentType = "image/jpg"
)

type Config struct {
	UserPoolID    string `env:"USER_POOL_ID,required"`
	ClientID      string `env:"CLIENT_ID,required"`
	APIURL        string `env:"API_URL,required"`
	PictureBucket string `env:"PICTURE_BUCKET,required"`
	PictureKey    string `env:"PICTURE_KEY,required"`
	Password      string `env:"DEFAULT_PASSWORD" envDefault:"Password1/"`
}

// CognitoAuth signs virtual users in
type CognitoAuth interface {
	AdminInitiateAuth(ctx context.Context, params *cognitoidentityprovider.AdminInitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminInitiateAuthOutput, error)
}

// S3Getter downloads the picture uploaded by virtual users
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// HTTPClient calls the posts API and uploads pictures
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// PreparedPost is the response of PUT /preparepost
type PreparedPost struct {
	URL       string `json:"url"`
	PostID    string `json:"postid"`
	UserID    string `json:"userid"`
	CreatedAt string `json:"createdat"`
	OwnerName string `json:"ownername"`
}

type voteRequest struct {
	User string `json:"user"`
	Post string `json:"post"`
}

type Handler struct {
	cognito    CognitoAuth
	s3Client   S3Getter
	httpClient HTTPClient
	cfg        Config
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	random     *rand.Rand
}

func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewHandlerWithDeps(
		cognitoidentityprovider.NewFromConfig(awsCfg),
		s3.NewFromConfig(awsCfg),
		http.DefaultClient,
		cfg,
	), nil
}

// NewHandlerWithDeps creates a Handler with injected dependencies (for testing)
func NewHandlerWithDeps(cognito CognitoAuth, s3Client S3Getter, httpClient HTTPClient, cfg Config) *Handler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.Password == "" {
		cfg.Password = models.LoadTestDefaultPassword
	}
	return &Handler{
		cognito:    cognito,
		s3Client:   s3Client,
		httpClient: httpClient,
		cfg:        cfg,
		now:        time.Now,
		sleep:      sleep,
		random:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (h *Handler) randomSleep(ctx context.Context) error {
	return h.sleep(ctx, time.Duration(h.random.Int64N(int64(MaxSleep))))
}

// HandleTriggerLoad runs the scenario of one virtual user until the test duration elapses
func (h *Handler) HandleTriggerLoad(ctx context.Context, user models.LoadTestUser) (models.StepResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("user", user.UserName).Logger()
	ctx = logger.WithContext(ctx)

	likes := user.NumberOfLikesPerUser
	if likes == 0 {
		likes = models.DefaultLoadTestLikes
	}
	minutes := user.TestDurationMinutes
	if minutes == 0 {
		minutes = models.DefaultLoadTestMinutes
	}

	token, err := h.signIn(ctx, user.UserName)
	if err != nil {
		return models.StepResult{}, err
	}

	picture, err := h.downloadPicture(ctx)
	if err != nil {
		return models.StepResult{}, err
	}

	logger.Info().Int("duration_minutes", minutes).Msg("Scenario started")

	deadline := h.now().Add(time.Duration(minutes) * time.Minute)
	for h.now().Before(deadline) {
		if err := h.iterate(ctx, user.UserName, token, picture, likes); err != nil {
			return models.StepResult{}, err
		}
	}

	logger.Info().Msg("Scenario finished")
	return models.StepResult{StatusCode: http.StatusOK}, nil
}

func (h *Handler) iterate(ctx context.Context, userName, token string, picture []byte, likes int) error {
	logger := zerolog.Ctx(ctx)

	// 1. list pictures
	var pics []postdao.Record
	if err := h.callAPI(ctx, token, http.MethodGet, "/", nil, &pics); err != nil {
		return fmt.Errorf("failed to get the list of pictures: %w", err)
	}
	logger.Info().Int("count", len(pics)).Msg("Got pictures")
	if err := h.randomSleep(ctx); err != nil {
		return err
	}

	// 2. upload a picture
	var prepared PreparedPost
	if err := h.callAPI(ctx, token, http.MethodPut, "/preparepost", map[string]string{"user": userName}, &prepared); err != nil {
		return fmt.Errorf("failed to get the URL to post a picture: %w", err)
	}
	if prepared.URL == "" {
		return fmt.Errorf("failed to get the URL to post a picture: empty url")
	}
	if err := h.upload(ctx, prepared, picture); err != nil {
		return err
	}
	logger.Info().Str("post", prepared.PostID).Msg("Picture uploaded")
	if err := h.randomSleep(ctx); err != nil {
		return err
	}

	// 3. like, and sometimes dislike, random pictures
	for i := 0; i < likes && len(pics) > 0; i++ {
		n := h.random.IntN(len(pics))
		pic := pics[n]
		pics = append(pics[:n], pics[n+1:]...)

		vote := voteRequest{User: pic.UserID, Post: pic.PostID}
		if err := h.callAPI(ctx, token, http.MethodPut, "/like", vote, nil); err != nil {
			return fmt.Errorf("failed to like post %s: %w", pic.PostID, err)
		}
		logger.Info().Str("post", pic.PostID).Msg("Picture liked")
		if err := h.randomSleep(ctx); err != nil {
			return err
		}

		if h.random.Float64() < DislikeRatio {
			if err := h.callAPI(ctx, token, http.MethodPut, "/dislike", vote, nil); err != nil {
				return fmt.Errorf("failed to dislike post %s: %w", pic.PostID, err)
			}
			logger.Info().Str("post", pic.PostID).Msg("Picture disliked")
			if err := h.randomSleep(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

func (h *Handler) signIn(ctx context.Context, userName string) (string, error) {
	out, err := h.cognito.AdminInitiateAuth(ctx, &cognitoidentityprovider.AdminInitiateAuthInput{
		UserPoolId: aws.String(h.cfg.UserPoolID),
		ClientId:   aws.String(h.cfg.ClientID),
		AuthFlow:   cognitotypes.AuthFlowTypeAdminUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": userName,
			"PASSWORD": h.cfg.Password,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign in %s: %w", userName, err)
	}
	if out.AuthenticationResult == nil || aws.ToString(out.AuthenticationResult.IdToken) == "" {
		return "", fmt.Errorf("failed to sign in %s: missing auth token", userName)
	}
	return aws.ToString(out.AuthenticationResult.IdToken), nil
}

func (h *Handler) downloadPicture(ctx context.Context) ([]byte, error) {
	out, err := h.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.cfg.PictureBucket),
		Key:    aws.String(h.cfg.PictureKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get picture s3://%s/%s: %w", h.cfg.PictureBucket, h.cfg.PictureKey, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read picture: %w", err)
	}
	return data, nil
}

func (h *Handler) callAPI(ctx context.Context, token, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	url := strings.TrimRight(h.cfg.APIURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Aud", h.cfg.ClientID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (h *Handler) upload(ctx context.Context, prepared PreparedPost, picture []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, prepared.URL, bytes.NewReader(picture))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", pictureContentType)
	req.Header.Set("x-amz-meta-"+postdao.MetaUserID, prepared.UserID)
	req.Header.Set("x-amz-meta-"+postdao.MetaPostID, prepared.PostID)
	req.Header.Set("x-amz-meta-"+postdao.MetaCreatedAt, prepared.CreatedAt)
	req.Header.Set("x-amz-meta-"+postdao.MetaOwnerName, prepared.OwnerName)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post picture: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post picture: status %d", resp.StatusCode)
	}
	return nil
}

func main() {
	logger := di.ProvideLambdaLogger("trigger-load")
	ctx := logger.WithContext(context.Background())

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

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		wrappedHandler := func(ctx context.Context, user models.LoadTestUser) (models.StepResult, error) {
			ctx = logger.WithContext(ctx)
			return handler.HandleTriggerLoad(ctx, user)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "trigger-load",
		Usage: "Run the scenario of one virtual user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Virtual user name",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "likes",
				Usage: "Likes per iteration",
				Value: models.DefaultLoadTestLikes,
			},
			&cli.IntFlag{
				Name:  "minutes",
				Usage: "Test duration in minutes",
				Value: 1,
			},
		},
		Action: func(c *cli.Context) error {
			_, err := handler.HandleTriggerLoad(ctx, models.LoadTestUser{
				UserName:             c.String("user"),
				NumberOfLikesPerUser: c.Int("likes"),
				TestDurationMinutes:  c.Int("minutes"),
			})
			return err
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

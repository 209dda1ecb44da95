package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/dao/postdao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	headObjectFunc func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

func (m *mockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headObjectFunc == nil {
		return nil, errors.New("headObjectFunc not set")
	}
	return m.headObjectFunc(ctx, params, optFns...)
}

type mockPosts struct {
	createFunc func(ctx context.Context, record postdao.Record) error
	created    []postdao.Record
}

func (m *mockPosts) Create(ctx context.Context, record postdao.Record) error {
	if m.createFunc == nil {
		return errors.New("createFunc not set")
	}
	if err := m.createFunc(ctx, record); err != nil {
		return err
	}
	m.created = append(m.created, record)
	return nil
}

func testContext() context.Context {
	logger := zerolog.New(io.Discard)
	return logger.WithContext(context.Background())
}

func s3Event(bucket string, keys ...string) events.S3Event {
	var event events.S3Event
	for _, key := range keys {
		event.Records = append(event.Records, events.S3EventRecord{
			S3: events.S3Entity{
				Bucket: events.S3Bucket{Name: bucket},
				Object: events.S3Object{Key: key},
			},
		})
	}
	return event
}

func metadataFor(key string) map[string]string {
	postID := key[:len(key)-len(".jpg")]
	return map[string]string{
		"userid":    "alice",
		"postid":    postID,
		"createdat": "1714557072",
		"ownername": "alice",
	}
}

func TestHandleS3Event(t *testing.T) {
	okPosts := func() *mockPosts {
		return &mockPosts{createFunc: func(ctx context.Context, record postdao.Record) error { return nil }}
	}

	t.Run("creates a post per uploaded picture", func(t *testing.T) {
		s3Client := &mockS3Client{
			headObjectFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
				assert.Equal(t, "media", aws.ToString(params.Bucket))
				return &s3.HeadObjectOutput{Metadata: metadataFor(aws.ToString(params.Key))}, nil
			},
		}
		posts := okPosts()

		handler := NewHandlerWithDeps(s3Client, posts, "d111111abcdef8.cloudfront.net")
		err := handler.HandleS3Event(testContext(), s3Event("media", "p1.jpg", "p2.jpg"))
		require.NoError(t, err)

		require.Len(t, posts.created, 2)
		assert.Equal(t, postdao.Record{
			UserID:    "alice",
			PostID:    "p1",
			CreatedAt: "1714557072",
			OwnerName: "alice",
			MediaURL:  "https://d111111abcdef8.cloudfront.net/p1.jpg",
		}, posts.created[0])
		assert.Equal(t, "p2", posts.created[1].PostID)
	})

	t.Run("decoded key from the event payload", func(t *testing.T) {
		var event events.S3Event
		require.NoError(t, json.Unmarshal([]byte(`{"Records":[{"s3":{"bucket":{"name":"media"},"object":{"key":"my+pic.jpg"}}}]}`), &event))

		var gotKey string
		s3Client := &mockS3Client{
			headObjectFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
				gotKey = aws.ToString(params.Key)
				return &s3.HeadObjectOutput{Metadata: metadataFor(gotKey)}, nil
			},
		}

		err := NewHandlerWithDeps(s3Client, okPosts(), "cdn").HandleS3Event(testContext(), event)
		require.NoError(t, err)
		assert.Equal(t, "my pic.jpg", gotKey)
	})

	t.Run("object without metadata is ignored", func(t *testing.T) {
		s3Client := &mockS3Client{
			headObjectFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
				return &s3.HeadObjectOutput{}, nil
			},
		}
		posts := okPosts()

		err := NewHandlerWithDeps(s3Client, posts, "cdn").HandleS3Event(testContext(), s3Event("media", "stray.jpg"))
		require.NoError(t, err)
		assert.Empty(t, posts.created)
	})

	t.Run("head failure", func(t *testing.T) {
		err := NewHandlerWithDeps(&mockS3Client{}, okPosts(), "cdn").HandleS3Event(testContext(), s3Event("media", "p1.jpg"))
		assert.Error(t, err)
	})

	t.Run("storage failure", func(t *testing.T) {
		s3Client := &mockS3Client{
			headObjectFunc: func(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
				return &s3.HeadObjectOutput{Metadata: metadataFor("p1.jpg")}, nil
			},
		}

		err := NewHandlerWithDeps(s3Client, &mockPosts{}, "cdn").HandleS3Event(testContext(), s3Event("media", "p1.jpg"))
		assert.ErrorContains(t, err, "failed to save post")
	})
}

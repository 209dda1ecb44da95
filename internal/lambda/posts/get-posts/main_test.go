package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/dao/postdao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPosts struct {
	findRecentFunc func(ctx context.Context, limit int) ([]postdao.Record, error)
}

func (m *mockPosts) FindRecent(ctx context.Context, limit int) ([]postdao.Record, error) {
	if m.findRecentFunc == nil {
		return nil, errors.New("findRecentFunc not set")
	}
	return m.findRecentFunc(ctx, limit)
}

func testContext() context.Context {
	logger := zerolog.New(io.Discard)
	return logger.WithContext(context.Background())
}

func TestHandleRequest(t *testing.T) {
	t.Run("returns a page of posts", func(t *testing.T) {
		var gotLimit int
		posts := &mockPosts{
			findRecentFunc: func(ctx context.Context, limit int) ([]postdao.Record, error) {
				gotLimit = limit
				return []postdao.Record{
					{UserID: "alice", PostID: "p1", Likes: 2},
					{UserID: "bob", PostID: "p2"},
				}, nil
			},
		}

		resp, err := NewHandlerWithDeps(posts).HandleRequest(testContext(), events.APIGatewayProxyRequest{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 20, gotLimit)
		assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

		var got []postdao.Record
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &got))
		assert.Len(t, got, 2)
		assert.Equal(t, "alice", got[0].UserID)
	})

	t.Run("empty table returns an empty list", func(t *testing.T) {
		posts := &mockPosts{
			findRecentFunc: func(ctx context.Context, limit int) ([]postdao.Record, error) {
				return []postdao.Record{}, nil
			},
		}

		resp, err := NewHandlerWithDeps(posts).HandleRequest(testContext(), events.APIGatewayProxyRequest{})
		require.NoError(t, err)
		assert.Equal(t, "[]", resp.Body)
	})

	t.Run("storage failure", func(t *testing.T) {
		resp, err := NewHandlerWithDeps(&mockPosts{}).HandleRequest(testContext(), events.APIGatewayProxyRequest{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

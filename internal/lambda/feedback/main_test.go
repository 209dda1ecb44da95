package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/apigw"
	"github.com/savaki/aws-bootstrap-kit/internal/dao/feedbackdao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	createFunc func(ctx context.Context, input feedbackdao.CreateInput) (*feedbackdao.Record, error)
	inputs     []feedbackdao.CreateInput
}

func (m *mockStore) Create(ctx context.Context, input feedbackdao.CreateInput) (*feedbackdao.Record, error) {
	m.inputs = append(m.inputs, input)
	if m.createFunc == nil {
		return nil, errors.New("createFunc not set")
	}
	return m.createFunc(ctx, input)
}

func okStore() *mockStore {
	return &mockStore{
		createFunc: func(ctx context.Context, input feedbackdao.CreateInput) (*feedbackdao.Record, error) {
			return &feedbackdao.Record{
				Key:     feedbackdao.Key(strings.ToLower(input.Email) + ":2024-05-01T10:11:12.000Z"),
				Email:   input.Email,
				Subject: input.Subject,
			}, nil
		},
	}
}

func serve(t *testing.T, handler *Handler, method, origin, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/feedback", r)
	if origin != "" {
		req.Header.Set("origin", origin)
	}

	rec := httptest.NewRecorder()
	apigw.LoggingMiddleware(zerolog.New(io.Discard))(handler.Router()).ServeHTTP(rec, req)
	return rec
}

func TestFeedback(t *testing.T) {
	const body = `{"name":"Jane","email":"Jane@Example.com","subject":"Hi","details":"Nice page"}`

	t.Run("stores feedback", func(t *testing.T) {
		store := okStore()
		rec := serve(t, NewHandlerWithDeps(store, "https://www.example.com"), http.MethodPost, "https://www.example.com", body)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"success"}`, rec.Body.String())
		assert.Equal(t, "https://www.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Len(t, store.inputs, 1)
		assert.Equal(t, feedbackdao.CreateInput{
			Name:    "Jane",
			Email:   "Jane@Example.com",
			Subject: "Hi",
			Details: "Nice page",
		}, store.inputs[0])
	})

	t.Run("local origin is always allowed", func(t *testing.T) {
		rec := serve(t, NewHandlerWithDeps(okStore(), ""), http.MethodPost, LocalOrigin, body)
		assert.Equal(t, LocalOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin is not echoed", func(t *testing.T) {
		rec := serve(t, NewHandlerWithDeps(okStore(), "https://www.example.com"), http.MethodPost, "https://evil.example.org", body)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("missing body", func(t *testing.T) {
		store := okStore()
		rec := serve(t, NewHandlerWithDeps(store, ""), http.MethodPost, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Missing paramters"}`, rec.Body.String())
		assert.Empty(t, store.inputs)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := serve(t, NewHandlerWithDeps(okStore(), ""), http.MethodPost, "", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		store := okStore()
		rec := serve(t, NewHandlerWithDeps(store, ""), http.MethodPost, "", `{"email":"not-an-email"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid email"}`, rec.Body.String())
		assert.Empty(t, store.inputs)
	})

	t.Run("storage failure", func(t *testing.T) {
		store := &mockStore{}
		rec := serve(t, NewHandlerWithDeps(store, ""), http.MethodPost, "", body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		rec := serve(t, NewHandlerWithDeps(okStore(), ""), http.MethodOptions, LocalOrigin, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "OPTIONS,POST", rec.Header().Get("Access-Control-Allow-Methods"))
	})
}

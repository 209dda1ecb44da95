package main

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTrusted(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{email: "jane@octank.com", want: true},
		{email: "Jane@OCTANK.com", want: true},
		{email: "jane@example.com", want: false},
		{email: "jane@sub.octank.com", want: false},
		{email: "octank.com", want: false},
		{email: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTrusted(tt.email, "octank.com"))
		})
	}
}

func TestHandlePreSignup(t *testing.T) {
	ctx := zerolog.New(io.Discard).WithContext(context.Background())

	newEvent := func(email string) events.CognitoEventUserPoolsPreSignup {
		var event events.CognitoEventUserPoolsPreSignup
		event.UserName = "loadtestuser0"
		event.Request.UserAttributes = map[string]string{"email": email}
		return event
	}

	t.Run("trusted domain is confirmed", func(t *testing.T) {
		out, err := NewHandler("").HandlePreSignup(ctx, newEvent("loadtestuser0@octank.com"))
		require.NoError(t, err)
		assert.True(t, out.Response.AutoConfirmUser)
		assert.True(t, out.Response.AutoVerifyEmail)
		assert.Equal(t, "loadtestuser0", out.UserName)
	})

	t.Run("other domains go through verification", func(t *testing.T) {
		out, err := NewHandler("").HandlePreSignup(ctx, newEvent("jane@example.com"))
		require.NoError(t, err)
		assert.False(t, out.Response.AutoConfirmUser)
		assert.False(t, out.Response.AutoVerifyEmail)
	})

	t.Run("configured domain", func(t *testing.T) {
		out, err := NewHandler("Example.com").HandlePreSignup(ctx, newEvent("jane@example.com"))
		require.NoError(t, err)
		assert.True(t, out.Response.AutoConfirmUser)
	})
}

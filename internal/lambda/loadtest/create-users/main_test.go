package main

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCognito struct {
	mu         sync.Mutex
	signUpFunc func(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	calls      []*cognitoidentityprovider.SignUpInput
}

func (m *mockCognito) SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()

	if m.signUpFunc == nil {
		return nil, errors.New("signUpFunc not set")
	}
	return m.signUpFunc(ctx, params, optFns...)
}

func testContext() context.Context {
	logger := zerolog.New(io.Discard)
	return logger.WithContext(context.Background())
}

func users(names ...string) []models.LoadTestUser {
	var out []models.LoadTestUser
	for _, name := range names {
		out = append(out, models.LoadTestUser{UserName: name})
	}
	return out
}

func TestHandleCreateUsers(t *testing.T) {
	t.Run("signs up every user", func(t *testing.T) {
		cognito := &mockCognito{
			signUpFunc: func(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
				return &cognitoidentityprovider.SignUpOutput{}, nil
			},
		}

		out, err := NewHandlerWithDeps(cognito, "client", "").HandleCreateUsers(testContext(), users("loadtestuser0", "loadtestuser1"))
		require.NoError(t, err)
		assert.Equal(t, 200, out.StatusCode)
		require.Len(t, cognito.calls, 2)

		var names []string
		for _, call := range cognito.calls {
			names = append(names, aws.ToString(call.Username))
			assert.Equal(t, "client", aws.ToString(call.ClientId))
			assert.Equal(t, "Password1/", aws.ToString(call.Password))
			require.Len(t, call.UserAttributes, 1)
			assert.Equal(t, aws.ToString(call.Username)+"@octank.com", aws.ToString(call.UserAttributes[0].Value))
		}
		sort.Strings(names)
		assert.Equal(t, []string{"loadtestuser0", "loadtestuser1"}, names)
	})

	t.Run("existing users are kept", func(t *testing.T) {
		cognito := &mockCognito{
			signUpFunc: func(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
				return nil, &types.UsernameExistsException{Message: aws.String("exists")}
			},
		}

		_, err := NewHandlerWithDeps(cognito, "client", "").HandleCreateUsers(testContext(), users("loadtestuser0"))
		assert.NoError(t, err)
	})

	t.Run("other errors fail the step", func(t *testing.T) {
		_, err := NewHandlerWithDeps(&mockCognito{}, "client", "").HandleCreateUsers(testContext(), users("loadtestuser0"))
		assert.Error(t, err)
	})
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "loadtestuser3@octank.com", Email("loadtestuser3"))
}

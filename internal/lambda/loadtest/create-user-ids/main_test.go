package main

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCreateUserIds(t *testing.T) {
	ctx := zerolog.New(io.Discard).WithContext(context.Background())

	t.Run("one user per requested user", func(t *testing.T) {
		out, err := HandleCreateUserIds(ctx, models.LoadTestInput{
			NumberOfUsers:        3,
			NumberOfLikesPerUser: 7,
			TestDurationMinutes:  2,
		})
		require.NoError(t, err)
		assert.Equal(t, 200, out.StatusCode)
		assert.Equal(t, []models.LoadTestUser{
			{UserName: "loadtestuser0", NumberOfLikesPerUser: 7, TestDurationMinutes: 2},
			{UserName: "loadtestuser1", NumberOfLikesPerUser: 7, TestDurationMinutes: 2},
			{UserName: "loadtestuser2", NumberOfLikesPerUser: 7, TestDurationMinutes: 2},
		}, out.UserNames)
	})

	t.Run("no users", func(t *testing.T) {
		out, err := HandleCreateUserIds(ctx, models.LoadTestInput{})
		require.NoError(t, err)
		assert.Empty(t, out.UserNames)
	})

	t.Run("state machine payload shape", func(t *testing.T) {
		out, err := HandleCreateUserIds(ctx, models.LoadTestInput{NumberOfUsers: 1, NumberOfLikesPerUser: 1, TestDurationMinutes: 1})
		require.NoError(t, err)

		data, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"statusCode": 200,
			"userNames": [{"UserName": "loadtestuser0", "NumberOfLikesPerUser": 1, "TestDurationMinutes": 1}]
		}`, string(data))
	})
}

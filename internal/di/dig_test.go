package di

import (
	"context"
	"errors"
	"testing"

	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/orchestrator"
	"github.com/savaki/aws-bootstrap-kit/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageSource struct {
	Stages models.Stages
}

type stageReport struct {
	Source *stageSource
	Env    string
}

// offline keeps the container away from shared config profiles and SSM
func offline(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv(DisableSSMEnvVar, "true")
	t.Setenv(constants.CodeBuildEnvVar, "")
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "")
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{
			name: "core providers only",
		},
		{
			name: "extra provider",
			opts: []Option{
				WithProviders(func() *stageSource { return &stageSource{} }),
			},
		},
		{
			name: "duplicate provider",
			opts: []Option{
				WithProviders(
					func() *stageSource { return &stageSource{} },
					func() *stageSource { return &stageSource{} },
				),
			},
			wantErr: true,
		},
		{
			name: "provider replacing a core type",
			opts: []Option{
				WithProviders(func() *services.Organizations { return nil }),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			container, err := New("dev", tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, container)
		})
	}
}

func TestNew_Options(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")

	container, err := New("prd", WithContext(ctx), WithProfile("sandbox"), WithRegion("eu-west-1"))
	require.NoError(t, err)

	err = container.Invoke(func(env string, got context.Context, profile Profile, region Region) {
		assert.Equal(t, "prd", env)
		assert.Equal(t, "value", got.Value(key{}))
		assert.Equal(t, Profile("sandbox"), profile)
		assert.Equal(t, Region("eu-west-1"), region)
	})
	require.NoError(t, err)
}

func TestNew_DefaultProfile(t *testing.T) {
	container, err := New("dev")
	require.NoError(t, err)

	profile, err := Get[Profile](container)
	require.NoError(t, err)
	assert.Equal(t, Profile(constants.CICDProfile), profile)
}

func TestGet(t *testing.T) {
	t.Run("resolves dependencies of a provider", func(t *testing.T) {
		container, err := New("dev", WithProviders(
			func() *stageSource {
				return &stageSource{Stages: models.Stages{{Name: "Dev", AccountID: "111111111111", Order: 1}}}
			},
			func(source *stageSource, env string) *stageReport {
				return &stageReport{Source: source, Env: env}
			},
		))
		require.NoError(t, err)

		report, err := Get[*stageReport](container)
		require.NoError(t, err)
		assert.Equal(t, "dev", report.Env)
		assert.Equal(t, []string{"111111111111"}, report.Source.Stages.AccountIDs())
	})

	t.Run("returns root cause of provider error", func(t *testing.T) {
		providerErr := errors.New("organization unavailable")
		container, err := New("dev", WithProviders(func() (*stageSource, error) {
			return nil, providerErr
		}))
		require.NoError(t, err)

		_, err = Get[*stageSource](container)
		assert.ErrorIs(t, err, providerErr)
	})

	t.Run("missing type", func(t *testing.T) {
		container, err := New("dev")
		require.NoError(t, err)

		_, err = Get[*stageReport](container)
		assert.Error(t, err)
	})
}

func TestMustGet(t *testing.T) {
	container, err := New("dev")
	require.NoError(t, err)

	assert.Equal(t, "dev", MustGet[string](container))
	assert.Panics(t, func() {
		MustGet[*stageReport](container)
	})
}

func TestContainer_AppConfig(t *testing.T) {
	offline(t)
	t.Setenv("CDK_QUALIFIER", "")
	t.Setenv("GITHUB_TOKEN_SECRET", "")
	t.Setenv("LOAD_TEST_STATE_MACHINE_ARN", "arn:aws:states:eu-west-1:123456789012:stateMachine:LoadTest")

	container, err := New("dev", WithProfile(""))
	require.NoError(t, err)

	cfg, err := Get[*services.Config](container)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultQualifier, cfg.Qualifier)
	assert.Equal(t, constants.GitHubTokenSecret, cfg.GitHubTokenSecret)

	o, err := Get[*orchestrator.Orchestrator](container)
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestContainer_OrchestratorRequiresArn(t *testing.T) {
	offline(t)
	t.Setenv("LOAD_TEST_STATE_MACHINE_ARN", "")

	container, err := New("dev", WithProfile(""))
	require.NoError(t, err)

	_, err = Get[*orchestrator.Orchestrator](container)
	assert.ErrorContains(t, err, "LOAD_TEST_STATE_MACHINE_ARN")
}

func TestContainer_StageRegistryRequiresSSM(t *testing.T) {
	offline(t)

	container, err := New("dev", WithProfile(""))
	require.NoError(t, err)

	_, err = Get[*services.StageRegistry](container)
	assert.ErrorContains(t, err, DisableSSMEnvVar)
}

func TestProvideParameterStore(t *testing.T) {
	store := ProvideParameterStore(context.Background(), nil, "dev")
	assert.IsType(t, &services.EnvParameterStore{}, store)
}

func TestSharedProfile(t *testing.T) {
	tests := []struct {
		name      string
		codebuild string
		lambda    string
		want      string
	}{
		{name: "local", want: "cicd"},
		{name: "codebuild", codebuild: "build:1234", want: ""},
		{name: "lambda", lambda: "127.0.0.1:9001", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(constants.CodeBuildEnvVar, tt.codebuild)
			t.Setenv("AWS_LAMBDA_RUNTIME_API", tt.lambda)
			assert.Equal(t, tt.want, SharedProfile("cicd"))
		})
	}
}

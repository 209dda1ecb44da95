package di

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/services"
)

// DisableSSMEnvVar switches every SSM backed provider to its local fallback
const DisableSSMEnvVar = "DISABLE_SSM"

func ssmDisabled() bool {
	return os.Getenv(DisableSSMEnvVar) == "true"
}

// ProvideSSMClient returns nil when DISABLE_SSM=true
func ProvideSSMClient(awsConfig aws.Config) *ssm.Client {
	if ssmDisabled() {
		return nil
	}
	return ssm.NewFromConfig(awsConfig)
}

// ProvideParameterStore reads /<env>/aws-bootstrap-kit from SSM, or the
// process environment without an SSM client
func ProvideParameterStore(ctx context.Context, ssmClient *ssm.Client, env string) services.ParameterStore {
	if ssmClient == nil {
		zerolog.Ctx(ctx).Debug().Str("env", env).Msg("Reading tooling config from environment variables")
		return services.NewEnvParameterStore(env)
	}
	return services.NewSSMParameterStore(ssmClient, env)
}

// ProvideAppConfig loads the tooling config once per container
func ProvideAppConfig(ctx context.Context, store services.ParameterStore) (*services.Config, error) {
	cfg, err := store.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tooling config: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("qualifier", cfg.Qualifier).
		Str("pipelineRegion", cfg.PipelineRegion).
		Bool("loadTestConfigured", cfg.LoadTestStateMachineArn != "").
		Msg("Loaded tooling config")

	return cfg, nil
}

// ProvideStageRegistry requires SSM; the registry has no environment fallback
func ProvideStageRegistry(ssmClient *ssm.Client, env string) (*services.StageRegistry, error) {
	if ssmClient == nil {
		return nil, fmt.Errorf("stage registry requires SSM, unset %s", DisableSSMEnvVar)
	}
	return services.NewStageRegistry(ssmClient, env), nil
}

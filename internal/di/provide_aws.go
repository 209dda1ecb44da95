package di

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/orchestrator"
	"github.com/savaki/aws-bootstrap-kit/internal/services"
)

// SharedProfile returns the shared config profile to load, or "" when
// running inside CodeBuild or Lambda where credentials come from the
// execution role
func SharedProfile(profile string) string {
	if os.Getenv(constants.CodeBuildEnvVar) != "" {
		return ""
	}
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		return ""
	}
	return profile
}

// LoadAWSConfig loads the default AWS config honoring the profile rule of SharedProfile
func LoadAWSConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if p := SharedProfile(profile); p != "" {
		opts = append(opts, config.WithSharedConfigProfile(p))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

func ProvideAWSConfig(ctx context.Context, profile Profile, region Region) (aws.Config, error) {
	return LoadAWSConfig(ctx, string(profile), string(region))
}

func ProvideOrganizations(cfg aws.Config) *services.Organizations {
	return services.NewOrganizationsFromConfig(cfg)
}

func ProvideSTSClient(cfg aws.Config) *sts.Client {
	return sts.NewFromConfig(cfg)
}

func ProvideCloudFormationClient(cfg aws.Config) *cloudformation.Client {
	return cloudformation.NewFromConfig(cfg)
}

func ProvideIAMClient(cfg aws.Config) *iam.Client {
	return iam.NewFromConfig(cfg)
}

func ProvideSecretsManagerClient(cfg aws.Config) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(cfg)
}

func ProvideDynamoDB(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

func ProvideStepFunctions(cfg aws.Config) *sfn.Client {
	return sfn.NewFromConfig(cfg)
}

func ProvideS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

func ProvideCognitoClient(cfg aws.Config) *cognitoidentityprovider.Client {
	return cognitoidentityprovider.NewFromConfig(cfg)
}

func ProvideBootstrapChecker(cfg aws.Config, stsClient *sts.Client) *services.BootstrapChecker {
	factory := services.NewAssumeRoleCloudFormationFactory(stsClient, cfg)
	return services.NewBootstrapChecker(factory)
}

func ProvidePreflight(iamClient *iam.Client, stsClient *sts.Client, smClient *secretsmanager.Client, cfClient *cloudformation.Client) *services.Preflight {
	return services.NewPreflight(
		services.NewIAMService(iamClient, stsClient),
		services.NewSecretsManagerService(smClient),
		cfClient,
	)
}

func ProvideOrchestrator(sfnClient *sfn.Client, config *services.Config) (*orchestrator.Orchestrator, error) {
	if config.LoadTestStateMachineArn == "" {
		return nil, fmt.Errorf("LOAD_TEST_STATE_MACHINE_ARN required")
	}
	return orchestrator.New(sfnClient, config.LoadTestStateMachineArn), nil
}

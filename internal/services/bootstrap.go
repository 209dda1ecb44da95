package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/errors"
)

// CloudFormationClient is the subset of CloudFormation needed to inspect the toolkit stack
type CloudFormationClient interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// CloudFormationFactory creates CloudFormation clients acting as roleARN in region
type CloudFormationFactory interface {
	CreateClient(ctx context.Context, roleARN, sessionName, region string) (CloudFormationClient, error)
}

// AssumeRoleCloudFormationFactory creates CloudFormation clients using STS role assumption
type AssumeRoleCloudFormationFactory struct {
	stsClient stscreds.AssumeRoleAPIClient
	cfg       aws.Config
}

// NewAssumeRoleCloudFormationFactory returns a factory assuming roles through stsClient
func NewAssumeRoleCloudFormationFactory(stsClient stscreds.AssumeRoleAPIClient, cfg aws.Config) *AssumeRoleCloudFormationFactory {
	return &AssumeRoleCloudFormationFactory{
		stsClient: stsClient,
		cfg:       cfg,
	}
}

// CreateClient creates a CloudFormation client for the target role and region
func (f *AssumeRoleCloudFormationFactory) CreateClient(_ context.Context, roleARN, sessionName, region string) (CloudFormationClient, error) {
	creds := stscreds.NewAssumeRoleProvider(f.stsClient, roleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = sessionName
	})
	targetCfg := f.cfg.Copy()
	targetCfg.Credentials = aws.NewCredentialsCache(creds)
	targetCfg.Region = region

	return cloudformation.NewFromConfig(targetCfg), nil
}

// BootstrapChecker tells whether an account has been bootstrapped for CDK
// deployments with a given qualifier
type BootstrapChecker struct {
	factory CloudFormationFactory
}

// NewBootstrapChecker returns a checker using factory to reach target accounts
func NewBootstrapChecker(factory CloudFormationFactory) *BootstrapChecker {
	return &BootstrapChecker{factory: factory}
}

// IsDeployable assumes the CDK deploy role of accountID and checks that the
// CDKToolkit stack in region was bootstrapped with qualifier. Failures are
// logged and reported as not deployable.
func (b *BootstrapChecker) IsDeployable(ctx context.Context, accountID, region, qualifier string) bool {
	logger := zerolog.Ctx(ctx)

	got, err := b.qualifier(ctx, accountID, region, qualifier)
	if err != nil {
		logger.Info().
			Err(err).
			Str("account", accountID).
			Str("region", region).
			Msg("Unable to verify bootstrap stack")
		return false
	}

	return got == qualifier
}

func (b *BootstrapChecker) qualifier(ctx context.Context, accountID, region, qualifier string) (string, error) {
	roleARN := constants.DeployRoleARN(accountID, region, qualifier)

	client, err := b.factory.CreateClient(ctx, roleARN, accountID, region)
	if err != nil {
		return "", fmt.Errorf("failed to create cloudformation client for %s: %w", roleARN, err)
	}

	result, err := client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(constants.ToolkitStackName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe stack %s: %w", constants.ToolkitStackName, err)
	}

	if len(result.Stacks) == 0 {
		return "", fmt.Errorf("%w: %s", errors.ErrStackNotFound, constants.ToolkitStackName)
	}

	for _, param := range result.Stacks[0].Parameters {
		if aws.ToString(param.ParameterKey) == constants.QualifierParameter {
			return aws.ToString(param.ParameterValue), nil
		}
	}

	return "", fmt.Errorf("%w: %s", errors.ErrQualifierNotFound, constants.ToolkitStackName)
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIAMClient struct {
	GetPolicyFunc func(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error)
}

func (m *mockIAMClient) GetPolicy(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
	if m.GetPolicyFunc != nil {
		return m.GetPolicyFunc(ctx, params, optFns...)
	}
	return nil, errors.New("GetPolicyFunc not set")
}

type mockSTSClient struct {
	GetCallerIdentityFunc func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func (m *mockSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if m.GetCallerIdentityFunc != nil {
		return m.GetCallerIdentityFunc(ctx, params, optFns...)
	}
	return nil, errors.New("GetCallerIdentityFunc not set")
}

type mockSecretsManagerClient struct {
	DescribeSecretFunc func(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error)
}

func (m *mockSecretsManagerClient) DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error) {
	if m.DescribeSecretFunc != nil {
		return m.DescribeSecretFunc(ctx, params, optFns...)
	}
	return nil, errors.New("DescribeSecretFunc not set")
}

type mockExportsClient struct {
	ListExportsFunc func(ctx context.Context, params *cloudformation.ListExportsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ListExportsOutput, error)
}

func (m *mockExportsClient) ListExports(ctx context.Context, params *cloudformation.ListExportsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ListExportsOutput, error) {
	if m.ListExportsFunc != nil {
		return m.ListExportsFunc(ctx, params, optFns...)
	}
	return nil, errors.New("ListExportsFunc not set")
}

const boundaryARN = "arn:aws:iam::123456789012:policy/CICDPipelinePermissionsBoundary"

func newTestPreflight(secretErr error, deleted bool, exports []cftypes.Export, policyErr error) *Preflight {
	stsClient := &mockSTSClient{
		GetCallerIdentityFunc: func(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
			return &sts.GetCallerIdentityOutput{
				Account: aws.String("123456789012"),
				Arn:     aws.String("arn:aws:sts::123456789012:assumed-role/Admin/me"),
				UserId:  aws.String("AROAEXAMPLE:me"),
			}, nil
		},
	}
	iamClient := &mockIAMClient{
		GetPolicyFunc: func(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error) {
			if policyErr != nil {
				return nil, policyErr
			}
			return &iam.GetPolicyOutput{}, nil
		},
	}
	secrets := &mockSecretsManagerClient{
		DescribeSecretFunc: func(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error) {
			if secretErr != nil {
				return nil, secretErr
			}
			out := &secretsmanager.DescribeSecretOutput{Name: params.SecretId}
			if deleted {
				out.DeletedDate = aws.Time(time.Now())
			}
			return out, nil
		},
	}
	exportsClient := &mockExportsClient{
		ListExportsFunc: func(ctx context.Context, params *cloudformation.ListExportsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ListExportsOutput, error) {
			return &cloudformation.ListExportsOutput{Exports: exports}, nil
		},
	}

	return NewPreflight(NewIAMService(iamClient, stsClient), NewSecretsManagerService(secrets), exportsClient)
}

func TestPreflight_Run(t *testing.T) {
	input := PreflightInput{SecretID: "GITHUB_TOKEN", BoundaryExport: "CICDPipelinePermissionsBoundaryArn"}
	boundary := []cftypes.Export{
		{Name: aws.String("Other"), Value: aws.String("x")},
		{Name: aws.String("CICDPipelinePermissionsBoundaryArn"), Value: aws.String(boundaryARN)},
	}

	t.Run("all checks pass", func(t *testing.T) {
		report, err := newTestPreflight(nil, false, boundary, nil).Run(context.Background(), input)
		require.NoError(t, err)
		assert.True(t, report.OK())
		assert.Equal(t, "123456789012", report.Identity.Account)
		require.Len(t, report.Checks, 4)
		assert.Equal(t, boundaryARN, report.Checks[3].Detail)
	})

	t.Run("missing secret", func(t *testing.T) {
		report, err := newTestPreflight(&smtypes.ResourceNotFoundException{Message: aws.String("nope")}, false, boundary, nil).Run(context.Background(), input)
		require.NoError(t, err)
		assert.False(t, report.OK())
		assert.Equal(t, "secret GITHUB_TOKEN not found", report.Checks[1].Detail)
	})

	t.Run("secret scheduled for deletion", func(t *testing.T) {
		report, err := newTestPreflight(nil, true, boundary, nil).Run(context.Background(), input)
		require.NoError(t, err)
		assert.False(t, report.Checks[1].OK)
	})

	t.Run("missing export", func(t *testing.T) {
		report, err := newTestPreflight(nil, false, nil, nil).Run(context.Background(), input)
		require.NoError(t, err)
		assert.False(t, report.OK())
		require.Len(t, report.Checks, 3)
		assert.Equal(t, "export CICDPipelinePermissionsBoundaryArn not found", report.Checks[2].Detail)
	})

	t.Run("missing policy", func(t *testing.T) {
		report, err := newTestPreflight(nil, false, boundary, &iamtypes.NoSuchEntityException{Message: aws.String("nope")}).Run(context.Background(), input)
		require.NoError(t, err)
		assert.False(t, report.OK())
		assert.False(t, report.Checks[3].OK)
	})

	t.Run("secrets manager failure aborts", func(t *testing.T) {
		_, err := newTestPreflight(errors.New("throttled"), false, boundary, nil).Run(context.Background(), input)
		assert.Error(t, err)
	})
}

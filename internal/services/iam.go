package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// IAMClient is the subset of IAM used by the preflight checks
type IAMClient interface {
	GetPolicy(ctx context.Context, params *iam.GetPolicyInput, optFns ...func(*iam.Options)) (*iam.GetPolicyOutput, error)
}

// STSClient is the subset of STS used to identify the caller
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Identity is the principal the tooling runs as
type Identity struct {
	Account string `json:"account"`
	ARN     string `json:"arn"`
	UserID  string `json:"userId"`
}

type IAMService struct {
	client    IAMClient
	stsClient STSClient
}

func NewIAMService(client IAMClient, stsClient STSClient) *IAMService {
	return &IAMService{
		client:    client,
		stsClient: stsClient,
	}
}

// GetCallerIdentity retrieves the account and principal of the current credentials
func (s *IAMService) GetCallerIdentity(ctx context.Context) (*Identity, error) {
	result, err := s.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}

	if result.Account == nil {
		return nil, fmt.Errorf("account ID is nil")
	}

	return &Identity{
		Account: aws.ToString(result.Account),
		ARN:     aws.ToString(result.Arn),
		UserID:  aws.ToString(result.UserId),
	}, nil
}

// PolicyExists reports whether the managed policy policyARN exists
func (s *IAMService) PolicyExists(ctx context.Context, policyARN string) (bool, error) {
	_, err := s.client.GetPolicy(ctx, &iam.GetPolicyInput{
		PolicyArn: aws.String(policyARN),
	})
	if err != nil {
		var noSuchEntity *types.NoSuchEntityException
		if errors.As(err, &noSuchEntity) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get policy %s: %w", policyARN, err)
	}
	return true, nil
}

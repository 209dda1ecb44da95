package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerClient is the subset of Secrets Manager used by the preflight checks
type SecretsManagerClient interface {
	DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error)
}

type SecretsManagerService struct {
	client SecretsManagerClient
}

func NewSecretsManagerService(client SecretsManagerClient) *SecretsManagerService {
	return &SecretsManagerService{
		client: client,
	}
}

// SecretExists reports whether secretID exists and is not scheduled for deletion.
// The value itself is never read.
func (s *SecretsManagerService) SecretExists(ctx context.Context, secretID string) (bool, error) {
	result, err := s.client.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe secret %s: %w", secretID, err)
	}

	return result.DeletedDate == nil, nil
}

package stages

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/savaki/aws-bootstrap-kit/internal/errors"
	"github.com/savaki/gox/slicex"
)

// Checker reports whether an account was bootstrapped in region with qualifier
type Checker interface {
	IsDeployable(ctx context.Context, accountID, region, qualifier string) bool
}

// Result is the deployability of one account
type Result struct {
	AccountID  string `json:"accountId"`
	Region     string `json:"region"`
	Deployable bool   `json:"deployable"`
}

// NotBootstrappedError is returned by VerifyAll for the first account that
// cannot be deployed to
type NotBootstrappedError struct {
	AccountID string
	Region    string
}

func (e *NotBootstrappedError) Error() string {
	return fmt.Sprintf("Account %s is not bootstrapped in %s. Make sure you deploy the pipeline in a deployable region.", e.AccountID, e.Region)
}

func (e *NotBootstrappedError) Unwrap() error {
	return errors.ErrNotBootstrapped
}

// VerifyAll checks each account in turn and stops at the first one that
// cannot be deployed to
func VerifyAll(ctx context.Context, checker Checker, accountIDs []string, region, qualifier string) error {
	logger := zerolog.Ctx(ctx)

	for _, accountID := range accountIDs {
		logger.Info().Msgf("Checking whether the target environment aws://%s/%s is deployable...", accountID, region)

		if !checker.IsDeployable(ctx, accountID, region, qualifier) {
			return &NotBootstrappedError{AccountID: accountID, Region: region}
		}
	}
	return nil
}

// Report checks every account with up to concurrency checks in flight.
// Results are in the order of accountIDs.
func Report(ctx context.Context, checker Checker, accountIDs []string, region, qualifier string, concurrency int) ([]Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	callback := func(ctx context.Context, accountID string) (Result, error) {
		return Result{
			AccountID:  accountID,
			Region:     region,
			Deployable: checker.IsDeployable(ctx, accountID, region, qualifier),
		}, nil
	}
	results, err := slicex.MapConcurrent(callback).
		Concurrency(concurrency).
		CollectErrors().
		DoValues(ctx, accountIDs...)
	if err != nil {
		return nil, fmt.Errorf("failed to check bootstrap status: %w", err)
	}

	return results, nil
}

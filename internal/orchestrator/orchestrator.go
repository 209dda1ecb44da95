package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/savaki/aws-bootstrap-kit/internal/errors"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/segmentio/ksuid"
)

// SFNClient is the subset of Step Functions used to drive load tests
type SFNClient interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
	DescribeExecution(ctx context.Context, params *sfn.DescribeExecutionInput, optFns ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error)
}

// Execution summarizes a load test execution
type Execution struct {
	ExecutionArn string     `json:"executionArn"`
	Status       string     `json:"status"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	StopDate     *time.Time `json:"stopDate,omitempty"`
	Output       string     `json:"output,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Orchestrator manages the LoadTest state machine lifecycle
type Orchestrator struct {
	sfnClient       SFNClient
	stateMachineArn string
}

// New creates a new Orchestrator instance
func New(sfnClient SFNClient, stateMachineArn string) *Orchestrator {
	return &Orchestrator{
		sfnClient:       sfnClient,
		stateMachineArn: stateMachineArn,
	}
}

// Validate applies the limits the state machine enforces before any Lambda
// runs, so invalid requests fail without starting an execution
func Validate(input models.LoadTestInput) error {
	switch {
	case input.NumberOfUsers < 1:
		return fmt.Errorf("%w: NumberOfUsers must be positive", errors.ErrLoadTestLimits)
	case input.NumberOfUsers > models.MaxLoadTestUsers:
		return fmt.Errorf("%w: NumberOfUsers must not exceed %d", errors.ErrLoadTestLimits, models.MaxLoadTestUsers)
	case input.NumberOfLikesPerUser < 0 || input.NumberOfLikesPerUser > models.MaxLoadTestLikesPerUser:
		return fmt.Errorf("%w: NumberOfLikesPerUser must be between 0 and %d", errors.ErrLoadTestLimits, models.MaxLoadTestLikesPerUser)
	case input.TestDurationMinutes < 0 || input.TestDurationMinutes >= models.MaxLoadTestMinutes:
		return fmt.Errorf("%w: TestDurationMinutes must be below %d", errors.ErrLoadTestLimits, models.MaxLoadTestMinutes)
	}
	return nil
}

// StartLoadTest validates input and starts a LoadTest execution
func (o *Orchestrator) StartLoadTest(ctx context.Context, input models.LoadTestInput) (string, error) {
	if err := Validate(input); err != nil {
		return "", err
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to marshal step function input: %w", err)
	}

	executionName := ExecutionName(ksuid.New())

	result, err := o.sfnClient.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(o.stateMachineArn),
		Name:            aws.String(executionName),
		Input:           aws.String(string(inputJSON)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to start step function execution: %w", err)
	}

	return aws.ToString(result.ExecutionArn), nil
}

// Describe returns the state of a LoadTest execution
func (o *Orchestrator) Describe(ctx context.Context, executionArn string) (*Execution, error) {
	result, err := o.sfnClient.DescribeExecution(ctx, &sfn.DescribeExecutionInput{
		ExecutionArn: aws.String(executionArn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe execution %s: %w", executionArn, err)
	}

	return &Execution{
		ExecutionArn: aws.ToString(result.ExecutionArn),
		Status:       string(result.Status),
		StartDate:    result.StartDate,
		StopDate:     result.StopDate,
		Output:       aws.ToString(result.Output),
		Error:        aws.ToString(result.Error),
	}, nil
}

// ExecutionName returns the execution name for id
func ExecutionName(id ksuid.KSUID) string {
	return "loadtest-" + id.String()
}

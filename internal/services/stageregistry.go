package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
)

// StagesParameterKey is the parameter, relative to /<env>/aws-bootstrap-kit,
// holding the published stage list
const StagesParameterKey = "stages"

// StageRegistry publishes the discovered stages to Parameter Store so
// applications that cannot call Organizations can read them
type StageRegistry struct {
	client SSMClient
	env    string
}

// NewStageRegistry returns a registry writing under env
func NewStageRegistry(client SSMClient, env string) *StageRegistry {
	return &StageRegistry{
		client: client,
		env:    env,
	}
}

// Name returns the parameter holding the stage list
func (r *StageRegistry) Name() string {
	return ParameterPath(r.env, StagesParameterKey)
}

// Publish overwrites the stored stage list with stages
func (r *StageRegistry) Publish(ctx context.Context, stages models.Stages) error {
	if stages == nil {
		stages = models.Stages{}
	}
	data, err := json.Marshal(stages)
	if err != nil {
		return fmt.Errorf("failed to marshal stages: %w", err)
	}

	_, err = r.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(r.Name()),
		Value:     aws.String(string(data)),
		Type:      types.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to put parameter %s: %w", r.Name(), err)
	}

	return nil
}

// Load returns the stored stage list
func (r *StageRegistry) Load(ctx context.Context) (models.Stages, error) {
	result, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(r.Name()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get parameter %s: %w", r.Name(), err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s not found", r.Name())
	}

	var stages models.Stages
	if err := json.Unmarshal([]byte(*result.Parameter.Value), &stages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stages from %s: %w", r.Name(), err)
	}

	return stages, nil
}

package services

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
)

// Config holds the tooling configuration values from Parameter Store
type Config struct {
	Qualifier                 string
	PipelineRegion            string
	LoadTestStateMachineArn   string
	GitHubTokenSecret         string
	PermissionsBoundaryExport string
}

func (c *Config) setDefaults() {
	if c.Qualifier == "" {
		c.Qualifier = constants.DefaultQualifier
	}
	if c.GitHubTokenSecret == "" {
		c.GitHubTokenSecret = constants.GitHubTokenSecret
	}
	if c.PermissionsBoundaryExport == "" {
		c.PermissionsBoundaryExport = constants.PermissionsBoundaryExport
	}
}

// SSMClient is the subset of SSM used for configuration and the stage registry
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// ParameterStore defines the interface for accessing configuration parameters
type ParameterStore interface {
	// GetParameter retrieves a single parameter by name
	GetParameter(ctx context.Context, name string) (string, error)

	// GetConfig loads all tooling configuration
	GetConfig(ctx context.Context) (*Config, error)
}

// ParameterPath returns the full parameter name of key for env
func ParameterPath(env, key string) string {
	return fmt.Sprintf("/%s/%s/%s", env, constants.AppName, key)
}

// SSMParameterStore implements ParameterStore using AWS Systems Manager Parameter Store
type SSMParameterStore struct {
	client SSMClient
	env    string
	mu     sync.RWMutex
	cache  map[string]string
}

// NewSSMParameterStore creates a new SSM-backed parameter store
func NewSSMParameterStore(client SSMClient, env string) *SSMParameterStore {
	return &SSMParameterStore{
		client: client,
		env:    env,
		cache:  make(map[string]string),
	}
}

// GetParameter retrieves a single parameter from SSM Parameter Store
func (s *SSMParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	if value, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return value, nil
	}
	s.mu.RUnlock()

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s not found", name)
	}

	value := *result.Parameter.Value

	s.mu.Lock()
	s.cache[name] = value
	s.mu.Unlock()

	return value, nil
}

// GetConfig loads every parameter under /<env>/aws-bootstrap-kit
func (s *SSMParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	path := fmt.Sprintf("/%s/%s", s.env, constants.AppName)

	params := make(map[string]string)
	paginator := ssm.NewGetParametersByPathPaginator(s.client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get parameters by path %s: %w", path, err)
		}
		for _, param := range page.Parameters {
			if param.Name != nil && param.Value != nil {
				params[*param.Name] = *param.Value
			}
		}
	}

	s.mu.Lock()
	for k, v := range params {
		s.cache[k] = v
	}
	s.mu.Unlock()

	config := &Config{
		Qualifier:                 params[ParameterPath(s.env, "qualifier")],
		PipelineRegion:            params[ParameterPath(s.env, "pipeline-region")],
		LoadTestStateMachineArn:   params[ParameterPath(s.env, "load-test-state-machine-arn")],
		GitHubTokenSecret:         params[ParameterPath(s.env, "github-token-secret")],
		PermissionsBoundaryExport: params[ParameterPath(s.env, "permissions-boundary-export")],
	}
	config.setDefaults()

	return config, nil
}

// EnvParameterStore implements ParameterStore using environment variables
// for local development without an AWS connection
type EnvParameterStore struct {
	env string
}

// NewEnvParameterStore creates a new environment variable-backed parameter store
func NewEnvParameterStore(env string) *EnvParameterStore {
	return &EnvParameterStore{
		env: env,
	}
}

// GetParameter returns the environment variable called name
func (e *EnvParameterStore) GetParameter(_ context.Context, name string) (string, error) {
	return os.Getenv(name), nil
}

// GetConfig loads the tooling configuration from environment variables
func (e *EnvParameterStore) GetConfig(_ context.Context) (*Config, error) {
	config := &Config{
		Qualifier:                 os.Getenv("CDK_QUALIFIER"),
		PipelineRegion:            os.Getenv("PIPELINE_REGION"),
		LoadTestStateMachineArn:   os.Getenv("LOAD_TEST_STATE_MACHINE_ARN"),
		GitHubTokenSecret:         os.Getenv("GITHUB_TOKEN_SECRET"),
		PermissionsBoundaryExport: os.Getenv("PERMISSIONS_BOUNDARY_EXPORT"),
	}
	config.setDefaults()

	return config, nil
}

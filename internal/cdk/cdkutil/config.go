// Package cdkutil holds the pieces shared by every CDK app: the validated
// context configuration, Go function bundling and the pipeline permissions
// boundary.
package cdkutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/go-playground/validator/v10"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
)

// CDK context keys, set in cdk.json or with -c
const (
	ContextQualifier                 = "@aws-cdk/core:bootstrapQualifier"
	ContextGitHubAlias               = "github_alias"
	ContextGitHubRepoName            = "github_repo_name"
	ContextGitHubRepoBranch          = "github_repo_branch"
	ContextServiceName               = "service_name"
	ContextDomainName                = "domain_name"
	ContextStageDomainMapping        = "stageDomainMapping"
	ContextSharedServicesRegion      = "sharedServicesRegion"
	ContextStages                    = "stages"
	ContextRootDNSName               = "rootDNSName"
	ContextEmail                     = "email"
	ContextPipelineDeployableRegions = "pipeline_deployable_regions"
	ContextOrganizationRootID        = "organization_root_id"
	ContextDNSAccountID              = "dns_account_id"
)

// PipelineFields must be set by every app that synthesizes a pipeline
var PipelineFields = []string{"Qualifier", "GitHubAlias", "GitHubRepoName", "GitHubRepoBranch"}

var contextKeys = map[string]string{
	"Qualifier":                 ContextQualifier,
	"GitHubAlias":               ContextGitHubAlias,
	"GitHubRepoName":            ContextGitHubRepoName,
	"GitHubRepoBranch":          ContextGitHubRepoBranch,
	"ServiceName":               ContextServiceName,
	"DomainName":                ContextDomainName,
	"StageDomainMapping":        ContextStageDomainMapping,
	"SharedServicesRegion":      ContextSharedServicesRegion,
	"Stages":                    ContextStages,
	"RootDNSName":               ContextRootDNSName,
	"Email":                     ContextEmail,
	"PipelineDeployableRegions": ContextPipelineDeployableRegions,
	"OrganizationRootID":        ContextOrganizationRootID,
	"DNSAccountID":              ContextDNSAccountID,
}

// Config holds the CDK context values of an app. Every field is optional
// while reading, NewConfig validates only the fields the app requires.
type Config struct {
	Qualifier                 string            `validate:"required,max=10"`
	GitHubAlias               string            `validate:"required"`
	GitHubRepoName            string            `validate:"required"`
	GitHubRepoBranch          string            `validate:"required"`
	ServiceName               string            `validate:"required"`
	DomainName                string            `validate:"required,fqdn"`
	StageDomainMapping        map[string]string `validate:"required,min=1,dive,fqdn"`
	SharedServicesRegion      string            `validate:"required"`
	Stages                    models.Stages     `validate:"required,min=1"`
	RootDNSName               string            `validate:"required,fqdn"`
	Email                     string            `validate:"required,email"`
	PipelineDeployableRegions []string          `validate:"required,min=1,dive,required"`
	OrganizationRootID        string            `validate:"required"`
	DNSAccountID              string            `validate:"required,len=12,numeric"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig reads the context of scope and validates the named fields.
// Qualifier defaults to the CDK default qualifier.
func NewConfig(scope constructs.Construct, required ...string) (*Config, error) {
	var readErrs []string

	cfg := &Config{}
	cfg.Qualifier, readErrs = readContextString(scope, ContextQualifier, readErrs)
	cfg.GitHubAlias, readErrs = readContextString(scope, ContextGitHubAlias, readErrs)
	cfg.GitHubRepoName, readErrs = readContextString(scope, ContextGitHubRepoName, readErrs)
	cfg.GitHubRepoBranch, readErrs = readContextString(scope, ContextGitHubRepoBranch, readErrs)
	cfg.ServiceName, readErrs = readContextString(scope, ContextServiceName, readErrs)
	cfg.DomainName, readErrs = readContextString(scope, ContextDomainName, readErrs)
	cfg.SharedServicesRegion, readErrs = readContextString(scope, ContextSharedServicesRegion, readErrs)
	cfg.RootDNSName, readErrs = readContextString(scope, ContextRootDNSName, readErrs)
	cfg.Email, readErrs = readContextString(scope, ContextEmail, readErrs)
	cfg.OrganizationRootID, readErrs = readContextString(scope, ContextOrganizationRootID, readErrs)
	cfg.DNSAccountID, readErrs = readContextString(scope, ContextDNSAccountID, readErrs)
	cfg.PipelineDeployableRegions, readErrs = readContextStringSlice(scope, ContextPipelineDeployableRegions, readErrs)
	readErrs = readContextJSON(scope, ContextStageDomainMapping, &cfg.StageDomainMapping, readErrs)
	readErrs = readContextJSON(scope, ContextStages, &cfg.Stages, readErrs)

	if cfg.Qualifier == "" {
		cfg.Qualifier = constants.DefaultQualifier
	}

	if len(readErrs) > 0 {
		return nil, fmt.Errorf("CDK context read errors:\n  - %s", strings.Join(readErrs, "\n  - "))
	}

	if len(required) == 0 {
		return cfg, nil
	}

	if err := validate.StructPartial(cfg, required...); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			msgs := make([]string, 0, len(validationErrs))
			for _, e := range validationErrs {
				msgs = append(msgs, formatValidationError(e))
			}
			sort.Strings(msgs)
			return nil, fmt.Errorf("CDK context validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return nil, fmt.Errorf("CDK context validation failed: %w", err)
	}

	return cfg, nil
}

// GitHubRepository returns the owner/repo pair of the pipeline source
func (c *Config) GitHubRepository() string {
	return c.GitHubAlias + "/" + c.GitHubRepoName
}

// DeployableRegions returns the regions to bootstrap, falling back to region.
// It returns nil when neither is set.
func (c *Config) DeployableRegions(region string) []string {
	if len(c.PipelineDeployableRegions) > 0 {
		return c.PipelineDeployableRegions
	}
	if region == "" {
		return nil
	}
	return []string{region}
}

const configContextKey = "__cdkutil_config"

// StoreConfig keeps cfg in the app's context for ConfigFromScope
func StoreConfig(app awscdk.App, cfg *Config) {
	app.Node().SetContext(jsii.String(configContextKey), cfg)
}

// ConfigFromScope returns the Config stored with StoreConfig. It panics when
// none was stored.
func ConfigFromScope(scope constructs.Construct) *Config {
	val := scope.Node().TryGetContext(jsii.String(configContextKey))
	if val == nil {
		panic("cdkutil.Config not found in construct tree - was StoreConfig called?")
	}
	cfg, ok := val.(*Config)
	if !ok {
		panic(fmt.Sprintf("cdkutil.Config has unexpected type %T", val))
	}
	return cfg
}

func formatValidationError(e validator.FieldError) string {
	field := e.StructField()
	key := contextKeys[field]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required (context key %q)", field, key)
	case "min":
		return fmt.Sprintf("%s needs at least %s entries (context key %q)", field, e.Param(), key)
	case "max":
		return fmt.Sprintf("%s exceeds maximum length of %s (got %q)", field, e.Param(), e.Value())
	case "fqdn":
		return fmt.Sprintf("%s must be a valid domain name (got %q)", field, e.Value())
	case "email":
		return fmt.Sprintf("%s must be a valid email (got %q)", field, e.Value())
	default:
		return fmt.Sprintf("%s failed validation %q", field, e.Tag())
	}
}

func readContextString(scope constructs.Construct, key string, errs []string) (string, []string) {
	val := scope.Node().TryGetContext(jsii.String(key))
	if val == nil {
		return "", errs
	}
	s, ok := val.(string)
	if !ok {
		return "", append(errs, fmt.Sprintf("context key %q must be a string, got %T", key, val))
	}
	return s, errs
}

func readContextStringSlice(scope constructs.Construct, key string, errs []string) ([]string, []string) {
	val := scope.Node().TryGetContext(jsii.String(key))
	if val == nil {
		return nil, errs
	}

	// -c pipeline_deployable_regions=eu-west-1,us-east-1 arrives as a string
	if s, ok := val.(string); ok {
		return strings.Split(s, ","), errs
	}

	slice, ok := val.([]any)
	if !ok {
		return nil, append(errs, fmt.Sprintf("context key %q must be an array, got %T", key, val))
	}

	result := make([]string, 0, len(slice))
	for i, v := range slice {
		s, ok := v.(string)
		if !ok {
			return nil, append(errs, fmt.Sprintf("context key %q[%d] must be a string, got %T", key, i, v))
		}
		result = append(result, s)
	}
	return result, errs
}

// readContextJSON decodes an object or array context value into v. String
// values are parsed as JSON so -c key='{"a":"b"}' works.
func readContextJSON(scope constructs.Construct, key string, v any, errs []string) []string {
	val := scope.Node().TryGetContext(jsii.String(key))
	if val == nil {
		return errs
	}

	var data []byte
	if s, ok := val.(string); ok {
		data = []byte(s)
	} else {
		encoded, err := json.Marshal(val)
		if err != nil {
			return append(errs, fmt.Sprintf("context key %q: %v", key, err))
		}
		data = encoded
	}

	if err := json.Unmarshal(data, v); err != nil {
		return append(errs, fmt.Sprintf("context key %q is malformed: %v", key, err))
	}
	return errs
}

// Package landingzone describes the organizational units and accounts of the
// landing zone and checks a layout against the running organization.
package landingzone

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/errors"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/policy"
	"github.com/savaki/aws-bootstrap-kit/internal/stages"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultLayout []byte

var validate = validator.New(validator.WithRequiredStructEnabled())

// Account is an account to create in an organizational unit
type Account struct {
	Name             string `yaml:"name" json:"name" validate:"required"`
	Type             string `yaml:"type" json:"type" validate:"required,oneof=STAGE CICD DNS PLAYGROUND"`
	StageName        string `yaml:"stageName,omitempty" json:"stageName,omitempty"`
	StageOrder       int    `yaml:"stageOrder,omitempty" json:"stageOrder,omitempty"`
	RequiresApproval bool   `yaml:"requiresApproval,omitempty" json:"requiresApproval,omitempty"`
}

// Tags returns the Organizations tags of the account
func (a Account) Tags() map[string]string {
	tags := map[string]string{
		constants.TagAccountType: a.Type,
	}
	if a.Type == constants.AccountTypeStage {
		tags[constants.TagStageName] = a.StageName
		tags[constants.TagStageOrder] = strconv.Itoa(a.StageOrder)
		if a.RequiresApproval {
			tags[constants.TagRequiresApproval] = "true"
		}
	}
	return tags
}

// OU is an organizational unit directly under the organization root
type OU struct {
	Name     string    `yaml:"name" json:"name" validate:"required"`
	Accounts []Account `yaml:"accounts" json:"accounts" validate:"dive"`
}

// Layout is the landing zone
type Layout struct {
	OUs []OU `yaml:"ous" json:"ous" validate:"required,min=1,dive"`
}

// Default returns the built in layout
func Default() *Layout {
	layout, err := Parse(defaultLayout)
	if err != nil {
		panic(err)
	}
	return layout
}

// Parse decodes and validates a YAML layout
func Parse(data []byte) (*Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidLayout, err)
	}
	if err := validate.Struct(layout); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidLayout, err)
	}
	for i := range layout.OUs {
		if layout.OUs[i].Accounts == nil {
			layout.OUs[i].Accounts = []Account{}
		}
	}
	return &layout, nil
}

// Load reads the layout at path, or the default layout when path is empty
func Load(path string) (*Layout, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %s: %w", path, err)
	}
	return Parse(data)
}

// Accounts returns every account of the layout
func (l *Layout) Accounts() []Account {
	var accounts []Account
	for _, ou := range l.OUs {
		accounts = append(accounts, ou.Accounts...)
	}
	return accounts
}

// Stages returns the pipeline stages the layout produces once deployed
func (l *Layout) Stages() (models.Stages, error) {
	var accounts []models.Account
	for _, a := range l.Accounts() {
		accounts = append(accounts, models.Account{
			ID:   a.Name,
			Name: a.Name,
			Tags: a.Tags(),
		})
	}
	return stages.FromAccounts(accounts)
}

// Check evaluates the layout against the landing zone policy and returns an
// error wrapping ErrPolicyViolation listing every violation
func (l *Layout) Check(ctx context.Context, v *policy.Validator) (*policy.ValidationResult, error) {
	result, err := v.Validate(ctx, l)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		return result, fmt.Errorf("%w: %s", errors.ErrPolicyViolation, strings.Join(result.Violations, "; "))
	}
	return result, nil
}

// Email derives the root email of accountName from the organization email by
// adding a plus suffix, "ops@example.com" becomes "ops+cicd@example.com"
func Email(base, accountName string) (string, error) {
	local, domain, ok := strings.Cut(base, "@")
	if !ok || local == "" || domain == "" {
		return "", fmt.Errorf("%w: invalid email %q", errors.ErrInvalidLayout, base)
	}
	suffix := strings.ToLower(strings.ReplaceAll(accountName, " ", "-"))
	return fmt.Sprintf("%s+%s@%s", local, suffix, domain), nil
}

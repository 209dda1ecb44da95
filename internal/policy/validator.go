package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
)

//go:embed landingzone.rego
var policyContent string

// DefaultApprovalPattern matches the stage names that must be gated by a
// manual approval
const DefaultApprovalPattern = `(?i)^prod`

type Validator struct {
	allow      rego.PreparedEvalQuery
	violations rego.PreparedEvalQuery
}

type ValidationResult struct {
	Allowed    bool     `json:"allowed"`
	Violations []string `json:"violations,omitempty"`
}

// Options tune the guardrails of the landing zone policy
type Options struct {
	// ApprovalPattern is a regular expression over stage names; matching
	// stages must require approval. Empty uses DefaultApprovalPattern.
	ApprovalPattern string
}

func NewValidator(ctx context.Context, opts Options) (*Validator, error) {
	pattern := opts.ApprovalPattern
	if pattern == "" {
		pattern = DefaultApprovalPattern
	}

	data := map[string]interface{}{
		"config": map[string]interface{}{
			"approval_pattern": pattern,
		},
	}

	allow, err := prepare(ctx, "data.landingzone.allow", data)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy query: %w", err)
	}

	violations, err := prepare(ctx, "data.landingzone.violations", data)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare violations query: %w", err)
	}

	return &Validator{
		allow:      allow,
		violations: violations,
	}, nil
}

func prepare(ctx context.Context, query string, data map[string]interface{}) (rego.PreparedEvalQuery, error) {
	return rego.New(
		rego.Query(query),
		rego.Module("landingzone.rego", policyContent),
		rego.Store(inmem.NewFromObject(data)),
	).PrepareForEval(ctx)
}

// Validate evaluates layout, any value that marshals to the landing zone
// JSON shape, against the policy
func (v *Validator) Validate(ctx context.Context, layout interface{}) (*ValidationResult, error) {
	input, err := toInput(layout)
	if err != nil {
		return nil, err
	}

	results, err := v.allow.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned no results"},
		}, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned non-boolean result"},
		}, nil
	}

	result := &ValidationResult{
		Allowed: allowed,
	}

	if !allowed {
		violations, err := v.getViolations(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get violations: %w", err)
		}
		result.Violations = violations
	}

	return result, nil
}

func (v *Validator) getViolations(ctx context.Context, input interface{}) ([]string, error) {
	results, err := v.violations.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate violations: %w", err)
	}

	if len(results) == 0 {
		return []string{"unknown policy violation"}, nil
	}

	violationsInterface := results[0].Expressions[0].Value
	if violationsInterface == nil {
		return []string{"unknown policy violation"}, nil
	}

	var violations []string
	switch v := violationsInterface.(type) {
	case []interface{}:
		for _, violation := range v {
			if str, ok := violation.(string); ok {
				violations = append(violations, str)
			}
		}
	case map[string]interface{}:
		for violation := range v {
			violations = append(violations, violation)
		}
	}

	if len(violations) == 0 {
		return []string{"policy validation failed but no specific violations found"}, nil
	}

	sort.Strings(violations)
	return violations, nil
}

// toInput normalizes layout into the plain maps and slices rego expects
func toInput(layout interface{}) (interface{}, error) {
	data, err := json.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy input: %w", err)
	}

	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy input: %w", err)
	}
	return input, nil
}

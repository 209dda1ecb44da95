package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// ExportsClient lists CloudFormation exports
type ExportsClient interface {
	cloudformation.ListExportsAPIClient
}

// Check is the outcome of one preflight check
type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// PreflightReport collects the checks run before deploying a pipeline
type PreflightReport struct {
	Identity *Identity `json:"identity,omitempty"`
	Checks   []Check   `json:"checks"`
}

// OK is true when every check passed
func (r *PreflightReport) OK() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// PreflightInput names the resources a pipeline stack depends on
type PreflightInput struct {
	SecretID       string
	BoundaryExport string
}

// Preflight verifies that the CICD account holds what the pipeline stacks import
type Preflight struct {
	iam     *IAMService
	secrets *SecretsManagerService
	exports ExportsClient
}

func NewPreflight(iamService *IAMService, secrets *SecretsManagerService, exports ExportsClient) *Preflight {
	return &Preflight{
		iam:     iamService,
		secrets: secrets,
		exports: exports,
	}
}

// Run performs every check. Credential failures abort with an error, missing
// resources are reported as failed checks.
func (p *Preflight) Run(ctx context.Context, input PreflightInput) (*PreflightReport, error) {
	identity, err := p.iam.GetCallerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	report := &PreflightReport{Identity: identity}
	report.Checks = append(report.Checks, Check{
		Name:   "caller-identity",
		OK:     true,
		Detail: identity.ARN,
	})

	exists, err := p.secrets.SecretExists(ctx, input.SecretID)
	if err != nil {
		return nil, err
	}
	report.Checks = append(report.Checks, Check{
		Name:   "github-token",
		OK:     exists,
		Detail: secretDetail(input.SecretID, exists),
	})

	boundaryARN, err := p.findExport(ctx, input.BoundaryExport)
	if err != nil {
		return nil, err
	}
	if boundaryARN == "" {
		report.Checks = append(report.Checks, Check{
			Name:   "permissions-boundary-export",
			OK:     false,
			Detail: fmt.Sprintf("export %s not found", input.BoundaryExport),
		})
		return report, nil
	}
	report.Checks = append(report.Checks, Check{
		Name:   "permissions-boundary-export",
		OK:     true,
		Detail: boundaryARN,
	})

	exists, err = p.iam.PolicyExists(ctx, boundaryARN)
	if err != nil {
		return nil, err
	}
	detail := boundaryARN
	if !exists {
		detail = fmt.Sprintf("policy %s not found", boundaryARN)
	}
	report.Checks = append(report.Checks, Check{
		Name:   "permissions-boundary-policy",
		OK:     exists,
		Detail: detail,
	})

	return report, nil
}

func (p *Preflight) findExport(ctx context.Context, name string) (string, error) {
	paginator := cloudformation.NewListExportsPaginator(p.exports, &cloudformation.ListExportsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list exports: %w", err)
		}
		for _, export := range page.Exports {
			if aws.ToString(export.Name) == name {
				return aws.ToString(export.Value), nil
			}
		}
	}
	return "", nil
}

func secretDetail(id string, exists bool) string {
	if exists {
		return id
	}
	return fmt.Sprintf("secret %s not found", id)
}

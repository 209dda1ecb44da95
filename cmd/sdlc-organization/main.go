// Command sdlc-organization synthesizes the landing zone: the organizational
// units and accounts of the layout, and the pipeline deploying them and
// bootstrapping every account.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/pipelines"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/awserr"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/organization"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/pipeline"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/errors"
	"github.com/savaki/aws-bootstrap-kit/internal/landingzone"
	"github.com/savaki/aws-bootstrap-kit/internal/synth"
)

const (
	DevStageID      = "AWSBootstrapKit-LandingZone-Dev"
	PipelineStackID = "AWSBootstrapKit-LandingZone-PipelineStack"
	PipelineName    = "AWSBootstrapKit-LandingZone"
	BootstrapStepID = "CDKBootstrapAccounts"
)

var required = append([]string{"Email", "OrganizationRootID"}, cdkutil.PipelineFields...)

// bootstrapStep runs scripts/auto-bootstrap.sh once the accounts exist
func bootstrapStep(p *pipeline.Pipeline, cfg *cdkutil.Config, regions []string) pipelines.Step {
	return pipelines.NewCodeBuildStep(jsii.String(BootstrapStepID), &pipelines.CodeBuildStepProps{
		Input: p.Source,
		Commands: jsii.Strings(
			"npm install -g aws-cdk",
			"chmod +x ./scripts/auto-bootstrap.sh",
			fmt.Sprintf("CDK_QUALIFIER=%s ./scripts/auto-bootstrap.sh %q", cfg.Qualifier, strings.Join(regions, " ")),
		),
		RolePolicyStatements: &[]awsiam.PolicyStatement{
			awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
				Actions:   jsii.Strings("sts:AssumeRole"),
				Resources: jsii.Strings(constants.OrganizationAccessRoleWildcardARN()),
			}),
			awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
				Actions: jsii.Strings(
					"organizations:ListAccounts",
					"organizations:ListTagsForResource",
				),
				Resources: jsii.Strings("*"),
			}),
		},
	})
}

func build(app awscdk.App, cfg *cdkutil.Config, layout *landingzone.Layout, env *awscdk.Environment) (*pipeline.Pipeline, error) {
	var region string
	if env != nil && env.Region != nil {
		region = *env.Region
	}
	regions := cfg.DeployableRegions(region)
	if len(regions) == 0 {
		return nil, fmt.Errorf("%w: set %s in the cdk context or CDK_DEFAULT_REGION",
			errors.ErrNoDeployableRegion, cdkutil.ContextPipelineDeployableRegions)
	}

	orgProps := organization.Props{
		Layout:             layout,
		Email:              cfg.Email,
		OrganizationRootID: cfg.OrganizationRootID,
	}

	if _, err := organization.NewStage(app, DevStageID, &awscdk.StageProps{Env: env}, orgProps); err != nil {
		return nil, err
	}

	p := pipeline.New(app, PipelineStackID, pipeline.Props{
		StackProps:   awscdk.StackProps{Env: env},
		PipelineName: PipelineName,
		App:          "sdlc-organization",
		Config:       cfg,
	})

	prod, err := organization.NewStage(p.Stack, "Prod", &awscdk.StageProps{Env: env}, orgProps)
	if err != nil {
		return nil, err
	}

	p.AddStage(prod, pipeline.StageOptions{
		Approval: "Validate",
		Post:     []pipelines.Step{bootstrapStep(p, cfg, regions)},
	})
	return p, nil
}

func main() {
	defer jsii.Close()

	if err := synth.LoadEnv(); err != nil {
		awserr.Exit(err, "")
	}

	app := awscdk.NewApp(nil)
	cfg := synth.MustConfig(app, required...)

	layout, err := landingzone.Load(os.Getenv("LAYOUT_FILE"))
	if err != nil {
		awserr.Exit(err, "")
	}

	if _, err := build(app, cfg, layout, synth.Env()); err != nil {
		awserr.Exit(err, "")
	}

	app.Synth(nil)
}

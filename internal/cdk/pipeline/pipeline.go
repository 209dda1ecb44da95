// Package pipeline builds the self-mutating CodePipeline every app deploys
// its stages with.
package pipeline

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/pipelines"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/iancoleman/strcase"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
)

// Props configures a pipeline stack
type Props struct {
	awscdk.StackProps

	// PipelineName is the CodePipeline name, also used in the console url output
	PipelineName string
	// App is the directory below cmd/ synthesized by the pipeline
	App string
	// Config provides the GitHub source and qualifier
	Config *cdkutil.Config
	// DiscoverStages grants the synth step the Organizations and
	// CloudFormation read access stage discovery and bootstrap checks need
	DiscoverStages bool
}

// StageFactory builds the application stage deployed for stage
type StageFactory func(scope constructs.Construct, stage models.Stage, props *awscdk.StageProps) awscdk.Stage

// StageOptions configures a stage added with AddStage
type StageOptions struct {
	// Approval adds a manual approval step with this name before the deployment
	Approval string
	// Post steps run after the stage deployed
	Post []pipelines.Step
}

// Pipeline is a stack holding a CDK pipeline
type Pipeline struct {
	Stack    awscdk.Stack
	Pipeline pipelines.CodePipeline
	Source   pipelines.CodePipelineSource
	name     string
}

// SynthCommands returns the commands synthesizing cmd/<app> in CodeBuild
func SynthCommands(app string) []string {
	return []string{
		"npm install -g aws-cdk",
		fmt.Sprintf("npx cdk synth --app 'go run ./cmd/%s'", app),
	}
}

// ConsoleURL returns the CodePipeline console url of name in region
func ConsoleURL(region, name string) string {
	return fmt.Sprintf("https://%s.console.aws.amazon.com/codesuite/codepipeline/pipelines/%s/view?region=%s", region, name, region)
}

// DiscoveryStatements allow listing the organization's accounts and assuming
// the CDK deploy role of every account to read its CDKToolkit stack
func DiscoveryStatements(qualifier string) []awsiam.PolicyStatement {
	return []awsiam.PolicyStatement{
		awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions: jsii.Strings(
				"organizations:ListAccounts",
				"organizations:ListTagsForResource",
				"cloudformation:DescribeStacks",
			),
			Resources: jsii.Strings("*"),
		}),
		awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
			Actions:   jsii.Strings("sts:AssumeRole"),
			Resources: jsii.Strings(constants.DeployRoleWildcardARN(qualifier)),
		}),
	}
}

// New creates the pipeline stack. Every role in it gets the CICD permissions
// boundary.
func New(scope constructs.Construct, id string, props Props) *Pipeline {
	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)
	cfg := props.Config

	source := pipelines.CodePipelineSource_GitHub(
		jsii.String(cfg.GitHubRepository()),
		jsii.String(cfg.GitHubRepoBranch),
		&pipelines.GitHubSourceOptions{
			Authentication: awscdk.SecretValue_SecretsManager(jsii.String(constants.GitHubTokenSecret), nil),
		},
	)

	role := awsiam.NewRole(stack, jsii.String("CodePipelineRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("codepipeline.amazonaws.com"), nil),
	})

	var synthStatements []awsiam.PolicyStatement
	if props.DiscoverStages {
		for _, statement := range DiscoveryStatements(cfg.Qualifier) {
			role.AddToPolicy(statement)
		}
		synthStatements = DiscoveryStatements(cfg.Qualifier)
	}

	pipeline := pipelines.NewCodePipeline(stack, jsii.String("Pipeline"), &pipelines.CodePipelineProps{
		PipelineName:     jsii.String(props.PipelineName),
		CrossAccountKeys: jsii.Bool(true),
		Role:             role,
		Synth: pipelines.NewCodeBuildStep(jsii.String("Synth"), &pipelines.CodeBuildStepProps{
			Input:                source,
			Commands:             jsii.Strings(SynthCommands(props.App)...),
			RolePolicyStatements: &synthStatements,
		}),
	})

	awscdk.NewCfnOutput(stack, jsii.String("PipelineConsoleUrl"), &awscdk.CfnOutputProps{
		Value: jsii.String(ConsoleURL(*stack.Region(), props.PipelineName)),
	})

	cdkutil.ApplyPermissionsBoundary(stack)

	return &Pipeline{
		Stack:    stack,
		Pipeline: pipeline,
		Source:   source,
		name:     props.PipelineName,
	}
}

// Name returns the CodePipeline name
func (p *Pipeline) Name() string {
	return p.name
}

// AddStage deploys stage after the stages already added
func (p *Pipeline) AddStage(stage awscdk.Stage, opts StageOptions) {
	var addOpts pipelines.AddStageOpts
	if opts.Approval != "" {
		addOpts.Pre = &[]pipelines.Step{
			pipelines.NewManualApprovalStep(jsii.String(opts.Approval), nil),
		}
	}
	if len(opts.Post) > 0 {
		post := opts.Post
		addOpts.Post = &post
	}
	p.Pipeline.AddStage(stage, &addOpts)
}

// AddStages adds one application stage per discovered stage, in order. Stages
// requiring approval wait for a manual approval first.
func (p *Pipeline) AddStages(stages models.Stages, factory StageFactory) {
	var region *string
	if !*awscdk.Token_IsUnresolved(p.Stack.Region()) {
		region = p.Stack.Region()
	}

	for _, stage := range stages {
		appStage := factory(p.Stack, stage, &awscdk.StageProps{
			Env: &awscdk.Environment{
				Account: jsii.String(stage.AccountID),
				Region:  region,
			},
		})

		var opts StageOptions
		if stage.RequiresApproval {
			opts.Approval = "Approve" + strcase.ToCamel(stage.Name)
		}
		p.AddStage(appStage, opts)
	}
}

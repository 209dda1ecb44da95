// Command landing-page-feedback synthesizes the landing page with its
// feedback form API and the pipeline deploying both to every stage.
package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/awserr"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/feedback"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/pipeline"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/synth"
)

const (
	DevStageID      = "Dev"
	PipelineStackID = "AWSBootstrapKit-LandingPageFeedback-PipelineStack"
	PipelineName    = "AWSBootstrapKit-LandingPageFeedback"
)

func newStage(scope constructs.Construct, stage models.Stage, props *awscdk.StageProps) awscdk.Stage {
	return feedback.NewStage(scope, stage.Name, props)
}

func build(app awscdk.App, cfg *cdkutil.Config, env *awscdk.Environment, discovered models.Stages) *pipeline.Pipeline {
	feedback.NewStage(app, DevStageID, &awscdk.StageProps{Env: env})

	p := pipeline.New(app, PipelineStackID, pipeline.Props{
		StackProps:     awscdk.StackProps{Env: env},
		PipelineName:   PipelineName,
		App:            "landing-page-feedback",
		Config:         cfg,
		DiscoverStages: true,
	})
	p.AddStages(discovered, newStage)
	return p
}

func main() {
	defer jsii.Close()

	if err := synth.LoadEnv(); err != nil {
		awserr.Exit(err, "")
	}

	app := awscdk.NewApp(nil)
	cfg := synth.MustConfig(app, cdkutil.PipelineFields...)
	env := synth.Env()

	opts := synth.Options{Qualifier: cfg.Qualifier, Verify: env.Region != nil}
	if env.Region != nil {
		opts.Region = *env.Region
	}
	build(app, cfg, env, synth.MustStages(synth.Logger(), opts))

	app.Synth(nil)
}

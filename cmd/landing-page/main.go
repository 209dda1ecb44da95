// Command landing-page synthesizes the static landing page and the pipeline
// deploying it to every stage of the organization.
package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/awserr"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/landingpage"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/pipeline"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/synth"
)

const (
	TestStageID     = "Test"
	PipelineStackID = "AWSBootstrapKit-LandingPage-PipelineStack"
	PipelineName    = "AWSBootstrapKit-LandingPage"
)

var required = append([]string{"ServiceName"}, cdkutil.PipelineFields...)

func newStage(scope constructs.Construct, stage models.Stage, props *awscdk.StageProps) awscdk.Stage {
	return landingpage.NewStage(scope, stage.Name, props)
}

func build(app awscdk.App, cfg *cdkutil.Config, env *awscdk.Environment, discovered models.Stages) *pipeline.Pipeline {
	landingpage.NewStage(app, TestStageID, &awscdk.StageProps{Env: env})

	p := pipeline.New(app, PipelineStackID, pipeline.Props{
		StackProps:     awscdk.StackProps{Env: env},
		PipelineName:   PipelineName,
		App:            "landing-page",
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
	cfg := synth.MustConfig(app, required...)
	env := synth.Env()

	opts := synth.Options{Qualifier: cfg.Qualifier, Verify: env.Region != nil}
	if env.Region != nil {
		opts.Region = *env.Region
	}
	build(app, cfg, env, synth.MustStages(synth.Logger(), opts))

	app.Synth(nil)
}

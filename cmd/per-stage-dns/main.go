// Command per-stage-dns synthesizes the hosted zone of each stage and the
// pipeline creating it in every stage account.
package main

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/awserr"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/pipeline"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/stagedns"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/synth"
)

const (
	DevStageName    = "dev"
	PipelineStackID = "DNS-Pipeline"
	PipelineName    = "AWSBootstrapKit-LandingZone"
)

var required = append([]string{"StageDomainMapping"}, cdkutil.PipelineFields...)

func build(app awscdk.App, cfg *cdkutil.Config, env *awscdk.Environment, discovered models.Stages) (*pipeline.Pipeline, error) {
	if err := checkMapping(cfg, discovered); err != nil {
		return nil, err
	}

	if _, err := stagedns.NewStack(app, stagedns.StackID, stagedns.Props{
		StackProps:         awscdk.StackProps{Env: env},
		StageName:          DevStageName,
		StageDomainMapping: cfg.StageDomainMapping,
	}); err != nil {
		return nil, err
	}

	p := pipeline.New(app, PipelineStackID, pipeline.Props{
		StackProps:     awscdk.StackProps{Env: env},
		PipelineName:   PipelineName,
		App:            "per-stage-dns",
		Config:         cfg,
		DiscoverStages: true,
	})

	p.AddStages(discovered, newStage)
	return p, nil
}

// checkMapping fails when a stage has no domain, stagedns.NewStage cannot
// report it from inside AddStages
func checkMapping(cfg *cdkutil.Config, discovered models.Stages) error {
	for _, stage := range discovered {
		if _, ok := cfg.StageDomainMapping[strings.ToLower(stage.Name)]; !ok {
			return fmt.Errorf("no domain mapped to stage %q in %s", strings.ToLower(stage.Name), cdkutil.ContextStageDomainMapping)
		}
	}
	return nil
}

func newStage(scope constructs.Construct, stage models.Stage, props *awscdk.StageProps) awscdk.Stage {
	s, err := stagedns.NewStage(scope, stage.Name, props)
	if err != nil {
		panic(err)
	}
	return s
}

func main() {
	defer jsii.Close()

	if err := synth.LoadEnv(); err != nil {
		awserr.Exit(err, "")
	}

	app := awscdk.NewApp(nil)
	cfg := synth.MustConfig(app, required...)
	env := synth.Env()

	opts := synth.Options{Qualifier: cfg.Qualifier, Verify: true}
	if env.Region != nil {
		opts.Region = *env.Region
	}

	if _, err := build(app, cfg, env, synth.MustStages(synth.Logger(), opts)); err != nil {
		awserr.Exit(err, "")
	}

	app.Synth(nil)
}

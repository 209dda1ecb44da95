// Command base-infrastructure synthesizes the root hosted zone shared by every
// stage and the pipeline deploying it to the DNS account.
package main

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/awserr"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/pipeline"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/rootdns"
	"github.com/savaki/aws-bootstrap-kit/internal/errors"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/savaki/aws-bootstrap-kit/internal/synth"
)

const (
	DevStageID      = "AWSBootstrapKit-RootDNS-Dev"
	PipelineStackID = "AWSBootstrapKit-RootDNS-PipelineStack"
	PipelineName    = "AWSBootstrapKit-RootDNS"

	// names of the context stages the app deploys to
	CICDStage = "CICD"
	DNSStage  = "DNS"
)

var required = append([]string{"RootDNSName", "SharedServicesRegion", "Stages"}, cdkutil.PipelineFields...)

// stageEnv returns the environment of the context stage named name
func stageEnv(cfg *cdkutil.Config, name string) (*awscdk.Environment, error) {
	stage, ok := cfg.Stages.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (context key %q)", errors.ErrStageNotFound, name, cdkutil.ContextStages)
	}
	return &awscdk.Environment{
		Account: jsii.String(stage.AccountID),
		Region:  jsii.String(cfg.SharedServicesRegion),
	}, nil
}

func build(app awscdk.App, cfg *cdkutil.Config, discovered models.Stages) (*pipeline.Pipeline, error) {
	cicdEnv, err := stageEnv(cfg, CICDStage)
	if err != nil {
		return nil, err
	}
	dnsEnv, err := stageEnv(cfg, DNSStage)
	if err != nil {
		return nil, err
	}

	props := rootdns.Props{
		RootDNSName: cfg.RootDNSName,
		Stages:      discovered,
	}

	rootdns.NewStage(app, DevStageID, &awscdk.StageProps{Env: cicdEnv}, props)

	p := pipeline.New(app, PipelineStackID, pipeline.Props{
		StackProps:     awscdk.StackProps{Env: cicdEnv},
		PipelineName:   PipelineName,
		App:            "base-infrastructure",
		Config:         cfg,
		DiscoverStages: true,
	})
	p.AddStage(rootdns.NewStage(p.Stack, "Prod", &awscdk.StageProps{Env: dnsEnv}, props), pipeline.StageOptions{})

	return p, nil
}

func main() {
	defer jsii.Close()

	if err := synth.LoadEnv(); err != nil {
		awserr.Exit(err, "")
	}

	app := awscdk.NewApp(nil)
	cfg := synth.MustConfig(app, required...)

	discovered := synth.MustStages(synth.Logger(), synth.Options{
		Region: cfg.SharedServicesRegion,
	})

	if _, err := build(app, cfg, discovered); err != nil {
		awserr.Exit(err, "")
	}

	app.Synth(nil)
}

//nolint:paralleltest // jsii runtime doesn't support parallel tests
package main

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdktest"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *cdkutil.Config {
	return &cdkutil.Config{
		Qualifier:        constants.DefaultQualifier,
		GitHubAlias:      "octank",
		GitHubRepoName:   "landing-zone",
		GitHubRepoBranch: "main",
		StageDomainMapping: map[string]string{
			"dev":     "dev.example.com",
			"staging": "staging.example.com",
		},
	}
}

func TestBuild(t *testing.T) {
	defer jsii.Close()

	app := cdktest.NewApp(nil)
	cfg := testConfig()
	cdkutil.StoreConfig(app, cfg)

	p, err := build(app, cfg, cdktest.Env(), models.Stages{
		{Name: "Dev", AccountID: "111111111111", Order: 1},
		{Name: "Staging", AccountID: "222222222222", Order: 2},
	})
	require.NoError(t, err)

	template := assertions.Template_FromStack(p.Stack, nil)
	template.HasResourceProperties(jsii.String("AWS::CodePipeline::Pipeline"), map[string]any{
		"Name": PipelineName,
		"Stages": assertions.Match_ArrayWith(&[]any{
			assertions.Match_ObjectLike(&map[string]any{"Name": "Dev"}),
			assertions.Match_ObjectLike(&map[string]any{"Name": "Staging"}),
		}),
	})
}

func TestBuild_UnmappedStage(t *testing.T) {
	defer jsii.Close()

	app := cdktest.NewApp(nil)
	cfg := testConfig()
	cdkutil.StoreConfig(app, cfg)

	_, err := build(app, cfg, cdktest.Env(), models.Stages{
		{Name: "Prod", AccountID: "333333333333", Order: 3},
	})
	assert.ErrorContains(t, err, `"prod"`)
}

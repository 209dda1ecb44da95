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
)

func TestBuild(t *testing.T) {
	defer jsii.Close()
	cdktest.ChdirModuleRoot()

	cfg := &cdkutil.Config{
		Qualifier:        constants.DefaultQualifier,
		GitHubAlias:      "octank",
		GitHubRepoName:   "landing-page",
		GitHubRepoBranch: "main",
		ServiceName:      "landing",
	}
	app := cdktest.NewApp(nil)
	cdkutil.StoreConfig(app, cfg)

	p := build(app, cfg, cdktest.Env(), models.Stages{
		{Name: "Dev", AccountID: "111111111111", Order: 1},
		{Name: "Prod", AccountID: "222222222222", Order: 2, RequiresApproval: true},
	})

	template := assertions.Template_FromStack(p.Stack, nil)
	template.HasResourceProperties(jsii.String("AWS::CodePipeline::Pipeline"), map[string]any{
		"Name": PipelineName,
		"Stages": assertions.Match_ArrayWith(&[]any{
			assertions.Match_ObjectLike(&map[string]any{"Name": "Dev"}),
			assertions.Match_ObjectLike(&map[string]any{
				"Name": "Prod",
				"Actions": assertions.Match_ArrayWith(&[]any{
					assertions.Match_ObjectLike(&map[string]any{"Name": "ApproveProd"}),
				}),
			}),
		}),
	})
}

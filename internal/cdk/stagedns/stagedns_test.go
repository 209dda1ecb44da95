//nolint:paralleltest // jsii runtime doesn't support parallel tests
package stagedns_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdktest"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/stagedns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStack(t *testing.T) {
	defer jsii.Close()

	app := cdktest.NewApp(nil)
	stack, err := stagedns.NewStack(app, "MyTestStack", stagedns.Props{
		StageName:          "test",
		StageDomainMapping: map[string]string{"test": "dev-mycompany.com"},
	})
	require.NoError(t, err)

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::Route53::HostedZone"), map[string]any{
		"Name": "dev-mycompany.com.",
	})
	template.HasOutput(jsii.String("HostedZoneId"), map[string]any{})
	template.HasOutput(jsii.String("HostedZoneArn"), map[string]any{})
	template.HasOutput(jsii.String("NSrecords"), map[string]any{
		"Value": map[string]any{
			"Fn::Join": assertions.Match_ArrayWith(&[]any{","}),
		},
	})
}

func TestNewStack_UnmappedStage(t *testing.T) {
	defer jsii.Close()

	app := cdktest.NewApp(nil)
	_, err := stagedns.NewStack(app, "MyTestStack", stagedns.Props{
		StageName:          "prod",
		StageDomainMapping: map[string]string{"test": "dev-mycompany.com"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"prod"`)
}

func TestNewStage(t *testing.T) {
	defer jsii.Close()

	app := cdktest.NewApp(nil)
	cdkutil.StoreConfig(app, &cdkutil.Config{
		StageDomainMapping: map[string]string{"dev": "dev.example.com"},
	})

	stage, err := stagedns.NewStage(app, "Dev", &awscdk.StageProps{Env: cdktest.Env()})
	require.NoError(t, err)

	stack := awscdk.Stack_Of(stage.Node().FindChild(jsii.String(stagedns.StackID)))
	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::Route53::HostedZone"), map[string]any{
		"Name": "dev.example.com.",
	})
}

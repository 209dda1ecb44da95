//nolint:paralleltest // jsii runtime doesn't support parallel tests
package feedback_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdktest"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/feedback"
)

func init() {
	cdktest.ChdirModuleRoot()
}

func TestNewStack(t *testing.T) {
	defer jsii.Close()

	app := cdktest.NewApp(nil)
	fb := feedback.NewStack(app, "Feedback", feedback.Props{
		StackProps: awscdk.StackProps{Env: cdktest.Env()},
	})

	template := assertions.Template_FromStack(fb.Stack, nil)
	template.HasResourceProperties(jsii.String("AWS::DynamoDB::Table"), map[string]any{
		"KeySchema": []any{
			map[string]any{"AttributeName": "Key", "KeyType": "HASH"},
		},
		"BillingMode":      "PAY_PER_REQUEST",
		"SSESpecification": map[string]any{"SSEEnabled": true},
	})
	template.HasResourceProperties(jsii.String("AWS::ApiGateway::RestApi"), map[string]any{
		"Name": "Landing Page API",
	})
	template.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]any{
		"Architectures": []any{"arm64"},
		"Runtime":       "provided.al2023",
		"Environment": map[string]any{
			"Variables": map[string]any{
				"TABLE_NAME":                  assertions.Match_AnyValue(),
				"Access_Control_Allow_Origin": assertions.Match_AnyValue(),
			},
		},
	})
	template.ResourceCountIs(jsii.String("AWS::ApiGateway::Method"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::ApiGateway::Method"), map[string]any{
		"HttpMethod": "POST",
	})
	template.HasResourceProperties(jsii.String("AWS::ApiGateway::Resource"), map[string]any{
		"PathPart": "feedback",
	})
	template.HasResourceProperties(jsii.String("AWS::S3::Bucket"), map[string]any{
		"Tags": assertions.Match_ArrayWith(&[]any{
			map[string]any{"Key": "ServiceName", "Value": "LandingPage"},
		}),
	})
	template.ResourceCountIs(jsii.String("AWS::CloudFront::Distribution"), jsii.Number(1))
	template.HasOutput(jsii.String("DistributionDomainName"), map[string]any{})
}

func TestNewStage(t *testing.T) {
	defer jsii.Close()

	app := cdktest.NewApp(nil)
	stage := feedback.NewStage(app, "Dev", &awscdk.StageProps{Env: cdktest.Env()})

	stack := awscdk.Stack_Of(stage.Node().FindChild(jsii.String(feedback.StackID)))
	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::DynamoDB::Table"), jsii.Number(1))
}

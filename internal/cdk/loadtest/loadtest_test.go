//nolint:paralleltest // jsii runtime doesn't support parallel tests
package loadtest_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdktest"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/loadtest"
)

func init() {
	cdktest.ChdirModuleRoot()
}

func TestNewStack(t *testing.T) {
	defer jsii.Close()

	app := cdktest.NewApp(nil)
	lt := loadtest.NewStack(app, loadtest.StackID, loadtest.Props{
		StackProps: awscdk.StackProps{Env: cdktest.Env()},
	})

	template := assertions.Template_FromStack(lt.Stack, nil)
	template.HasResourceProperties(jsii.String("AWS::StepFunctions::StateMachine"), map[string]any{
		"StateMachineName": "LoadTest",
	})
	template.ResourceCountIs(jsii.String("AWS::Lambda::Function"), jsii.Number(4))
	template.HasResourceProperties(jsii.String("AWS::IAM::Role"), map[string]any{
		"RoleName": "TriggerLoadTestRole",
	})
	template.HasResourceProperties(jsii.String("AWS::IAM::Role"), map[string]any{
		"RoleName": "createUserRole",
	})
	template.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]any{
		"Timeout": 900,
		"Environment": map[string]any{
			"Variables": map[string]any{
				"USER_POOL_ID":     map[string]any{"Fn::ImportValue": "UserPoolId"},
				"CLIENT_ID":        map[string]any{"Fn::ImportValue": "UserPoolClientId"},
				"API_URL":          map[string]any{"Fn::ImportValue": "apiEndpoint"},
				"PICTURE_BUCKET":   assertions.Match_AnyValue(),
				"PICTURE_KEY":      assertions.Match_AnyValue(),
				"DEFAULT_PASSWORD": "Password1/",
			},
		},
	})
	template.HasOutput(jsii.String("StateMachineArn"), map[string]any{})
}

func TestNewStack_Definition(t *testing.T) {
	defer jsii.Close()

	app := cdktest.NewApp(nil)
	lt := loadtest.NewStack(app, loadtest.StackID, loadtest.Props{
		StackProps: awscdk.StackProps{Env: cdktest.Env()},
	})

	template := assertions.Template_FromStack(lt.Stack, nil)
	// the definition is a Fn::Join of literal chunks and function arns
	template.HasResourceProperties(jsii.String("AWS::StepFunctions::StateMachine"), map[string]any{
		"DefinitionString": map[string]any{
			"Fn::Join": assertions.Match_ArrayWith(&[]any{
				assertions.Match_ArrayWith(&[]any{
					assertions.Match_StringLikeRegexp(jsii.String(`"StartAt":"Check Input Params"`)),
				}),
			}),
		},
	})
	template.HasResourceProperties(jsii.String("AWS::StepFunctions::StateMachine"), map[string]any{
		"DefinitionString": map[string]any{
			"Fn::Join": assertions.Match_ArrayWith(&[]any{
				assertions.Match_ArrayWith(&[]any{
					assertions.Match_StringLikeRegexp(jsii.String(`"Variable":"\$\.TestDurationMinutes","NumericGreaterThanEquals":14`)),
				}),
			}),
		},
	})
}

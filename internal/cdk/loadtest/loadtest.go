// Package loadtest deploys the LoadTest state machine that creates virtual
// users, drives traffic against the posts API and removes the users again.
package loadtest

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	sfn "github.com/aws/aws-cdk-go/awscdk/v2/awsstepfunctions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsstepfunctionstasks"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/unicornpics"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
)

const (
	StackID          = "LoadtestingStack"
	StateMachineName = "LoadTest"

	// DefaultPicture is uploaded by every virtual user
	DefaultPicture = "web/loadtest/unicorn.png"
)

// Props configures the load test stack
type Props struct {
	awscdk.StackProps

	Picture string
}

// LoadTest is the deployed state machine
type LoadTest struct {
	Stack        awscdk.Stack
	StateMachine sfn.StateMachine
}

func newLambdaRole(stack awscdk.Stack, id, name string) awsiam.Role {
	role := awsiam.NewRole(stack, jsii.String(id), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("lambda.amazonaws.com"), nil),
		RoleName:  jsii.String(name),
	})
	role.AddManagedPolicy(awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("service-role/AWSLambdaBasicExecutionRole")))
	role.AddManagedPolicy(awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("AmazonCognitoPowerUser")))
	return role
}

// NewStack creates the functions and the state machine. The user pool and
// the API are imported from the exports of the app stack.
func NewStack(scope constructs.Construct, id string, props Props) *LoadTest {
	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)
	cdkutil.AcknowledgeBuildFlags(stack)

	picturePath := props.Picture
	if picturePath == "" {
		picturePath = DefaultPicture
	}

	userPoolClientID := awscdk.Fn_ImportValue(jsii.String(unicornpics.UserPoolClientIDExport))
	userPoolID := awscdk.Fn_ImportValue(jsii.String(unicornpics.UserPoolIDExport))
	apiURL := awscdk.Fn_ImportValue(jsii.String(unicornpics.APIEndpointExport))

	picture := awss3assets.NewAsset(stack, jsii.String("UnicornPic"), &awss3assets.AssetProps{
		Path: jsii.String(picturePath),
	})

	cognitoRole := newLambdaRole(stack, "createUserRole", "createUserRole")
	triggerRole := newLambdaRole(stack, "triggerLoadTestRole", "TriggerLoadTestRole")
	triggerRole.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("s3:GetObject", "s3:GetObjectVersion"),
		Resources: jsii.Strings(*picture.Bucket().ArnForObjects(picture.S3ObjectKey())),
	}))

	createUserIDs := cdkutil.NewGoFunction(stack, cdkutil.FunctionProps{
		Handler: "loadtest/create-user-ids",
	})
	createUsers := cdkutil.NewGoFunction(stack, cdkutil.FunctionProps{
		Handler: "loadtest/create-users",
		Environment: map[string]*string{
			"CLIENT_ID":        userPoolClientID,
			"DEFAULT_PASSWORD": jsii.String(models.LoadTestDefaultPassword),
		},
		Role:    cognitoRole,
		Timeout: awscdk.Duration_Minutes(jsii.Number(5)),
	})
	triggerLoad := cdkutil.NewGoFunction(stack, cdkutil.FunctionProps{
		Handler: "loadtest/trigger-load",
		Environment: map[string]*string{
			"USER_POOL_ID":     userPoolID,
			"CLIENT_ID":        userPoolClientID,
			"API_URL":          apiURL,
			"PICTURE_BUCKET":   picture.S3BucketName(),
			"PICTURE_KEY":      picture.S3ObjectKey(),
			"DEFAULT_PASSWORD": jsii.String(models.LoadTestDefaultPassword),
		},
		Role:    triggerRole,
		Timeout: awscdk.Duration_Minutes(jsii.Number(15)),
	})
	cleanUpUsers := cdkutil.NewGoFunction(stack, cdkutil.FunctionProps{
		Handler: "loadtest/cleanup-users",
		Environment: map[string]*string{
			"USER_POOL_ID": userPoolID,
		},
		Role:    cognitoRole,
		Timeout: awscdk.Duration_Minutes(jsii.Number(5)),
	})

	cleanUp := awsstepfunctionstasks.NewLambdaInvoke(stack, jsii.String("Clean Up"), &awsstepfunctionstasks.LambdaInvokeProps{
		LambdaFunction:           cleanUpUsers,
		RetryOnServiceExceptions: jsii.Bool(true),
	})
	inputValidationFailed := sfn.NewFail(stack, jsii.String("Input Validation Failed"), &sfn.FailProps{
		Cause: jsii.String("Input Validation Failed. Please ensure parameters do not exceed limits."),
		Error: jsii.String("NumberOfUsers > 1000 OR NumberOfLikesPerUser > 1000 OR TestDurationMinutes >= 14"),
	})
	testComplete := sfn.NewPass(stack, jsii.String("Test Complete"), nil)

	createUserIDsTask := awsstepfunctionstasks.NewLambdaInvoke(stack, jsii.String("Create User Ids"), &awsstepfunctionstasks.LambdaInvokeProps{
		LambdaFunction: createUserIDs,
		InputPath:      jsii.String("$"),
		OutputPath:     jsii.String("$.Payload.userNames"),
	})
	createUsersTask := awsstepfunctionstasks.NewLambdaInvoke(stack, jsii.String("Create Users"), &awsstepfunctionstasks.LambdaInvokeProps{
		LambdaFunction: createUsers,
		ResultPath:     sfn.JsonPath_DISCARD(),
	})
	triggerLoadTask := awsstepfunctionstasks.NewLambdaInvoke(stack, jsii.String("Trigger Load"), &awsstepfunctionstasks.LambdaInvokeProps{
		LambdaFunction:           triggerLoad,
		RetryOnServiceExceptions: jsii.Bool(true),
		ResultPath:               sfn.JsonPath_DISCARD(),
	})
	triggerAllLoad := sfn.NewMap(stack, jsii.String("Trigger All Load"), &sfn.MapProps{
		MaxConcurrency: jsii.Number(0),
	}).ItemProcessor(triggerLoadTask, nil)

	// each virtual user is cleaned up even when a trigger fails
	run := createUserIDsTask.
		Next(createUsersTask).
		Next(triggerAllLoad.AddCatch(cleanUp, &sfn.CatchProps{
			ResultPath: sfn.JsonPath_DISCARD(),
		})).
		Next(cleanUp).
		Next(testComplete)

	definition := sfn.NewChoice(stack, jsii.String("Check Input Params"), nil).
		When(sfn.Condition_NumberGreaterThan(jsii.String("$.NumberOfUsers"), jsii.Number(models.MaxLoadTestUsers)), inputValidationFailed, nil).
		When(sfn.Condition_NumberGreaterThan(jsii.String("$.NumberOfLikesPerUser"), jsii.Number(models.MaxLoadTestLikesPerUser)), inputValidationFailed, nil).
		When(sfn.Condition_NumberGreaterThanEquals(jsii.String("$.TestDurationMinutes"), jsii.Number(models.MaxLoadTestMinutes)), inputValidationFailed, nil).
		Otherwise(run)

	lt := &LoadTest{Stack: stack}
	lt.StateMachine = sfn.NewStateMachine(stack, jsii.String("Load Test StateMachine"), &sfn.StateMachineProps{
		DefinitionBody:   sfn.DefinitionBody_FromChainable(definition),
		StateMachineName: jsii.String(StateMachineName),
	})

	awscdk.NewCfnOutput(stack, jsii.String("StateMachineArn"), &awscdk.CfnOutputProps{
		Value: lt.StateMachine.StateMachineArn(),
	})

	return lt
}

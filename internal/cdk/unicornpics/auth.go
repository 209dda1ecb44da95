package unicornpics

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscognito"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
)

const (
	UserPoolName           = "activate-userpool"
	UserPoolIDExport       = "UserPoolId"
	UserPoolClientIDExport = "UserPoolClientId"

	verificationMessage = "Hello {username}, Thanks for signing up to our Activate app! Your verification code is {####}"
)

// Auth is the user pool of the app and its web client
type Auth struct {
	UserPool       awscognito.UserPool
	UserPoolClient awscognito.UserPoolClient
}

// NewAuth creates the user pool. Sign ups are screened by the pre-signup
// function, the client allows admin password auth for load tests.
func NewAuth(scope constructs.Construct, id string) *Auth {
	construct := constructs.NewConstruct(scope, jsii.String(id))

	preSignUp := cdkutil.NewGoFunction(construct, cdkutil.FunctionProps{
		Handler: "auth/pre-signup",
	})

	auth := &Auth{}
	auth.UserPool = awscognito.NewUserPool(construct, jsii.String("activatePool"), &awscognito.UserPoolProps{
		UserPoolName:      jsii.String(UserPoolName),
		SelfSignUpEnabled: jsii.Bool(true),
		UserVerification: &awscognito.UserVerificationConfig{
			EmailSubject: jsii.String("Verify your email for our Activate app!"),
			EmailBody:    jsii.String(verificationMessage),
			EmailStyle:   awscognito.VerificationEmailStyle_CODE,
			SmsMessage:   jsii.String(verificationMessage),
		},
		SignInAliases: &awscognito.SignInAliases{
			Username: jsii.Bool(true),
			Email:    jsii.Bool(true),
		},
		LambdaTriggers: &awscognito.UserPoolTriggers{
			PreSignUp: preSignUp,
		},
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})

	auth.UserPoolClient = auth.UserPool.AddClient(jsii.String("activate-app-client"), &awscognito.UserPoolClientOptions{
		AuthFlows: &awscognito.AuthFlow{
			AdminUserPassword: jsii.Bool(true),
			UserPassword:      jsii.Bool(true),
			UserSrp:           jsii.Bool(true),
		},
	})

	awscdk.NewCfnOutput(construct, jsii.String("UserPoolId"), &awscdk.CfnOutputProps{
		Value:      auth.UserPool.UserPoolId(),
		ExportName: jsii.String(UserPoolIDExport),
	})
	awscdk.NewCfnOutput(construct, jsii.String("UserPoolClientId"), &awscdk.CfnOutputProps{
		Value:      auth.UserPoolClient.UserPoolClientId(),
		ExportName: jsii.String(UserPoolClientIDExport),
	})

	return auth
}

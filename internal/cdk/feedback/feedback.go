// Package feedback deploys the landing page with a survey form backed by an
// API Gateway endpoint, a Lambda function and a DynamoDB table.
package feedback

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
)

const (
	// StackID is the id of the stack inside a feedback stage
	StackID = "LandingPageStack"

	// DefaultAssets is the directory deployed to the bucket
	DefaultAssets = "web/landing-page-feedback"

	// ServiceName tags every resource of the stack
	ServiceName = "LandingPage"

	// Handler is the Lambda handler storing survey entries
	Handler = "feedback"

	APIName = "Landing Page API"
)

// Props configures the feedback stack
type Props struct {
	awscdk.StackProps

	Assets string
}

// Feedback is the deployed page and its API
type Feedback struct {
	Stack        awscdk.Stack
	Bucket       awss3.Bucket
	Distribution awscloudfront.Distribution
	Table        awsdynamodb.Table
	API          awsapigateway.RestApi
}

// NewStack creates the page, the feedback table, the function storing
// entries and the API in front of it. The page reads the API url from
// config.json at the bucket root.
func NewStack(scope constructs.Construct, id string, props Props) *Feedback {
	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)
	cdkutil.TagServiceName(stack, ServiceName)
	cdkutil.AcknowledgeBuildFlags(stack)

	assets := props.Assets
	if assets == "" {
		assets = DefaultAssets
	}

	fb := &Feedback{Stack: stack}
	fb.Bucket = awss3.NewBucket(stack, jsii.String("FrontendBucket"), &awss3.BucketProps{
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		ObjectOwnership:   awss3.ObjectOwnership_BUCKET_OWNER_ENFORCED,
		RemovalPolicy:     awscdk.RemovalPolicy_DESTROY,
		AutoDeleteObjects: jsii.Bool(true),
	})
	fb.Distribution = awscloudfront.NewDistribution(stack, jsii.String("FrontendDistribution"), &awscloudfront.DistributionProps{
		DefaultRootObject: jsii.String("index.html"),
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin:               awscloudfrontorigins.S3BucketOrigin_WithOriginAccessControl(fb.Bucket, nil),
			ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		},
	})

	fb.Table = awsdynamodb.NewTable(stack, jsii.String("FeedbackTable"), &awsdynamodb.TableProps{
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("Key"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		BillingMode:   awsdynamodb.BillingMode_PAY_PER_REQUEST,
		Encryption:    awsdynamodb.TableEncryption_AWS_MANAGED,
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})

	origin := awscdk.Fn_Join(jsii.String(""), &[]*string{
		jsii.String("https://"),
		fb.Distribution.DistributionDomainName(),
	})
	fn := cdkutil.NewGoFunction(stack, cdkutil.FunctionProps{
		Handler: Handler,
		Environment: map[string]*string{
			"TABLE_NAME":                  fb.Table.TableName(),
			"Access_Control_Allow_Origin": origin,
		},
	})
	fb.Table.GrantWriteData(fn)

	fb.API = awsapigateway.NewRestApi(stack, jsii.String("FeedbackApi"), &awsapigateway.RestApiProps{
		RestApiName: jsii.String(APIName),
		Description: jsii.String("Handles the request from the landing page."),
	})
	integration := awsapigateway.NewLambdaIntegration(fn, nil)
	resource := fb.API.Root().AddResource(jsii.String("feedback"), nil)
	resource.AddMethod(jsii.String("POST"), integration, nil)
	resource.AddMethod(jsii.String("OPTIONS"), integration, nil)

	awss3deployment.NewBucketDeployment(stack, jsii.String("FrontendDeployment"), &awss3deployment.BucketDeploymentProps{
		Sources: &[]awss3deployment.ISource{
			awss3deployment.Source_Asset(jsii.String(assets), nil),
			awss3deployment.Source_JsonData(jsii.String("config.json"), map[string]any{
				"API_URL": fb.API.Url(),
			}, nil),
		},
		DestinationBucket: fb.Bucket,
		Distribution:      fb.Distribution,
		DistributionPaths: jsii.Strings("/*"),
	})

	awscdk.NewCfnOutput(stack, jsii.String("DistributionDomainName"), &awscdk.CfnOutputProps{
		Value: fb.Distribution.DistributionDomainName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("FeedbackApiUrl"), &awscdk.CfnOutputProps{
		Value: fb.API.Url(),
	})

	return fb
}

// NewStage wraps the feedback stack
func NewStage(scope constructs.Construct, id string, props *awscdk.StageProps) awscdk.Stage {
	stage := awscdk.NewStage(scope, jsii.String(id), props)
	NewStack(stage, StackID, Props{})
	return stage
}

package unicornpics

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscognito"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambdaeventsources"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
)

const (
	APIName           = "Posts Service"
	APIEndpointExport = "apiEndpoint"
)

// PostsServiceProps wires the posts service to the pool and the bucket
type PostsServiceProps struct {
	Auth     *Auth
	Frontend *Frontend
}

// PostsService is the posts table and the API serving it
type PostsService struct {
	Table awsdynamodb.Table
	API   awsapigateway.RestApi
}

// NewPostsService creates the table, one function per route and the API.
// Every route requires a user pool token.
func NewPostsService(scope constructs.Construct, id string, props PostsServiceProps) *PostsService {
	construct := constructs.NewConstruct(scope, jsii.String(id))

	svc := &PostsService{}
	svc.Table = awsdynamodb.NewTable(construct, jsii.String("posts"), &awsdynamodb.TableProps{
		PartitionKey: &awsdynamodb.Attribute{Name: jsii.String("userId"), Type: awsdynamodb.AttributeType_STRING},
		SortKey:      &awsdynamodb.Attribute{Name: jsii.String("postId"), Type: awsdynamodb.AttributeType_STRING},
		BillingMode:  awsdynamodb.BillingMode_PAY_PER_REQUEST,
	})

	svc.API = awsapigateway.NewRestApi(construct, jsii.String("posts-api"), &awsapigateway.RestApiProps{
		RestApiName: jsii.String(APIName),
		Description: jsii.String("This service manages posts."),
		DefaultCorsPreflightOptions: &awsapigateway.CorsOptions{
			AllowOrigins: awsapigateway.Cors_ALL_ORIGINS(),
			AllowMethods: awsapigateway.Cors_ALL_METHODS(),
		},
	})
	authorizer := awsapigateway.NewCognitoUserPoolsAuthorizer(construct, jsii.String("APIGatewayAuthorizer"),
		&awsapigateway.CognitoUserPoolsAuthorizerProps{
			AuthorizerName:   jsii.String("activate-authorizer"),
			CognitoUserPools: &[]awscognito.IUserPool{props.Auth.UserPool},
		})
	methodOptions := &awsapigateway.MethodOptions{
		AuthorizationType: awsapigateway.AuthorizationType_COGNITO,
		Authorizer:        authorizer,
	}
	route := func(resource awsapigateway.IResource, method string, fn awslambda.IFunction) {
		resource.AddMethod(jsii.String(method), awsapigateway.NewLambdaIntegration(fn, nil), methodOptions)
	}
	tableEnv := map[string]*string{
		"POSTS_TABLE_NAME": svc.Table.TableName(),
	}

	getPosts := cdkutil.NewGoFunction(construct, cdkutil.FunctionProps{Handler: "posts/get-posts", Environment: tableEnv})
	svc.Table.GrantReadData(getPosts)
	route(svc.API.Root(), "GET", getPosts)

	getPostsByUser := cdkutil.NewGoFunction(construct, cdkutil.FunctionProps{Handler: "posts/get-posts-by-user", Environment: tableEnv})
	svc.Table.GrantReadData(getPostsByUser)
	route(svc.API.Root().AddResource(jsii.String("users"), nil).AddResource(jsii.String("{user_id}"), nil), "GET", getPostsByUser)

	// like and dislike share a handler, the direction comes from the environment
	for _, direction := range []string{"like", "dislike"} {
		fn := cdkutil.NewGoFunctionWithID(construct, direction+"Post", cdkutil.FunctionProps{
			Handler: "posts/vote-post",
			Environment: map[string]*string{
				"POSTS_TABLE_NAME": svc.Table.TableName(),
				"VOTE_DIRECTION":   jsii.String(direction),
			},
		})
		svc.Table.GrantReadWriteData(fn)
		route(svc.API.Root().AddResource(jsii.String(direction), nil), "PUT", fn)
	}

	preparePost := cdkutil.NewGoFunction(construct, cdkutil.FunctionProps{
		Handler: "posts/prepare-post",
		Environment: map[string]*string{
			"POST_BUCKET_NAME": props.Frontend.Bucket.BucketName(),
		},
	})
	props.Frontend.Bucket.GrantPut(preparePost, nil)
	route(svc.API.Root().AddResource(jsii.String("preparepost"), nil), "PUT", preparePost)

	newPost := cdkutil.NewGoFunction(construct, cdkutil.FunctionProps{
		Handler: "posts/new-post",
		Environment: map[string]*string{
			"POSTS_TABLE_NAME": svc.Table.TableName(),
			"CLOUDFRONT_DIST":  props.Frontend.Distribution.DistributionDomainName(),
		},
	})
	svc.Table.GrantWriteData(newPost)
	props.Frontend.Bucket.GrantRead(newPost, nil)
	newPost.AddEventSource(awslambdaeventsources.NewS3EventSource(props.Frontend.Bucket, &awslambdaeventsources.S3EventSourceProps{
		Events: &[]awss3.EventType{awss3.EventType_OBJECT_CREATED},
		Filters: &[]*awss3.NotificationKeyFilter{
			{Suffix: jsii.String(".jpg")},
		},
	}))

	awscdk.NewCfnOutput(construct, jsii.String("apiEndpoint"), &awscdk.CfnOutputProps{
		Value:      svc.API.Url(),
		ExportName: jsii.String(APIEndpointExport),
	})

	return svc
}

// Package unicornpics deploys the picture sharing app: a Cognito user pool,
// the posts API with its table, the web frontend and two dashboards.
package unicornpics

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
)

const (
	StackID = "UnicornPicsStack"

	// DefaultAssets is the built web app
	DefaultAssets = "web/unicornpics"
)

// Props configures the app stack
type Props struct {
	awscdk.StackProps

	Assets string
}

// UnicornPics is the deployed app
type UnicornPics struct {
	Stack    awscdk.Stack
	Frontend *Frontend
	Auth     *Auth
	Posts    *PostsService
}

// FrontendConfig is written to config.json for the web app to find the pool
// and the API
func FrontendConfig(region, userPoolID, clientID, apiName, apiURL *string) map[string]any {
	return map[string]any{
		"Auth": map[string]any{
			"region":              region,
			"userPoolId":          userPoolID,
			"userPoolWebClientId": clientID,
		},
		"API": map[string]any{
			"endpoints": []any{
				map[string]any{
					"name":     apiName,
					"endpoint": apiURL,
				},
			},
		},
		"Analytics": map[string]any{
			"disabled": true,
		},
	}
}

// NewStack creates the app
func NewStack(scope constructs.Construct, id string, props Props) *UnicornPics {
	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)
	cdkutil.AcknowledgeBuildFlags(stack)

	assets := props.Assets
	if assets == "" {
		assets = DefaultAssets
	}

	app := &UnicornPics{Stack: stack}
	app.Frontend = NewFrontend(stack, "frontend")
	app.Auth = NewAuth(stack, "userAuth")
	app.Posts = NewPostsService(stack, "postsService", PostsServiceProps{
		Auth:     app.Auth,
		Frontend: app.Frontend,
	})
	NewMonitoring(stack, "monitoring", MonitoringProps{
		Auth:  app.Auth,
		Posts: app.Posts,
	})

	config := FrontendConfig(
		stack.Region(),
		app.Auth.UserPool.UserPoolId(),
		app.Auth.UserPoolClient.UserPoolClientId(),
		jsii.String(APIName),
		app.Posts.API.Url(),
	)
	// uploaded pictures share the bucket, so nothing is pruned
	awss3deployment.NewBucketDeployment(stack, jsii.String("DeployWithInvalidation"), &awss3deployment.BucketDeploymentProps{
		Sources: &[]awss3deployment.ISource{
			awss3deployment.Source_Asset(jsii.String(assets), nil),
			awss3deployment.Source_JsonData(jsii.String("config.json"), config, nil),
		},
		DestinationBucket: app.Frontend.Bucket,
		Prune:             jsii.Bool(false),
		Distribution:      app.Frontend.Distribution,
		DistributionPaths: jsii.Strings("/*"),
	})

	return app
}

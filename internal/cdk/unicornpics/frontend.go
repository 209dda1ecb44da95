package unicornpics

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// Frontend is the bucket holding both the web app and uploaded pictures,
// served by one distribution
type Frontend struct {
	Bucket       awss3.Bucket
	Distribution awscloudfront.Distribution
}

// NewFrontend creates the bucket and the distribution. Unknown paths render
// index.html so the web app can route client side.
func NewFrontend(scope constructs.Construct, id string) *Frontend {
	construct := constructs.NewConstruct(scope, jsii.String(id))

	frontend := &Frontend{}
	frontend.Bucket = awss3.NewBucket(construct, jsii.String("activateBucket"), &awss3.BucketProps{
		Versioned:         jsii.Bool(true),
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		ObjectOwnership:   awss3.ObjectOwnership_BUCKET_OWNER_ENFORCED,
		// pictures are uploaded with presigned URLs from any origin
		Cors: &[]*awss3.CorsRule{
			{
				AllowedMethods: &[]awss3.HttpMethods{awss3.HttpMethods_PUT},
				AllowedHeaders: jsii.Strings("*"),
				AllowedOrigins: jsii.Strings("*"),
			},
		},
	})

	frontend.Distribution = awscloudfront.NewDistribution(construct, jsii.String("activateDistribution"), &awscloudfront.DistributionProps{
		DefaultRootObject: jsii.String("index.html"),
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin:               awscloudfrontorigins.S3BucketOrigin_WithOriginAccessControl(frontend.Bucket, nil),
			ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		},
		ErrorResponses: &[]*awscloudfront.ErrorResponse{
			{
				HttpStatus:         jsii.Number(404),
				ResponsePagePath:   jsii.String("/index.html"),
				ResponseHttpStatus: jsii.Number(200),
			},
		},
	})

	awscdk.NewCfnOutput(construct, jsii.String("websiteUrl"), &awscdk.CfnOutputProps{
		Value: awscdk.Fn_Join(jsii.String(""), &[]*string{
			jsii.String("https://"),
			frontend.Distribution.DistributionDomainName(),
		}),
	})

	return frontend
}

// Package landingpage serves the static landing page from S3 through
// CloudFront, optionally under <service>.<stage>.<domain>.
package landingpage

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/cdk/cdkutil"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
)

// DefaultAssets is the directory deployed to the bucket
const DefaultAssets = "web/landing-page"

// StackID is the id of the stack inside a landing page stage
const StackID = "LandingPageStack"

// Props configures the landing page stack
type Props struct {
	awscdk.StackProps

	// StageName is the lower case stage, part of the page's domain
	StageName    string
	ServiceName  string
	DomainName   string
	DNSAccountID string
	Assets       string
}

// LandingPage is the deployed page
type LandingPage struct {
	Stack        awscdk.Stack
	Bucket       awss3.Bucket
	Distribution awscloudfront.Distribution
	// URL is the custom domain, empty when the page is served from the
	// distribution's domain
	URL string
}

// URL returns the custom domain of the page
func URL(serviceName, stageName, domainName string) string {
	return fmt.Sprintf("%s.%s.%s", strings.ToLower(serviceName), stageName, domainName)
}

// NewStack creates the landing page. A custom domain is used only when both
// DomainName and ServiceName are set.
func NewStack(scope constructs.Construct, id string, props Props) *LandingPage {
	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)
	cdkutil.TagServiceName(stack, props.ServiceName)

	assets := props.Assets
	if assets == "" {
		assets = DefaultAssets
	}

	page := &LandingPage{Stack: stack}
	page.Bucket = awss3.NewBucket(stack, jsii.String("LandingPageBucket"), &awss3.BucketProps{
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		ObjectOwnership:   awss3.ObjectOwnership_BUCKET_OWNER_ENFORCED,
	})

	distributionProps := &awscloudfront.DistributionProps{
		DefaultRootObject: jsii.String("index.html"),
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin:               awscloudfrontorigins.S3BucketOrigin_WithOriginAccessControl(page.Bucket, nil),
			ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		},
	}

	var zone awsroute53.PublicHostedZone
	if props.DomainName != "" && props.ServiceName != "" {
		page.URL = URL(props.ServiceName, props.StageName, props.DomainName)
		zone = delegatedZone(stack, page.URL, props)

		certificate := awscertificatemanager.NewDnsValidatedCertificate(stack, jsii.String("Certificate"),
			&awscertificatemanager.DnsValidatedCertificateProps{
				DomainName: jsii.String(page.URL),
				HostedZone: zone,
				Region:     jsii.String(constants.CertificateRegion),
				Validation: awscertificatemanager.CertificateValidation_FromDns(zone),
			})
		distributionProps.DomainNames = jsii.Strings(page.URL)
		distributionProps.Certificate = certificate
	}

	page.Distribution = awscloudfront.NewDistribution(stack, jsii.String("LandingPageDistribution"), distributionProps)

	awss3deployment.NewBucketDeployment(stack, jsii.String("LandingPageDeployment"), &awss3deployment.BucketDeploymentProps{
		Sources:           &[]awss3deployment.ISource{awss3deployment.Source_Asset(jsii.String(assets), nil)},
		DestinationBucket: page.Bucket,
		RetainOnDelete:    jsii.Bool(false),
		Distribution:      page.Distribution,
		DistributionPaths: jsii.Strings("/*"),
	})

	if zone == nil {
		awscdk.NewCfnOutput(stack, jsii.String("LandingPageUrl"), &awscdk.CfnOutputProps{
			Value: page.Distribution.DistributionDomainName(),
		})
		return page
	}

	awsroute53.NewARecord(stack, jsii.String("Alias"), &awsroute53.ARecordProps{
		Zone:       zone,
		RecordName: jsii.String(page.URL),
		Target:     awsroute53.RecordTarget_FromAlias(awsroute53targets.NewCloudFrontTarget(page.Distribution)),
	})
	awscdk.NewCfnOutput(stack, jsii.String("LandingPageUrl"), &awscdk.CfnOutputProps{
		Value: jsii.String("https://" + page.URL),
	})
	return page
}

// delegatedZone hosts url in the stage account. With a DNS account the zone
// is delegated from the root zone through the stage's delegation role.
func delegatedZone(stack awscdk.Stack, url string, props Props) awsroute53.PublicHostedZone {
	zone := awsroute53.NewPublicHostedZone(stack, jsii.String("SubzoneDelegation"), &awsroute53.PublicHostedZoneProps{
		ZoneName: jsii.String(url),
	})
	if props.DNSAccountID == "" {
		return zone
	}

	role := awsiam.Role_FromRoleArn(stack, jsii.String("DelegationRole"),
		jsii.String(constants.DNSDelegationRoleARN(props.DNSAccountID, props.StageName)), nil)
	awsroute53.NewCrossAccountZoneDelegationRecord(stack, jsii.String("Delegation"), &awsroute53.CrossAccountZoneDelegationRecordProps{
		DelegatedZone:        zone,
		ParentHostedZoneName: jsii.String(props.DomainName),
		DelegationRole:       role,
	})
	return zone
}

// NewStage wraps the landing page stack in a stage named id. The stage name
// part of the domain is id in lower case.
func NewStage(scope constructs.Construct, id string, props *awscdk.StageProps) awscdk.Stage {
	stage := awscdk.NewStage(scope, jsii.String(id), props)
	cfg := cdkutil.ConfigFromScope(scope)

	NewStack(stage, StackID, Props{
		StageName:    strings.ToLower(id),
		ServiceName:  cfg.ServiceName,
		DomainName:   cfg.DomainName,
		DNSAccountID: cfg.DNSAccountID,
	})
	return stage
}

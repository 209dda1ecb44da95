package cdkutil

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/jsii-runtime-go"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
)

// ApplyPermissionsBoundary attaches the boundary exported by the CICD account
// bootstrap to every role and user of stack
func ApplyPermissionsBoundary(stack awscdk.Stack) {
	arn := awscdk.Fn_ImportValue(jsii.String(constants.PermissionsBoundaryExport))
	boundary := awsiam.ManagedPolicy_FromManagedPolicyArn(stack, jsii.String("PermissionsBoundary"), arn)
	awsiam.PermissionsBoundary_Of(stack).Apply(boundary)
}

// TagServiceName tags every taggable resource of scope with the ServiceName tag
func TagServiceName(scope awscdk.Stack, serviceName string) {
	if serviceName == "" {
		return
	}
	awscdk.Tags_Of(scope).Add(jsii.String(constants.TagServiceName), jsii.String(serviceName), nil)
}

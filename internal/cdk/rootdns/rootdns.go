// Package rootdns creates the root hosted zone in the DNS account and one
// delegation role per stage account.
package rootdns

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/iancoleman/strcase"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
)

// StackID is the id of the stack inside the root DNS stage
const StackID = "rootDNS"

// Props configures the root DNS stack
type Props struct {
	awscdk.StackProps

	RootDNSName string
	// Stages get a role they can assume to add NS records under the root zone
	Stages models.Stages
}

// RootDNS is the root zone and the delegation role of every stage
type RootDNS struct {
	Stack awscdk.Stack
	Zone  awsroute53.PublicHostedZone
	Roles map[string]awsiam.Role
}

// NewStack creates the root zone and the delegation roles
func NewStack(scope constructs.Construct, id string, props Props) *RootDNS {
	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)

	root := &RootDNS{
		Stack: stack,
		Roles: map[string]awsiam.Role{},
	}
	root.Zone = awsroute53.NewPublicHostedZone(stack, jsii.String("RootHostedZone"), &awsroute53.PublicHostedZoneProps{
		ZoneName: jsii.String(props.RootDNSName),
	})

	for _, stage := range props.Stages {
		role := awsiam.NewRole(stack, jsii.String(strcase.ToCamel(stage.Name)+"DNSDelegationRole"), &awsiam.RoleProps{
			RoleName:  jsii.String(constants.DNSDelegationRoleName(stage.Name)),
			AssumedBy: awsiam.NewAccountPrincipal(jsii.String(stage.AccountID)),
		})
		// the landing page delegates <service>.<stage>.<root>, so names are not narrowed
		root.Zone.GrantDelegation(role, nil)
		root.Roles[stage.Name] = role
	}

	awscdk.NewCfnOutput(stack, jsii.String("RootHostedZoneNameServers"), &awscdk.CfnOutputProps{
		Value: awscdk.Fn_Join(jsii.String(","), root.Zone.HostedZoneNameServers()),
	})

	return root
}

// NewStage wraps the root DNS stack
func NewStage(scope constructs.Construct, id string, props *awscdk.StageProps, stackProps Props) awscdk.Stage {
	stage := awscdk.NewStage(scope, jsii.String(id), props)
	NewStack(stage, StackID, stackProps)
	return stage
}

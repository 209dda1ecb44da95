// Package organization deploys the landing zone layout: one organizational
// unit per layout OU and one tagged account per layout account.
package organization

import (
	"sort"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsorganizations"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/iancoleman/strcase"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/landingzone"
)

// StackID is the id of the stack inside a landing zone stage
const StackID = "orgStack"

// Props configures the organization stack
type Props struct {
	awscdk.StackProps

	Layout *landingzone.Layout
	// Email is the organization email, account emails add a plus suffix
	Email              string
	OrganizationRootID string
}

// Tags converts the account's tags to CloudFormation tags, sorted by key
func Tags(account landingzone.Account) []*awscdk.CfnTag {
	tags := account.Tags()
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cfnTags := make([]*awscdk.CfnTag, 0, len(keys))
	for _, k := range keys {
		cfnTags = append(cfnTags, &awscdk.CfnTag{
			Key:   jsii.String(k),
			Value: jsii.String(tags[k]),
		})
	}
	return cfnTags
}

// NewStack creates the OUs under the organization root and the accounts in
// them. Accounts are created one after another, Organizations rejects
// concurrent account creation beyond a few requests.
func NewStack(scope constructs.Construct, id string, props Props) (awscdk.Stack, error) {
	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)

	var previous awsorganizations.CfnAccount
	for _, ou := range props.Layout.OUs {
		unit := awsorganizations.NewCfnOrganizationalUnit(stack, jsii.String(strcase.ToCamel(ou.Name)+"OU"),
			&awsorganizations.CfnOrganizationalUnitProps{
				Name:     jsii.String(ou.Name),
				ParentId: jsii.String(props.OrganizationRootID),
			})

		for _, account := range ou.Accounts {
			email, err := landingzone.Email(props.Email, account.Name)
			if err != nil {
				return nil, err
			}

			tags := Tags(account)
			cfnAccount := awsorganizations.NewCfnAccount(stack, jsii.String(strcase.ToCamel(account.Name)+"Account"),
				&awsorganizations.CfnAccountProps{
					AccountName: jsii.String(account.Name),
					Email:       jsii.String(email),
					ParentIds:   jsii.Strings(*unit.AttrId()),
					RoleName:    jsii.String(constants.OrganizationAccessRoleName),
					Tags:        &tags,
				})
			cfnAccount.ApplyRemovalPolicy(awscdk.RemovalPolicy_RETAIN, nil)
			if previous != nil {
				cfnAccount.AddDependency(previous)
			}
			previous = cfnAccount
		}
	}

	return stack, nil
}

// NewStage wraps the organization stack
func NewStage(scope constructs.Construct, id string, props *awscdk.StageProps, stackProps Props) (awscdk.Stage, error) {
	stage := awscdk.NewStage(scope, jsii.String(id), props)
	if _, err := NewStack(stage, StackID, stackProps); err != nil {
		return nil, err
	}
	return stage, nil
}

package constants

import (
	"fmt"
	"strings"
)

// Role names and templates used to reach into member accounts
const (
	// OrganizationAccessRoleName is the role AWS Organizations creates in every
	// member account it provisions. The landing zone bootstrap step assumes it
	// to run cdk bootstrap in each account.
	OrganizationAccessRoleName = "OrganizationAccountAccessRole"

	// DeployRoleTemplate is the CDK modern bootstrap deploy role,
	// formatted with qualifier, account and region
	DeployRoleTemplate = "arn:aws:iam::%s:role/cdk-%s-deploy-role-%s-%s"

	// DeployRoleWildcardTemplate matches the deploy role of every account and
	// region for a qualifier. Pipelines are allowed to assume it.
	DeployRoleWildcardTemplate = "arn:aws:iam::*:role/cdk-%s-deploy-role-*"

	// DNSDelegationRoleTemplate is the role created by the root DNS stack for
	// each stage, formatted with the stage name
	DNSDelegationRoleTemplate = "%s-dns-delegation"
)

// DeployRoleARN returns the CDK deploy role of account in region
func DeployRoleARN(account, region, qualifier string) string {
	return fmt.Sprintf(DeployRoleTemplate, account, qualifier, account, region)
}

// DeployRoleWildcardARN returns the ARN pattern for every deploy role using qualifier
func DeployRoleWildcardARN(qualifier string) string {
	return fmt.Sprintf(DeployRoleWildcardTemplate, qualifier)
}

// OrganizationAccessRoleWildcardARN matches the organization access role in every account
func OrganizationAccessRoleWildcardARN() string {
	return "arn:aws:iam::*:role/" + OrganizationAccessRoleName
}

// DNSDelegationRoleName returns the delegation role of stage in the DNS account
func DNSDelegationRoleName(stage string) string {
	return fmt.Sprintf(DNSDelegationRoleTemplate, strings.ToLower(stage))
}

// DNSDelegationRoleARN returns the delegation role of stage in dnsAccount
func DNSDelegationRoleARN(dnsAccount, stage string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", dnsAccount, DNSDelegationRoleName(stage))
}

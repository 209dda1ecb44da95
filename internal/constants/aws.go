package constants

const (
	// CICDProfile is the shared config profile used outside of CodeBuild
	CICDProfile = "cicd"

	// CodeBuildEnvVar is set by CodeBuild in every build container
	CodeBuildEnvVar = "CODEBUILD_BUILD_ID"

	// OrganizationsRegion is where the Organizations API is served from
	OrganizationsRegion = "us-east-1"

	// CertificateRegion is the only region CloudFront accepts certificates from
	CertificateRegion = "us-east-1"

	// ToolkitStackName is the stack created by cdk bootstrap
	ToolkitStackName = "CDKToolkit"

	// QualifierParameter is the CDKToolkit parameter holding the qualifier
	QualifierParameter = "Qualifier"

	// DefaultQualifier matches DefaultStackSynthesizer.DEFAULT_QUALIFIER
	DefaultQualifier = "hnb659fds"

	// PermissionsBoundaryExport is exported by the CICD account bootstrap
	PermissionsBoundaryExport = "CICDPipelinePermissionsBoundaryArn"

	// GitHubTokenSecret is the Secrets Manager secret holding the GitHub token
	GitHubTokenSecret = "GITHUB_TOKEN"

	// AppName prefixes SSM parameter paths
	AppName = "aws-bootstrap-kit"
)

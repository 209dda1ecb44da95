package constants

// Account tags written by the landing zone and read at synth time
const (
	TagAccountType      = "AccountType"
	TagStageName        = "StageName"
	TagStageOrder       = "StageOrder"
	TagRequiresApproval = "RequiresApproval"
	TagServiceName      = "ServiceName"
)

// Values of the AccountType tag
const (
	AccountTypeStage      = "STAGE"
	AccountTypeCICD       = "CICD"
	AccountTypeDNS        = "DNS"
	AccountTypePlayground = "PLAYGROUND"
)

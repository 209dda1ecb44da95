package models

// Load test limits enforced by the CLI and the LoadTest state machine
const (
	MaxLoadTestUsers        = 1000
	MaxLoadTestLikesPerUser = 1000
	MaxLoadTestMinutes      = 14 // exclusive, Lambda times out at 15 minutes
	DefaultLoadTestMinutes  = 5
	DefaultLoadTestLikes    = 10
	LoadTestUserPrefix      = "loadtestuser"
	LoadTestUserEmailDomain = "octank.com"
	LoadTestDefaultPassword = "Password1/"
)

// LoadTestInput is the execution input of the LoadTest state machine
type LoadTestInput struct {
	NumberOfUsers        int `json:"NumberOfUsers"`
	NumberOfLikesPerUser int `json:"NumberOfLikesPerUser"`
	TestDurationMinutes  int `json:"TestDurationMinutes"`
}

// LoadTestUser is one virtual user. The Map state runs one Trigger Load per user.
type LoadTestUser struct {
	UserName             string `json:"UserName"`
	NumberOfLikesPerUser int    `json:"NumberOfLikesPerUser"`
	TestDurationMinutes  int    `json:"TestDurationMinutes"`
}

// LoadTestUsers is the output of Create User Ids
type LoadTestUsers struct {
	StatusCode int            `json:"statusCode"`
	UserNames  []LoadTestUser `json:"userNames"`
}

// StepResult is returned by the steps whose output is discarded
type StepResult struct {
	StatusCode int `json:"statusCode"`
}

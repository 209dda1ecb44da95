package models

import "github.com/savaki/gox/slicex"

// Account is an AWS Organizations member account with its tags
type Account struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Email  string            `json:"email"`
	Status string            `json:"status"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Stage is a pipeline stage deploying into one account
type Stage struct {
	Name             string `json:"name"`
	AccountID        string `json:"id"`
	Order            int    `json:"order"`
	RequiresApproval bool   `json:"requiresApproval,omitempty"`
}

// GetAccountID returns the stage's target account
func GetAccountID(s Stage) string {
	return s.AccountID
}

// Stages is an ordered list of pipeline stages
type Stages []Stage

// AccountIDs returns the target account of every stage, in order
func (ss Stages) AccountIDs() []string {
	return slicex.Map(ss, GetAccountID)
}

// Find returns the stage with the given name
func (ss Stages) Find(name string) (Stage, bool) {
	for _, s := range ss {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

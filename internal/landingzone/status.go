package landingzone

import (
	"sort"

	"github.com/savaki/aws-bootstrap-kit/internal/models"
)

// State of a layout account in the organization
type State string

const (
	StatePresent State = "PRESENT"
	StateMissing State = "MISSING"
	StateDrifted State = "DRIFTED"
)

// AccountStatus compares one layout account with the organization
type AccountStatus struct {
	Name      string            `json:"name"`
	AccountID string            `json:"accountId,omitempty"`
	State     State             `json:"state"`
	Drift     map[string]string `json:"drift,omitempty"`
}

// Status matches the layout's accounts by name against the organization's
// accounts. An account is drifted when one of the tags the layout sets has a
// different value, Drift maps those tag keys to the value found.
func (l *Layout) Status(accounts []models.Account) []AccountStatus {
	byName := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		byName[a.Name] = a
	}

	var statuses []AccountStatus
	for _, want := range l.Accounts() {
		got, ok := byName[want.Name]
		if !ok {
			statuses = append(statuses, AccountStatus{Name: want.Name, State: StateMissing})
			continue
		}

		status := AccountStatus{
			Name:      want.Name,
			AccountID: got.ID,
			State:     StatePresent,
		}
		for key, value := range want.Tags() {
			if got.Tags[key] != value {
				if status.Drift == nil {
					status.Drift = map[string]string{}
				}
				status.Drift[key] = got.Tags[key]
				status.State = StateDrifted
			}
		}
		statuses = append(statuses, status)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
	return statuses
}

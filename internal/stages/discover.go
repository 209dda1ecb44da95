// Package stages turns the accounts of an AWS Organization into ordered
// pipeline stages and checks that every stage can be deployed to.
package stages

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/errors"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
)

// AccountLister enumerates the accounts of an organization
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// FromAccounts keeps the accounts tagged AccountType=STAGE and orders them
// by StageOrder, then by name
func FromAccounts(accounts []models.Account) (models.Stages, error) {
	var stages models.Stages
	for _, account := range accounts {
		if len(account.Tags) == 0 {
			continue
		}
		if account.Tags[constants.TagAccountType] != constants.AccountTypeStage {
			continue
		}

		stage, err := fromAccount(account)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}

	sort.SliceStable(stages, func(i, j int) bool {
		if stages[i].Order != stages[j].Order {
			return stages[i].Order < stages[j].Order
		}
		return stages[i].Name < stages[j].Name
	})

	return stages, nil
}

func fromAccount(account models.Account) (models.Stage, error) {
	name := strings.TrimSpace(account.Tags[constants.TagStageName])
	if name == "" {
		return models.Stage{}, fmt.Errorf("%w: account %s has no %s tag", errors.ErrInvalidStageTag, account.ID, constants.TagStageName)
	}

	raw, ok := account.Tags[constants.TagStageOrder]
	if !ok {
		return models.Stage{}, fmt.Errorf("%w: account %s has no %s tag", errors.ErrInvalidStageTag, account.ID, constants.TagStageOrder)
	}
	order, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return models.Stage{}, fmt.Errorf("%w: account %s has %s %q, want an integer", errors.ErrInvalidStageTag, account.ID, constants.TagStageOrder, raw)
	}

	return models.Stage{
		Name:             name,
		AccountID:        account.ID,
		Order:            order,
		RequiresApproval: strings.EqualFold(strings.TrimSpace(account.Tags[constants.TagRequiresApproval]), "true"),
	}, nil
}

// Discover lists the organization's accounts and returns its ordered stages
func Discover(ctx context.Context, lister AccountLister) (models.Stages, error) {
	accounts, err := lister.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return FromAccounts(accounts)
}

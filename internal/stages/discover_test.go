package stages

import (
	"context"
	"errors"
	"testing"

	kiterrors "github.com/savaki/aws-bootstrap-kit/internal/errors"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLister struct {
	ListAccountsFunc func(ctx context.Context) ([]models.Account, error)
}

func (m *mockLister) ListAccounts(ctx context.Context) ([]models.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx)
	}
	return nil, errors.New("ListAccountsFunc not set")
}

func stageAccount(id, name, order string) models.Account {
	return models.Account{
		ID: id,
		Tags: map[string]string{
			"AccountType": "STAGE",
			"StageName":   name,
			"StageOrder":  order,
		},
	}
}

func TestFromAccounts(t *testing.T) {
	tests := []struct {
		name     string
		accounts []models.Account
		want     models.Stages
	}{
		{
			name: "empty organization",
			want: nil,
		},
		{
			name: "orders by stage order",
			accounts: []models.Account{
				stageAccount("333333333333", "Prod", "3"),
				stageAccount("111111111111", "Dev", "1"),
				stageAccount("222222222222", "Staging", "2"),
			},
			want: models.Stages{
				{Name: "Dev", AccountID: "111111111111", Order: 1},
				{Name: "Staging", AccountID: "222222222222", Order: 2},
				{Name: "Prod", AccountID: "333333333333", Order: 3},
			},
		},
		{
			name: "skips accounts without tags and non stage accounts",
			accounts: []models.Account{
				{ID: "000000000000"},
				{ID: "444444444444", Tags: map[string]string{"AccountType": "CICD"}},
				{ID: "555555555555", Tags: map[string]string{"Owner": "platform"}},
				stageAccount("111111111111", "Dev", "1"),
			},
			want: models.Stages{
				{Name: "Dev", AccountID: "111111111111", Order: 1},
			},
		},
		{
			name: "ties broken by name",
			accounts: []models.Account{
				stageAccount("222222222222", "QA", "2"),
				stageAccount("333333333333", "Perf", "2"),
				stageAccount("111111111111", "Dev", "1"),
			},
			want: models.Stages{
				{Name: "Dev", AccountID: "111111111111", Order: 1},
				{Name: "Perf", AccountID: "333333333333", Order: 2},
				{Name: "QA", AccountID: "222222222222", Order: 2},
			},
		},
		{
			name: "requires approval tag",
			accounts: []models.Account{
				func() models.Account {
					a := stageAccount("333333333333", "Prod", "3")
					a.Tags["RequiresApproval"] = "TRUE"
					return a
				}(),
				func() models.Account {
					a := stageAccount("111111111111", "Dev", "1")
					a.Tags["RequiresApproval"] = "no"
					return a
				}(),
			},
			want: models.Stages{
				{Name: "Dev", AccountID: "111111111111", Order: 1},
				{Name: "Prod", AccountID: "333333333333", Order: 3, RequiresApproval: true},
			},
		},
		{
			name: "negative and padded orders",
			accounts: []models.Account{
				stageAccount("111111111111", "Dev", " 10 "),
				stageAccount("222222222222", "Sandbox", "-1"),
			},
			want: models.Stages{
				{Name: "Sandbox", AccountID: "222222222222", Order: -1},
				{Name: "Dev", AccountID: "111111111111", Order: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAccounts(tt.accounts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAccounts_InvalidTags(t *testing.T) {
	tests := []struct {
		name    string
		account models.Account
		wantMsg string
	}{
		{
			name:    "missing name",
			account: models.Account{ID: "111111111111", Tags: map[string]string{"AccountType": "STAGE", "StageOrder": "1"}},
			wantMsg: "StageName",
		},
		{
			name:    "missing order",
			account: models.Account{ID: "111111111111", Tags: map[string]string{"AccountType": "STAGE", "StageName": "Dev"}},
			wantMsg: "StageOrder",
		},
		{
			name:    "order is not a number",
			account: stageAccount("111111111111", "Dev", "first"),
			wantMsg: `"first"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAccounts([]models.Account{tt.account})
			require.Error(t, err)
			assert.ErrorIs(t, err, kiterrors.ErrInvalidStageTag)
			assert.Contains(t, err.Error(), "111111111111")
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDiscover(t *testing.T) {
	t.Run("builds stages from listed accounts", func(t *testing.T) {
		lister := &mockLister{
			ListAccountsFunc: func(ctx context.Context) ([]models.Account, error) {
				return []models.Account{
					stageAccount("222222222222", "Prod", "2"),
					stageAccount("111111111111", "Dev", "1"),
				}, nil
			},
		}

		got, err := Discover(context.Background(), lister)
		require.NoError(t, err)
		assert.Equal(t, []string{"111111111111", "222222222222"}, got.AccountIDs())
	})

	t.Run("lister errors are returned as is", func(t *testing.T) {
		cause := errors.New("boom")
		lister := &mockLister{
			ListAccountsFunc: func(ctx context.Context) ([]models.Account, error) {
				return nil, cause
			},
		}

		_, err := Discover(context.Background(), lister)
		assert.ErrorIs(t, err, cause)
	})
}

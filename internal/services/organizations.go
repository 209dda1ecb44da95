package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/savaki/aws-bootstrap-kit/internal/constants"
	"github.com/savaki/aws-bootstrap-kit/internal/models"
)

// OrganizationsClient is the subset of the Organizations API used to enumerate accounts
type OrganizationsClient interface {
	organizations.ListAccountsAPIClient
	organizations.ListTagsForResourceAPIClient
}

// Organizations lists the accounts of an AWS Organization together with their tags
type Organizations struct {
	client OrganizationsClient
}

// NewOrganizations returns an account lister over client
func NewOrganizations(client OrganizationsClient) *Organizations {
	return &Organizations{client: client}
}

// NewOrganizationsFromConfig builds the Organizations client in us-east-1,
// where the API is homed, regardless of the region of cfg
func NewOrganizationsFromConfig(cfg aws.Config) *Organizations {
	client := organizations.NewFromConfig(cfg, func(o *organizations.Options) {
		o.Region = constants.OrganizationsRegion
	})
	return NewOrganizations(client)
}

// ListAccounts returns every account of the organization with its tags
func (o *Organizations) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account

	paginator := organizations.NewListAccountsPaginator(o.client, &organizations.ListAccountsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}

		for _, item := range page.Accounts {
			id := aws.ToString(item.Id)
			tags, err := o.listTags(ctx, id)
			if err != nil {
				return nil, err
			}

			accounts = append(accounts, models.Account{
				ID:     id,
				Name:   aws.ToString(item.Name),
				Email:  aws.ToString(item.Email),
				Status: string(item.Status),
				Tags:   tags,
			})
		}
	}

	return accounts, nil
}

func (o *Organizations) listTags(ctx context.Context, accountID string) (map[string]string, error) {
	tags := map[string]string{}

	paginator := organizations.NewListTagsForResourcePaginator(o.client, &organizations.ListTagsForResourceInput{
		ResourceId: aws.String(accountID),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags for account %s: %w", accountID, err)
		}
		for _, tag := range page.Tags {
			tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
		}
	}

	return tags, nil
}

package postdao

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/savaki/aws-bootstrap-kit/internal/errors"
	"github.com/savaki/ddb/v2"
)

// DefaultPageSize is the number of posts returned by the feed
const DefaultPageSize = 20

// Metadata keys of an uploaded picture. prepare-post signs them into the
// upload URL, new-post reads them back to create the post.
const (
	MetaUserID    = "userid"
	MetaPostID    = "postid"
	MetaCreatedAt = "createdat"
	MetaOwnerName = "ownername"
)

// ObjectKey returns the media object key of a post
func ObjectKey(postID string) string {
	return postID + ".jpg"
}

// MediaURL returns the URL of an object served by the media distribution
func MediaURL(distributionDomain, key string) string {
	return "https://" + distributionDomain + "/" + key
}

// Record is a picture posted by a user
type Record struct {
	UserID    string `ddb:"hash" dynamodbav:"userId" json:"userId"`
	PostID    string `ddb:"range" dynamodbav:"postId" json:"postId"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"` // unix seconds, as sent in the upload metadata
	OwnerName string `dynamodbav:"ownerName" json:"ownerName"`
	Likes     int    `dynamodbav:"likes" json:"likes"`
	MediaURL  string `dynamodbav:"mediaUrl" json:"mediaUrl"`
}

// VoteResult holds the attributes changed by a vote
type VoteResult struct {
	Likes int `dynamodbav:"likes" json:"likes"`
}

// DAO provides data access operations for posts
type DAO struct {
	client    *dynamodb.Client
	tableName string
	table     *ddb.Table
}

// New creates a new DAO instance
func New(client *dynamodb.Client, tableName string) *DAO {
	db := ddb.New(client)
	table := db.MustTable(tableName, &Record{})
	return &DAO{
		client:    client,
		tableName: tableName,
		table:     table,
	}
}

// Create stores a new post with zero likes
func (d *DAO) Create(ctx context.Context, record Record) error {
	record.Likes = 0
	if err := d.table.Put(&record).RunWithContext(ctx); err != nil {
		return fmt.Errorf("failed to put post %s/%s: %w", record.UserID, record.PostID, err)
	}
	return nil
}

// Find retrieves a post
// Returns nil if not found
func (d *DAO) Find(ctx context.Context, userID, postID string) (*Record, error) {
	var record Record
	err := d.table.Get(userID).
		Range(postID).
		ConsistentRead(true).
		ScanWithContext(ctx, &record)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "item not found") || strings.Contains(msg, "ItemNotFound") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if record.UserID == "" {
		return nil, nil
	}

	return &record, nil
}

// FindRecent returns up to limit posts from a table scan
func (d *DAO) FindRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	records := []Record{}
	err := d.table.Scan().ConsistentRead(false).EachWithContext(ctx, func(item ddb.Item) (bool, error) {
		var record Record
		if err := item.Unmarshal(&record); err != nil {
			return false, err
		}
		records = append(records, record)
		return len(records) < limit, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan posts: %w", err)
	}
	return records, nil
}

// FindByUser returns every post of userID
func (d *DAO) FindByUser(ctx context.Context, userID string) ([]Record, error) {
	records := []Record{}
	err := d.table.Query("#UserID = ?", userID).
		FindAllWithContext(ctx, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts of %s: %w", userID, err)
	}
	return records, nil
}

// Vote adds delta to the likes of a post and returns the new count
func (d *DAO) Vote(ctx context.Context, userID, postID string, delta int) (*VoteResult, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"userId": userID,
		"postId": postID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	result, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.tableName),
		Key:                 key,
		UpdateExpression:    aws.String("ADD likes :delta"),
		ConditionExpression: aws.String("attribute_exists(postId)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if stderrors.As(err, &conditionFailed) {
			return nil, fmt.Errorf("%w: %s/%s", errors.ErrPostNotFound, userID, postID)
		}
		return nil, fmt.Errorf("failed to update likes of %s/%s: %w", userID, postID, err)
	}

	var vote VoteResult
	if err := attributevalue.UnmarshalMap(result.Attributes, &vote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vote result: %w", err)
	}
	return &vote, nil
}

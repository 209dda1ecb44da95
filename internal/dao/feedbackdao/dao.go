package feedbackdao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/savaki/ddb/v2"
)

// Key identifies a feedback entry: {lower(email)}:{RFC 3339 timestamp}
// Example: jane@example.com:2024-05-01T10:11:12.123Z
type Key string

// NewKey builds the key of a feedback sent by email at t
func NewKey(email string, t time.Time) Key {
	return Key(fmt.Sprintf("%s:%s", strings.ToLower(email), t.UTC().Format("2006-01-02T15:04:05.000Z")))
}

// String returns the string representation of the key
func (k Key) String() string {
	return string(k)
}

// Email returns the email part of the key
func (k Key) Email() string {
	email, _, _ := strings.Cut(string(k), ":")
	return email
}

// Record is a feedback entry submitted from the landing page
type Record struct {
	Key     Key    `ddb:"hash" dynamodbav:"Key"`
	Name    string `dynamodbav:"Name"`
	Email   string `dynamodbav:"Email"`
	Subject string `dynamodbav:"Subject"`
	Details string `dynamodbav:"Details"`
}

// CreateInput contains the fields of a new feedback
type CreateInput struct {
	Name    string
	Email   string
	Subject string
	Details string
}

// DAO provides data access operations for feedback entries
type DAO struct {
	table *ddb.Table
	now   func() time.Time
}

// New creates a new DAO instance
func New(client *dynamodb.Client, tableName string) *DAO {
	db := ddb.New(client)
	table := db.MustTable(tableName, &Record{})
	return &DAO{
		table: table,
		now:   time.Now,
	}
}

// Create stores a feedback entry keyed by email and submission time
func (d *DAO) Create(ctx context.Context, input CreateInput) (*Record, error) {
	record := &Record{
		Key:     NewKey(input.Email, d.now()),
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Details: input.Details,
	}

	if err := d.table.Put(record).RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to put feedback: %w", err)
	}

	return record, nil
}

// Find retrieves a feedback entry by key
// Returns nil if not found
func (d *DAO) Find(ctx context.Context, key Key) (*Record, error) {
	var record Record
	err := d.table.Get(key.String()).
		ConsistentRead(true).
		ScanWithContext(ctx, &record)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	if record.Key == "" {
		return nil, nil
	}

	return &record, nil
}

// FindByEmail scans for every feedback sent from email
func (d *DAO) FindByEmail(ctx context.Context, email string) ([]Record, error) {
	prefix := strings.ToLower(email) + ":"

	var records []Record
	err := d.table.Scan().ConsistentRead(false).EachWithContext(ctx, func(item ddb.Item) (bool, error) {
		var record Record
		if err := item.Unmarshal(&record); err != nil {
			return false, err
		}
		if strings.HasPrefix(record.Key.String(), prefix) {
			records = append(records, record)
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan feedback: %w", err)
	}
	return records, nil
}

func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "item not found") || strings.Contains(msg, "ItemNotFound")
}

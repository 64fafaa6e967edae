package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/docupsert/internal/fields"
	"github.com/jacentio/docupsert/upsert"
)

// API is the subset of the DynamoDB client used by Store.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Store is a DynamoDB-backed upsert.Client.
type Store struct {
	client API
	config Config
	now    func() time.Time
}

var _ upsert.Client = (*Store)(nil)

// New creates a new Store instance.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// Table returns the configured table name.
func (s *Store) Table() string {
	return s.config.Table
}

// Fetch retrieves a document by id, tombstones included.
// Missing and expired documents yield upsert.ErrNotFound.
func (s *Store) Fetch(ctx context.Context, id string) (upsert.Document, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.Table),
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if result.Item == nil || IsExpired(result.Item, s.now()) {
		return nil, fmt.Errorf("%w: %q", upsert.ErrNotFound, id)
	}

	return s.unmarshalDocument(result.Item)
}

// Create stores doc under id with a first revision. It fails with
// upsert.ErrConflict if a live document already holds the id.
func (s *Store) Create(ctx context.Context, id string, doc upsert.Document) (string, error) {
	now := s.now()
	rev := NextRevision("")

	item, err := s.marshalDocument(id, doc, rev, now)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.Table),
		Item:                item,
		ConditionExpression: aws.String(absentCondition()),
		ExpressionAttributeNames: map[string]string{
			"#id":  upsert.IDField,
			"#ttl": ttlAttr,
		},
		ExpressionAttributeValues: ttlValues(now),
	})
	if err != nil {
		return "", mapPutError(err, "create", id)
	}
	return rev, nil
}

// Write replaces the document stored under id. doc must carry the revision
// currently stored; otherwise the write fails with upsert.ErrConflict.
func (s *Store) Write(ctx context.Context, id string, doc upsert.Document) (string, error) {
	expected := doc.Revision()
	if expected == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingRevision, id)
	}

	now := s.now()
	rev := NextRevision(expected)

	item, err := s.marshalDocument(id, doc, rev, now)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.Table),
		Item:                item,
		ConditionExpression: aws.String("#revision = :expected AND " + notExpiredCondition()),
		ExpressionAttributeNames: map[string]string{
			"#revision": upsert.RevisionField,
			"#ttl":      ttlAttr,
		},
		ExpressionAttributeValues: fields.Extend(ttlValues(now), map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: expected},
		}),
	})
	if err != nil {
		return "", mapPutError(err, "write", id)
	}
	return rev, nil
}

// marshalDocument converts doc into a DynamoDB item stamped with id and rev.
func (s *Store) marshalDocument(id string, doc upsert.Document, rev string, now time.Time) (map[string]types.AttributeValue, error) {
	clean := fields.Omit(doc, ttlAttr)
	clean[upsert.IDField] = id
	clean[upsert.RevisionField] = rev

	item, err := attributevalue.MarshalMap(map[string]any(clean))
	if err != nil {
		return nil, fmt.Errorf("marshal document %q: %w", id, err)
	}

	if ttl := tombstoneExpiry(doc, s.config.TombstoneTTL, now); ttl > 0 {
		item[ttlAttr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)}
	}
	return item, nil
}

// unmarshalDocument converts a DynamoDB item into a document.
func (s *Store) unmarshalDocument(item map[string]types.AttributeValue) (upsert.Document, error) {
	doc := upsert.Document{}
	if err := attributevalue.UnmarshalMap(fields.Omit(item, ttlAttr), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// mapPutError maps a failed conditional put onto upsert.ErrConflict.
func mapPutError(err error, op, id string) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%w: %s %q", upsert.ErrConflict, op, id)
	}
	return fmt.Errorf("put item: %w", err)
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		upsert.IDField: &types.AttributeValueMemberS{Value: id},
	}
}

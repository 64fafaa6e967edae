package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory API that understands the condition
// expressions Store issues.
type fakeDynamo struct {
	mu     sync.Mutex
	items  map[string]map[string]types.AttributeValue
	now    time.Time
	puts   []*dynamodb.PutItemInput
	gets   []*dynamodb.GetItemInput
	getErr error
	putErr error
}

func newFakeDynamo(now time.Time) *fakeDynamo {
	return &fakeDynamo{
		items: make(map[string]map[string]types.AttributeValue),
		now:   now,
	}
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets = append(f.gets, in)
	if f.getErr != nil {
		return nil, f.getErr
	}
	id := in.Key["id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}

	id := in.Item["id"].(*types.AttributeValueMemberS).Value
	current, exists := f.items[id]
	cond := ""
	if in.ConditionExpression != nil {
		cond = *in.ConditionExpression
	}

	expired := exists && IsExpired(current, f.now)
	switch {
	case strings.Contains(cond, "attribute_not_exists(#id)"):
		if exists && !expired {
			return nil, &types.ConditionalCheckFailedException{Message: strPtr("exists")}
		}
	case strings.Contains(cond, "#revision = :expected"):
		expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
		rev, _ := current["revision"].(*types.AttributeValueMemberS)
		if !exists || expired || rev == nil || rev.Value != expected {
			return nil, &types.ConditionalCheckFailedException{Message: strPtr("stale")}
		}
	}

	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func strPtr(s string) *string { return &s }

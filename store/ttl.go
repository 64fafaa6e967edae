package store

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/docupsert/upsert"
)

// ttlAttr is the store-managed expiry attribute. It never appears in
// fetched documents.
const ttlAttr = "ttl"

// IsExpired checks if an item carries a TTL at or before now.
func IsExpired(item map[string]types.AttributeValue, now time.Time) bool {
	attr, exists := item[ttlAttr]
	if !exists {
		return false // No TTL = kept
	}
	ttlNum, ok := attr.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	ttl, err := strconv.ParseInt(ttlNum.Value, 10, 64)
	if err != nil {
		return false
	}
	return ttl <= now.Unix()
}

// tombstoneExpiry returns the ttl to stamp on doc, or 0 for none.
// Only tombstones expire; writing a live document clears any ttl.
func tombstoneExpiry(doc upsert.Document, ttl time.Duration, now time.Time) int64 {
	if ttl <= 0 || !doc.IsDeleted() {
		return 0
	}
	return now.Add(ttl).Unix()
}

// absentCondition is true when no item exists or only an expired one does.
func absentCondition() string {
	return "attribute_not_exists(#id) OR #ttl <= :now"
}

// notExpiredCondition is true when the item has no ttl or one in the future.
func notExpiredCondition() string {
	return "(attribute_not_exists(#ttl) OR #ttl > :now)"
}

// ttlValues returns the expression attribute values for notExpiredCondition.
func ttlValues(now time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberN{
			Value: strconv.FormatInt(now.Unix(), 10),
		},
	}
}

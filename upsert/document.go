package upsert

import (
	"context"

	"github.com/jacentio/docupsert/internal/fields"
)

// Reserved document fields.
const (
	IDField       = "id"
	RevisionField = "revision"
	DeletedField  = "deleted"
)

// Document is a stored document: field names to values.
type Document map[string]any

// ID returns the document id, or "" if unset.
func (d Document) ID() string {
	s, _ := d[IDField].(string)
	return s
}

// Revision returns the revision token, or "" if unset.
func (d Document) Revision() string {
	s, _ := d[RevisionField].(string)
	return s
}

// IsDeleted reports whether the tombstone marker is set.
func (d Document) IsDeleted() bool {
	b, _ := d[DeletedField].(bool)
	return b
}

// Clone returns a shallow copy. A nil document clones to nil.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return fields.Extend(make(Document, len(d)), d)
}

// Client is the document store consumed by the Engine.
//
// Implementations must wrap ErrNotFound when Fetch finds nothing and
// ErrConflict when Create finds an existing document or Write carries a
// stale revision. Create and Write return the revision assigned by the store.
type Client interface {
	Fetch(ctx context.Context, id string) (Document, error)
	Create(ctx context.Context, id string, doc Document) (string, error)
	Write(ctx context.Context, id string, doc Document) (string, error)
}

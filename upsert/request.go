package upsert

import (
	"errors"
	"fmt"

	"github.com/jacentio/docupsert/internal/fields"
)

// ShouldUpdateFunc decides whether an existing document should be updated.
type ShouldUpdateFunc func(existing, newDoc Document) bool

// MergeFunc combines the existing document, with its tombstone marker
// removed, and the new document into the document to write.
//
// Returning a non-nil error, or a nil document, rejects the merge. The
// rejection is surfaced as a *MergeRejectedError; use Reject to decline with
// a value that is not an error. Any revision set on the result is replaced
// by the existing document's revision before writing.
type MergeFunc func(existing, newDoc Document) (Document, error)

// Request describes a single create-or-update. It is a value; the With
// methods return modified copies and never change the receiver.
type Request struct {
	// ID is the target document id. Required.
	ID string

	// NewDoc is the candidate content. Required. Any revision it carries is ignored.
	NewDoc Document

	// ExistingDoc, when set, is used in place of the initial fetch.
	// A stale ExistingDoc costs one conflicted pass. One without a revision
	// is ignored and the document is fetched.
	ExistingDoc Document

	// ShouldUpdate is consulted when a document exists. Nil means always update.
	ShouldUpdate ShouldUpdateFunc

	// Merge builds the document to write. Nil means write NewDoc as is.
	Merge MergeFunc

	// ShouldCreate controls whether a missing document is created.
	// NewRequest sets it to true.
	ShouldCreate bool
}

// NewRequest returns a request with the default options: always update,
// overwrite with newDoc, create when missing.
func NewRequest(id string, newDoc Document) Request {
	return Request{
		ID:           id,
		NewDoc:       newDoc,
		ShouldCreate: true,
	}
}

func (r Request) WithID(id string) Request {
	r.ID = id
	return r
}

func (r Request) WithNewDoc(doc Document) Request {
	r.NewDoc = doc
	return r
}

func (r Request) WithExistingDoc(doc Document) Request {
	r.ExistingDoc = doc
	return r
}

func (r Request) WithShouldUpdate(fn ShouldUpdateFunc) Request {
	r.ShouldUpdate = fn
	return r
}

func (r Request) WithMerge(fn MergeFunc) Request {
	r.Merge = fn
	return r
}

func (r Request) WithShouldCreate(create bool) Request {
	r.ShouldCreate = create
	return r
}

func (r Request) validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	if r.NewDoc == nil {
		return fmt.Errorf("%w: new document is required", ErrInvalidRequest)
	}
	return nil
}

// shouldUpdate applies the default predicate.
func (r Request) shouldUpdate(existing, newDoc Document) bool {
	if r.ShouldUpdate == nil {
		return true
	}
	return r.ShouldUpdate(existing, newDoc)
}

// merge applies the default merge and normalises rejections.
func (r Request) merge(existing, newDoc Document) (Document, error) {
	if r.Merge == nil {
		return newDoc.Clone(), nil
	}
	merged, err := r.Merge(existing, newDoc)
	if err != nil {
		var rejected *MergeRejectedError
		if errors.As(err, &rejected) {
			return nil, rejected
		}
		return nil, &MergeRejectedError{Value: err}
	}
	if merged == nil {
		return nil, &MergeRejectedError{}
	}
	return merged, nil
}

// ReplaceMerge writes the new document as is. It is the default.
func ReplaceMerge(_, newDoc Document) (Document, error) {
	return newDoc.Clone(), nil
}

// ShallowMerge overlays the new document's fields onto the existing ones.
func ShallowMerge(existing, newDoc Document) (Document, error) {
	return fields.Extend(make(Document, len(existing)+len(newDoc)), existing, newDoc), nil
}

package upsert

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a Client when no document exists for an id.
	ErrNotFound = errors.New("docupsert: document not found")

	// ErrConflict is returned by a Client when the supplied revision is stale,
	// or when a create races with another writer.
	ErrConflict = errors.New("docupsert: document update conflict")

	// ErrInvalidRequest is returned when a request is missing its id or new document.
	ErrInvalidRequest = errors.New("docupsert: invalid request")

	// ErrMergeRejected is matched by errors.Is for every merge rejection.
	ErrMergeRejected = errors.New("docupsert: merge rejected")

	// ErrTooManyConflicts is returned when Config.MaxAttempts passes all conflicted.
	ErrTooManyConflicts = errors.New("docupsert: too many conflicts")
)

// Op names the store operation that failed.
type Op string

const (
	OpFetch  Op = "fetch"
	OpCreate Op = "create"
	OpWrite  Op = "write"
)

// StoreError reports a terminal fetch, create or write failure.
type StoreError struct {
	Op  Op
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	switch e.Op {
	case OpFetch:
		return fmt.Sprintf("docupsert: could not fetch existing document %q: %v", e.ID, e.Err)
	case OpCreate:
		return fmt.Sprintf("docupsert: could not create document %q: %v", e.ID, e.Err)
	case OpWrite:
		return fmt.Sprintf("docupsert: could not update document %q to the proposed version: %v", e.ID, e.Err)
	default:
		return fmt.Sprintf("docupsert: %s %q: %v", e.Op, e.ID, e.Err)
	}
}

func (e *StoreError) Unwrap() error { return e.Err }

// MergeRejectedError is returned when a MergeFunc declines to produce a
// document. Value holds exactly what the merge function rejected with: the
// error it returned, the value given to Reject, or nil when it returned
// neither a document nor an error.
type MergeRejectedError struct {
	Value any
}

// Reject builds a merge rejection carrying an arbitrary value. Merge
// functions return it to decline a merge with something other than an error.
func Reject(value any) error {
	return &MergeRejectedError{Value: value}
}

func (e *MergeRejectedError) Error() string {
	switch v := e.Value.(type) {
	case nil:
		return "docupsert: merge rejected: no document returned"
	case error:
		return "docupsert: merge rejected: " + v.Error()
	default:
		return fmt.Sprintf("docupsert: merge rejected: %v", v)
	}
}

func (e *MergeRejectedError) Is(target error) bool { return target == ErrMergeRejected }

// Unwrap returns Value when it is an error.
func (e *MergeRejectedError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is or wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

package upsert

import (
	"context"
	"fmt"
	"time"

	"github.com/jacentio/docupsert/internal/fields"
)

// Engine runs create-or-update requests against a Client.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	client Client
	config Config
}

// New creates a new Engine.
func New(client Client, config Config) *Engine {
	config.validate()
	return &Engine{
		client: client,
		config: config,
	}
}

// Upsert creates or updates the document described by req.
//
// It returns (nil, nil) when no document exists and req.ShouldCreate is
// false, and the existing document unchanged when req.ShouldUpdate declines.
// Otherwise it returns the document as written, carrying the revision the
// store assigned to it.
func (e *Engine) Upsert(ctx context.Context, req Request) (Document, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	existing := req.ExistingDoc
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			if e.config.MaxAttempts > 0 && attempt > e.config.MaxAttempts {
				return nil, fmt.Errorf("%w: gave up on %q after %d attempts", ErrTooManyConflicts, req.ID, e.config.MaxAttempts)
			}
			if err := e.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}

		doc, retry, err := e.pass(ctx, req, existing)
		if !retry {
			return doc, err
		}

		e.config.Logger.Debug("conflict, restarting upsert",
			"id", req.ID,
			"attempt", attempt,
		)
		// Another writer got in first; start over from a fresh fetch.
		existing = nil
	}
}

// Job captures req and returns a function that performs the upsert when called.
func (e *Engine) Job(req Request) func(context.Context) (Document, error) {
	return func(ctx context.Context) (Document, error) {
		return e.Upsert(ctx, req)
	}
}

// Tombstone marks an existing document deleted. A missing document is not
// created and yields (nil, nil).
func (e *Engine) Tombstone(ctx context.Context, id string) (Document, error) {
	req := NewRequest(id, Document{}).
		WithShouldCreate(false).
		WithMerge(func(existing, _ Document) (Document, error) {
			existing[DeletedField] = true
			return existing, nil
		})
	return e.Upsert(ctx, req)
}

// pass runs the protocol once, reporting true when it hit a conflict.
func (e *Engine) pass(ctx context.Context, req Request, existing Document) (Document, bool, error) {
	// A document without a revision cannot be written against; read it again.
	if existing.Revision() == "" {
		fetched, err := e.client.Fetch(ctx, req.ID)
		switch {
		case IsNotFound(err):
			if !req.ShouldCreate {
				return nil, false, nil
			}
			return e.create(ctx, req)
		case err != nil:
			return nil, false, e.storeError(OpFetch, req.ID, err)
		}
		existing = fetched
	}

	if !req.shouldUpdate(existing, req.NewDoc) {
		return existing, false, nil
	}

	// Merge never sees the tombstone, so a plain merge revives the document.
	merged, err := req.merge(fields.Omit(existing, DeletedField), req.NewDoc)
	if err != nil {
		return nil, false, err
	}
	// The write must carry the revision we read, whatever merge returned.
	merged = merged.Clone()
	merged[RevisionField] = existing[RevisionField]

	rev, err := e.client.Write(ctx, req.ID, merged)
	switch {
	case IsConflict(err):
		return nil, true, nil
	case err != nil:
		return nil, false, e.storeError(OpWrite, req.ID, err)
	}

	merged[RevisionField] = rev
	return merged, false, nil
}

func (e *Engine) create(ctx context.Context, req Request) (Document, bool, error) {
	doc := fields.Omit(req.NewDoc, RevisionField)

	rev, err := e.client.Create(ctx, req.ID, doc)
	switch {
	case IsConflict(err):
		return nil, true, nil
	case err != nil:
		return nil, false, e.storeError(OpCreate, req.ID, err)
	}

	doc[RevisionField] = rev
	return doc, false, nil
}

func (e *Engine) storeError(op Op, id string, err error) error {
	e.config.Logger.Warn("upsert failed",
		"op", string(op),
		"id", id,
		"error", err,
	)
	return &StoreError{Op: op, ID: id, Err: err}
}

// wait sleeps for the configured backoff, returning early if ctx is done.
func (e *Engine) wait(ctx context.Context, attempt int) error {
	if e.config.Backoff == nil {
		return ctx.Err()
	}
	d := e.config.Backoff(attempt)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jacentio/docupsert/upsert"
)

// Memory is an in-process upsert.Client with the same revision and
// conflict rules as Store. Tombstones never expire.
type Memory struct {
	mu     sync.Mutex
	docs   map[string]upsert.Document
	writes int
}

var _ upsert.Client = (*Memory)(nil)

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]upsert.Document)}
}

// Fetch returns a copy of the document stored under id.
func (m *Memory) Fetch(_ context.Context, id string) (upsert.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", upsert.ErrNotFound, id)
	}
	return doc.Clone(), nil
}

// Create stores doc under id with a first revision.
func (m *Memory) Create(_ context.Context, id string, doc upsert.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; ok {
		return "", fmt.Errorf("%w: create %q", upsert.ErrConflict, id)
	}
	return m.put(id, doc, NextRevision("")), nil
}

// Write replaces the document under id if doc carries its current revision.
func (m *Memory) Write(_ context.Context, id string, doc upsert.Document) (string, error) {
	expected := doc.Revision()
	if expected == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingRevision, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.docs[id]
	if !ok || current.Revision() != expected {
		return "", fmt.Errorf("%w: write %q", upsert.ErrConflict, id)
	}
	return m.put(id, doc, NextRevision(expected)), nil
}

// Len returns the number of stored documents, tombstones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// Writes returns the number of successful creates and writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// put must be called with mu held.
func (m *Memory) put(id string, doc upsert.Document, rev string) string {
	stored := doc.Clone()
	if stored == nil {
		stored = upsert.Document{}
	}
	stored[upsert.IDField] = id
	stored[upsert.RevisionField] = rev
	m.docs[id] = stored
	m.writes++
	return rev
}

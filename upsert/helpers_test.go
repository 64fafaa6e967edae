package upsert_test

import (
	"context"
	"sync"

	"github.com/jacentio/docupsert/upsert"
)

// recordingClient wraps a Client, counting calls and keeping every document
// sent to Write. Hooks run before the wrapped call and may replace its result
// by returning a non-nil error.
type recordingClient struct {
	upsert.Client

	mu      sync.Mutex
	fetches int
	creates int
	writes  []upsert.Document

	beforeFetch  func(n int) error
	beforeCreate func(n int) error
	beforeWrite  func(n int, doc upsert.Document) error
}

func (c *recordingClient) Fetch(ctx context.Context, id string) (upsert.Document, error) {
	c.mu.Lock()
	c.fetches++
	n := c.fetches
	c.mu.Unlock()

	if c.beforeFetch != nil {
		if err := c.beforeFetch(n); err != nil {
			return nil, err
		}
	}
	return c.Client.Fetch(ctx, id)
}

func (c *recordingClient) Create(ctx context.Context, id string, doc upsert.Document) (string, error) {
	c.mu.Lock()
	c.creates++
	n := c.creates
	c.mu.Unlock()

	if c.beforeCreate != nil {
		if err := c.beforeCreate(n); err != nil {
			return "", err
		}
	}
	return c.Client.Create(ctx, id, doc)
}

func (c *recordingClient) Write(ctx context.Context, id string, doc upsert.Document) (string, error) {
	c.mu.Lock()
	c.writes = append(c.writes, doc.Clone())
	n := len(c.writes)
	c.mu.Unlock()

	if c.beforeWrite != nil {
		if err := c.beforeWrite(n, doc); err != nil {
			return "", err
		}
	}
	return c.Client.Write(ctx, id, doc)
}

func (c *recordingClient) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

package store

import "time"

// Config holds configuration for the Store.
type Config struct {
	// Table is the DynamoDB table holding documents. Its hash key must be
	// the string attribute "id".
	// Default: "docupsert_documents"
	Table string

	// TombstoneTTL is how long tombstoned documents are kept before the
	// table's TTL purges them.
	// Default: 0 (tombstones are kept forever)
	TombstoneTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Table: "docupsert_documents",
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "docupsert_documents"
	}
	if c.TombstoneTTL < 0 {
		c.TombstoneTTL = 0
	}
}

package upsert

import (
	"log/slog"
	"time"
)

// BackoffFunc returns how long to wait before retry pass attempt (2, 3, ...).
type BackoffFunc func(attempt int) time.Duration

// Config holds configuration for the Engine.
type Config struct {
	// MaxAttempts caps the number of protocol passes per Upsert call.
	// Every pass after the first follows a conflict.
	// Default: 0 (unlimited; sustained contention retries forever)
	MaxAttempts int

	// Backoff is consulted before every retry pass. Nil retries immediately.
	Backoff BackoffFunc

	// Logger receives retry and failure events. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns a configuration that retries conflicts immediately
// and without limit.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 0,
		Logger:      slog.Default(),
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.MaxAttempts < 0 {
		c.MaxAttempts = 0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ExponentialBackoff doubles base for every retry, capped at limit.
func ExponentialBackoff(base, limit time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base
		for i := 2; i < attempt; i++ {
			if d > limit/2 {
				return limit
			}
			d *= 2
		}
		if d > limit {
			return limit
		}
		return d
	}
}

// Package cache defines the key+TTL cache collaborator used around analyses.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under a key for a bounded time.
// A miss is reported as ok=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Nop is a Cache that always misses and discards writes.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Key builds the cache key of an analysis result.
func Key(kind, sponsorID string) string {
	return "analytics:" + kind + ":" + sponsorID
}

package ports

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with expiry, used for short-lived
// read-path snapshots such as usage summaries. Callers treat it as
// best-effort and fall back to the primary store on any error.
type Cache interface {
	// Get returns the value for key; ok is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl. A non-positive ttl stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

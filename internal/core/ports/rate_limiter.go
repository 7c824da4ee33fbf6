package ports

import (
	"context"
	"time"

	"github.com/loomhq/resource-governor/internal/core/domain/ratelimit"
)

// RateLimitRepository provides the sorted-set primitives backing the sliding
// window, keyed per identifier. Scores are milliseconds since epoch.
// It abstracts storage (e.g., Redis). Implementation should be concurrency-safe.
type RateLimitRepository interface {
	// PurgeBefore removes entries scored strictly below cutoff.
	PurgeBefore(ctx context.Context, identifier string, cutoff int64) error
	// CountSince counts entries scored in [from, +inf).
	CountSince(ctx context.Context, identifier string, from int64) (int64, error)
	// Record inserts an entry scored at and refreshes the key's TTL.
	Record(ctx context.Context, identifier string, at int64, ttl time.Duration) error
	// OldestScore returns the earliest entry's score; ok=false when the set is empty.
	OldestScore(ctx context.Context, identifier string) (score int64, ok bool, err error)
	// Delete removes the identifier's key outright.
	Delete(ctx context.Context, identifier string) error
}

// RateLimiterService throttles requests per identifier over a sliding window.
// It fails open: when the backing store is unreachable the check allows the
// request, because an unavailable limiter must not take down the product.
type RateLimiterService interface {
	CheckLimit(ctx context.Context, identifier string, limit int) *ratelimit.LimitResult
	// ResetLimit clears all recorded requests for the identifier. Best-effort:
	// errors are logged, never raised.
	ResetLimit(ctx context.Context, identifier string)
	// Close releases the underlying store connection. Never raises.
	Close()
}

package ports

import (
	"context"
	"errors"
	"time"

	"github.com/loomhq/resource-governor/internal/core/domain/quota"
)

var (
	// ErrNotFound signals that the usage counters row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey signals a unique-constraint conflict on insert; callers
	// creating counters treat it as "someone else already created the row".
	ErrDuplicateKey = errors.New("duplicate key")
)

// UsageRepository provides the narrow row interface over the persistent store.
// AtomicConsume must execute increment-and-read as a single store-side statement;
// splitting it into a read and a write reintroduces the race it exists to prevent.
type UsageRepository interface {
	Find(ctx context.Context, orgID string) (*quota.UsageCounters, error)
	Insert(ctx context.Context, counters *quota.UsageCounters) error
	// AtomicConsume increments the used counter for org+kind by amount and
	// returns the post-increment used value together with the limit.
	AtomicConsume(ctx context.Context, orgID string, kind quota.ResourceKind, amount int64) (used, limit int64, err error)
	// ResetUsage zeroes all used counters and advances the reset instant,
	// leaving the limit columns untouched.
	ResetUsage(ctx context.Context, orgID string, resetAt time.Time) error
	// SetStorageUsed overwrites the storage counter with an absolute value.
	SetStorageUsed(ctx context.Context, orgID string, totalBytes int64) error
	// AggregateStorage sums the organization's current content sizes store-side.
	AggregateStorage(ctx context.Context, orgID string) (int64, error)
	// ListDueForReset returns org IDs whose reset instant has passed.
	ListDueForReset(ctx context.Context, before time.Time, limit int) ([]string, error)
}

// QuotaEventRepository stores append-only quota lifecycle events.
type QuotaEventRepository interface {
	Create(ctx context.Context, event *quota.Event) error
	List(ctx context.Context, filter *quota.EventFilter) ([]*quota.Event, error)
}

// QuotaService owns per-organization resource accounting against monthly limits.
// Check and consume never surface store errors: a failed check degrades to a
// closed status and a failed consume to a structured failure, so callers always
// get an allow/deny answer.
type QuotaService interface {
	CheckQuota(ctx context.Context, orgID string, kind quota.ResourceKind) *quota.QuotaStatus
	ConsumeQuota(ctx context.Context, orgID string, kind quota.ResourceKind, amount int64) *quota.ConsumeResult
	InitializeQuota(ctx context.Context, orgID string, tier quota.Tier) error
	ResetQuota(ctx context.Context, orgID string) error
	UpdateStorageUsage(ctx context.Context, orgID string) error
	GetUsage(ctx context.Context, orgID string) (*quota.UsageSummary, error)
	ListEvents(ctx context.Context, filter *quota.EventFilter) ([]*quota.Event, error)
}

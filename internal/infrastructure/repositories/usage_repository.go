package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/loomhq/resource-governor/internal/core/domain/quota"
	"github.com/loomhq/resource-governor/internal/core/ports"
	"github.com/loomhq/resource-governor/internal/infrastructure/db"
)

// UsageRepository implements the usage counters row interface over Postgres.
type UsageRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewUsageRepository creates a new usage counters repository.
func NewUsageRepository(database *db.Database, logger *logrus.Logger) ports.UsageRepository {
	return &UsageRepository{
		db:     database,
		logger: logger,
	}
}

// Find retrieves the usage counters row for an organization.
func (r *UsageRepository) Find(ctx context.Context, orgID string) (*quota.UsageCounters, error) {
	var c quota.UsageCounters

	query := `
		SELECT org_id, api_calls_used, api_calls_limit,
		       storage_used_bytes, storage_limit_bytes,
		       recordings_used, recordings_limit,
		       reset_at, created_at, updated_at
		FROM usage_counters
		WHERE org_id = $1`

	if err := r.db.DB.GetContext(ctx, &c, query, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get usage counters: %w", err)
	}

	return &c, nil
}

// Insert creates the usage counters row. A conflict on org_id is surfaced as
// ports.ErrDuplicateKey so callers can apply insert-or-ignore semantics.
func (r *UsageRepository) Insert(ctx context.Context, c *quota.UsageCounters) error {
	query := `
		INSERT INTO usage_counters (
			org_id, api_calls_used, api_calls_limit,
			storage_used_bytes, storage_limit_bytes,
			recordings_used, recordings_limit, reset_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.DB.ExecContext(ctx, query,
		c.OrgID, c.APICallsUsed, c.APICallsLimit,
		c.StorageUsedBytes, c.StorageLimitBytes,
		c.RecordingsUsed, c.RecordingsLimit, c.ResetAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert usage counters: %w", err)
	}

	if r.logger != nil {
		r.logger.WithField("org_id", c.OrgID).Debug("db: usage counters inserted")
	}
	return nil
}

// AtomicConsume increments the used counter and reads back used+limit in one
// statement. Postgres holds the row lock for the duration of the UPDATE, so
// increment-then-check is indivisible across concurrent consumers; splitting
// this into a SELECT followed by an UPDATE would let two callers both observe
// "under limit" and both commit.
func (r *UsageRepository) AtomicConsume(ctx context.Context, orgID string, kind quota.ResourceKind, amount int64) (int64, int64, error) {
	var query string
	switch kind {
	case quota.ResourceAPICalls:
		query = `
			UPDATE usage_counters
			SET api_calls_used = api_calls_used + $2, updated_at = NOW()
			WHERE org_id = $1
			RETURNING api_calls_used, api_calls_limit`
	case quota.ResourceStorage:
		query = `
			UPDATE usage_counters
			SET storage_used_bytes = storage_used_bytes + $2, updated_at = NOW()
			WHERE org_id = $1
			RETURNING storage_used_bytes, storage_limit_bytes`
	case quota.ResourceRecordings:
		query = `
			UPDATE usage_counters
			SET recordings_used = recordings_used + $2, updated_at = NOW()
			WHERE org_id = $1
			RETURNING recordings_used, recordings_limit`
	default:
		return 0, 0, fmt.Errorf("unknown resource kind %q", kind)
	}

	var used, limit int64
	if err := r.db.DB.QueryRowContext(ctx, query, orgID, amount).Scan(&used, &limit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ports.ErrNotFound
		}
		return 0, 0, fmt.Errorf("failed to consume quota: %w", err)
	}
	return used, limit, nil
}

// ResetUsage zeroes all used counters and advances reset_at. Limit columns are
// never touched here.
func (r *UsageRepository) ResetUsage(ctx context.Context, orgID string, resetAt time.Time) error {
	query := `
		UPDATE usage_counters
		SET api_calls_used = 0, storage_used_bytes = 0, recordings_used = 0,
		    reset_at = $2, updated_at = NOW()
		WHERE org_id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, orgID, resetAt)
	if err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// SetStorageUsed overwrites the storage counter with an absolute total.
func (r *UsageRepository) SetStorageUsed(ctx context.Context, orgID string, totalBytes int64) error {
	query := `
		UPDATE usage_counters
		SET storage_used_bytes = $2, updated_at = NOW()
		WHERE org_id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, orgID, totalBytes)
	if err != nil {
		return fmt.Errorf("failed to set storage usage: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// AggregateStorage sums the organization's current content sizes. The
// content_items table is owned by the surrounding platform; this query is the
// store-side aggregation the reconciliation path relies on.
func (r *UsageRepository) AggregateStorage(ctx context.Context, orgID string) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(size_bytes), 0) FROM content_items WHERE org_id = $1`
	if err := r.db.DB.GetContext(ctx, &total, query, orgID); err != nil {
		return 0, fmt.Errorf("failed to aggregate storage: %w", err)
	}
	return total, nil
}

// ListDueForReset returns up to limit org IDs whose reset instant has passed,
// oldest first.
func (r *UsageRepository) ListDueForReset(ctx context.Context, before time.Time, limit int) ([]string, error) {
	var orgIDs []string
	query := `
		SELECT org_id FROM usage_counters
		WHERE reset_at <= $1
		ORDER BY reset_at
		LIMIT $2`

	if err := r.db.DB.SelectContext(ctx, &orgIDs, query, before, limit); err != nil {
		return nil, fmt.Errorf("failed to list counters due for reset: %w", err)
	}
	return orgIDs, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/loomhq/resource-governor/internal/core/domain/quota"
	"github.com/loomhq/resource-governor/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const usageCacheTTL = 30 * time.Second

// QuotaService implements per-organization resource accounting. Correctness
// under concurrent consumption is delegated to the repository's atomic
// increment-and-check; the service itself holds no locks. Quota checks fail
// closed: a store error yields an unavailable status rather than unmetered use.
type QuotaService struct {
	repo   ports.UsageRepository
	events ports.QuotaEventRepository
	alerts ports.AlertService
	cache  ports.Cache
	logger *logrus.Logger
	sf     singleflight.Group
	now    func() time.Time
}

// NewQuotaService creates a quota service. Events, alerts and cache are
// optional; a nil cache disables usage summary caching.
func NewQuotaService(repo ports.UsageRepository, events ports.QuotaEventRepository, alerts ports.AlertService, cache ports.Cache, logger *logrus.Logger) *QuotaService {
	return &QuotaService{
		repo:   repo,
		events: events,
		alerts: alerts,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// CheckQuota reports whether the organization has headroom for the resource.
// Remaining may go negative after overshoot; that is telemetry, not an error.
func (s *QuotaService) CheckQuota(ctx context.Context, orgID string, kind quota.ResourceKind) *quota.QuotaStatus {
	if !kind.Valid() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"org_id": orgID, "resource": kind}).Warn("quota check for unknown resource kind")
		}
		return &quota.QuotaStatus{}
	}

	counters, err := s.ensureCounters(ctx, orgID)
	if err != nil {
		if s.logger != nil {
			s.logger.WithField("org_id", orgID).WithError(err).Error("quota check failed; denying (fail-closed)")
		}
		return &quota.QuotaStatus{}
	}

	used, limit := counters.Counters(kind)
	remaining := limit - used
	return &quota.QuotaStatus{
		Available: limit > 0 && remaining > 0,
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
	}
}

// ConsumeQuota atomically increments usage and reports whether the
// post-increment state is within limit. Overshoot is recorded (used may exceed
// limit) but Success is false once the cap is crossed.
func (s *QuotaService) ConsumeQuota(ctx context.Context, orgID string, kind quota.ResourceKind, amount int64) *quota.ConsumeResult {
	if !kind.Valid() {
		return &quota.ConsumeResult{Success: false, Error: fmt.Sprintf("unknown resource kind %q", kind)}
	}
	if amount < 0 {
		return &quota.ConsumeResult{Success: false, Error: "amount must be non-negative"}
	}

	used, limit, err := s.repo.AtomicConsume(ctx, orgID, kind, amount)
	if errors.Is(err, ports.ErrNotFound) {
		// Org skipped explicit initialization; heal with starter defaults.
		if _, healErr := s.ensureCounters(ctx, orgID); healErr != nil {
			err = healErr
		} else {
			used, limit, err = s.repo.AtomicConsume(ctx, orgID, kind, amount)
		}
	}
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"org_id": orgID, "resource": kind, "amount": amount}).WithError(err).Error("quota consumption failed")
		}
		return &quota.ConsumeResult{Success: false, Error: err.Error()}
	}

	remaining := limit - used
	if used > limit {
		s.recordEvent(ctx, orgID, quota.EventDenied, kind, amount, used, limit)
		s.notifyDenied(ctx, orgID, kind, used, limit)
		return &quota.ConsumeResult{Success: false, Remaining: remaining}
	}
	return &quota.ConsumeResult{Success: true, Remaining: remaining}
}

// InitializeQuota inserts a zeroed row with the tier's limits. A duplicate org
// is treated as success so retries and races resolve cleanly.
func (s *QuotaService) InitializeQuota(ctx context.Context, orgID string, tier quota.Tier) error {
	if !tier.Valid() {
		return fmt.Errorf("unknown tier %q", tier)
	}

	row := quota.NewUsageCounters(orgID, tier, s.now())
	if err := s.repo.Insert(ctx, row); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"org_id": orgID, "tier": tier}).Debug("quota already initialized")
			}
			return nil
		}
		return fmt.Errorf("failed to initialize quota: %w", err)
	}

	s.recordEvent(ctx, orgID, quota.EventInitialized, "", 0, 0, 0)
	s.invalidateUsage(ctx, orgID)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"org_id": orgID, "tier": tier, "reset_at": row.ResetAt}).Info("quota initialized")
	}
	return nil
}

// ResetQuota zeroes all used counters and advances the reset instant to the
// first of next month, leaving limits intact. Idempotent; a missing row is not
// an error.
func (s *QuotaService) ResetQuota(ctx context.Context, orgID string) error {
	resetAt := quota.NextResetTime(s.now())
	if err := s.repo.ResetUsage(ctx, orgID, resetAt); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			if s.logger != nil {
				s.logger.WithField("org_id", orgID).Debug("reset requested for org without counters")
			}
			return nil
		}
		return fmt.Errorf("failed to reset quota: %w", err)
	}

	s.recordEvent(ctx, orgID, quota.EventReset, "", 0, 0, 0)
	s.invalidateUsage(ctx, orgID)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"org_id": orgID, "reset_at": resetAt}).Info("quota usage reset")
	}
	return nil
}

// UpdateStorageUsage reconciles the incremental storage counter against the
// store-side aggregation of the organization's content, as an absolute set.
func (s *QuotaService) UpdateStorageUsage(ctx context.Context, orgID string) error {
	total, err := s.repo.AggregateStorage(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to aggregate storage: %w", err)
	}
	if err := s.repo.SetStorageUsed(ctx, orgID, total); err != nil {
		return fmt.Errorf("failed to update storage usage: %w", err)
	}

	s.recordEvent(ctx, orgID, quota.EventReconciled, quota.ResourceStorage, 0, total, 0)
	s.invalidateUsage(ctx, orgID)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"org_id": orgID, "total_bytes": total}).Info("storage usage reconciled")
	}
	return nil
}

// GetUsage returns a reporting snapshot of all three resources. Reads go
// through a short-TTL cache; enforcement paths never use it.
func (s *QuotaService) GetUsage(ctx context.Context, orgID string) (*quota.UsageSummary, error) {
	key := usageCacheKey(orgID)
	if s.cache != nil {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var summary quota.UsageSummary
			if err := json.Unmarshal(b, &summary); err == nil {
				return &summary, nil
			}
		}
	}

	counters, err := s.ensureCounters(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage counters: %w", err)
	}

	summary := &quota.UsageSummary{
		APICalls: quota.ResourceUsage{
			Used:       counters.APICallsUsed,
			Limit:      counters.APICallsLimit,
			Percentage: quota.Percentage(counters.APICallsUsed, counters.APICallsLimit),
		},
		Storage: quota.ResourceUsage{
			Used:       counters.StorageUsedBytes,
			Limit:      counters.StorageLimitBytes,
			Percentage: quota.Percentage(counters.StorageUsedBytes, counters.StorageLimitBytes),
		},
		Recordings: quota.ResourceUsage{
			Used:       counters.RecordingsUsed,
			Limit:      counters.RecordingsLimit,
			Percentage: quota.Percentage(counters.RecordingsUsed, counters.RecordingsLimit),
		},
	}

	if s.cache != nil {
		if b, err := json.Marshal(summary); err == nil {
			_ = s.cache.Set(ctx, key, b, usageCacheTTL)
		}
	}
	return summary, nil
}

// ListEvents returns quota lifecycle events matching the filter.
func (s *QuotaService) ListEvents(ctx context.Context, filter *quota.EventFilter) ([]*quota.Event, error) {
	if s.events == nil {
		return nil, nil
	}
	return s.events.List(ctx, filter)
}

// ensureCounters loads the org's row, lazily creating it with starter defaults
// when absent. Concurrent first accesses race on the insert; the losers treat
// the unique-constraint conflict as success and read the winner's row.
func (s *QuotaService) ensureCounters(ctx context.Context, orgID string) (*quota.UsageCounters, error) {
	counters, err := s.repo.Find(ctx, orgID)
	if err == nil {
		return counters, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}

	_, err, _ = s.sf.Do("ensure:"+orgID, func() (any, error) {
		row := quota.NewUsageCounters(orgID, quota.TierStarter, s.now())
		if insErr := s.repo.Insert(ctx, row); insErr != nil && !errors.Is(insErr, ports.ErrDuplicateKey) {
			return nil, insErr
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.WithField("org_id", orgID).Info("usage counters created lazily with starter defaults")
	}
	return s.repo.Find(ctx, orgID)
}

func (s *QuotaService) recordEvent(ctx context.Context, orgID string, action quota.EventAction, resource quota.ResourceKind, amount, used, limit int64) {
	if s.events == nil {
		return
	}
	event := &quota.Event{
		OrgID:    orgID,
		Action:   action,
		Resource: resource,
		Amount:   amount,
		Used:     used,
		Limit:    limit,
	}
	if err := s.events.Create(ctx, event); err != nil && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"org_id": orgID, "action": action}).WithError(err).Warn("failed to record quota event")
	}
}

func (s *QuotaService) notifyDenied(ctx context.Context, orgID string, resource quota.ResourceKind, used, limit int64) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.SendQuotaAlert(ctx, orgID, resource, used, limit); err != nil && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"org_id": orgID, "resource": resource}).WithError(err).Warn("failed to send quota alert")
	}
}

func (s *QuotaService) invalidateUsage(ctx context.Context, orgID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, usageCacheKey(orgID))
}

func usageCacheKey(orgID string) string {
	return "quota:usage:" + orgID
}

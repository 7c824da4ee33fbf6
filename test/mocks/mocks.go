package mocks

import (
	"context"
	"time"

	"github.com/loomhq/resource-governor/internal/core/domain/quota"
	"github.com/loomhq/resource-governor/internal/core/domain/ratelimit"
	"github.com/loomhq/resource-governor/internal/core/ports"
)

// UsageRepositoryMock is a lightweight mock for UsageRepository
type UsageRepositoryMock struct {
	FindFn            func(ctx context.Context, orgID string) (*quota.UsageCounters, error)
	InsertFn          func(ctx context.Context, counters *quota.UsageCounters) error
	AtomicConsumeFn   func(ctx context.Context, orgID string, kind quota.ResourceKind, amount int64) (int64, int64, error)
	ResetUsageFn      func(ctx context.Context, orgID string, resetAt time.Time) error
	SetStorageUsedFn  func(ctx context.Context, orgID string, totalBytes int64) error
	AggregateStorageFn func(ctx context.Context, orgID string) (int64, error)
	ListDueForResetFn func(ctx context.Context, before time.Time, limit int) ([]string, error)
}

func (m *UsageRepositoryMock) Find(ctx context.Context, orgID string) (*quota.UsageCounters, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, orgID)
	}
	return nil, ports.ErrNotFound
}
func (m *UsageRepositoryMock) Insert(ctx context.Context, counters *quota.UsageCounters) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, counters)
	}
	return nil
}
func (m *UsageRepositoryMock) AtomicConsume(ctx context.Context, orgID string, kind quota.ResourceKind, amount int64) (int64, int64, error) {
	if m.AtomicConsumeFn != nil {
		return m.AtomicConsumeFn(ctx, orgID, kind, amount)
	}
	return 0, 0, ports.ErrNotFound
}
func (m *UsageRepositoryMock) ResetUsage(ctx context.Context, orgID string, resetAt time.Time) error {
	if m.ResetUsageFn != nil {
		return m.ResetUsageFn(ctx, orgID, resetAt)
	}
	return nil
}
func (m *UsageRepositoryMock) SetStorageUsed(ctx context.Context, orgID string, totalBytes int64) error {
	if m.SetStorageUsedFn != nil {
		return m.SetStorageUsedFn(ctx, orgID, totalBytes)
	}
	return nil
}
func (m *UsageRepositoryMock) AggregateStorage(ctx context.Context, orgID string) (int64, error) {
	if m.AggregateStorageFn != nil {
		return m.AggregateStorageFn(ctx, orgID)
	}
	return 0, nil
}
func (m *UsageRepositoryMock) ListDueForReset(ctx context.Context, before time.Time, limit int) ([]string, error) {
	if m.ListDueForResetFn != nil {
		return m.ListDueForResetFn(ctx, before, limit)
	}
	return nil, nil
}

// QuotaEventRepositoryMock is a lightweight mock for QuotaEventRepository
type QuotaEventRepositoryMock struct {
	CreateFn func(ctx context.Context, event *quota.Event) error
	ListFn   func(ctx context.Context, filter *quota.EventFilter) ([]*quota.Event, error)
}

func (m *QuotaEventRepositoryMock) Create(ctx context.Context, event *quota.Event) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, event)
	}
	return nil
}
func (m *QuotaEventRepositoryMock) List(ctx context.Context, filter *quota.EventFilter) ([]*quota.Event, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return nil, nil
}

// RateLimitRepositoryMock is a lightweight mock for RateLimitRepository
type RateLimitRepositoryMock struct {
	PurgeBeforeFn func(ctx context.Context, identifier string, cutoff int64) error
	CountSinceFn  func(ctx context.Context, identifier string, from int64) (int64, error)
	RecordFn      func(ctx context.Context, identifier string, at int64, ttl time.Duration) error
	OldestScoreFn func(ctx context.Context, identifier string) (int64, bool, error)
	DeleteFn      func(ctx context.Context, identifier string) error
}

func (m *RateLimitRepositoryMock) PurgeBefore(ctx context.Context, identifier string, cutoff int64) error {
	if m.PurgeBeforeFn != nil {
		return m.PurgeBeforeFn(ctx, identifier, cutoff)
	}
	return nil
}
func (m *RateLimitRepositoryMock) CountSince(ctx context.Context, identifier string, from int64) (int64, error) {
	if m.CountSinceFn != nil {
		return m.CountSinceFn(ctx, identifier, from)
	}
	return 0, nil
}
func (m *RateLimitRepositoryMock) Record(ctx context.Context, identifier string, at int64, ttl time.Duration) error {
	if m.RecordFn != nil {
		return m.RecordFn(ctx, identifier, at, ttl)
	}
	return nil
}
func (m *RateLimitRepositoryMock) OldestScore(ctx context.Context, identifier string) (int64, bool, error) {
	if m.OldestScoreFn != nil {
		return m.OldestScoreFn(ctx, identifier)
	}
	return 0, false, nil
}
func (m *RateLimitRepositoryMock) Delete(ctx context.Context, identifier string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, identifier)
	}
	return nil
}

// QuotaServiceMock is a lightweight mock for QuotaService
type QuotaServiceMock struct {
	CheckQuotaFn         func(ctx context.Context, orgID string, kind quota.ResourceKind) *quota.QuotaStatus
	ConsumeQuotaFn       func(ctx context.Context, orgID string, kind quota.ResourceKind, amount int64) *quota.ConsumeResult
	InitializeQuotaFn    func(ctx context.Context, orgID string, tier quota.Tier) error
	ResetQuotaFn         func(ctx context.Context, orgID string) error
	UpdateStorageUsageFn func(ctx context.Context, orgID string) error
	GetUsageFn           func(ctx context.Context, orgID string) (*quota.UsageSummary, error)
	ListEventsFn         func(ctx context.Context, filter *quota.EventFilter) ([]*quota.Event, error)
}

func (m *QuotaServiceMock) CheckQuota(ctx context.Context, orgID string, kind quota.ResourceKind) *quota.QuotaStatus {
	if m.CheckQuotaFn != nil {
		return m.CheckQuotaFn(ctx, orgID, kind)
	}
	return &quota.QuotaStatus{}
}
func (m *QuotaServiceMock) ConsumeQuota(ctx context.Context, orgID string, kind quota.ResourceKind, amount int64) *quota.ConsumeResult {
	if m.ConsumeQuotaFn != nil {
		return m.ConsumeQuotaFn(ctx, orgID, kind, amount)
	}
	return &quota.ConsumeResult{Success: true}
}
func (m *QuotaServiceMock) InitializeQuota(ctx context.Context, orgID string, tier quota.Tier) error {
	if m.InitializeQuotaFn != nil {
		return m.InitializeQuotaFn(ctx, orgID, tier)
	}
	return nil
}
func (m *QuotaServiceMock) ResetQuota(ctx context.Context, orgID string) error {
	if m.ResetQuotaFn != nil {
		return m.ResetQuotaFn(ctx, orgID)
	}
	return nil
}
func (m *QuotaServiceMock) UpdateStorageUsage(ctx context.Context, orgID string) error {
	if m.UpdateStorageUsageFn != nil {
		return m.UpdateStorageUsageFn(ctx, orgID)
	}
	return nil
}
func (m *QuotaServiceMock) GetUsage(ctx context.Context, orgID string) (*quota.UsageSummary, error) {
	if m.GetUsageFn != nil {
		return m.GetUsageFn(ctx, orgID)
	}
	return &quota.UsageSummary{}, nil
}
func (m *QuotaServiceMock) ListEvents(ctx context.Context, filter *quota.EventFilter) ([]*quota.Event, error) {
	if m.ListEventsFn != nil {
		return m.ListEventsFn(ctx, filter)
	}
	return nil, nil
}

// RateLimiterServiceMock is a lightweight mock for RateLimiterService
type RateLimiterServiceMock struct {
	CheckLimitFn func(ctx context.Context, identifier string, limit int) *ratelimit.LimitResult
	ResetLimitFn func(ctx context.Context, identifier string)
	CloseFn      func()
}

func (m *RateLimiterServiceMock) CheckLimit(ctx context.Context, identifier string, limit int) *ratelimit.LimitResult {
	if m.CheckLimitFn != nil {
		return m.CheckLimitFn(ctx, identifier, limit)
	}
	return &ratelimit.LimitResult{Allowed: true, Remaining: limit, Limit: limit}
}
func (m *RateLimiterServiceMock) ResetLimit(ctx context.Context, identifier string) {
	if m.ResetLimitFn != nil {
		m.ResetLimitFn(ctx, identifier)
	}
}
func (m *RateLimiterServiceMock) Close() {
	if m.CloseFn != nil {
		m.CloseFn()
	}
}

// CacheMock is a lightweight in-memory mock for ports.Cache
type CacheMock struct {
	GetFn    func(ctx context.Context, key string) ([]byte, bool, error)
	SetFn    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFn func(ctx context.Context, key string) error
}

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return nil, false, nil
}
func (m *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, ttl)
	}
	return nil
}
func (m *CacheMock) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return nil
}

// AlertServiceMock is a lightweight mock for AlertService
type AlertServiceMock struct {
	SendQuotaAlertFn func(ctx context.Context, orgID string, resource quota.ResourceKind, used, limit int64) error
}

func (m *AlertServiceMock) SendQuotaAlert(ctx context.Context, orgID string, resource quota.ResourceKind, used, limit int64) error {
	if m.SendQuotaAlertFn != nil {
		return m.SendQuotaAlertFn(ctx, orgID, resource, used, limit)
	}
	return nil
}

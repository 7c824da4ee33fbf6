package quota

import (
	"math"
	"time"
)

// ResourceKind identifies a metered resource on an organization's usage counters.
type ResourceKind string

const (
	ResourceAPICalls   ResourceKind = "api_calls"
	ResourceStorage    ResourceKind = "storage"
	ResourceRecordings ResourceKind = "recordings"
)

// Valid reports whether the resource kind is one of the metered kinds.
func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceAPICalls, ResourceStorage, ResourceRecordings:
		return true
	default:
		return false
	}
}

type Tier string

const (
	TierStarter    Tier = "starter"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Valid reports whether the tier is one of the named subscription tiers.
func (t Tier) Valid() bool {
	_, ok := tierLimits[t]
	return ok
}

// Limits holds the per-tier resource caps.
type Limits struct {
	APICalls     int64
	StorageBytes int64
	Recordings   int64
}

const gib = int64(1) << 30

var tierLimits = map[Tier]Limits{
	TierStarter:    {APICalls: 1_000, StorageBytes: 1 * gib, Recordings: 10},
	TierPro:        {APICalls: 10_000, StorageBytes: 10 * gib, Recordings: 100},
	TierEnterprise: {APICalls: 100_000, StorageBytes: 100 * gib, Recordings: 1_000},
}

// LimitsForTier returns the fixed limit table entry for a tier.
func LimitsForTier(t Tier) (Limits, bool) {
	l, ok := tierLimits[t]
	return l, ok
}

// UsageCounters is one row per organization in the persistent store.
// Used fields move only through atomic consumption or a reset; limit fields are
// written once at initialization and preserved by resets.
type UsageCounters struct {
	OrgID             string    `json:"org_id" db:"org_id"`
	APICallsUsed      int64     `json:"api_calls_used" db:"api_calls_used"`
	APICallsLimit     int64     `json:"api_calls_limit" db:"api_calls_limit"`
	StorageUsedBytes  int64     `json:"storage_used_bytes" db:"storage_used_bytes"`
	StorageLimitBytes int64     `json:"storage_limit_bytes" db:"storage_limit_bytes"`
	RecordingsUsed    int64     `json:"recordings_used" db:"recordings_used"`
	RecordingsLimit   int64     `json:"recordings_limit" db:"recordings_limit"`
	ResetAt           time.Time `json:"reset_at" db:"reset_at"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Counters returns the {used, limit} pair for a resource kind.
func (c *UsageCounters) Counters(kind ResourceKind) (used, limit int64) {
	switch kind {
	case ResourceAPICalls:
		return c.APICallsUsed, c.APICallsLimit
	case ResourceStorage:
		return c.StorageUsedBytes, c.StorageLimitBytes
	case ResourceRecordings:
		return c.RecordingsUsed, c.RecordingsLimit
	default:
		return 0, 0
	}
}

// NewUsageCounters builds a fresh row for an organization with the tier's limits,
// zero usage and the next monthly reset instant.
func NewUsageCounters(orgID string, tier Tier, now time.Time) *UsageCounters {
	limits := tierLimits[tier]
	return &UsageCounters{
		OrgID:             orgID,
		APICallsLimit:     limits.APICalls,
		StorageLimitBytes: limits.StorageBytes,
		RecordingsLimit:   limits.Recordings,
		ResetAt:           NextResetTime(now),
	}
}

// QuotaStatus is the result of a quota check. Remaining may be negative when an
// organization over-consumed; Available is false whenever the limit is zero.
type QuotaStatus struct {
	Available bool  `json:"available"`
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Remaining int64 `json:"remaining"`
}

// ConsumeResult is the result of an atomic consumption attempt.
type ConsumeResult struct {
	Success   bool   `json:"success"`
	Remaining int64  `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

// ResourceUsage is a single resource's usage snapshot for reporting.
type ResourceUsage struct {
	Used       int64 `json:"used"`
	Limit      int64 `json:"limit"`
	Percentage int   `json:"percentage"`
}

// UsageSummary reports all three resources for an organization.
type UsageSummary struct {
	APICalls   ResourceUsage `json:"api_calls"`
	Storage    ResourceUsage `json:"storage"`
	Recordings ResourceUsage `json:"recordings"`
}

// Percentage returns round(used/limit*100), or 0 when the limit is zero so a
// disabled resource never divides by zero.
func Percentage(used, limit int64) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Round(float64(used) / float64(limit) * 100))
}

// NextResetTime returns the first instant (00:00:00 UTC, day 1) of the month
// following now. Calendar-aware: December rolls into January of the next year,
// and 28/29/30/31-day months are all handled by month arithmetic rather than a
// fixed duration.
func NextResetTime(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

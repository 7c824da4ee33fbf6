package quota

import (
	"testing"
	"time"
)

func TestNextResetTime_MidMonth(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	got := NextResetTime(now)
	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextResetTime(%v) = %v, want %v", now, got, want)
	}
}

func TestNextResetTime_YearRollover(t *testing.T) {
	now := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	got := NextResetTime(now)
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextResetTime(%v) = %v, want %v", now, got, want)
	}
}

func TestNextResetTime_FirstInstantOfMonth(t *testing.T) {
	// Already at a month boundary: the next reset is still a full month out.
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got := NextResetTime(now)
	want := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextResetTime(%v) = %v, want %v", now, got, want)
	}
}

func TestNextResetTime_ShortMonth(t *testing.T) {
	// January 31st must land on March-safe arithmetic: first of February,
	// not a fixed 30-day jump.
	now := time.Date(2024, 1, 31, 6, 0, 0, 0, time.UTC)
	got := NextResetTime(now)
	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextResetTime(%v) = %v, want %v", now, got, want)
	}
}

func TestNextResetTime_NonUTCInput(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 08:30 on Jan 1 in UTC+9 is still Dec 31 in UTC.
	now := time.Date(2025, 1, 1, 8, 30, 0, 0, loc)
	got := NextResetTime(now)
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextResetTime(%v) = %v, want %v", now, got, want)
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		used, limit int64
		want        int
	}{
		{750, 1000, 75},
		{0, 1000, 0},
		{1000, 1000, 100},
		{1100, 1000, 110},
		{500, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
	}
	for _, tc := range cases {
		if got := Percentage(tc.used, tc.limit); got != tc.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tc.used, tc.limit, got, tc.want)
		}
	}
}

func TestLimitsForTier(t *testing.T) {
	starter, ok := LimitsForTier(TierStarter)
	if !ok {
		t.Fatal("starter tier missing")
	}
	if starter.APICalls != 1_000 || starter.StorageBytes != 1<<30 || starter.Recordings != 10 {
		t.Fatalf("unexpected starter limits: %+v", starter)
	}

	pro, _ := LimitsForTier(TierPro)
	if pro.APICalls != 10_000 || pro.StorageBytes != 10*(1<<30) || pro.Recordings != 100 {
		t.Fatalf("unexpected pro limits: %+v", pro)
	}

	enterprise, _ := LimitsForTier(TierEnterprise)
	if enterprise.APICalls != 100_000 || enterprise.StorageBytes != 100*(1<<30) || enterprise.Recordings != 1_000 {
		t.Fatalf("unexpected enterprise limits: %+v", enterprise)
	}

	if _, ok := LimitsForTier(Tier("platinum")); ok {
		t.Fatal("unknown tier should not resolve")
	}
}

func TestNewUsageCounters(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	c := NewUsageCounters("org-1", TierPro, now)

	if c.APICallsUsed != 0 || c.StorageUsedBytes != 0 || c.RecordingsUsed != 0 {
		t.Fatalf("fresh counters must start at zero: %+v", c)
	}
	if c.APICallsLimit != 10_000 || c.StorageLimitBytes != 10*(1<<30) || c.RecordingsLimit != 100 {
		t.Fatalf("unexpected limits: %+v", c)
	}
	want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if !c.ResetAt.Equal(want) {
		t.Fatalf("ResetAt = %v, want %v", c.ResetAt, want)
	}
}

func TestCounters_ByKind(t *testing.T) {
	c := &UsageCounters{
		APICallsUsed: 5, APICallsLimit: 10,
		StorageUsedBytes: 100, StorageLimitBytes: 200,
		RecordingsUsed: 1, RecordingsLimit: 3,
	}

	if used, limit := c.Counters(ResourceAPICalls); used != 5 || limit != 10 {
		t.Fatalf("api_calls = (%d, %d)", used, limit)
	}
	if used, limit := c.Counters(ResourceStorage); used != 100 || limit != 200 {
		t.Fatalf("storage = (%d, %d)", used, limit)
	}
	if used, limit := c.Counters(ResourceRecordings); used != 1 || limit != 3 {
		t.Fatalf("recordings = (%d, %d)", used, limit)
	}
	if used, limit := c.Counters(ResourceKind("bogus")); used != 0 || limit != 0 {
		t.Fatalf("unknown kind = (%d, %d)", used, limit)
	}
}

func TestResourceKindValid(t *testing.T) {
	for _, k := range []ResourceKind{ResourceAPICalls, ResourceStorage, ResourceRecordings} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	for _, k := range []ResourceKind{"", "cpu", "API_CALLS"} {
		if k.Valid() {
			t.Errorf("%q should be invalid", k)
		}
	}
}

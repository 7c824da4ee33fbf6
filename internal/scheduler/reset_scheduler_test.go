package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loomhq/resource-governor/test/mocks"
)

func TestSweep_ResetsEveryDueOrg(t *testing.T) {
	repo := &mocks.UsageRepositoryMock{ListDueForResetFn: func(ctx context.Context, before time.Time, limit int) ([]string, error) {
		return []string{"org-1", "org-2", "org-3"}, nil
	}}
	var resets []string
	quotas := &mocks.QuotaServiceMock{ResetQuotaFn: func(ctx context.Context, orgID string) error {
		resets = append(resets, orgID)
		return nil
	}}
	s := NewResetScheduler(quotas, repo, "@hourly", 500, nil)

	s.sweep()
	if len(resets) != 3 {
		t.Fatalf("expected 3 resets, got %v", resets)
	}
}

func TestSweep_ContinuesPastPerOrgFailure(t *testing.T) {
	repo := &mocks.UsageRepositoryMock{ListDueForResetFn: func(ctx context.Context, before time.Time, limit int) ([]string, error) {
		return []string{"org-1", "org-2"}, nil
	}}
	var resets []string
	quotas := &mocks.QuotaServiceMock{ResetQuotaFn: func(ctx context.Context, orgID string) error {
		resets = append(resets, orgID)
		if orgID == "org-1" {
			return errors.New("deadlock")
		}
		return nil
	}}
	s := NewResetScheduler(quotas, repo, "@hourly", 500, nil)

	s.sweep()
	if len(resets) != 2 {
		t.Fatalf("one failure must not stop the sweep: %v", resets)
	}
}

func TestSweep_ListFailureSkipsResets(t *testing.T) {
	repo := &mocks.UsageRepositoryMock{ListDueForResetFn: func(ctx context.Context, before time.Time, limit int) ([]string, error) {
		return nil, errors.New("connection refused")
	}}
	quotas := &mocks.QuotaServiceMock{ResetQuotaFn: func(ctx context.Context, orgID string) error {
		t.Fatal("must not reset when listing fails")
		return nil
	}}
	s := NewResetScheduler(quotas, repo, "@hourly", 500, nil)

	s.sweep()
}

func TestSweep_PassesBatchSize(t *testing.T) {
	var gotLimit int
	repo := &mocks.UsageRepositoryMock{ListDueForResetFn: func(ctx context.Context, before time.Time, limit int) ([]string, error) {
		gotLimit = limit
		return nil, nil
	}}
	s := NewResetScheduler(&mocks.QuotaServiceMock{}, repo, "@hourly", 250, nil)

	s.sweep()
	if gotLimit != 250 {
		t.Fatalf("batch size = %d, want 250", gotLimit)
	}
}

func TestNewResetScheduler_DefaultsBatchSize(t *testing.T) {
	s := NewResetScheduler(&mocks.QuotaServiceMock{}, &mocks.UsageRepositoryMock{}, "@hourly", 0, nil)
	if s.batchSize != 500 {
		t.Fatalf("batch size = %d, want default 500", s.batchSize)
	}
}

func TestStart_RejectsMalformedSchedule(t *testing.T) {
	s := NewResetScheduler(&mocks.QuotaServiceMock{}, &mocks.UsageRepositoryMock{}, "not-a-schedule", 500, nil)
	if err := s.Start(); err == nil {
		t.Fatal("expected schedule parse error")
	}
}

package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/loomhq/resource-governor/internal/core/ports"
)

const sweepTimeout = time.Minute

// ResetScheduler periodically resets usage for organizations whose monthly
// reset instant has passed. ResetQuota is idempotent per organization, so a
// sweep that overlaps a concurrent manual reset is harmless.
type ResetScheduler struct {
	cron      *cron.Cron
	quotas    ports.QuotaService
	usageRepo ports.UsageRepository
	logger    *logrus.Logger
	schedule  string
	batchSize int
}

func NewResetScheduler(quotas ports.QuotaService, usageRepo ports.UsageRepository, schedule string, batchSize int, logger *logrus.Logger) *ResetScheduler {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ResetScheduler{
		cron:      cron.New(),
		quotas:    quotas,
		usageRepo: usageRepo,
		logger:    logger,
		schedule:  schedule,
		batchSize: batchSize,
	}
}

// Start registers the sweep and begins the cron loop.
func (s *ResetScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	if s.logger != nil {
		s.logger.WithField("schedule", s.schedule).Info("quota reset scheduler started")
	}
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *ResetScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	if s.logger != nil {
		s.logger.Info("quota reset scheduler stopped")
	}
}

func (s *ResetScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	orgIDs, err := s.usageRepo.ListDueForReset(ctx, time.Now().UTC(), s.batchSize)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("reset sweep: failed to list due organizations")
		}
		return
	}
	if len(orgIDs) == 0 {
		return
	}

	var failed int
	for _, orgID := range orgIDs {
		if err := s.quotas.ResetQuota(ctx, orgID); err != nil {
			failed++
			if s.logger != nil {
				s.logger.WithField("org_id", orgID).WithError(err).Error("reset sweep: failed to reset quota")
			}
		}
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"due": len(orgIDs), "failed": failed}).Info("reset sweep finished")
	}
}

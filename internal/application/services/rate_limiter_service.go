package services

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/loomhq/resource-governor/internal/core/domain/ratelimit"
	"github.com/loomhq/resource-governor/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// keyTTLBuffer keeps a key alive slightly past its own logical window so an
// in-flight check never races the store's eviction.
const keyTTLBuffer = 10 * time.Second

// RateLimiterService implements sliding-window throttling per identifier over
// a sorted set of request timestamps. One instance serves all identifiers with
// a fixed window. The purge/count/insert sequence is three store round-trips
// and deliberately not atomic: under extreme concurrency several callers can
// read the same sub-limit count before any of them inserts, allowing slight
// overshoot past the limit. That looseness is accepted; combining the steps
// into a store-side script would be the exact-enforcement alternative.
type RateLimiterService struct {
	repo   ports.RateLimitRepository
	window time.Duration
	closer io.Closer
	logger *logrus.Logger
	now    func() time.Time
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	Window time.Duration
}

// NewRateLimiterService creates a rate limiter. closer, if non-nil, is released
// by Close (typically the store client).
func NewRateLimiterService(repo ports.RateLimitRepository, cfg *RateLimiterConfig, closer io.Closer, logger *logrus.Logger) *RateLimiterService {
	w := time.Minute
	if cfg != nil && cfg.Window > 0 {
		w = cfg.Window
	}
	return &RateLimiterService{repo: repo, window: w, closer: closer, logger: logger, now: time.Now}
}

// CheckLimit purges entries older than the window, counts the remainder and,
// when under limit, records the current request. limit == 0 always denies;
// limit < 0 means unlimited and skips the store entirely. Any store failure
// fails open.
func (s *RateLimiterService) CheckLimit(ctx context.Context, identifier string, limit int) *ratelimit.LimitResult {
	if limit < 0 {
		// Negative limit signifies "unmetered"; no point touching the window.
		return &ratelimit.LimitResult{Allowed: true, Remaining: limit, Limit: limit}
	}

	now := s.now().UnixMilli()
	windowStart := now - s.window.Milliseconds()

	if err := s.repo.PurgeBefore(ctx, identifier, windowStart); err != nil {
		return s.failOpen(identifier, limit, err)
	}

	count, err := s.repo.CountSince(ctx, identifier, windowStart)
	if err != nil {
		return s.failOpen(identifier, limit, err)
	}

	if count < int64(limit) {
		if err := s.repo.Record(ctx, identifier, now, s.keyTTL()); err != nil {
			return s.failOpen(identifier, limit, err)
		}
		return &ratelimit.LimitResult{Allowed: true, Remaining: limit - int(count) - 1, Limit: limit}
	}

	result := &ratelimit.LimitResult{Allowed: false, Remaining: 0, Limit: limit}
	oldest, ok, err := s.repo.OldestScore(ctx, identifier)
	if err != nil {
		return s.failOpen(identifier, limit, err)
	}
	if ok {
		retryMs := oldest + s.window.Milliseconds() - now
		if retryMs > 0 {
			result.RetryAfter = int((retryMs + 999) / 1000)
		}
	}
	return result
}

// ResetLimit deletes the identifier's window outright. Best-effort
// administrative action: errors are logged and swallowed.
func (s *RateLimiterService) ResetLimit(ctx context.Context, identifier string) {
	if err := s.repo.Delete(ctx, identifier); err != nil && s.logger != nil {
		s.logger.WithField("identifier", identifier).WithError(err).Warn("rate limiter: failed to reset window")
	}
}

// Close releases the underlying store connection. Never raises.
func (s *RateLimiterService) Close() {
	if s.closer == nil {
		return
	}
	if err := s.closer.Close(); err != nil && s.logger != nil {
		s.logger.WithError(err).Warn("rate limiter: failed to close store connection")
	}
}

func (s *RateLimiterService) keyTTL() time.Duration {
	secs := int64(math.Ceil(s.window.Seconds()))
	return time.Duration(secs)*time.Second + keyTTLBuffer
}

func (s *RateLimiterService) failOpen(identifier string, limit int, err error) *ratelimit.LimitResult {
	if s.logger != nil {
		s.logger.WithField("identifier", identifier).WithError(err).Error("rate limiter store error; allowing request (fail-open)")
	}
	return &ratelimit.LimitResult{Allowed: true, Remaining: limit, Limit: limit}
}

package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/loomhq/resource-governor/internal/core/ports"
	"github.com/loomhq/resource-governor/internal/infrastructure/httpserver/helpers"
)

type RateLimitMiddleware struct {
	limiter      ports.RateLimiterService
	defaultLimit int
	decisions    *prometheus.CounterVec
	logger       *logrus.Logger
}

func NewRateLimitMiddleware(limiter ports.RateLimiterService, defaultLimit int, decisions *prometheus.CounterVec, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, defaultLimit: defaultLimit, decisions: decisions, logger: logger}
}

// Handler throttles by organization identity when present, falling back to the
// caller's IP for unauthenticated routes. Denials get a 429 with Retry-After;
// the limiter's fail-open result passes straight through.
func (r *RateLimitMiddleware) Handler() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identifier, ok := helpers.GetOrgIDRaw(c)
			if !ok || identifier == "" {
				identifier = c.RealIP()
			}

			result := r.limiter.CheckLimit(c.Request().Context(), identifier, r.defaultLimit)

			c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))

			if !result.Allowed {
				if r.decisions != nil {
					r.decisions.WithLabelValues("denied").Inc()
				}
				if r.logger != nil {
					r.logger.WithFields(logrus.Fields{"identifier": identifier, "retry_after": result.RetryAfter}).Debug("request rate limited")
				}
				if result.RetryAfter > 0 {
					c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", result.RetryAfter))
				}
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			if r.decisions != nil {
				r.decisions.WithLabelValues("allowed").Inc()
			}
			return next(c)
		}
	}
}

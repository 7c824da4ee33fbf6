package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/loomhq/resource-governor/internal/core/ports"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	OrgIdentity *OrgIdentityMiddleware
	Admin       *AdminMiddleware
	RateLimit   *RateLimitMiddleware
	Logging     *LoggingMiddleware
	Metrics     *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	rateLimiter ports.RateLimiterService,
	logger *logrus.Logger,
	jwtSecret string,
	adminAPIKey string,
	defaultRateLimit int,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
	rateLimitDecisions *prometheus.CounterVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		OrgIdentity: NewOrgIdentityMiddleware(jwtSecret, logger),
		Admin:       NewAdminMiddleware(adminAPIKey, logger),
		RateLimit:   NewRateLimitMiddleware(rateLimiter, defaultRateLimit, rateLimitDecisions, logger),
		Logging:     NewLoggingMiddleware(logger),
		Metrics:     NewMetricsMiddleware(requestsTotal, requestDuration),
	}
}

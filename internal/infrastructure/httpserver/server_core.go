package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/loomhq/resource-governor/internal/core/ports"
	customMiddleware "github.com/loomhq/resource-governor/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host             string
	Port             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	TLSCertFile      string
	TLSKeyFile       string
	AdminAPIKey      string
	DefaultRateLimit int
}

type ServerDeps struct {
	QuotaService       ports.QuotaService
	RateLimiterService ports.RateLimiterService
	HealthCheckers     []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	quotaSvc       ports.QuotaService
	rateLimiter    ports.RateLimiterService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, jwtSecret string, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		quotaSvc:       deps.QuotaService,
		rateLimiter:    deps.RateLimiterService,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiterService,
			logger,
			jwtSecret,
			serverConfig.AdminAPIKey,
			serverConfig.DefaultRateLimit,
			GetRequestsTotal(),
			GetRequestDuration(),
			GetRateLimitDecisions(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

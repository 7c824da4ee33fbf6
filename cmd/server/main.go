package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/loomhq/resource-governor/configs"
	"github.com/loomhq/resource-governor/internal/application/services"
	"github.com/loomhq/resource-governor/internal/core/ports"
	"github.com/loomhq/resource-governor/internal/infrastructure/db"
	"github.com/loomhq/resource-governor/internal/infrastructure/email"
	"github.com/loomhq/resource-governor/internal/infrastructure/health"
	"github.com/loomhq/resource-governor/internal/infrastructure/httpserver"
	"github.com/loomhq/resource-governor/internal/infrastructure/redis"
	"github.com/loomhq/resource-governor/internal/infrastructure/repositories"
	"github.com/loomhq/resource-governor/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting resource governor...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Initialize Redis client
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}

	logger.Info("Connected to Redis successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	// Repositories
	usageRepo := repositories.NewUsageRepository(database, logger)
	eventRepo := repositories.NewQuotaEventRepository(database, logger)
	rateLimitRepo := repositories.NewRateLimitRedisRepository(redisClient)

	// Short-TTL cache for usage summaries on the reporting path
	usageCache := redis.NewRedisCache(redisClient, "govcache")

	// Alerts are optional; without a SendGrid key quota denials are log-only
	var alertService ports.AlertService
	if cfg.Email.SendGridAPIKey != "" {
		alertService, err = email.NewAlertService(&email.AlertConfig{
			SendGridAPIKey: cfg.Email.SendGridAPIKey,
			FromEmail:      cfg.Email.FromEmail,
			FromName:       cfg.Email.FromName,
			OpsEmail:       cfg.Email.OpsEmail,
			CompanyName:    cfg.Email.CompanyName,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize alert service:", err)
		}
	}

	// Services
	quotaService := services.NewQuotaService(usageRepo, eventRepo, alertService, usageCache, logger)
	rateLimiterService := services.NewRateLimiterService(
		rateLimitRepo,
		&services.RateLimiterConfig{Window: cfg.RateLimit.Window},
		redisClient,
		logger,
	)
	defer rateLimiterService.Close()

	// Monthly reset sweeper
	resetScheduler := scheduler.NewResetScheduler(quotaService, usageRepo, cfg.Quota.ResetSchedule, cfg.Quota.ResetBatchSize, logger)
	if err := resetScheduler.Start(); err != nil {
		logger.Fatal("Failed to start reset scheduler:", err)
	}
	defer resetScheduler.Stop()

	hcSlice := []ports.HealthChecker{health.NewDBHealthChecker(database), health.NewRedisHealthChecker(redisClient)}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		TLSCertFile:      cfg.Server.TLSCertFile,
		TLSKeyFile:       cfg.Server.TLSKeyFile,
		AdminAPIKey:      cfg.Quota.AdminAPIKey,
		DefaultRateLimit: cfg.RateLimit.DefaultLimit,
	}

	deps := httpserver.ServerDeps{
		QuotaService:       quotaService,
		RateLimiterService: rateLimiterService,
		HealthCheckers:     hcSlice,
	}

	server := httpserver.NewServer(serverConfig, cfg.Auth.JWTSecret, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/adapters/cache"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/adapters/database"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/adapters/events"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/api/handlers"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/api/routes"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/application/services"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/domain/providers"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/notifications"
	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/observability"
	"github.com/zatekoja/ipd-admission-engine/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env, cfg.Server.LogLevel)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized successfully")

	// Initialize Redis client. The engine works without Redis; caching and
	// real-time events are simply disabled.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Redis client, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Msg("Redis client initialized successfully")
	}

	// Initialize adapters
	bookingAdapter := database.NewBookingAdapter(pgClient)
	bedAdapter := database.NewBedAdapter(pgClient)
	allocationAdapter := database.NewAllocationAdapter(pgClient)
	facilityAdapter := database.NewFacilityAdapter(pgClient)
	notificationLogAdapter := database.NewNotificationLogAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		logger.Info().Msg("Event bus initialized successfully")
	}

	// Initialize patient notifier. Falls back to log-only delivery when
	// WhatsApp credentials are absent.
	var notifier providers.Notifier
	sender, err := notifications.NewWhatsAppCloudSender(&cfg.Notifications)
	if err != nil {
		logger.Warn().Err(err).Msg("WhatsApp sender unavailable, using log notifier")
		notifier = notifications.NewLogNotifier()
	} else {
		notifier = notifications.NewWhatsAppNotifier(sender)
	}

	// Initialize services
	scorer := services.NewPriorityScorer()
	matcher := services.NewBedMatcher()

	gate := services.NewNotificationGate(
		notificationLogAdapter,
		bookingAdapter,
		facilityAdapter,
		notifier,
		services.GateConfig{
			TopN:                cfg.Allocation.NotifyTopN,
			SignificantPosition: cfg.Allocation.NotifySignificantPosition,
			Throttle:            time.Duration(cfg.Allocation.NotifyThrottleHours) * time.Hour,
		},
		cfg.Allocation.BedTurnoverHours,
	)

	queueService := services.NewQueueService(
		bookingAdapter,
		scorer,
		gate,
		cacheProvider,
		eventBus,
		cfg.Allocation.BedTurnoverHours,
	)

	allocationService := services.NewAllocationService(
		bookingAdapter,
		bedAdapter,
		facilityAdapter,
		allocationAdapter,
		matcher,
		queueService,
		gate,
		eventBus,
		cfg.Allocation.AutoAllocateBatch,
	)

	// Post-release cascade worker
	releaseWorker := services.NewReleaseWorker(allocationService, cfg.Allocation.CascadeQueueSize)
	allocationService.SetCascade(releaseWorker)
	releaseWorker.Start(ctx)
	defer releaseWorker.Stop()
	logger.Info().Msg("Release cascade worker started")

	// Initialize handlers
	queueHandler := handlers.NewQueueHandler(queueService)
	bedHandler := handlers.NewBedHandler(allocationService)
	allocationHandler := handlers.NewAllocationHandler(allocationService)

	// Set up router
	router := routes.NewRouter(queueHandler, bedHandler, allocationHandler)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing event bus")
		}
	}

	logger.Info().Msg("Server stopped")
}

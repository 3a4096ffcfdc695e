package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/srgjo27/booking_flow/internal/adapter/backend"
	"github.com/srgjo27/booking_flow/internal/adapter/handler"
	"github.com/srgjo27/booking_flow/internal/adapter/provider"
	"github.com/srgjo27/booking_flow/internal/adapter/repository/postgres"
	"github.com/srgjo27/booking_flow/internal/adapter/repository/redisstore"
	"github.com/srgjo27/booking_flow/internal/core/services"
	"github.com/srgjo27/booking_flow/internal/platform/config"
	"github.com/srgjo27/booking_flow/internal/platform/database"
	"github.com/srgjo27/booking_flow/internal/platform/logger"
	"github.com/srgjo27/booking_flow/internal/platform/metrics"
	"github.com/srgjo27/booking_flow/internal/platform/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, "booking-flow", cfg.OtelEndpoint)
	if err != nil {
		logg.Warn("tracing disabled", zap.Error(err))
	}

	db, err := database.NewPostgresDB(ctx, database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	}, logg)
	if err != nil {
		logg.Fatal("failed to connect to db after retries", zap.Error(err))
	}
	defer db.Close()

	ledger := postgres.NewConfirmationRepository(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		logg.Fatal("failed to prepare ledger schema", zap.Error(err))
	}

	redisAddr := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)
	logg.Info("connecting to redis", zap.String("addr", redisAddr))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logg.Fatal("failed to connect to redis", zap.Error(err))
	}
	logg.Info("redis connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	flowMetrics := metrics.NewFlowMetrics(registry)

	loader := services.NewWidgetLoader(provider.NewScriptFetcher(cfg.BackendTimeout), services.WidgetLoaderConfig{
		ScriptURL:   cfg.ProviderScriptURL,
		Namespace:   cfg.WidgetNamespace,
		Origin:      cfg.ProviderOrigins[0],
		SettleDelay: cfg.WidgetSettleDelay,
	}, logg, flowMetrics)

	corrector, err := services.NewOriginCorrector(cfg.IsProduction(), cfg.WrongHost, cfg.ProductionOrigin)
	if err != nil {
		logg.Fatal("invalid production origin", zap.Error(err))
	}

	gate := services.NewPersistenceGate(
		backend.NewMeetingsClient(cfg.BackendBaseURL, cfg.BackendAPIToken, cfg.BackendTimeout),
		ledger,
		logg,
		flowMetrics,
	)

	flowService := services.NewFlowService(services.FlowConfig{
		ClientSchedulingLink: cfg.ClientSchedulingLink,
		TalentSchedulingLink: cfg.TalentSchedulingLink,
		FrameBaseURL:         cfg.ProviderFrameBaseURL,
		ProviderOrigins:      cfg.ProviderOrigins,
		DashboardPath:        cfg.DashboardPath,
		CountdownTicks:       cfg.CountdownTicks,
		CountdownInterval:    cfg.CountdownInterval,
		SessionTTL:           cfg.SessionTTL,
		CleanupInterval:      cfg.CleanupInterval,
	}, services.FlowServiceDeps{
		Loader:    loader,
		Corrector: corrector,
		Persister: gate,
		Profiles:  redisstore.NewProfileStore(redisClient, cfg.ProfileTTL),
		Logger:    logg,
		Metrics:   flowMetrics,
	})

	go flowService.RunBackgroundCleanup(ctx)

	pageLimiter := handler.NewRateLimiter(cfg.PageRateLimit, cfg.PageRateBurst, cfg.RateLimitIdleTTL, logg)
	messageLimiter := handler.NewRateLimiter(cfg.MessageRateLimit, cfg.MessageRateBurst, cfg.RateLimitIdleTTL, logg)
	go pageLimiter.RunCleanup(ctx, cfg.CleanupInterval)
	go messageLimiter.RunCleanup(ctx, cfg.CleanupInterval)

	var pageOrigins []string
	if cfg.IsProduction() {
		pageOrigins = []string{cfg.ProductionOrigin}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Flows: handler.NewFlowHandler(flowService, loader, logg, handler.FlowHandlerOptions{
			SecureCookie: cfg.IsProduction(),
			PageOrigins:  pageOrigins,
		}),
		Logger:         logg,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		PageLimiter:    pageLimiter,
		MessageLimiter: messageLimiter,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(router, "booking-flow"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logg.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("server startup failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
	}
	flowService.Shutdown()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logg.Warn("tracing shutdown failed", zap.Error(err))
	}

	logg.Info("server exiting")
}

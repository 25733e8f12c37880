package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcashbox "github.com/erp/treasury/internal/application/cashbox"
	"github.com/erp/treasury/internal/bootstrap"
	"github.com/erp/treasury/internal/domain/shared"
	"github.com/erp/treasury/internal/infrastructure/auth"
	"github.com/erp/treasury/internal/infrastructure/cache"
	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/infrastructure/event"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/infrastructure/persistence"
	"github.com/erp/treasury/internal/infrastructure/storage"
	"github.com/erp/treasury/internal/infrastructure/telemetry"
	"github.com/erp/treasury/internal/interfaces/http/handler"
	"github.com/erp/treasury/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	bootLog, err := logger.New(logConfig(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, telemetryConfig(cfg), bootLog)
	if err != nil {
		bootLog.Fatal("Failed to set up telemetry", zap.Error(err))
	}

	// Tee application logs into the OTLP log pipeline once it exists
	log := bootLog
	if core := providers.LogCore(); core != nil {
		if log, err = logger.New(logConfig(cfg), core); err != nil {
			bootLog.Fatal("Failed to create logger", zap.Error(err))
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting treasury service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	profiler, err := telemetry.StartProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		SpanProfiles:      cfg.Profiling.SpanProfiles,
	}, providers, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(!cfg.App.IsProduction()),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	metrics, err := telemetry.NewTreasuryMetrics(providers.Meter(telemetry.TracerName), log)
	if err != nil {
		log.Fatal("Failed to create treasury metrics", zap.Error(err))
	}

	idemCfg := shared.IdempotencyConfig{
		TTL:        cfg.Treasury.IdempotencyTTL,
		PendingTTL: cfg.Treasury.IdempotencyPendingTTL,
		Enabled:    true,
	}
	idemStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	bus := event.NewInMemoryEventBus(log)
	services := bootstrap.NewServices(bootstrap.Deps{
		DB:                db.DB,
		Events:            bus,
		Idempotency:       idemStore,
		IdempotencyConfig: idemCfg,
		Metrics:           metrics,
		Logger:            log,
	})

	subscribers := bootstrap.Subscribers{
		AlertThreshold: cfg.Treasury.DiscrepancyAlertThreshold,
		Dedup:          idemStore,
		DedupConfig:    idemCfg,
	}
	if cfg.Treasury.ArchiveSessions {
		archive, err := openArchive(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to open session archive", zap.Error(err))
		}
		subscribers.Archive = archive
	}
	services.Subscribe(bus, subscribers)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	system := handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	})
	engine := router.NewEngine(router.EngineOptions{
		App:       cfg.App,
		HTTP:      cfg.HTTP,
		JWT:       cfg.JWT,
		Telemetry: cfg.Telemetry,
		Verifier:  auth.NewJWTService(cfg.JWT),
		Meter:     providers.Meter(telemetry.TracerName),
		Logger:    log,
	}, services.Handlers(system))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Failed to stop event bus", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Warn("Failed to close database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	_ = providers.Shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}

func logConfig(cfg *config.Config) logger.Config {
	lc := logger.ConfigForEnvironment(cfg.App.Env)
	if cfg.Log.Level != "" {
		lc.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		lc.Output = cfg.Log.Output
	}
	return lc
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	logsLevel := zapcore.InfoLevel
	if cfg.Telemetry.LogsLevel != "" {
		logsLevel = logger.ParseLevel(cfg.Telemetry.LogsLevel)
	}
	return telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		LogsLevel:         logsLevel,
	}
}

// openArchive connects to the session archive bucket, creating it when missing
func openArchive(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (appcashbox.ArchiveStore, error) {
	store, err := storage.NewS3ObjectStorage(ctx, cfg, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure archive bucket: %w", err)
	}
	log.Info("Session archive enabled", zap.String("bucket", cfg.Bucket))
	return store, nil
}

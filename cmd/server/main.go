package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/erp/bullion/internal/application/ledger"
	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/infrastructure/cache"
	"github.com/erp/bullion/internal/infrastructure/config"
	"github.com/erp/bullion/internal/infrastructure/logger"
	"github.com/erp/bullion/internal/infrastructure/migration"
	"github.com/erp/bullion/internal/infrastructure/persistence"
	"github.com/erp/bullion/internal/infrastructure/telemetry"
	"github.com/erp/bullion/internal/interfaces/http/handler"
	"github.com/erp/bullion/internal/interfaces/http/middleware"
	"github.com/erp/bullion/internal/interfaces/http/router"
	"github.com/erp/bullion/migrations"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Bullion Ledger API
//	@version		1.0
//	@description	Inventory ledger for serialized bullion units: sales, buybacks, swaps and manufacturer round trips.

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, zapcore.InfoLevel)

	log.Info("Starting bullion ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.HTTP.Port),
		zap.String("timezone", cfg.Ledger.Timezone),
	)

	if cfg.Database.AutoMigrate {
		if err := runMigrations(&cfg.Database, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.ParseGormLevel(cfg.Database.LogLevel), cfg.Database.SlowQueryThreshold)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing
	tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	tracing.SlowQueryThresh = cfg.Database.SlowQueryThreshold
	if err := telemetry.NewDBTracingPlugin(tracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	dbMetricsCfg.SlowQueryThreshold = cfg.Database.SlowQueryThreshold
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsCfg, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Ledger
	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatal("Invalid ledger timezone", zap.Error(err))
	}
	transactions := persistence.NewGormTransactionRepository(db.DB)
	service := ledgerapp.NewLedgerService(
		ledger.NewEngine(loc),
		persistence.NewGormTransactionScope(db.DB),
		persistence.NewGormProductRepository(db.DB),
		transactions,
		transactions,
		persistence.NewGormDirectoryRepository(db.DB),
		log.Named("ledger"),
	)
	service.SetMaxAttempts(cfg.Ledger.MaxAttempts)

	if meterProvider.IsEnabled() {
		ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
			Meter:          meterProvider.Meter("ledger"),
			Logger:         log,
			StatusProvider: telemetry.NewGormProductStatusProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to create ledger metrics", zap.Error(err))
		}
		ledgerMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
		defer ledgerMetrics.Stop()
		service.SetMetrics(ledgerMetrics)
	}

	if cfg.Ledger.IdempotencyEnabled {
		store, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer func() { _ = store.Close() }()
		service.SetIdempotencyStore(store, shared.IdempotencyConfig{
			TTL:     cfg.Ledger.IdempotencyTTL,
			Enabled: true,
		})
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to configure request validation", zap.Error(err))
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		}),
		middleware.SpanAttributes(),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(log),
		middleware.CORSWithConfig(corsCfg),
		middleware.Secure(),
		middleware.BodyLimit(middleware.DefaultMaxBodyBytes),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{MeterProvider: meterProvider, Logger: log}),
	)

	router.SetupLedgerAPI(engine, router.Handlers{
		Transactions: handler.NewTransactionHandler(service),
		Products:     handler.NewProductHandler(service),
		System:       handler.NewSystemHandler(db, telemetry.ServiceVersion),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// runMigrations applies the embedded schema over a dedicated connection;
// the migrator closes it when done
func runMigrations(cfg *config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, log.Named("migrate"))
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration // default: 200ms
	PoolStatsInterval  time.Duration // default: 15s
}

// DefaultDBMetricsConfig returns default configuration for database metrics.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: 200 * time.Millisecond,
		PoolStatsInterval:  15 * time.Second,
	}
}

// DBMetrics holds the database instruments and the pool stats collector.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	queryTotal         *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	config   DBMetricsConfig
	logger   *zap.Logger
	sqlDB    *sql.DB
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopOnce sync.Once
}

// NewDBMetrics creates a new DBMetrics instance with the given meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval == 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	m := &DBMetrics{config: cfg, logger: logger, stopCh: make(chan struct{})}

	var err error
	if m.poolConnections, err = NewGauge(meter,
		"db_pool_connections", "Number of connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter,
		"db_pool_connections_max", "Maximum number of connections in the pool", "{connection}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter,
		"db_query_total", "Total number of database queries by operation type", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter,
		"db_slow_query_total", "Total number of slow database queries by table", "{query}"); err != nil {
		return nil, err
	}
	return m, nil
}

// SetSQLDB sets the pool sampled by StartPoolStatsCollection.
func (m *DBMetrics) SetSQLDB(sqlDB *sql.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sqlDB = sqlDB
}

// StartPoolStatsCollection samples pool statistics until Stop or ctx ends.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()

	if sqlDB == nil {
		m.logger.Warn("Cannot start pool stats collection: sqlDB not set")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()
	if sqlDB == nil {
		return
	}

	stats := sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop stops the pool stats collection goroutine. Safe to call multiple times.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RecordQuery records one executed statement
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}

	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation))

	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// DBMetricsPlugin is a GORM plugin that feeds DBMetrics.
type DBMetricsPlugin struct {
	metrics *DBMetrics
}

// NewDBMetricsPlugin creates a new GORM plugin for database metrics.
func NewDBMetricsPlugin(metrics *DBMetrics) *DBMetricsPlugin {
	return &DBMetricsPlugin{metrics: metrics}
}

// Name returns the plugin name.
func (p *DBMetricsPlugin) Name() string {
	return "db_metrics"
}

// Initialize registers the GORM callbacks for metrics collection.
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	return registerAround(db, "db_metrics", markMetricsStart, p.record)
}

type dbMetricsContextKey string

const dbMetricsStartTimeKey dbMetricsContextKey = "db_metrics_start_time"

func markMetricsStart(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, dbMetricsStartTimeKey, time.Now())
}

func (p *DBMetricsPlugin) record(db *gorm.DB, verb string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	var duration time.Duration
	if start, ok := ctx.Value(dbMetricsStartTimeKey).(time.Time); ok {
		duration = time.Since(start)
	}
	p.metrics.RecordQuery(ctx, verb, db.Statement.Table, duration)
}

// RegisterDBMetrics installs query metrics on db and returns the DBMetrics
// for lifecycle management. It returns nil when metrics are off.
func RegisterDBMetrics(db *gorm.DB, meterProvider *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled || meterProvider == nil || !meterProvider.IsEnabled() {
		logger.Debug("Database metrics disabled, skipping registration")
		return nil, nil
	}

	metrics, err := NewDBMetrics(meterProvider.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	metrics.SetSQLDB(sqlDB)

	if err := db.Use(NewDBMetricsPlugin(metrics)); err != nil {
		return nil, err
	}

	logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", cfg.PoolStatsInterval),
	)
	return metrics, nil
}

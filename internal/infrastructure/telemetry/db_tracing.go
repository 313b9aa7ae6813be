package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans (dev only)
	SlowQueryThresh time.Duration // default: 200ms
	DBSystem        string        // default: "postgresql"
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin wraps the otelgorm plugin with slow query marking.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm registers otelgorm on db together with callbacks that
// annotate each query span with its table, row count and slowness.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	// Registered first so the annotations run before otelgorm ends the span.
	if err := registerAround(db, "otel_timing", markQueryStart, p.annotateSpan); err != nil {
		return err
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

// annotateSpan runs after each statement. ErrRecordNotFound is a normal
// lookup miss and does not fail the span.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB, _ string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}

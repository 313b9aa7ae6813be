package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics records ledger writes and the shape of the inventory.
// It satisfies the application layer's OperationMetrics.
type LedgerMetrics struct {
	logger *zap.Logger

	operationsTotal   *Counter
	operationDuration *Histogram
	operationAttempts *Histogram
	retriesTotal      *Counter
	productsByStatus  *Gauge

	provider ProductStatusProvider

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
	wg          sync.WaitGroup
}

// ProductStatusCount is the number of products of one type in one status
type ProductStatusCount struct {
	Status      string
	ProductType string
	Count       int64
}

// ProductStatusProvider reports product counts for periodic collection
type ProductStatusProvider interface {
	CountProductsByStatus(ctx context.Context) ([]ProductStatusCount, error)
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter          metric.Meter
	Logger         *zap.Logger
	StatusProvider ProductStatusProvider
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewLedgerMetrics creates the ledger instruments on cfg.Meter
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{
		logger:   logger,
		provider: cfg.StatusProvider,
		stopChan: make(chan struct{}),
	}

	var err error
	lm.operationsTotal, err = NewCounter(cfg.Meter,
		"ledger_operations_total",
		"Ledger writes by operation and outcome",
		"{operations}",
	)
	if err != nil {
		return nil, err
	}

	lm.operationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "ledger_operation_duration_seconds",
		Description: "Time from first attempt to final outcome of a ledger write",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	lm.operationAttempts, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "ledger_operation_attempts",
		Description: "Units of work opened per ledger write",
		Unit:        "{attempts}",
		Boundaries:  []float64{1, 2, 3, 5, 8},
	})
	if err != nil {
		return nil, err
	}

	lm.retriesTotal, err = NewCounter(cfg.Meter,
		"ledger_retries_total",
		"Ledger writes retried after a code collision or lost row lock",
		"{retries}",
	)
	if err != nil {
		return nil, err
	}

	lm.productsByStatus, err = NewGauge(cfg.Meter,
		"ledger_products",
		"Current number of products by status and type",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordOperation records the final outcome of one ledger write. Replays
// report zero attempts and are not timed.
func (lm *LedgerMetrics) RecordOperation(ctx context.Context, operation, outcome string, attempts int, elapsed time.Duration) {
	attrs := []attribute.KeyValue{AttrOperation.String(operation), AttrOutcome.String(outcome)}
	lm.operationsTotal.Inc(ctx, attrs...)
	if attempts == 0 {
		return
	}
	lm.operationDuration.RecordDuration(ctx, elapsed, attrs...)
	lm.operationAttempts.Record(ctx, float64(attempts), AttrOperation.String(operation))
}

// RecordRetry records one retried unit of work
func (lm *LedgerMetrics) RecordRetry(ctx context.Context, operation string) {
	lm.retriesTotal.Inc(ctx, AttrOperation.String(operation))
}

// StartPeriodicCollection samples product counts every interval until Stop
// or ctx ends. Only the first call starts a collector.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		lm.wg.Add(1)
		go lm.runPeriodicCollection(ctx, interval)
	})
}

func (lm *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	defer lm.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lm.CollectProductMetrics(ctx)
	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic ledger metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			lm.CollectProductMetrics(ctx)
		}
	}
}

// CollectProductMetrics records one sample of the product gauge
func (lm *LedgerMetrics) CollectProductMetrics(ctx context.Context) {
	if lm.provider == nil {
		lm.logger.Debug("No product status provider configured, skipping collection")
		return
	}
	counts, err := lm.provider.CountProductsByStatus(ctx)
	if err != nil {
		lm.logger.Warn("Failed to count products by status", zap.Error(err))
		return
	}
	for _, c := range counts {
		lm.productsByStatus.Record(ctx, c.Count,
			AttrStatus.String(c.Status),
			AttrProductType.String(c.ProductType),
		)
	}
}

// Stop stops the periodic collection. Safe to call multiple times.
func (lm *LedgerMetrics) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
		lm.wg.Wait()
	})
}

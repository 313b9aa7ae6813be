package ledger

import (
	"context"
	"time"

	"github.com/erp/bullion/internal/domain/shared"
)

// Operation outcomes reported to OperationMetrics
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeConflict  = "conflict"
	OutcomeReplayed  = "replayed"
	OutcomeError     = "error"
)

// OperationMetrics receives one record per ledger write
type OperationMetrics interface {
	RecordOperation(ctx context.Context, operation, outcome string, attempts int, elapsed time.Duration)
	RecordRetry(ctx context.Context, operation string)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(context.Context, string, string, int, time.Duration) {}
func (noopMetrics) RecordRetry(context.Context, string)                                {}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeCommitted
	case shared.IsRetryable(err):
		return OutcomeConflict
	case shared.IsInvalidRequest(err):
		return OutcomeRejected
	}
	return OutcomeError
}

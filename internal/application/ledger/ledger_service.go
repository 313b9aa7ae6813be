package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/infrastructure/logger"
	"github.com/erp/bullion/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultMaxAttempts is how many units of work a write may open before a
// persistent code collision is reported as CONFLICT
const DefaultMaxAttempts = 5

// LedgerService runs engine operations in their own unit of work, retries
// collisions and maps results to DTOs
type LedgerService struct {
	engine       *ledger.Engine
	scope        TransactionScope
	products     ledger.ProductRepository
	transactions ledger.TransactionRepository
	reports      ledger.ReportRepository
	directory    ledger.Directory
	logger       *zap.Logger
	metrics      OperationMetrics
	idempotency  shared.IdempotencyStore
	idemConfig   shared.IdempotencyConfig
	maxAttempts  int
}

// NewLedgerService creates a new LedgerService. products, transactions,
// reports and directory serve reads outside of any unit of work.
func NewLedgerService(
	engine *ledger.Engine,
	scope TransactionScope,
	products ledger.ProductRepository,
	transactions ledger.TransactionRepository,
	reports ledger.ReportRepository,
	directory ledger.Directory,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		engine:       engine,
		scope:        scope,
		products:     products,
		transactions: transactions,
		reports:      reports,
		directory:    directory,
		logger:       logger,
		metrics:      noopMetrics{},
		maxAttempts:  DefaultMaxAttempts,
	}
}

// SetMaxAttempts sets how many units of work a write may open
func (s *LedgerService) SetMaxAttempts(n int) {
	if n < 1 {
		n = 1
	}
	s.maxAttempts = n
}

// SetMetrics sets the operation metrics recorder
func (s *LedgerService) SetMetrics(m OperationMetrics) {
	if m == nil {
		m = noopMetrics{}
	}
	s.metrics = m
}

// SetIdempotencyStore enables replay of writes carrying an idempotency key
func (s *LedgerService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idemConfig = cfg
}

// CreateOrder records a sale
func (s *LedgerService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*TransactionResponse, error) {
	cmd, err := req.toCommand()
	if err != nil {
		return nil, err
	}
	return s.writeTransaction(ctx, ledger.TransactionTypeSale, func(uow ledger.UnitOfWork) (*ledger.Transaction, error) {
		return s.engine.CreateOrder(ctx, uow, cmd)
	})
}

// CreateManufacturerOrder orders pending and new units from the manufacturer
func (s *LedgerService) CreateManufacturerOrder(ctx context.Context, req CreateManufacturerOrderRequest) (*TransactionResponse, error) {
	cmd, err := req.toCommand()
	if err != nil {
		return nil, err
	}
	return s.writeTransaction(ctx, ledger.TransactionTypeManufacturerOrder, func(uow ledger.UnitOfWork) (*ledger.Transaction, error) {
		return s.engine.CreateManufacturerOrder(ctx, uow, cmd)
	})
}

// CreateBuyback takes sold units back from the customer
func (s *LedgerService) CreateBuyback(ctx context.Context, req CreateBuybackRequest) (*TransactionResponse, error) {
	cmd, err := req.toCommand()
	if err != nil {
		return nil, err
	}
	return s.writeTransaction(ctx, ledger.TransactionTypeBuyback, func(uow ledger.UnitOfWork) (*ledger.Transaction, error) {
		return s.engine.CreateBuyback(ctx, uow, cmd)
	})
}

// CreateFulfillment records the handover of sold units
func (s *LedgerService) CreateFulfillment(ctx context.Context, req CreateFulfillmentRequest) (*TransactionResponse, error) {
	cmd := ledger.FulfillmentCommand{DerivedHeader: req.header(), ProductIDs: req.ProductIDs}
	return s.writeTransaction(ctx, ledger.TransactionTypeFulfillment, func(uow ledger.UnitOfWork) (*ledger.Transaction, error) {
		return s.engine.CreateFulfillment(ctx, uow, cmd)
	})
}

// CreateSellBack returns ordered units to the manufacturer
func (s *LedgerService) CreateSellBack(ctx context.Context, req CreateSellBackRequest) (*TransactionResponse, error) {
	cmd, err := req.toCommand()
	if err != nil {
		return nil, err
	}
	return s.writeTransaction(ctx, ledger.TransactionTypeSellBack, func(uow ledger.UnitOfWork) (*ledger.Transaction, error) {
		return s.engine.CreateSellBack(ctx, uow, cmd)
	})
}

// CreateManufacturerReceive confirms a delivery from the manufacturer
func (s *LedgerService) CreateManufacturerReceive(ctx context.Context, req CreateManufacturerReceiveRequest) (*TransactionResponse, error) {
	cmd := req.toCommand()
	return s.writeTransaction(ctx, ledger.TransactionTypeManufacturerReceived, func(uow ledger.UnitOfWork) (*ledger.Transaction, error) {
		return s.engine.CreateManufacturerReceive(ctx, uow, cmd)
	})
}

// CreateSwap exchanges two groups of units
func (s *LedgerService) CreateSwap(ctx context.Context, req CreateSwapRequest) (*TransactionResponse, error) {
	cmd := ledger.SwapCommand{
		StaffID:   req.StaffID,
		StoreID:   req.StoreID,
		CreatedAt: req.CreatedAt,
		Group1:    req.Group1,
		Group2:    req.Group2,
	}
	return s.writeTransaction(ctx, ledger.TransactionTypeSwap, func(uow ledger.UnitOfWork) (*ledger.Transaction, error) {
		return s.engine.CreateSwap(ctx, uow, cmd)
	})
}

// UpdateOrder edits the header of a sale
func (s *LedgerService) UpdateOrder(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*TransactionResponse, error) {
	cmd, err := req.toCommand(id)
	if err != nil {
		return nil, err
	}
	var updated *ledger.Transaction
	err = s.run(ctx, "update_order", func(uow ledger.UnitOfWork) error {
		tx, err := s.engine.UpdateOrder(ctx, uow, cmd)
		updated = tx
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToTransactionResponse(updated)
	return &resp, nil
}

// UpdateManufacturerOrder edits the header of a manufacturer order
func (s *LedgerService) UpdateManufacturerOrder(ctx context.Context, id uuid.UUID, req UpdateManufacturerOrderRequest) (*TransactionResponse, error) {
	cmd := ledger.UpdateManufacturerOrderCommand{
		TransactionID:    id,
		StoreID:          req.StoreID,
		ManufacturerCode: req.ManufacturerCode,
		CreatedAt:        req.CreatedAt,
	}
	var updated *ledger.Transaction
	err := s.run(ctx, "update_manufacturer_order", func(uow ledger.UnitOfWork) error {
		tx, err := s.engine.UpdateManufacturerOrder(ctx, uow, cmd)
		updated = tx
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToTransactionResponse(updated)
	return &resp, nil
}

// CreateProducts registers shelf units without a ledger entry
func (s *LedgerService) CreateProducts(ctx context.Context, req CreateProductsRequest) ([]ProductResponse, error) {
	typ, err := ledger.ParseProductType(req.Type)
	if err != nil {
		return nil, err
	}
	cmd := ledger.StockIntakeCommand{
		StoreID:   req.StoreID,
		Type:      typ,
		Quantity:  req.Quantity,
		Price:     req.Price,
		CreatedAt: req.CreatedAt,
	}
	var created []*ledger.Product
	err = s.run(ctx, "create_products", func(uow ledger.UnitOfWork) error {
		products, err := s.engine.CreateStock(ctx, uow, cmd)
		created = products
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, len(created))
	for i, p := range created {
		out[i] = ToProductResponse(p)
	}
	return out, nil
}

// MoveProduct reassigns an available product to another store
func (s *LedgerService) MoveProduct(ctx context.Context, id uuid.UUID, req MoveProductRequest) (*ProductResponse, error) {
	var moved *ledger.Product
	err := s.run(ctx, "move_product", func(uow ledger.UnitOfWork) error {
		p, err := s.engine.MoveProduct(ctx, uow, id, req.StoreID)
		moved = p
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(moved)
	return &resp, nil
}

// DeleteProduct removes a product no transaction references
func (s *LedgerService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.run(ctx, "delete_product", func(uow ledger.UnitOfWork) error {
		return s.engine.DeleteProduct(ctx, uow, id)
	})
}

// writeTransaction runs an operation that creates a ledger entry, replaying
// the stored result when the request repeats an idempotency key
func (s *LedgerService) writeTransaction(ctx context.Context, typ ledger.TransactionType, fn func(uow ledger.UnitOfWork) (*ledger.Transaction, error)) (*TransactionResponse, error) {
	key := s.idempotencyKey(ctx, typ)
	if key != "" {
		reserved, err := s.idempotency.Reserve(ctx, key, s.idemConfig.TTL)
		if err != nil {
			return nil, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			return s.replay(ctx, typ, key)
		}
	}

	var created *ledger.Transaction
	err := s.run(ctx, typ.String(), func(uow ledger.UnitOfWork) error {
		tx, err := fn(uow)
		created = tx
		return err
	}, func() []zap.Field {
		return []zap.Field{
			zap.String("type", created.Type.String()),
			zap.String("transaction_code", created.Code),
			zap.Int("items", len(created.Items)),
		}
	})
	if err != nil {
		if key != "" {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.log(ctx).Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		return nil, err
	}

	if key != "" {
		if err := s.idempotency.Complete(ctx, key, created.ID.String(), s.idemConfig.TTL); err != nil {
			s.log(ctx).Warn("failed to store idempotent result", zap.String("key", key), zap.Error(err))
		}
	}
	resp := ToTransactionResponse(created)
	return &resp, nil
}

func (s *LedgerService) replay(ctx context.Context, typ ledger.TransactionType, key string) (*TransactionResponse, error) {
	result, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if result == "" {
		return nil, shared.NewDomainError(shared.CodeConflict,
			fmt.Sprintf("a %s request with the same idempotency key is still in progress", typ))
	}
	id, err := uuid.Parse(result)
	if err != nil {
		return nil, fmt.Errorf("stored idempotent result %q: %w", result, err)
	}
	resp, err := s.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	resp.Replayed = true
	s.metrics.RecordOperation(ctx, typ.String(), OutcomeReplayed, 0, 0)
	s.log(ctx).Info("replayed idempotent ledger request",
		zap.String("type", typ.String()),
		zap.String("transaction_code", resp.Code))
	return resp, nil
}

// run executes fn in a fresh unit of work until it commits, fails for a
// reason other than a collision, or runs out of attempts
func (s *LedgerService) run(ctx context.Context, operation string, fn func(uow ledger.UnitOfWork) error, details ...func() []zap.Field) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", operation)
	defer span.End()

	start := time.Now()
	attempts, err := s.execute(ctx, operation, fn)
	outcome := outcomeOf(err)
	s.metrics.RecordOperation(ctx, operation, outcome, attempts, time.Since(start))

	span.SetAttributes(
		attribute.Int("ledger.attempts", attempts),
		attribute.String("ledger.outcome", outcome),
	)
	if outcome == OutcomeCommitted {
		telemetry.SetOK(span)
	} else {
		telemetry.RecordError(span, err)
	}

	log := s.log(ctx)
	switch {
	case err == nil:
		fields := []zap.Field{
			zap.String("operation", operation),
			zap.Int("attempts", attempts),
			zap.Duration("elapsed", time.Since(start)),
		}
		for _, d := range details {
			fields = append(fields, d()...)
		}
		log.Info("ledger operation committed", fields...)
	case shared.IsInvalidRequest(err):
		log.Info("ledger operation rejected",
			zap.String("operation", operation),
			zap.Error(err))
	default:
		log.Error("ledger operation failed",
			zap.String("operation", operation),
			zap.Int("attempts", attempts),
			zap.Error(err))
	}
	return err
}

func (s *LedgerService) execute(ctx context.Context, operation string, fn func(uow ledger.UnitOfWork) error) (int, error) {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.scope.Execute(ctx, fn)
		if err == nil || !shared.IsRetryable(err) {
			return attempt, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt, ctxErr
		}
		if attempt == s.maxAttempts {
			break
		}
		s.metrics.RecordRetry(ctx, operation)
		s.log(ctx).Warn("ledger write collided, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return s.maxAttempts, shared.NewDomainError(shared.CodeConflict,
		fmt.Sprintf("%s did not commit after %d attempts: %s", operation, s.maxAttempts, err.Error()))
}

func (s *LedgerService) log(ctx context.Context) *zap.Logger {
	return logger.ForContext(ctx, s.logger)
}

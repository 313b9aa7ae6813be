package ledger

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/infrastructure/persistence"
	"github.com/erp/bullion/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var businessDay = testutil.Day(2025, time.March, 1)

type ledgerFixture struct {
	db           *gorm.DB
	reg          testutil.Registry
	engine       *ledger.Engine
	scope        *persistence.GormTransactionScope
	products     *persistence.GormProductRepository
	transactions *persistence.GormTransactionRepository
	svc          *LedgerService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t, nil)
	reg := testutil.SeedRegistry(t, db)

	engine := ledger.NewEngine(time.UTC)
	engine.SetClock(func() time.Time { return businessDay })

	f := &ledgerFixture{
		db:           db,
		reg:          reg,
		engine:       engine,
		scope:        persistence.NewGormTransactionScope(db),
		products:     persistence.NewGormProductRepository(db),
		transactions: persistence.NewGormTransactionRepository(db),
	}
	f.svc = f.service(f.scope)
	return f
}

// service builds a LedgerService over the fixture database with a custom scope
func (f *ledgerFixture) service(scope TransactionScope) *LedgerService {
	return NewLedgerService(
		f.engine,
		scope,
		f.products,
		f.transactions,
		f.transactions,
		persistence.NewGormDirectoryRepository(f.db),
		zap.NewNop(),
	)
}

func (f *ledgerFixture) sellNew(t *testing.T, customer uuid.UUID, qty int, price int64) *TransactionResponse {
	t.Helper()
	resp, err := f.svc.CreateOrder(context.Background(), CreateOrderRequest{
		StoreID:    f.reg.StoreA,
		StaffID:    f.reg.Staff,
		CustomerID: customer,
		Lines: []OrderLineRequest{
			{Type: "LUONG_1", Quantity: qty, Price: decimal.NewFromInt(price), IsNew: true},
		},
	})
	require.NoError(t, err)
	return resp
}

func (f *ledgerFixture) stock(t *testing.T, store uuid.UUID, typ string, qty int, price int64) []ProductResponse {
	t.Helper()
	resp, err := f.svc.CreateProducts(context.Background(), CreateProductsRequest{
		StoreID:  store,
		Type:     typ,
		Quantity: qty,
		Price:    decimal.NewFromInt(price),
	})
	require.NoError(t, err)
	return resp
}

func (f *ledgerFixture) product(t *testing.T, id uuid.UUID) *ledger.Product {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *ledgerFixture) transaction(t *testing.T, id uuid.UUID) *ledger.Transaction {
	t.Helper()
	tx, err := f.transactions.FindByID(context.Background(), id)
	require.NoError(t, err)
	return tx
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// staleSequencer hands out one already used code before deferring to the
// real sequencer, forcing a unique violation on the first attempt
type staleSequencer struct {
	mu    sync.Mutex
	stale string
	used  bool
}

func (s *staleSequencer) wrap(inner ledger.Sequencer) ledger.Sequencer {
	return sequencerFunc(func(ctx context.Context, prefix string) (string, error) {
		s.mu.Lock()
		if !s.used && strings.HasPrefix(s.stale, prefix) {
			s.used = true
			s.mu.Unlock()
			return s.stale, nil
		}
		s.mu.Unlock()
		return inner.Next(ctx, prefix)
	})
}

type sequencerFunc func(ctx context.Context, prefix string) (string, error)

func (f sequencerFunc) Next(ctx context.Context, prefix string) (string, error) {
	return f(ctx, prefix)
}

type sequencerOverride struct {
	ledger.UnitOfWork
	seq ledger.Sequencer
}

func (u sequencerOverride) Sequencer() ledger.Sequencer {
	return u.seq
}

type staleScope struct {
	inner TransactionScope
	seq   *staleSequencer
	calls int
}

func (s *staleScope) Execute(ctx context.Context, fn func(uow ledger.UnitOfWork) error) error {
	s.calls++
	return s.inner.Execute(ctx, func(uow ledger.UnitOfWork) error {
		return fn(sequencerOverride{UnitOfWork: uow, seq: s.seq.wrap(uow.Sequencer())})
	})
}

// MockOperationMetrics is a mock implementation of OperationMetrics
type MockOperationMetrics struct {
	mock.Mock
}

func (m *MockOperationMetrics) RecordOperation(ctx context.Context, operation, outcome string, attempts int, elapsed time.Duration) {
	m.Called(ctx, operation, outcome, attempts, elapsed)
}

func (m *MockOperationMetrics) RecordRetry(ctx context.Context, operation string) {
	m.Called(ctx, operation)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	args := m.Called(ctx, key, result, ttl)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Lookup(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

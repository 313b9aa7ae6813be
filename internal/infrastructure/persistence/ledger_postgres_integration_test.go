//go:build integration

package persistence

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPostgresLedgerDB(t *testing.T) (*gorm.DB, testutil.Registry) {
	t.Helper()
	db := testutil.NewPostgresDB(t, GormConfig(logger.Discard))
	return db, testutil.SeedRegistry(t, db)
}

func TestPostgres_CodeSequencerUnderContention(t *testing.T) {
	db, _ := newPostgresLedgerDB(t)
	ctx := context.Background()

	const writers = 8
	var (
		mu     sync.Mutex
		issued []string
		wg     sync.WaitGroup
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				code, err := NewGormCodeSequencer(tx).Next(ctx, "GD-20261016-")
				if err != nil {
					return err
				}
				mu.Lock()
				issued = append(issued, code)
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sort.Strings(issued)
	require.Len(t, issued, writers)
	for i, code := range issued {
		assert.Equal(t, ledger.FormatCode("GD-20261016-", int64(i+1)), code)
	}
}

func TestPostgres_OneTerminalDispositionPerSale(t *testing.T) {
	db, reg := newPostgresLedgerDB(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()
	at := testutil.Day(2026, 10, 16)

	sale := storeTransaction(t, db, ledger.TransactionTypeSale, "GD-20261016-00001", reg, at, nil)

	first, err := ledger.NewTransaction(ledger.TransactionTypeFulfillment, "GD-20261016-00002", reg.Staff, reg.StoreA, at)
	require.NoError(t, err)
	require.NoError(t, first.LinkTo(sale))
	require.NoError(t, repo.Create(ctx, first))

	second, err := ledger.NewTransaction(ledger.TransactionTypeBuyback, "GD-20261016-00003", reg.Staff, reg.StoreA, at)
	require.NoError(t, err)
	require.NoError(t, second.LinkTo(sale))
	err = repo.Create(ctx, second)
	assert.True(t, shared.IsRetryable(err), "got %v", err)

	swap, err := ledger.NewTransaction(ledger.TransactionTypeSwap, "GD-20261016-00004", reg.Staff, reg.StoreA, at)
	require.NoError(t, err)
	require.NoError(t, swap.LinkTo(sale))
	assert.NoError(t, repo.Create(ctx, swap), "swaps may link to a closed sale")
}

func TestPostgres_AvailableUnitsSkipLockedRows(t *testing.T) {
	db, reg := newPostgresLedgerDB(t)
	ctx := context.Background()

	oldest := storeProduct(t, db, "L1-20261016-00001", ledger.StatusAvailable, reg.StoreA, 100)
	next := storeProduct(t, db, "L1-20261016-00002", ledger.StatusAvailable, reg.StoreA, 100)

	holder := db.Begin()
	require.NoError(t, holder.Error)
	defer holder.Rollback()

	held, err := NewGormProductRepository(holder).FindAvailableForUpdate(ctx, reg.StoreA, ledger.ProductTypeLuong1)
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, held.ID)

	err = db.Transaction(func(tx *gorm.DB) error {
		other, err := NewGormProductRepository(tx).FindAvailableForUpdate(ctx, reg.StoreA, ledger.ProductTypeLuong1)
		if err != nil {
			return err
		}
		assert.Equal(t, next.ID, other.ID, "a concurrent sale takes the next free unit")
		return nil
	})
	require.NoError(t, err)
}

func TestPostgres_ProductVersionGuard(t *testing.T) {
	db, reg := newPostgresLedgerDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p := storeProduct(t, db, "L1-20261016-00001", ledger.StatusAvailable, reg.StoreA, 100)

	stale, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	fresh, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, fresh.MoveTo(reg.StoreB))
	require.NoError(t, repo.Update(ctx, fresh))

	require.NoError(t, stale.MoveTo(reg.StoreB))
	err = repo.Update(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestPostgres_BuybackAndSwapOnOneUnit(t *testing.T) {
	db, reg := newPostgresLedgerDB(t)
	ctx := context.Background()
	at := time.Now().UTC()

	sold := storeProduct(t, db, "L1-20261016-00001", ledger.StatusSold, reg.StoreA, 100)
	shelf := storeProduct(t, db, "L1-20261016-00002", ledger.StatusAvailable, reg.StoreA, 100)
	sale := storeTransaction(t, db, ledger.TransactionTypeSale, "GD-20000101-00001", reg, at, map[uuid.UUID]int64{sold.ID: 100})

	engine := ledger.NewEngine(time.UTC)
	scope := NewGormTransactionScope(db)
	run := func(op func(uow ledger.UnitOfWork) error) error {
		var err error
		for attempt := 0; attempt < 5; attempt++ {
			if err = scope.Execute(ctx, op); !shared.IsRetryable(err) {
				return err
			}
		}
		return err
	}

	ops := []func(uow ledger.UnitOfWork) error{
		func(uow ledger.UnitOfWork) error {
			_, err := engine.CreateBuyback(ctx, uow, ledger.BuybackCommand{
				DerivedHeader: ledger.DerivedHeader{OriginID: sale.ID, StaffID: reg.Staff},
				Lines:         []ledger.PricedProduct{{ProductID: sold.ID, Price: decimal.NewFromInt(90)}},
			})
			return err
		},
		func(uow ledger.UnitOfWork) error {
			_, err := engine.CreateSwap(ctx, uow, ledger.SwapCommand{
				StaffID: reg.Staff,
				Group1:  []uuid.UUID{sold.ID},
				Group2:  []uuid.UUID{shelf.ID},
			})
			return err
		},
	}

	errs := make([]error, len(ops))
	var wg sync.WaitGroup
	for i, op := range ops {
		wg.Add(1)
		go func(i int, op func(uow ledger.UnitOfWork) error) {
			defer wg.Done()
			errs[i] = run(op)
		}(i, op)
	}
	wg.Wait()

	var committed, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case shared.IsInvalidRequest(err):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, committed, "errors: %v", errs)
	assert.Equal(t, 1, rejected, "errors: %v", errs)

	unit, err := NewGormProductRepository(db).FindByID(ctx, sold.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusAvailable, unit.Status)
}

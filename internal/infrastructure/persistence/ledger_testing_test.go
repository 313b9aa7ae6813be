package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newLedgerDB(t *testing.T) (*gorm.DB, testutil.Registry) {
	t.Helper()
	db := testutil.NewSQLiteDB(t, GormConfig(logger.Discard))
	return db, testutil.SeedRegistry(t, db)
}

func storeProduct(t *testing.T, db *gorm.DB, code string, status ledger.ProductStatus, storeID uuid.UUID, price int64) *ledger.Product {
	t.Helper()
	p, err := ledger.NewProduct(code, ledger.ProductTypeLuong1, status, decimal.NewFromInt(price), storeID, false)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Create(context.Background(), p))
	return p
}

func storeTransaction(t *testing.T, db *gorm.DB, typ ledger.TransactionType, code string, reg testutil.Registry, at time.Time, items map[uuid.UUID]int64) *ledger.Transaction {
	t.Helper()
	tx, err := ledger.NewTransaction(typ, code, reg.Staff, reg.StoreA, at)
	require.NoError(t, err)
	for id, price := range items {
		tx.AddItem(id, decimal.NewFromInt(price))
	}
	require.NoError(t, NewGormTransactionRepository(db).Create(context.Background(), tx))
	return tx
}

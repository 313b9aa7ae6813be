package persistence

import (
	"context"

	"github.com/erp/bullion/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormTransactionScope runs ledger work inside one GORM transaction.
// If the function returns an error, the transaction is rolled back;
// otherwise it is committed.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn with repositories bound to a fresh transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(uow ledger.UnitOfWork) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormUnitOfWork{tx: tx})
	})
	return translateScopeError(err)
}

// gormUnitOfWork hands out repositories scoped to the current transaction
type gormUnitOfWork struct {
	tx *gorm.DB
}

func (u *gormUnitOfWork) Products() ledger.ProductRepository {
	return NewGormProductRepository(u.tx)
}

func (u *gormUnitOfWork) Transactions() ledger.TransactionRepository {
	return NewGormTransactionRepository(u.tx)
}

func (u *gormUnitOfWork) Sequencer() ledger.Sequencer {
	return NewGormCodeSequencer(u.tx)
}

func (u *gormUnitOfWork) Directory() ledger.Directory {
	return NewGormDirectoryRepository(u.tx)
}

// Ensure gormUnitOfWork implements UnitOfWork
var _ ledger.UnitOfWork = (*gormUnitOfWork)(nil)

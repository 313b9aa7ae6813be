package ledger

import (
	"context"

	"github.com/erp/bullion/internal/domain/ledger"
)

// TransactionScope runs engine operations inside one atomic unit of work.
// If fn returns an error the unit of work is rolled back, otherwise it is
// committed. Every call opens a fresh unit of work, which is what makes a
// retry after a code collision safe.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(uow ledger.UnitOfWork) error) error
}

// NoOpTransactionScope hands the same repositories to every call without a
// real transaction. Useful for tests with mocked repositories.
type NoOpTransactionScope struct {
	products     ledger.ProductRepository
	transactions ledger.TransactionRepository
	sequencer    ledger.Sequencer
	directory    ledger.Directory
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	products ledger.ProductRepository,
	transactions ledger.TransactionRepository,
	sequencer ledger.Sequencer,
	directory ledger.Directory,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		products:     products,
		transactions: transactions,
		sequencer:    sequencer,
		directory:    directory,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(uow ledger.UnitOfWork) error) error {
	return fn(s)
}

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() ledger.ProductRepository {
	return s.products
}

// Transactions returns the transaction repository.
func (s *NoOpTransactionScope) Transactions() ledger.TransactionRepository {
	return s.transactions
}

// Sequencer returns the code sequencer.
func (s *NoOpTransactionScope) Sequencer() ledger.Sequencer {
	return s.sequencer
}

// Directory returns the registry reader.
func (s *NoOpTransactionScope) Directory() ledger.Directory {
	return s.directory
}

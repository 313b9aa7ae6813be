package ledger

import (
	"context"
	"time"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	StoreID *uuid.UUID
	Type    *ProductType
}

// ProductRepository persists products
type ProductRepository interface {
	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDForUpdate finds a product by ID and locks its row for the
	// rest of the unit of work
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds several products; missing ids are simply absent
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAvailableForUpdate locks some available product of typ in store,
	// skipping rows other writers hold. Returns NOT_FOUND if none is free.
	FindAvailableForUpdate(ctx context.Context, storeID uuid.UUID, typ ProductType) (*Product, error)

	// Update saves engine-issued changes with an optimistic version check
	Update(ctx context.Context, product *Product) error

	// Delete removes a product that no transaction item references
	Delete(ctx context.Context, id uuid.UUID) error

	// IsReferenced reports whether any transaction item points at the product
	IsReferenced(ctx context.Context, id uuid.UUID) (bool, error)

	// ListAvailable lists available products, optionally by store and type
	ListAvailable(ctx context.Context, filter ProductFilter) ([]Product, error)

	// ListPendingManufacturerOrder lists sold products without a manufacturer order
	ListPendingManufacturerOrder(ctx context.Context) ([]Product, error)

	// ListByStore lists every product owned by a store
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]Product, error)
}

// TransactionFilter narrows ledger listings
type TransactionFilter struct {
	shared.Filter
	shared.DateRange
	Type       *TransactionType
	CustomerID *uuid.UUID
}

// TransactionRepository persists ledger entries and their items
type TransactionRepository interface {
	// Create inserts a transaction together with its items
	Create(ctx context.Context, tx *Transaction) error

	// FindByID finds a transaction with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByIDForUpdate finds a transaction with its items and locks the
	// header row, serializing derived operations on the same origin
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// UpdateHeader saves header fields; items are untouched
	UpdateHeader(ctx context.Context, tx *Transaction) error

	// AddItem inserts one item on an existing transaction
	AddItem(ctx context.Context, item *TransactionItem) error

	// UpdateItem saves a rewritten item
	UpdateItem(ctx context.Context, item *TransactionItem) error

	// DeleteItem removes an item
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// LatestSaleItem finds the item of the most recent Sale that references
	// the product. Returns NOT_FOUND if the product was never sold.
	LatestSaleItem(ctx context.Context, productID uuid.UUID) (*TransactionItem, error)

	// GetLinkedStatuses returns, per origin id, the derived type linking to
	// it. Origins without a derived entry are absent from the map.
	GetLinkedStatuses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]TransactionType, error)

	// FindMany lists transactions newest first and returns the total count
	FindMany(ctx context.Context, filter TransactionFilter) ([]Transaction, int64, error)

	// FindByCustomer lists a customer's transactions newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID, typ *TransactionType) ([]Transaction, error)
}

// Sequencer issues unique, human readable codes
type Sequencer interface {
	// Next returns prefix followed by the next zero-padded sequence number
	Next(ctx context.Context, prefix string) (string, error)
}

// Directory validates references to the store, staff and customer registries
type Directory interface {
	StoreExists(ctx context.Context, id uuid.UUID) (bool, error)
	StaffExists(ctx context.Context, id uuid.UUID) (bool, error)
	CustomerExists(ctx context.Context, id uuid.UUID) (bool, error)
	CustomerNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// UnitOfWork gives the engine repositories bound to one atomic database
// transaction. The caller of the engine commits or rolls it back.
type UnitOfWork interface {
	Products() ProductRepository
	Transactions() TransactionRepository
	Sequencer() Sequencer
	Directory() Directory
}

// HistoryKind classifies a product history entry
type HistoryKind string

const (
	HistorySale       HistoryKind = "SALE"
	HistoryBuyback    HistoryKind = "BUYBACK"
	HistorySwap       HistoryKind = "SWAP"
	HistorySwapReturn HistoryKind = "SWAP_RETURN"
)

// HistoryEntry is one transaction touching a product, as seen by the status
// projection. For SWAP_RETURN it is the Swap linked to the Sale whose item
// originally held the product.
type HistoryEntry struct {
	ProductID       uuid.UUID
	Kind            HistoryKind
	TransactionID   uuid.UUID
	TransactionCode string
	CreatedAt       time.Time
	CustomerID      *uuid.UUID
	CustomerName    string
}

// Stats aggregates sales over a period
type Stats struct {
	TotalOrders     int64
	TotalRevenue    decimal.Decimal
	RevenueByMethod map[PaymentMethod]decimal.Decimal
	RevenueByStore  map[uuid.UUID]decimal.Decimal
}

// FinancialStats aggregates money movements over a period
type FinancialStats struct {
	MoneyIn     decimal.Decimal
	MoneyInCash decimal.Decimal
	MoneyInBank decimal.Decimal
	MoneyOut    decimal.Decimal
	Net         decimal.Decimal
}

// ReportRepository serves read-only projections over the ledger
type ReportRepository interface {
	// ProductHistory returns the sale, buyback, swap and swap-return entries
	// of the given products
	ProductHistory(ctx context.Context, productIDs []uuid.UUID) ([]HistoryEntry, error)

	// GetProductCustomerNames returns the customer of each product's latest Sale
	GetProductCustomerNames(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]string, error)

	// GetProductReceivedDates returns the latest manufacturer receipt per product
	GetProductReceivedDates(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)

	// GetStats aggregates Sale transactions
	GetStats(ctx context.Context, period shared.DateRange) (*Stats, error)

	// GetFinancialStats aggregates money in and out
	GetFinancialStats(ctx context.Context, period shared.DateRange) (*FinancialStats, error)
}

package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one requested line of a sale. A line names an existing unit
// by ProductID, or asks for Quantity units of Type, either as new units
// (IsNew) or taken from the store's available stock.
type OrderLine struct {
	ProductID *uuid.UUID
	Type      ProductType
	Quantity  int
	Price     decimal.Decimal
	IsNew     bool
}

// CreateOrderCommand records a sale to a customer
type CreateOrderCommand struct {
	StoreID       uuid.UUID
	StaffID       uuid.UUID
	CustomerID    uuid.UUID
	CreatedAt     *time.Time
	PaymentMethod PaymentMethod
	CashAmount    decimal.Decimal
	Lines         []OrderLine
}

// PricedProduct pairs a product with the price of the operation
type PricedProduct struct {
	ProductID uuid.UUID
	Price     decimal.Decimal
}

// NewUnitLine asks for Quantity brand new units of Type
type NewUnitLine struct {
	Type     ProductType
	Quantity int
	Price    decimal.Decimal
}

// ManufacturerOrderCommand places an order with the manufacturer, both for
// pending customer units (Existing) and for new shelf stock (NewUnits)
type ManufacturerOrderCommand struct {
	StoreID          uuid.UUID
	StaffID          uuid.UUID
	ManufacturerCode string
	CreatedAt        *time.Time
	Existing         []PricedProduct
	NewUnits         []NewUnitLine
}

// DerivedHeader carries the fields shared by entries that dispose of an
// origin transaction. StoreID defaults to the origin's store.
type DerivedHeader struct {
	OriginID  uuid.UUID
	StaffID   uuid.UUID
	StoreID   *uuid.UUID
	CreatedAt *time.Time
}

// BuybackCommand takes sold units back from the customer
type BuybackCommand struct {
	DerivedHeader
	PaymentMethod PaymentMethod
	CashAmount    decimal.Decimal
	Lines         []PricedProduct
}

// FulfillmentCommand records physical handover of sold units
type FulfillmentCommand struct {
	DerivedHeader
	ProductIDs []uuid.UUID
}

// SellBackCommand returns ordered units to the manufacturer
type SellBackCommand struct {
	DerivedHeader
	PaymentMethod PaymentMethod
	CashAmount    decimal.Decimal
	Lines         []PricedProduct
}

// ReceiveLine is one unit delivered by the manufacturer. A nil Price keeps
// the unit's last price.
type ReceiveLine struct {
	ProductID uuid.UUID
	Price     *decimal.Decimal
}

// ManufacturerReceiveCommand confirms delivery of ordered units
type ManufacturerReceiveCommand struct {
	DerivedHeader
	Lines []ReceiveLine
}

// SwapCommand exchanges two groups of units
type SwapCommand struct {
	StaffID   uuid.UUID
	StoreID   *uuid.UUID
	CreatedAt *time.Time
	Group1    []uuid.UUID
	Group2    []uuid.UUID
}

// UpdateOrderCommand edits the header of a sale. Nil fields are kept.
type UpdateOrderCommand struct {
	TransactionID uuid.UUID
	StoreID       *uuid.UUID
	CustomerID    *uuid.UUID
	CreatedAt     *time.Time
	PaymentMethod *PaymentMethod
	CashAmount    *decimal.Decimal
}

// UpdateManufacturerOrderCommand edits the header of a manufacturer order
type UpdateManufacturerOrderCommand struct {
	TransactionID    uuid.UUID
	StoreID          *uuid.UUID
	ManufacturerCode *string
	CreatedAt        *time.Time
}

// StockIntakeCommand registers shelf units outside of any ledger entry
type StockIntakeCommand struct {
	StoreID   uuid.UUID
	Type      ProductType
	Quantity  int
	Price     decimal.Decimal
	CreatedAt *time.Time
}

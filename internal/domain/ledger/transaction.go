package ledger

import (
	"time"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of business event a ledger entry records
type TransactionType string

const (
	TransactionTypeSale                 TransactionType = "SALE"
	TransactionTypeBuyback              TransactionType = "BUYBACK"
	TransactionTypeManufacturerOrder    TransactionType = "MANUFACTURER_ORDER"
	TransactionTypeFulfillment          TransactionType = "FULFILLMENT"
	TransactionTypeSellBack             TransactionType = "SELL_BACK"
	TransactionTypeManufacturerReceived TransactionType = "MANUFACTURER_RECEIVED"
	TransactionTypeSwap                 TransactionType = "SWAP"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeSale,
		TransactionTypeBuyback,
		TransactionTypeManufacturerOrder,
		TransactionTypeFulfillment,
		TransactionTypeSellBack,
		TransactionTypeManufacturerReceived,
		TransactionTypeSwap:
		return true
	}
	return false
}

// OriginType returns the transaction type a derived entry links back to.
// ok is false for origin types (Sale, ManufacturerOrder).
func (t TransactionType) OriginType() (origin TransactionType, ok bool) {
	switch t {
	case TransactionTypeBuyback, TransactionTypeFulfillment, TransactionTypeSwap:
		return TransactionTypeSale, true
	case TransactionTypeSellBack, TransactionTypeManufacturerReceived:
		return TransactionTypeManufacturerOrder, true
	}
	return "", false
}

// IsTerminalDisposition is true for the entries that close a Sale;
// at most one may link to any Sale.
func (t TransactionType) IsTerminalDisposition() bool {
	return t == TransactionTypeBuyback || t == TransactionTypeFulfillment
}

// linkPrecedence orders derived types when more than one links to the same
// origin. Lower wins.
func (t TransactionType) linkPrecedence() int {
	switch t {
	case TransactionTypeBuyback:
		return 0
	case TransactionTypeFulfillment:
		return 1
	case TransactionTypeSellBack:
		return 2
	case TransactionTypeManufacturerReceived:
		return 3
	}
	return 99
}

// LinkedStatusTypes are the derived types reported by linked-status lookups
var LinkedStatusTypes = []TransactionType{
	TransactionTypeBuyback,
	TransactionTypeFulfillment,
	TransactionTypeSellBack,
	TransactionTypeManufacturerReceived,
}

// PickLinkedStatus chooses the reported derived type among several found for
// one origin. Buyback outranks Fulfillment.
func PickLinkedStatus(found []TransactionType) (TransactionType, bool) {
	var best TransactionType
	for _, t := range found {
		if best == "" || t.linkPrecedence() < best.linkPrecedence() {
			best = t
		}
	}
	return best, best != ""
}

// TransactionItem is one line of a transaction. LineNo orders the lines;
// zero lets the repository append after the existing ones.
type TransactionItem struct {
	ID                uuid.UUID
	TransactionID     uuid.UUID
	LineNo            int
	ProductID         uuid.UUID
	PriceAtTime       decimal.Decimal
	Swapped           bool
	OriginalProductID *uuid.UUID
}

// RewriteForSwap redirects the item to the incoming unit and records the
// unit it replaced
func (i *TransactionItem) RewriteForSwap(incoming uuid.UUID) {
	outgoing := i.ProductID
	i.OriginalProductID = &outgoing
	i.ProductID = incoming
	i.Swapped = true
}

var _ shared.Entity = (*Transaction)(nil)

// Transaction is one ledger entry
type Transaction struct {
	shared.BaseEntity
	Code                string
	Type                TransactionType
	CustomerID          *uuid.UUID
	StaffID             uuid.UUID
	StoreID             uuid.UUID
	LinkedTransactionID *uuid.UUID
	PaymentMethod       PaymentMethod
	CashAmount          decimal.Decimal
	BankTransferAmount  decimal.Decimal
	ManufacturerCode    string
	Items               []TransactionItem
}

// NewTransaction creates a ledger entry header. Items are added with AddItem.
func NewTransaction(typ TransactionType, code string, staffID, storeID uuid.UUID, createdAt time.Time) (*Transaction, error) {
	if !typ.IsValid() {
		return nil, shared.InvalidInputf("unknown transaction type %q", typ)
	}
	if code == "" {
		return nil, shared.InvalidInputf("transaction code cannot be empty")
	}
	if staffID == uuid.Nil {
		return nil, shared.InvalidInputf("staff is required")
	}
	if storeID == uuid.Nil {
		return nil, shared.InvalidInputf("store is required")
	}
	return &Transaction{
		BaseEntity:         shared.NewBaseEntityAt(createdAt),
		Code:               code,
		Type:               typ,
		StaffID:            staffID,
		StoreID:            storeID,
		CashAmount:         decimal.Zero,
		BankTransferAmount: decimal.Zero,
	}, nil
}

// AddItem appends a line for productID at price
func (t *Transaction) AddItem(productID uuid.UUID, price decimal.Decimal) *TransactionItem {
	t.Items = append(t.Items, TransactionItem{
		ID:            uuid.New(),
		TransactionID: t.ID,
		LineNo:        len(t.Items) + 1,
		ProductID:     productID,
		PriceAtTime:   price,
	})
	return &t.Items[len(t.Items)-1]
}

// LinkTo sets the origin reference of a derived entry
func (t *Transaction) LinkTo(origin *Transaction) error {
	want, ok := t.Type.OriginType()
	if !ok {
		return shared.InvalidInputf("%s transactions cannot link to another transaction", t.Type)
	}
	if origin.Type != want {
		return shared.InvalidStatef("transaction %s is %s; %s must link to a %s", origin.Code, origin.Type, t.Type, want)
	}
	id := origin.ID
	t.LinkedTransactionID = &id
	return nil
}

// ApplyPayment records the payment split for the current item total.
// An empty method means cash.
func (t *Transaction) ApplyPayment(method PaymentMethod, cash decimal.Decimal) error {
	if method == "" {
		method = PaymentCash
	}
	split, err := SplitPayment(method, t.Total(), cash)
	if err != nil {
		return err
	}
	t.PaymentMethod = method
	t.CashAmount = split.Cash
	t.BankTransferAmount = split.Bank
	return nil
}

// Total sums the item prices
func (t *Transaction) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range t.Items {
		total = total.Add(item.PriceAtTime)
	}
	return total
}

// ProductIDs returns the product of every item, in item order
func (t *Transaction) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Items))
	for _, item := range t.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// HasProduct reports whether an item of the transaction references productID
func (t *Transaction) HasProduct(productID uuid.UUID) bool {
	for _, item := range t.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

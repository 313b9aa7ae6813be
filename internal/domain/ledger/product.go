package ledger

import (
	"strings"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// ProductType is the weight class of a bullion unit
type ProductType string

const (
	// ProductTypeLuong1 is a one tael (lượng) bar
	ProductTypeLuong1 ProductType = "LUONG_1"
	// ProductTypeLuong5 is a five tael bar
	ProductTypeLuong5 ProductType = "LUONG_5"
	// ProductTypeKg1 is a one kilogram bar
	ProductTypeKg1 ProductType = "KG_1"
)

var productTypeLabels = map[ProductType]string{
	ProductTypeLuong1: "1 lượng",
	ProductTypeLuong5: "5 lượng",
	ProductTypeKg1:    "1 kg",
}

var productTypePrefixes = map[ProductType]string{
	ProductTypeLuong1: "L1",
	ProductTypeLuong5: "L5",
	ProductTypeKg1:    "K1",
}

// String returns the string representation of ProductType
func (t ProductType) String() string {
	return string(t)
}

// IsValid returns true if the product type is one of the fixed weight classes
func (t ProductType) IsValid() bool {
	_, ok := productTypeLabels[t]
	return ok
}

// Label returns the display label used on receipts and contracts
func (t ProductType) Label() string {
	return productTypeLabels[t]
}

// CodePrefix returns the short type marker used in product codes
func (t ProductType) CodePrefix() string {
	return productTypePrefixes[t]
}

// ParseProductType accepts either the enum key or the display label.
// Labels are NFC-normalized first since Vietnamese input often arrives
// decomposed.
func ParseProductType(s string) (ProductType, error) {
	in := strings.TrimSpace(norm.NFC.String(s))
	if t := ProductType(strings.ToUpper(in)); t.IsValid() {
		return t, nil
	}
	lower := strings.ToLower(in)
	for t, label := range productTypeLabels {
		if lower == label {
			return t, nil
		}
	}
	return "", shared.InvalidInputf("unknown product type %q", s)
}

// ProductStatus is the lifecycle state of a product
type ProductStatus string

const (
	StatusAvailable                ProductStatus = "AVAILABLE"
	StatusSold                     ProductStatus = "SOLD"
	StatusInTransit                ProductStatus = "IN_TRANSIT"
	StatusOrdered                  ProductStatus = "ORDERED"
	StatusFulfilled                ProductStatus = "FULFILLED"
	StatusSoldBackToManufacturer   ProductStatus = "SOLD_BACK_TO_MANUFACTURER"
	StatusReceivedFromManufacturer ProductStatus = "RECEIVED_FROM_MANUFACTURER"
)

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is known
func (s ProductStatus) IsValid() bool {
	switch s {
	case StatusAvailable,
		StatusSold,
		StatusInTransit,
		StatusOrdered,
		StatusFulfilled,
		StatusSoldBackToManufacturer,
		StatusReceivedFromManufacturer:
		return true
	}
	return false
}

var _ shared.AggregateRoot = (*Product)(nil)

// Product is one physical inventory unit.
// Status, IsOrdered and IsDelivered only change through Apply.
type Product struct {
	shared.BaseAggregateRoot
	Code        string
	Type        ProductType
	Status      ProductStatus
	LastPrice   decimal.Decimal
	StoreID     uuid.UUID
	IsOrdered   bool
	IsDelivered bool
}

// NewProduct creates a product in its initial state
func NewProduct(code string, typ ProductType, status ProductStatus, price decimal.Decimal, storeID uuid.UUID, isOrdered bool) (*Product, error) {
	if code == "" {
		return nil, shared.InvalidInputf("product code cannot be empty")
	}
	if !typ.IsValid() {
		return nil, shared.InvalidInputf("unknown product type %q", typ)
	}
	if status != StatusAvailable && status != StatusSold {
		return nil, shared.InvalidInputf("product cannot be created with status %s", status)
	}
	if price.IsNegative() {
		return nil, shared.InvalidInputf("product price cannot be negative")
	}
	if storeID == uuid.Nil {
		return nil, shared.InvalidInputf("product store is required")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Type:              typ,
		Status:            status,
		LastPrice:         price,
		StoreID:           storeID,
		IsOrdered:         isOrdered,
	}, nil
}

// Apply moves the product through op. A nil price keeps the last price.
func (p *Product) Apply(op Operation, price *decimal.Decimal) error {
	if !op.Allows(p) {
		return shared.InvalidStatef("product %s (%s) is %s; %s requires %s",
			p.ID, p.Code, p.Status, op, op.describeSources())
	}
	if price != nil {
		if price.IsNegative() {
			return shared.InvalidInputf("price for product %s cannot be negative", p.ID)
		}
		p.LastPrice = *price
	}

	p.Status = op.Target(p.Status)
	switch op {
	case OpManufacturerOrder:
		p.IsOrdered = true
	case OpManufacturerReceive:
		p.IsDelivered = true
	}
	p.IncrementVersion()
	return nil
}

// MoveTo reassigns the owning store. Only units on the shelf can move.
func (p *Product) MoveTo(storeID uuid.UUID) error {
	if storeID == uuid.Nil {
		return shared.InvalidInputf("target store is required")
	}
	if p.Status != StatusAvailable {
		return shared.InvalidStatef("product %s is %s; only available products can be moved", p.ID, p.Status)
	}
	if p.StoreID == storeID {
		return nil
	}
	p.StoreID = storeID
	p.IncrementVersion()
	return nil
}

// reassignStore is used by swaps right after Apply, which already bumped
// the version
func (p *Product) reassignStore(storeID uuid.UUID) {
	p.StoreID = storeID
}

// IsPendingManufacturerOrder is true for customer demand not yet forwarded
// to the manufacturer
func (p *Product) IsPendingManufacturerOrder() bool {
	return p.Status == StatusSold && !p.IsOrdered
}

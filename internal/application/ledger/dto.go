package ledger

import (
	"time"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"product_code"`
	Type         string          `json:"type"`
	TypeLabel    string          `json:"type_label"`
	Status       string          `json:"status"`
	LastPrice    decimal.Decimal `json:"last_price"`
	StoreID      uuid.UUID       `json:"store_id"`
	IsOrdered    bool            `json:"is_ordered"`
	IsDelivered  bool            `json:"is_delivered"`
	CustomerName string          `json:"customer_name,omitempty"`
	ReceivedAt   *time.Time      `json:"received_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
}

// TransactionItemResponse represents one line of a transaction
type TransactionItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	LineNo            int             `json:"line_no"`
	ProductID         uuid.UUID       `json:"product_id"`
	PriceAtTime       decimal.Decimal `json:"price_at_time"`
	Swapped           bool            `json:"swapped"`
	OriginalProductID *uuid.UUID      `json:"original_product_id,omitempty"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID                  uuid.UUID                 `json:"id"`
	Code                string                    `json:"transaction_code"`
	Type                string                    `json:"type"`
	CustomerID          *uuid.UUID                `json:"customer_id,omitempty"`
	StaffID             uuid.UUID                 `json:"staff_id"`
	StoreID             uuid.UUID                 `json:"store_id"`
	LinkedTransactionID *uuid.UUID                `json:"linked_transaction_id,omitempty"`
	LinkedStatus        string                    `json:"linked_status,omitempty"`
	PaymentMethod       string                    `json:"payment_method,omitempty"`
	CashAmount          decimal.Decimal           `json:"cash_amount"`
	BankTransferAmount  decimal.Decimal           `json:"bank_transfer_amount"`
	ManufacturerCode    string                    `json:"manufacturer_code,omitempty"`
	TotalAmount         decimal.Decimal           `json:"total_amount"`
	Items               []TransactionItemResponse `json:"items"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
	Replayed            bool                      `json:"-"`
}

// StatsResponse aggregates sales over a period
type StatsResponse struct {
	TotalOrders     int64                      `json:"total_orders"`
	TotalRevenue    decimal.Decimal            `json:"total_revenue"`
	RevenueByMethod map[string]decimal.Decimal `json:"revenue_by_payment_method"`
	RevenueByStore  map[string]decimal.Decimal `json:"revenue_by_store"`
}

// FinancialStatsResponse aggregates money movements over a period
type FinancialStatsResponse struct {
	MoneyIn     decimal.Decimal `json:"money_in"`
	MoneyInCash decimal.Decimal `json:"money_in_cash"`
	MoneyInBank decimal.Decimal `json:"money_in_bank"`
	MoneyOut    decimal.Decimal `json:"money_out"`
	Net         decimal.Decimal `json:"net"`
}

// EventContextResponse describes one transaction behind a product status
type EventContextResponse struct {
	TransactionID   uuid.UUID  `json:"transaction_id"`
	TransactionCode string     `json:"transaction_code"`
	CreatedAt       time.Time  `json:"created_at"`
	CustomerID      *uuid.UUID `json:"customer_id,omitempty"`
	CustomerName    string     `json:"customer_name,omitempty"`
}

// StatusInfoResponse is the effective status of a product with its context
type StatusInfoResponse struct {
	ProductID   uuid.UUID             `json:"product_id"`
	ProductCode string                `json:"product_code"`
	Status      string                `json:"status"`
	Sale        *EventContextResponse `json:"sale,omitempty"`
	Buyback     *EventContextResponse `json:"buyback,omitempty"`
	SwapReturn  *EventContextResponse `json:"swap_return,omitempty"`
}

// OrderLineRequest is one line of a sale request
type OrderLineRequest struct {
	ProductID *uuid.UUID      `json:"product_id"`
	Type      string          `json:"type"`
	Quantity  int             `json:"quantity" binding:"omitempty,min=1,max=1000"`
	Price     decimal.Decimal `json:"price" binding:"decimal_gte0"`
	IsNew     bool            `json:"is_new"`
}

// CreateOrderRequest represents a request to record a sale
type CreateOrderRequest struct {
	StoreID       uuid.UUID          `json:"store_id" binding:"required"`
	StaffID       uuid.UUID          `json:"staff_id" binding:"required"`
	CustomerID    uuid.UUID          `json:"customer_id" binding:"required"`
	CreatedAt     *time.Time         `json:"created_at"`
	PaymentMethod string             `json:"payment_method" binding:"omitempty,oneof=cash bank_transfer mixed"`
	CashAmount    decimal.Decimal    `json:"cash_amount" binding:"decimal_gte0"`
	Lines         []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PricedProductRequest pairs a product with the price of the operation
type PricedProductRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Price     decimal.Decimal `json:"price" binding:"decimal_gte0"`
}

// NewUnitRequest asks for new units of one type
type NewUnitRequest struct {
	Type     string          `json:"type" binding:"required"`
	Quantity int             `json:"quantity" binding:"required,min=1,max=1000"`
	Price    decimal.Decimal `json:"price" binding:"decimal_gte0"`
}

// CreateManufacturerOrderRequest represents a request to order from the manufacturer
type CreateManufacturerOrderRequest struct {
	StoreID          uuid.UUID              `json:"store_id" binding:"required"`
	StaffID          uuid.UUID              `json:"staff_id" binding:"required"`
	ManufacturerCode string                 `json:"manufacturer_code" binding:"max=100"`
	CreatedAt        *time.Time             `json:"created_at"`
	Products         []PricedProductRequest `json:"products" binding:"dive"`
	NewUnits         []NewUnitRequest       `json:"new_units" binding:"dive"`
}

// DerivedHeaderRequest carries the fields every derived entry shares
type DerivedHeaderRequest struct {
	OriginID  uuid.UUID  `json:"linked_transaction_id" binding:"required"`
	StaffID   uuid.UUID  `json:"staff_id" binding:"required"`
	StoreID   *uuid.UUID `json:"store_id"`
	CreatedAt *time.Time `json:"created_at"`
}

// CreateBuybackRequest represents a request to buy units back from a customer
type CreateBuybackRequest struct {
	DerivedHeaderRequest
	PaymentMethod string                 `json:"payment_method" binding:"omitempty,oneof=cash bank_transfer mixed"`
	CashAmount    decimal.Decimal        `json:"cash_amount" binding:"decimal_gte0"`
	Products      []PricedProductRequest `json:"products" binding:"required,min=1,dive"`
}

// CreateFulfillmentRequest represents a request to hand sold units over
type CreateFulfillmentRequest struct {
	DerivedHeaderRequest
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1"`
}

// CreateSellBackRequest represents a request to return units to the manufacturer
type CreateSellBackRequest struct {
	DerivedHeaderRequest
	PaymentMethod string                 `json:"payment_method" binding:"omitempty,oneof=cash bank_transfer mixed"`
	CashAmount    decimal.Decimal        `json:"cash_amount" binding:"decimal_gte0"`
	Products      []PricedProductRequest `json:"products" binding:"required,min=1,dive"`
}

// ReceiveLineRequest is one delivered unit; a missing price keeps the last one
type ReceiveLineRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Price     *decimal.Decimal `json:"price"`
}

// CreateManufacturerReceiveRequest represents a request to confirm a delivery
type CreateManufacturerReceiveRequest struct {
	DerivedHeaderRequest
	Products []ReceiveLineRequest `json:"products" binding:"required,min=1,dive"`
}

// CreateSwapRequest represents a request to exchange two groups of units
type CreateSwapRequest struct {
	StaffID   uuid.UUID   `json:"staff_id" binding:"required"`
	StoreID   *uuid.UUID  `json:"store_id"`
	CreatedAt *time.Time  `json:"created_at"`
	Group1    []uuid.UUID `json:"group1" binding:"required,min=1"`
	Group2    []uuid.UUID `json:"group2" binding:"required,min=1"`
}

// UpdateOrderRequest edits a sale header; omitted fields are kept
type UpdateOrderRequest struct {
	StoreID       *uuid.UUID       `json:"store_id"`
	CustomerID    *uuid.UUID       `json:"customer_id"`
	CreatedAt     *time.Time       `json:"created_at"`
	PaymentMethod *string          `json:"payment_method" binding:"omitempty,oneof=cash bank_transfer mixed"`
	CashAmount    *decimal.Decimal `json:"cash_amount"`
}

// UpdateManufacturerOrderRequest edits a manufacturer order header
type UpdateManufacturerOrderRequest struct {
	StoreID          *uuid.UUID `json:"store_id"`
	ManufacturerCode *string    `json:"manufacturer_code" binding:"omitempty,max=100"`
	CreatedAt        *time.Time `json:"created_at"`
}

// CreateProductsRequest registers shelf units outside of any ledger entry
type CreateProductsRequest struct {
	StoreID   uuid.UUID       `json:"store_id" binding:"required"`
	Type      string          `json:"type" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1,max=1000"`
	Price     decimal.Decimal `json:"price" binding:"decimal_gte0"`
	CreatedAt *time.Time      `json:"created_at"`
}

// MoveProductRequest reassigns a product to another store
type MoveProductRequest struct {
	StoreID uuid.UUID `json:"store_id" binding:"required"`
}

// StatusInfoRequest asks for the effective status of several products
type StatusInfoRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1,max=500"`
}

// TransactionListFilter represents filter options for the ledger listing
type TransactionListFilter struct {
	Type      string     `form:"type"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=500"`
	SortBy    string     `form:"sort_by"`
	SortOrder string     `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// PeriodFilter bounds a report by creation time
type PeriodFilter struct {
	From *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ProductListFilter represents filter options for available products
type ProductListFilter struct {
	StoreID *uuid.UUID `form:"store_id"`
	Type    string     `form:"type"`
}

func (f PeriodFilter) dateRange() shared.DateRange {
	return shared.DateRange{From: f.From, To: f.To}
}

func (r CreateOrderRequest) toCommand() (ledger.CreateOrderCommand, error) {
	method, err := ledger.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return ledger.CreateOrderCommand{}, err
	}
	lines := make([]ledger.OrderLine, len(r.Lines))
	for i, l := range r.Lines {
		line := ledger.OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
			IsNew:     l.IsNew,
		}
		if l.ProductID == nil || l.Type != "" {
			typ, err := ledger.ParseProductType(l.Type)
			if err != nil {
				return ledger.CreateOrderCommand{}, shared.InvalidInputf("line %d: %s", i+1, err.Error())
			}
			line.Type = typ
		}
		lines[i] = line
	}
	return ledger.CreateOrderCommand{
		StoreID:       r.StoreID,
		StaffID:       r.StaffID,
		CustomerID:    r.CustomerID,
		CreatedAt:     r.CreatedAt,
		PaymentMethod: method,
		CashAmount:    r.CashAmount,
		Lines:         lines,
	}, nil
}

func (r CreateManufacturerOrderRequest) toCommand() (ledger.ManufacturerOrderCommand, error) {
	units := make([]ledger.NewUnitLine, len(r.NewUnits))
	for i, u := range r.NewUnits {
		typ, err := ledger.ParseProductType(u.Type)
		if err != nil {
			return ledger.ManufacturerOrderCommand{}, err
		}
		units[i] = ledger.NewUnitLine{Type: typ, Quantity: u.Quantity, Price: u.Price}
	}
	return ledger.ManufacturerOrderCommand{
		StoreID:          r.StoreID,
		StaffID:          r.StaffID,
		ManufacturerCode: r.ManufacturerCode,
		CreatedAt:        r.CreatedAt,
		Existing:         pricedProducts(r.Products),
		NewUnits:         units,
	}, nil
}

func (r DerivedHeaderRequest) header() ledger.DerivedHeader {
	return ledger.DerivedHeader{
		OriginID:  r.OriginID,
		StaffID:   r.StaffID,
		StoreID:   r.StoreID,
		CreatedAt: r.CreatedAt,
	}
}

func (r CreateBuybackRequest) toCommand() (ledger.BuybackCommand, error) {
	method, err := ledger.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return ledger.BuybackCommand{}, err
	}
	return ledger.BuybackCommand{
		DerivedHeader: r.header(),
		PaymentMethod: method,
		CashAmount:    r.CashAmount,
		Lines:         pricedProducts(r.Products),
	}, nil
}

func (r CreateSellBackRequest) toCommand() (ledger.SellBackCommand, error) {
	method, err := ledger.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return ledger.SellBackCommand{}, err
	}
	return ledger.SellBackCommand{
		DerivedHeader: r.header(),
		PaymentMethod: method,
		CashAmount:    r.CashAmount,
		Lines:         pricedProducts(r.Products),
	}, nil
}

func (r CreateManufacturerReceiveRequest) toCommand() ledger.ManufacturerReceiveCommand {
	lines := make([]ledger.ReceiveLine, len(r.Products))
	for i, p := range r.Products {
		lines[i] = ledger.ReceiveLine{ProductID: p.ProductID, Price: p.Price}
	}
	return ledger.ManufacturerReceiveCommand{DerivedHeader: r.header(), Lines: lines}
}

func (r UpdateOrderRequest) toCommand(id uuid.UUID) (ledger.UpdateOrderCommand, error) {
	cmd := ledger.UpdateOrderCommand{
		TransactionID: id,
		StoreID:       r.StoreID,
		CustomerID:    r.CustomerID,
		CreatedAt:     r.CreatedAt,
		CashAmount:    r.CashAmount,
	}
	if r.PaymentMethod != nil {
		method, err := ledger.ParsePaymentMethod(*r.PaymentMethod)
		if err != nil {
			return ledger.UpdateOrderCommand{}, err
		}
		cmd.PaymentMethod = &method
	}
	return cmd, nil
}

func pricedProducts(in []PricedProductRequest) []ledger.PricedProduct {
	out := make([]ledger.PricedProduct, len(in))
	for i, p := range in {
		out[i] = ledger.PricedProduct{ProductID: p.ProductID, Price: p.Price}
	}
	return out
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *ledger.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Type:        p.Type.String(),
		TypeLabel:   p.Type.Label(),
		Status:      p.Status.String(),
		LastPrice:   p.LastPrice,
		StoreID:     p.StoreID,
		IsOrdered:   p.IsOrdered,
		IsDelivered: p.IsDelivered,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

// ToTransactionResponse converts a domain transaction to a response
func ToTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	items := make([]TransactionItemResponse, len(tx.Items))
	for i, it := range tx.Items {
		items[i] = TransactionItemResponse{
			ID:                it.ID,
			LineNo:            it.LineNo,
			ProductID:         it.ProductID,
			PriceAtTime:       it.PriceAtTime,
			Swapped:           it.Swapped,
			OriginalProductID: it.OriginalProductID,
		}
	}
	return TransactionResponse{
		ID:                  tx.ID,
		Code:                tx.Code,
		Type:                tx.Type.String(),
		CustomerID:          tx.CustomerID,
		StaffID:             tx.StaffID,
		StoreID:             tx.StoreID,
		LinkedTransactionID: tx.LinkedTransactionID,
		PaymentMethod:       string(tx.PaymentMethod),
		CashAmount:          tx.CashAmount,
		BankTransferAmount:  tx.BankTransferAmount,
		ManufacturerCode:    tx.ManufacturerCode,
		TotalAmount:         tx.Total(),
		Items:               items,
		CreatedAt:           tx.CreatedAt,
		UpdatedAt:           tx.UpdatedAt,
	}
}

func toStatsResponse(s *ledger.Stats) *StatsResponse {
	out := &StatsResponse{
		TotalOrders:     s.TotalOrders,
		TotalRevenue:    s.TotalRevenue,
		RevenueByMethod: make(map[string]decimal.Decimal, len(s.RevenueByMethod)),
		RevenueByStore:  make(map[string]decimal.Decimal, len(s.RevenueByStore)),
	}
	for m, v := range s.RevenueByMethod {
		out.RevenueByMethod[string(m)] = v
	}
	for id, v := range s.RevenueByStore {
		out.RevenueByStore[id.String()] = v
	}
	return out
}

func toEventContext(c *ledger.EventContext) *EventContextResponse {
	if c == nil {
		return nil
	}
	return &EventContextResponse{
		TransactionID:   c.TransactionID,
		TransactionCode: c.TransactionCode,
		CreatedAt:       c.CreatedAt,
		CustomerID:      c.CustomerID,
		CustomerName:    c.CustomerName,
	}
}

package models

import (
	"time"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	ProductCode string          `gorm:"type:varchar(40);not null;uniqueIndex"`
	ProductType string          `gorm:"type:varchar(20);not null;index:idx_products_store_type_status,priority:2"`
	Status      string          `gorm:"type:varchar(40);not null;index:idx_products_store_type_status,priority:3"`
	LastPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	StoreID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_products_store_type_status,priority:1"`
	IsOrdered   bool            `gorm:"not null;default:false"`
	IsDelivered bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *ledger.Product {
	return &ledger.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.ProductCode,
		Type:              ledger.ProductType(m.ProductType),
		Status:            ledger.ProductStatus(m.Status),
		LastPrice:         m.LastPrice,
		StoreID:           m.StoreID,
		IsOrdered:         m.IsOrdered,
		IsDelivered:       m.IsDelivered,
	}
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *ledger.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ProductCode = p.Code
	m.ProductType = string(p.Type)
	m.Status = string(p.Status)
	m.LastPrice = p.LastPrice
	m.StoreID = p.StoreID
	m.IsOrdered = p.IsOrdered
	m.IsDelivered = p.IsDelivered
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *ledger.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// TransactionModel is the persistence model for a ledger entry.
type TransactionModel struct {
	BaseModel
	TransactionCode     string          `gorm:"type:varchar(40);not null;uniqueIndex"`
	Type                string          `gorm:"type:varchar(30);not null;index"`
	CustomerID          *uuid.UUID      `gorm:"type:uuid;index"`
	StaffID             uuid.UUID       `gorm:"type:uuid;not null"`
	StoreID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	LinkedTransactionID *uuid.UUID      `gorm:"type:uuid;index"`
	PaymentMethod       string          `gorm:"type:varchar(20)"`
	CashAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BankTransferAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ManufacturerCode    string          `gorm:"type:varchar(100)"`
	// Associations
	Items []TransactionItemModel `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	tx := &ledger.Transaction{
		BaseEntity:          m.BaseModel.ToDomain(),
		Code:                m.TransactionCode,
		Type:                ledger.TransactionType(m.Type),
		CustomerID:          m.CustomerID,
		StaffID:             m.StaffID,
		StoreID:             m.StoreID,
		LinkedTransactionID: m.LinkedTransactionID,
		PaymentMethod:       ledger.PaymentMethod(m.PaymentMethod),
		CashAmount:          m.CashAmount,
		BankTransferAmount:  m.BankTransferAmount,
		ManufacturerCode:    m.ManufacturerCode,
		Items:               make([]ledger.TransactionItem, len(m.Items)),
	}
	for i := range m.Items {
		tx.Items[i] = *m.Items[i].ToDomain()
	}
	return tx
}

// FromDomain populates the header fields from a domain Transaction.
// Items are mapped separately.
func (m *TransactionModel) FromDomain(tx *ledger.Transaction) {
	m.FromDomainBaseEntity(tx.BaseEntity)
	m.TransactionCode = tx.Code
	m.Type = string(tx.Type)
	m.CustomerID = tx.CustomerID
	m.StaffID = tx.StaffID
	m.StoreID = tx.StoreID
	m.LinkedTransactionID = tx.LinkedTransactionID
	m.PaymentMethod = string(tx.PaymentMethod)
	m.CashAmount = tx.CashAmount
	m.BankTransferAmount = tx.BankTransferAmount
	m.ManufacturerCode = tx.ManufacturerCode
}

// TransactionModelFromDomain creates a header model from a domain Transaction.
func TransactionModelFromDomain(tx *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(tx)
	return m
}

// TransactionItemModel is the persistence model for one ledger line.
type TransactionItemModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	TransactionID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo            int             `gorm:"not null;default:0"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	PriceAtTime       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Swapped           bool            `gorm:"not null;default:false"`
	OriginalProductID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (TransactionItemModel) TableName() string {
	return "transaction_items"
}

// ToDomain converts the persistence model to a domain TransactionItem.
func (m *TransactionItemModel) ToDomain() *ledger.TransactionItem {
	return &ledger.TransactionItem{
		ID:                m.ID,
		TransactionID:     m.TransactionID,
		LineNo:            m.LineNo,
		ProductID:         m.ProductID,
		PriceAtTime:       m.PriceAtTime,
		Swapped:           m.Swapped,
		OriginalProductID: m.OriginalProductID,
	}
}

// TransactionItemModelFromDomain creates a persistence model from a domain TransactionItem.
func TransactionItemModelFromDomain(i *ledger.TransactionItem) *TransactionItemModel {
	return &TransactionItemModel{
		ID:                i.ID,
		TransactionID:     i.TransactionID,
		LineNo:            i.LineNo,
		ProductID:         i.ProductID,
		PriceAtTime:       i.PriceAtTime,
		Swapped:           i.Swapped,
		OriginalProductID: i.OriginalProductID,
	}
}

// CodeSequenceModel holds the last issued sequence number per code prefix.
type CodeSequenceModel struct {
	Prefix    string    `gorm:"type:varchar(40);primary_key"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CodeSequenceModel) TableName() string {
	return "code_sequences"
}

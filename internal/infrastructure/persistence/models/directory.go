package models

import "github.com/google/uuid"

// StoreModel is a retail location.
type StoreModel struct {
	BaseModel
	Name    string `gorm:"type:varchar(200);not null"`
	Address string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// StaffModel is an employee who records ledger entries.
type StaffModel struct {
	BaseModel
	Name    string     `gorm:"type:varchar(200);not null"`
	StoreID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (StaffModel) TableName() string {
	return "staff"
}

// CustomerModel is a buyer of bullion.
type CustomerModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(200);not null"`
	Phone    string `gorm:"type:varchar(30);index"`
	IDNumber string `gorm:"type:varchar(30)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// AllModels lists every model for AutoMigrate in tests and tooling.
func AllModels() []any {
	return []any{
		&StoreModel{},
		&StaffModel{},
		&CustomerModel{},
		&ProductModel{},
		&TransactionModel{},
		&TransactionItemModel{},
		&CodeSequenceModel{},
	}
}

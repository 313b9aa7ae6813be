// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - ledger.go: products, transactions, transaction items and code sequences
// - directory.go: store, staff and customer registries read by the ledger
package models

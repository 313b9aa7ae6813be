package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormProductStatusProvider counts products straight from the products table
type GormProductStatusProvider struct {
	db *gorm.DB
}

// NewGormProductStatusProvider creates a new GormProductStatusProvider.
func NewGormProductStatusProvider(db *gorm.DB) *GormProductStatusProvider {
	return &GormProductStatusProvider{db: db}
}

// CountProductsByStatus returns one row per (status, product type) pair
func (p *GormProductStatusProvider) CountProductsByStatus(ctx context.Context) ([]ProductStatusCount, error) {
	type row struct {
		Status      string `gorm:"column:status"`
		ProductType string `gorm:"column:product_type"`
		Count       int64  `gorm:"column:count"`
	}

	var rows []row
	err := p.db.WithContext(ctx).
		Table("products").
		Select("status, product_type, COUNT(*) AS count").
		Group("status, product_type").
		Order("status, product_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]ProductStatusCount, len(rows))
	for i, r := range rows {
		counts[i] = ProductStatusCount{Status: r.Status, ProductType: r.ProductType, Count: r.Count}
	}
	return counts, nil
}

package persistence

import (
	"context"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/erp/bullion/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *ledger.Product) error {
	model := models.ProductModelFromDomain(product)
	err := r.db.WithContext(ctx).Create(model).Error
	return translateWriteError(err, "product code "+product.Code)
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a product by ID and locks the row
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Product, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds several products
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ledger.Product, error) {
	if len(ids) == 0 {
		return []ledger.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainProducts(rows), nil
}

// FindAvailableForUpdate locks the oldest free available unit of typ in store
func (r *GormProductRepository) FindAvailableForUpdate(ctx context.Context, storeID uuid.UUID, typ ledger.ProductType) (*ledger.Product, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("store_id = ? AND product_type = ? AND status = ?", storeID, string(typ), string(ledger.StatusAvailable)).
		Order("created_at ASC").Order("product_code ASC").
		First(&model).Error
	if err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// Update saves the product if nobody changed it since it was loaded.
// The domain has already bumped Version.
func (r *GormProductRepository) Update(ctx context.Context, product *ledger.Product) error {
	model := models.ProductModelFromDomain(product)
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Select("product_code", "product_type", "status", "last_price", "store_id", "is_ordered", "is_delivered", "version", "updated_at").
		Updates(model)

	if result.Error != nil {
		return translateWriteError(result.Error, "product "+product.Code)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "product "+product.Code+" was modified by another transaction")
	}
	return nil
}

// Delete removes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IsReferenced reports whether a transaction item points at the product
func (r *GormProductRepository) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TransactionItemModel{}).
		Where("product_id = ? OR original_product_id = ?", id, id).
		Count(&count).Error
	return count > 0, err
}

// ListAvailable lists available products
func (r *GormProductRepository) ListAvailable(ctx context.Context, filter ledger.ProductFilter) ([]ledger.Product, error) {
	query := r.db.WithContext(ctx).Where("status = ?", string(ledger.StatusAvailable))
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Type != nil {
		query = query.Where("product_type = ?", string(*filter.Type))
	}

	var rows []models.ProductModel
	if err := query.Order("product_code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainProducts(rows), nil
}

// ListPendingManufacturerOrder lists sold products not yet ordered from the manufacturer
func (r *GormProductRepository) ListPendingManufacturerOrder(ctx context.Context) ([]ledger.Product, error) {
	var rows []models.ProductModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_ordered = ?", string(ledger.StatusSold), false).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainProducts(rows), nil
}

// ListByStore lists all products of a store
func (r *GormProductRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]ledger.Product, error) {
	var rows []models.ProductModel
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("product_code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainProducts(rows), nil
}

func toDomainProducts(rows []models.ProductModel) []ledger.Product {
	out := make([]ledger.Product, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormProductRepository implements ProductRepository
var _ ledger.ProductRepository = (*GormProductRepository)(nil)

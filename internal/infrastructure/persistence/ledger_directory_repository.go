package persistence

import (
	"context"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDirectoryRepository reads the store, staff and customer registries
type GormDirectoryRepository struct {
	db *gorm.DB
}

// NewGormDirectoryRepository creates a new GormDirectoryRepository
func NewGormDirectoryRepository(db *gorm.DB) *GormDirectoryRepository {
	return &GormDirectoryRepository{db: db}
}

// StoreExists reports whether the store is registered
func (r *GormDirectoryRepository) StoreExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.StoreModel{}, id)
}

// StaffExists reports whether the staff member is registered
func (r *GormDirectoryRepository) StaffExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.StaffModel{}, id)
}

// CustomerExists reports whether the customer is registered
func (r *GormDirectoryRepository) CustomerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.CustomerModel{}, id)
}

func (r *GormDirectoryRepository) exists(ctx context.Context, model any, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CustomerNames resolves customer ids to names; unknown ids are absent
func (r *GormDirectoryRepository) CustomerNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

// CreateStore registers a store
func (r *GormDirectoryRepository) CreateStore(ctx context.Context, store *models.StoreModel) error {
	return translateWriteError(r.db.WithContext(ctx).Create(store).Error, "store")
}

// CreateStaff registers a staff member
func (r *GormDirectoryRepository) CreateStaff(ctx context.Context, staff *models.StaffModel) error {
	return translateWriteError(r.db.WithContext(ctx).Create(staff).Error, "staff")
}

// CreateCustomer registers a customer
func (r *GormDirectoryRepository) CreateCustomer(ctx context.Context, customer *models.CustomerModel) error {
	return translateWriteError(r.db.WithContext(ctx).Create(customer).Error, "customer")
}

// Ensure GormDirectoryRepository implements Directory
var _ ledger.Directory = (*GormDirectoryRepository)(nil)

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

// GormTransactionRepository implements TransactionRepository and
// ReportRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// Create inserts the header first, then the items
func (r *GormTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	db := r.db.WithContext(ctx)
	header := models.TransactionModelFromDomain(tx)
	if err := db.Omit(clause.Associations).Create(header).Error; err != nil {
		return translateWriteError(err, "transaction code "+tx.Code)
	}
	if len(tx.Items) == 0 {
		return nil
	}
	items := make([]*models.TransactionItemModel, len(tx.Items))
	for i := range tx.Items {
		items[i] = models.TransactionItemModelFromDomain(&tx.Items[i])
	}
	return translateWriteError(db.Create(items).Error, "transaction items of "+tx.Code)
}

// FindByID finds a transaction with its items
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the header row and loads the items
func (r *GormTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	db := r.db.WithContext(ctx)
	var model models.TransactionModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateReadError(err)
	}
	if err := orderedItems(db).Where("transaction_id = ?", id).Find(&model.Items).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateHeader saves the editable header fields
func (r *GormTransactionRepository) UpdateHeader(ctx context.Context, tx *ledger.Transaction) error {
	result := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("id = ?", tx.ID).
		Updates(map[string]any{
			"customer_id":          tx.CustomerID,
			"store_id":             tx.StoreID,
			"payment_method":       string(tx.PaymentMethod),
			"cash_amount":          tx.CashAmount,
			"bank_transfer_amount": tx.BankTransferAmount,
			"manufacturer_code":    tx.ManufacturerCode,
			"created_at":           tx.CreatedAt,
			"updated_at":           tx.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AddItem appends an item, numbering it after the existing lines when it
// has no line number yet
func (r *GormTransactionRepository) AddItem(ctx context.Context, item *ledger.TransactionItem) error {
	db := r.db.WithContext(ctx)
	if item.LineNo == 0 {
		var maxLine int
		err := db.Model(&models.TransactionItemModel{}).
			Where("transaction_id = ?", item.TransactionID).
			Select("COALESCE(MAX(line_no), 0)").
			Scan(&maxLine).Error
		if err != nil {
			return err
		}
		item.LineNo = maxLine + 1
	}
	return translateWriteError(db.Create(models.TransactionItemModelFromDomain(item)).Error, "transaction item")
}

// UpdateItem saves a rewritten item
func (r *GormTransactionRepository) UpdateItem(ctx context.Context, item *ledger.TransactionItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.TransactionItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"product_id":          item.ProductID,
			"price_at_time":       item.PriceAtTime,
			"swapped":             item.Swapped,
			"original_product_id": item.OriginalProductID,
		})
	if result.Error != nil {
		return translateWriteError(result.Error, "transaction item")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteItem removes an item
func (r *GormTransactionRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TransactionItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// LatestSaleItem finds the product's item on its most recent Sale
func (r *GormTransactionRepository) LatestSaleItem(ctx context.Context, productID uuid.UUID) (*ledger.TransactionItem, error) {
	var model models.TransactionItemModel
	err := r.db.WithContext(ctx).
		Table("transaction_items AS ti").
		Select("ti.*").
		Joins("JOIN transactions t ON t.id = ti.transaction_id").
		Where("ti.product_id = ? AND t.type = ?", productID, string(ledger.TransactionTypeSale)).
		Order("t.created_at DESC").Order("t.transaction_code DESC").
		Limit(1).
		Take(&model).Error
	if err != nil {
		return nil, translateReadError(err)
	}
	return model.ToDomain(), nil
}

// GetLinkedStatuses returns the derived type linking to each origin.
// Buyback outranks Fulfillment when both exist.
func (r *GormTransactionRepository) GetLinkedStatuses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.TransactionType, error) {
	out := make(map[uuid.UUID]ledger.TransactionType)
	if len(ids) == 0 {
		return out, nil
	}

	types := make([]string, len(ledger.LinkedStatusTypes))
	for i, t := range ledger.LinkedStatusTypes {
		types[i] = string(t)
	}

	var rows []struct {
		LinkedTransactionID uuid.UUID
		Type                string
	}
	err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("linked_transaction_id, type").
		Where("linked_transaction_id IN ? AND type IN ?", ids, types).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID][]ledger.TransactionType)
	for _, row := range rows {
		found[row.LinkedTransactionID] = append(found[row.LinkedTransactionID], ledger.TransactionType(row.Type))
	}
	for id, list := range found {
		if t, ok := ledger.PickLinkedStatus(list); ok {
			out[id] = t
		}
	}
	return out, nil
}

// FindMany lists transactions, newest first unless filter orders otherwise
func (r *GormTransactionRepository) FindMany(ctx context.Context, filter ledger.TransactionFilter) ([]ledger.Transaction, int64, error) {
	page := filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{})
	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	query = applyDateRange(query, "created_at", filter.DateRange)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TransactionModel
	err := query.
		Preload("Items", orderedItems).
		Order(transactionOrder(filter.OrderBy, filter.OrderDir)).
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toDomainTransactions(rows), total, nil
}

// FindByCustomer lists a customer's transactions newest first
func (r *GormTransactionRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, typ *ledger.TransactionType) ([]ledger.Transaction, error) {
	query := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if typ != nil {
		query = query.Where("type = ?", string(*typ))
	}
	var rows []models.TransactionModel
	err := query.
		Preload("Items", orderedItems).
		Order("created_at DESC").Order("transaction_code DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainTransactions(rows), nil
}

func applyDateRange(query *gorm.DB, column string, period shared.DateRange) *gorm.DB {
	if period.From != nil {
		query = query.Where(column+" >= ?", period.From.UTC())
	}
	if period.To != nil {
		query = query.Where(column+" < ?", period.To.UTC())
	}
	return query
}

func toDomainTransactions(rows []models.TransactionModel) []ledger.Transaction {
	out := make([]ledger.Transaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)

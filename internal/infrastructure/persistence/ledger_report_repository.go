package persistence

import (
	"context"
	"time"

	"github.com/erp/bullion/internal/domain/ledger"
	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type historyRow struct {
	ProductID       uuid.UUID
	Type            string
	TransactionID   uuid.UUID
	TransactionCode string
	CreatedAt       time.Time
	CustomerID      *uuid.UUID
	CustomerName    *string
}

// ProductHistory returns the sale, buyback and swap entries naming the
// products, plus swap returns found through rewritten sale items
func (r *GormTransactionRepository) ProductHistory(ctx context.Context, productIDs []uuid.UUID) ([]ledger.HistoryEntry, error) {
	if len(productIDs) == 0 {
		return []ledger.HistoryEntry{}, nil
	}
	db := r.db.WithContext(ctx)

	var direct []historyRow
	err := db.Table("transaction_items AS ti").
		Select("ti.product_id, t.type, t.id AS transaction_id, t.transaction_code, t.created_at, t.customer_id, c.name AS customer_name").
		Joins("JOIN transactions t ON t.id = ti.transaction_id").
		Joins("LEFT JOIN customers c ON c.id = t.customer_id").
		Where("ti.product_id IN ? AND t.type IN ?", productIDs, []string{
			string(ledger.TransactionTypeSale),
			string(ledger.TransactionTypeBuyback),
			string(ledger.TransactionTypeSwap),
		}).
		Scan(&direct).Error
	if err != nil {
		return nil, err
	}

	// original_product_id -> rewritten Sale item -> Swap linked to that Sale
	var returns []historyRow
	err = db.Table("transaction_items AS si").
		Select("si.original_product_id AS product_id, w.type, w.id AS transaction_id, w.transaction_code, w.created_at, w.customer_id, c.name AS customer_name").
		Joins("JOIN transactions s ON s.id = si.transaction_id AND s.type = ?", string(ledger.TransactionTypeSale)).
		Joins("JOIN transactions w ON w.linked_transaction_id = s.id AND w.type = ?", string(ledger.TransactionTypeSwap)).
		Joins("LEFT JOIN customers c ON c.id = w.customer_id").
		Where("si.swapped = ? AND si.original_product_id IN ?", true, productIDs).
		Scan(&returns).Error
	if err != nil {
		return nil, err
	}

	out := make([]ledger.HistoryEntry, 0, len(direct)+len(returns))
	for _, row := range direct {
		out = append(out, row.toEntry(historyKind(row.Type)))
	}
	for _, row := range returns {
		out = append(out, row.toEntry(ledger.HistorySwapReturn))
	}
	return out, nil
}

func historyKind(t string) ledger.HistoryKind {
	switch ledger.TransactionType(t) {
	case ledger.TransactionTypeBuyback:
		return ledger.HistoryBuyback
	case ledger.TransactionTypeSwap:
		return ledger.HistorySwap
	}
	return ledger.HistorySale
}

func (row historyRow) toEntry(kind ledger.HistoryKind) ledger.HistoryEntry {
	e := ledger.HistoryEntry{
		ProductID:       row.ProductID,
		Kind:            kind,
		TransactionID:   row.TransactionID,
		TransactionCode: row.TransactionCode,
		CreatedAt:       row.CreatedAt,
		CustomerID:      row.CustomerID,
	}
	if row.CustomerName != nil {
		e.CustomerName = *row.CustomerName
	}
	return e
}

// GetProductCustomerNames returns the customer name of each product's latest Sale
func (r *GormTransactionRepository) GetProductCustomerNames(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string)
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []historyRow
	err := r.db.WithContext(ctx).
		Table("transaction_items AS ti").
		Select("ti.product_id, t.transaction_code, t.created_at, c.name AS customer_name").
		Joins("JOIN transactions t ON t.id = ti.transaction_id").
		Joins("JOIN customers c ON c.id = t.customer_id").
		Where("ti.product_id IN ? AND t.type = ?", productIDs, string(ledger.TransactionTypeSale)).
		Order("t.created_at DESC").Order("t.transaction_code DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, seen := out[row.ProductID]; seen || row.CustomerName == nil {
			continue
		}
		out[row.ProductID] = *row.CustomerName
	}
	return out, nil
}

// GetProductReceivedDates returns the latest manufacturer receipt per product
func (r *GormTransactionRepository) GetProductReceivedDates(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	out := make(map[uuid.UUID]time.Time)
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []historyRow
	err := r.db.WithContext(ctx).
		Table("transaction_items AS ti").
		Select("ti.product_id, t.created_at").
		Joins("JOIN transactions t ON t.id = ti.transaction_id").
		Where("ti.product_id IN ? AND t.type = ?", productIDs, string(ledger.TransactionTypeManufacturerReceived)).
		Order("t.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, seen := out[row.ProductID]; !seen {
			out[row.ProductID] = row.CreatedAt
		}
	}
	return out, nil
}

type totalRow struct {
	ID                 uuid.UUID
	Type               string
	PaymentMethod      *string
	StoreID            uuid.UUID
	CashAmount         decimal.Decimal
	BankTransferAmount decimal.Decimal
	Total              decimal.Decimal
}

func (r *GormTransactionRepository) transactionTotals(ctx context.Context, period shared.DateRange, types []ledger.TransactionType) ([]ledger.TransactionTotal, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	query := r.db.WithContext(ctx).
		Table("transactions AS t").
		Select("t.id, t.type, t.payment_method, t.store_id, t.cash_amount, t.bank_transfer_amount, COALESCE(SUM(ti.price_at_time), 0) AS total").
		Joins("LEFT JOIN transaction_items ti ON ti.transaction_id = t.id").
		Where("t.type IN ?", names)
	query = applyDateRange(query, "t.created_at", period)

	var rows []totalRow
	err := query.
		Group("t.id, t.type, t.payment_method, t.store_id, t.cash_amount, t.bank_transfer_amount").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]ledger.TransactionTotal, len(rows))
	for i, row := range rows {
		out[i] = ledger.TransactionTotal{
			TransactionID:      row.ID,
			Type:               ledger.TransactionType(row.Type),
			StoreID:            row.StoreID,
			CashAmount:         row.CashAmount,
			BankTransferAmount: row.BankTransferAmount,
			Total:              row.Total,
		}
		if row.PaymentMethod != nil {
			out[i].PaymentMethod = ledger.PaymentMethod(*row.PaymentMethod)
		}
	}
	return out, nil
}

// GetStats aggregates Sale transactions in the period
func (r *GormTransactionRepository) GetStats(ctx context.Context, period shared.DateRange) (*ledger.Stats, error) {
	rows, err := r.transactionTotals(ctx, period, []ledger.TransactionType{ledger.TransactionTypeSale})
	if err != nil {
		return nil, err
	}
	return ledger.SummarizeStats(rows), nil
}

// GetFinancialStats aggregates money in and out in the period
func (r *GormTransactionRepository) GetFinancialStats(ctx context.Context, period shared.DateRange) (*ledger.FinancialStats, error) {
	rows, err := r.transactionTotals(ctx, period, []ledger.TransactionType{
		ledger.TransactionTypeSale,
		ledger.TransactionTypeSellBack,
		ledger.TransactionTypeBuyback,
		ledger.TransactionTypeManufacturerOrder,
	})
	if err != nil {
		return nil, err
	}
	return ledger.SummarizeFinancials(rows), nil
}

// Ensure GormTransactionRepository implements ReportRepository
var _ ledger.ReportRepository = (*GormTransactionRepository)(nil)

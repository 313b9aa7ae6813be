package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionTotal is one ledger entry reduced to the figures reports need
type TransactionTotal struct {
	TransactionID      uuid.UUID
	Type               TransactionType
	PaymentMethod      PaymentMethod
	StoreID            uuid.UUID
	CashAmount         decimal.Decimal
	BankTransferAmount decimal.Decimal
	Total              decimal.Decimal
}

// SummarizeStats aggregates the Sale entries among rows
func SummarizeStats(rows []TransactionTotal) *Stats {
	s := &Stats{
		TotalRevenue:    decimal.Zero,
		RevenueByMethod: make(map[PaymentMethod]decimal.Decimal),
		RevenueByStore:  make(map[uuid.UUID]decimal.Decimal),
	}
	for _, r := range rows {
		if r.Type != TransactionTypeSale {
			continue
		}
		s.TotalOrders++
		s.TotalRevenue = s.TotalRevenue.Add(r.Total)

		method := r.PaymentMethod
		if method == "" {
			method = PaymentCash
		}
		s.RevenueByMethod[method] = s.RevenueByMethod[method].Add(r.Total)
		s.RevenueByStore[r.StoreID] = s.RevenueByStore[r.StoreID].Add(r.Total)
	}
	return s
}

// SummarizeFinancials computes money in (sales and sell-backs, split by
// cash and bank) and money out (buybacks and manufacturer orders)
func SummarizeFinancials(rows []TransactionTotal) *FinancialStats {
	f := &FinancialStats{
		MoneyIn:     decimal.Zero,
		MoneyInCash: decimal.Zero,
		MoneyInBank: decimal.Zero,
		MoneyOut:    decimal.Zero,
		Net:         decimal.Zero,
	}
	for _, r := range rows {
		switch r.Type {
		case TransactionTypeSale, TransactionTypeSellBack:
			f.MoneyIn = f.MoneyIn.Add(r.Total)
			switch r.PaymentMethod {
			case PaymentBankTransfer:
				f.MoneyInBank = f.MoneyInBank.Add(r.Total)
			case PaymentMixed:
				f.MoneyInCash = f.MoneyInCash.Add(r.CashAmount)
				f.MoneyInBank = f.MoneyInBank.Add(r.BankTransferAmount)
			default:
				f.MoneyInCash = f.MoneyInCash.Add(r.Total)
			}
		case TransactionTypeBuyback, TransactionTypeManufacturerOrder:
			f.MoneyOut = f.MoneyOut.Add(r.Total)
		}
	}
	f.Net = f.MoneyIn.Sub(f.MoneyOut)
	return f
}

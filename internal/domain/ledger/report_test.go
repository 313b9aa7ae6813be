package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestSummarizeStats(t *testing.T) {
	storeA, storeB := uuid.New(), uuid.New()
	rows := []TransactionTotal{
		{Type: TransactionTypeSale, PaymentMethod: PaymentCash, StoreID: storeA, Total: d(100)},
		{Type: TransactionTypeSale, PaymentMethod: PaymentBankTransfer, StoreID: storeB, Total: d(300)},
		{Type: TransactionTypeSale, StoreID: storeA, Total: d(50)},
		{Type: TransactionTypeBuyback, PaymentMethod: PaymentCash, StoreID: storeA, Total: d(999)},
	}

	s := SummarizeStats(rows)
	assert.Equal(t, int64(3), s.TotalOrders)
	assert.True(t, s.TotalRevenue.Equal(d(450)))
	assert.True(t, s.RevenueByMethod[PaymentCash].Equal(d(150)))
	assert.True(t, s.RevenueByMethod[PaymentBankTransfer].Equal(d(300)))
	assert.True(t, s.RevenueByStore[storeA].Equal(d(150)))
	assert.True(t, s.RevenueByStore[storeB].Equal(d(300)))
}

func TestSummarizeFinancials(t *testing.T) {
	rows := []TransactionTotal{
		{Type: TransactionTypeSale, PaymentMethod: PaymentCash, Total: d(100)},
		{Type: TransactionTypeSale, PaymentMethod: PaymentMixed, CashAmount: d(40), BankTransferAmount: d(60), Total: d(100)},
		{Type: TransactionTypeSellBack, PaymentMethod: PaymentBankTransfer, Total: d(500)},
		{Type: TransactionTypeBuyback, PaymentMethod: PaymentCash, Total: d(80)},
		{Type: TransactionTypeManufacturerOrder, Total: d(400)},
		{Type: TransactionTypeFulfillment, Total: d(100)},
		{Type: TransactionTypeSwap, Total: d(100)},
	}

	f := SummarizeFinancials(rows)
	assert.True(t, f.MoneyIn.Equal(d(700)))
	assert.True(t, f.MoneyInCash.Equal(d(140)))
	assert.True(t, f.MoneyInBank.Equal(d(560)))
	assert.True(t, f.MoneyOut.Equal(d(480)))
	assert.True(t, f.Net.Equal(d(220)))
}

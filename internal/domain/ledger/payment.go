package ledger

import (
	"strings"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how money changed hands
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentMixed        PaymentMethod = "mixed"
)

// IsValid returns true if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentMixed:
		return true
	}
	return false
}

// ParsePaymentMethod parses a payment method, defaulting to cash when empty
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if strings.TrimSpace(s) == "" {
		return PaymentCash, nil
	}
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", shared.InvalidInputf("unknown payment method %q", s)
	}
	return m, nil
}

// PaymentSplit is the cash and bank portion of a total
type PaymentSplit struct {
	Cash decimal.Decimal
	Bank decimal.Decimal
}

// SplitPayment derives the cash/bank split of total. cash is only read for
// mixed payments and must lie within [0, total].
func SplitPayment(method PaymentMethod, total, cash decimal.Decimal) (PaymentSplit, error) {
	switch method {
	case PaymentCash:
		return PaymentSplit{Cash: total, Bank: decimal.Zero}, nil
	case PaymentBankTransfer:
		return PaymentSplit{Cash: decimal.Zero, Bank: total}, nil
	case PaymentMixed:
		if cash.IsNegative() || cash.GreaterThan(total) {
			return PaymentSplit{}, shared.InvalidInputf("cash amount %s must be between 0 and the total %s", cash, total)
		}
		return PaymentSplit{Cash: cash, Bank: total.Sub(cash)}, nil
	}
	return PaymentSplit{}, shared.InvalidInputf("unknown payment method %q", method)
}

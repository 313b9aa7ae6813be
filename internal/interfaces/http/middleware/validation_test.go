package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLine struct {
	ProductCode string          `json:"product_code" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"decimal_gte0"`
}

type testOrder struct {
	StaffID string          `json:"staff_id" binding:"required,uuid"`
	Method  string          `json:"payment_method" binding:"omitempty,oneof=CASH BANK_TRANSFER MIXED"`
	Cash    decimal.Decimal `json:"cash_amount" binding:"decimal_gte0"`
	Lines   []testLine      `json:"lines" binding:"required,min=1,dive"`
	Note    string          `json:"note" binding:"max=5"`
	Page    int             `form:"page" binding:"omitempty,max=500"`
}

func newTestValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

func validOrder() testOrder {
	return testOrder{
		StaffID: "7b4f4e52-9b7c-4c55-8a0f-2b8d1b2f0c11",
		Method:  "CASH",
		Cash:    decimal.RequireFromString("2500000"),
		Lines:   []testLine{{ProductCode: "L1-20240501-00001", Price: decimal.RequireFromString("2500000.50")}},
	}
}

func TestSetupValidator(t *testing.T) {
	require.NoError(t, SetupValidator())

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.Error(t, v.Struct(&testOrder{}))
}

func TestRegisterValidations_Valid(t *testing.T) {
	assert.NoError(t, newTestValidator().Struct(validOrder()))
}

func TestRegisterValidations_ZeroAmountsAllowed(t *testing.T) {
	o := validOrder()
	o.Cash = decimal.Zero
	o.Lines[0].Price = decimal.Decimal{}
	assert.NoError(t, newTestValidator().Struct(o))
}

func TestValidationDetails(t *testing.T) {
	o := validOrder()
	o.StaffID = ""
	o.Method = "CHEQUE"
	o.Cash = decimal.NewFromInt(-1)
	o.Lines = append(o.Lines, testLine{Price: decimal.RequireFromString("-0.01")})
	o.Note = "too long"

	err := newTestValidator().Struct(o)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	got := map[string]string{}
	for _, d := range ValidationDetails(verrs) {
		got[d.Field] = d.Message
	}
	assert.Equal(t, map[string]string{
		"staff_id":              "This field is required",
		"payment_method":        "Must be one of: CASH BANK_TRANSFER MIXED",
		"cash_amount":           "Must be a non-negative amount",
		"lines[1].product_code": "This field is required",
		"lines[1].price":        "Must be a non-negative amount",
		"note":                  "Must be at most 5 characters",
	}, got)
}

func TestValidationDetails_FormFallback(t *testing.T) {
	o := validOrder()
	o.Page = 501

	err := newTestValidator().Struct(o)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	details := ValidationDetails(verrs)
	require.Len(t, details, 1)
	assert.Equal(t, "page", details[0].Field)
	assert.Equal(t, "Must be at most 500", details[0].Message)
}

func TestValidationDetails_Messages(t *testing.T) {
	type bounds struct {
		Quantity int      `json:"quantity" binding:"min=1,max=1000"`
		IDs      []string `json:"ids" binding:"min=1"`
		StoreID  string   `json:"store_id" binding:"omitempty,uuid"`
	}

	err := newTestValidator().Struct(bounds{Quantity: 1001, StoreID: "main"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	got := map[string]string{}
	for _, d := range ValidationDetails(verrs) {
		got[d.Field] = d.Message
	}
	assert.Equal(t, "Must be at most 1000", got["quantity"])
	assert.Equal(t, "Must contain at least 1 items", got["ids"])
	assert.Equal(t, "Invalid UUID format", got["store_id"])
}

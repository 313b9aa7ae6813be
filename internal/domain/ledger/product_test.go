package ledger

import (
	"errors"
	"testing"

	"github.com/erp/bullion/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestParseProductType(t *testing.T) {
	tests := []struct {
		in   string
		want ProductType
	}{
		{"LUONG_1", ProductTypeLuong1},
		{"luong_5", ProductTypeLuong5},
		{"1 lượng", ProductTypeLuong1},
		{" 5 LƯỢNG ", ProductTypeLuong5},
		{norm.NFD.String("1 lượng"), ProductTypeLuong1},
		{"1 kg", ProductTypeKg1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProductType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseProductType("2 lượng")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestProductType_Labels(t *testing.T) {
	assert.Equal(t, "1 lượng", ProductTypeLuong1.Label())
	assert.Equal(t, "K1", ProductTypeKg1.CodePrefix())
	assert.False(t, ProductType("GRAM").IsValid())
}

func TestNewProduct(t *testing.T) {
	store := uuid.New()
	price := decimal.NewFromInt(10)

	p, err := NewProduct("L1-20260101-00001", ProductTypeLuong1, StatusSold, price, store, false)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, 1, p.Version)
	assert.True(t, p.IsPendingManufacturerOrder())

	_, err = NewProduct("", ProductTypeLuong1, StatusSold, price, store, false)
	assert.Error(t, err)
	_, err = NewProduct("X", ProductTypeLuong1, StatusOrdered, price, store, false)
	assert.Error(t, err)
	_, err = NewProduct("X", ProductTypeLuong1, StatusSold, price.Neg(), store, false)
	assert.Error(t, err)
	_, err = NewProduct("X", ProductTypeLuong1, StatusSold, price, uuid.Nil, false)
	assert.Error(t, err)
}

package catalog

import (
	"testing"

	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		product, err := NewProduct("Paracetamol 500mg", "para-500", "8901234567890", decimal.NewFromFloat(12.5))
		require.NoError(t, err)
		require.NotNil(t, product)

		assert.Equal(t, "Paracetamol 500mg", product.Name)
		assert.Equal(t, "PARA-500", product.SKU)
		assert.Equal(t, "8901234567890", product.Barcode)
		assert.True(t, product.Price.Equal(decimal.RequireFromString("12.50")))
		assert.NotEmpty(t, product.ID)
		assert.Equal(t, 1, product.GetVersion())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewProduct("  ", "SKU-1", "", decimal.Zero)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects empty SKU", func(t *testing.T) {
		_, err := NewProduct("Gauze", "", "", decimal.Zero)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewProduct("Gauze", "GZ-1", "", decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

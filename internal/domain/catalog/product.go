package catalog

import (
	"strings"

	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry referenced by stock buckets, receipts and
// distributions. Its identity never changes once created.
type Product struct {
	shared.BaseAggregateRoot
	Name    string          `gorm:"type:varchar(200);not null" json:"name"`
	SKU     string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_product_sku" json:"sku"`
	Barcode string          `gorm:"type:varchar(64);index" json:"barcode,omitempty"`
	Price   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"price"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(name, sku, barcode string, price decimal.Decimal) (*Product, error) {
	name = strings.TrimSpace(name)
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if name == "" {
		return nil, shared.NewValidationError("product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("product name cannot exceed 200 characters")
	}
	if sku == "" {
		return nil, shared.NewValidationError("product SKU cannot be empty")
	}
	if len(sku) > 64 {
		return nil, shared.NewValidationError("product SKU cannot exceed 64 characters")
	}
	if price.IsNegative() {
		return nil, shared.NewValidationError("product price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		SKU:               sku,
		Barcode:           strings.TrimSpace(barcode),
		Price:             price.Round(2),
	}, nil
}

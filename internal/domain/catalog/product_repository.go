package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// ExistsBySKU checks whether a SKU is taken
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error
}

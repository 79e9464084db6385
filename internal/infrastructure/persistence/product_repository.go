package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/catalog"
	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductRepository stores the global product catalog. Products carry
// no owner; stock for them lives in inventory buckets.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.first(ctx, "id", id)
}

// FindBySKU finds a product by its SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.first(ctx, "sku", sku)
}

// ExistsBySKU checks if a product with the given SKU exists
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("sku = ?", sku).Count(&count).Error
	return count > 0, err
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// first loads by a unique column. column is always a literal from this file.
func (r *GormProductRepository) first(ctx context.Context, column string, value any) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError("product", value)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

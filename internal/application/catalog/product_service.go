package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/catalog"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ProductNamespace is the cache namespace for product lookups
const ProductNamespace = "product"

// JSONCache is the part of the cache context the product service needs
type JSONCache interface {
	GetJSON(ctx context.Context, namespace, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, namespace, key string, value any) error
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	cache       JSONCache
}

// NewProductService creates a new ProductService. cache may be nil.
func NewProductService(productRepo catalog.ProductRepository, cache JSONCache) *ProductService {
	return &ProductService{productRepo: productRepo, cache: cache}
}

// Create registers a product. SKUs are unique.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*catalog.Product, error) {
	product, err := catalog.NewProduct(req.Name, req.SKU, req.Barcode, req.Price)
	if err != nil {
		return nil, err
	}
	exists, err := s.productRepo.ExistsBySKU(ctx, product.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Product with this SKU already exists")
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU))
	return product, nil
}

// GetByID returns a product, served from the cache when present
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	key := id.String()
	if s.cache != nil {
		var cached catalog.Product
		hit, err := s.cache.GetJSON(ctx, ProductNamespace, key, &cached)
		if err != nil {
			logger.L(ctx).Warn("product cache read failed", zap.String("product_id", key), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, ProductNamespace, key, product); err != nil {
			logger.L(ctx).Warn("product cache write failed", zap.String("product_id", key), zap.Error(err))
		}
	}
	return product, nil
}

package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/catalog"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	args := m.Called(ctx, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func newTestCache(t *testing.T) *cache.Context {
	t.Helper()
	store := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	return cache.NewContext(store, time.Minute, nil)
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates product with normalized SKU", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("ExistsBySKU", ctx, "SKU-001").Return(false, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)
		svc := NewProductService(repo, nil)

		product, err := svc.Create(ctx, CreateProductRequest{
			Name:  "Paracetamol 500mg",
			SKU:   " sku-001 ",
			Price: decimal.RequireFromString("12.345"),
		})

		require.NoError(t, err)
		assert.Equal(t, "SKU-001", product.SKU)
		assert.True(t, product.Price.Equal(decimal.RequireFromString("12.35")))
		assert.Equal(t, 1, product.Version)
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate SKU", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("ExistsBySKU", ctx, "SKU-001").Return(true, nil)
		svc := NewProductService(repo, nil)

		_, err := svc.Create(ctx, CreateProductRequest{Name: "Dup", SKU: "SKU-001"})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid input before touching the repository", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, nil)

		_, err := svc.Create(ctx, CreateProductRequest{Name: "", SKU: "SKU-002"})

		assert.ErrorIs(t, err, shared.ErrValidation)
		repo.AssertExpectations(t)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("ExistsBySKU", ctx, "SKU-003").Return(false, errors.New("db down"))
		svc := NewProductService(repo, nil)

		_, err := svc.Create(ctx, CreateProductRequest{Name: "Item", SKU: "SKU-003"})

		assert.EqualError(t, err, "db down")
	})
}

func TestProductService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is served from cache", func(t *testing.T) {
		product, err := catalog.NewProduct("Bandage", "BND-1", "", decimal.NewFromInt(3))
		require.NoError(t, err)
		repo := new(MockProductRepository)
		repo.On("FindByID", ctx, product.ID).Return(product, nil).Once()
		svc := NewProductService(repo, newTestCache(t))

		first, err := svc.GetByID(ctx, product.ID)
		require.NoError(t, err)
		second, err := svc.GetByID(ctx, product.ID)
		require.NoError(t, err)

		assert.Equal(t, first.SKU, second.SKU)
		assert.True(t, first.Price.Equal(second.Price))
		repo.AssertNumberOfCalls(t, "FindByID", 1)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		id := uuid.New()
		repo := new(MockProductRepository)
		repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound).Twice()
		svc := NewProductService(repo, newTestCache(t))

		_, err := svc.GetByID(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = svc.GetByID(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		repo.AssertExpectations(t)
	})
}

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/application/scope"
	"github.com/retailops/backend/internal/domain/distribution"
	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func TestBucketRepository_EnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewGormBucketRepository(newSQLiteDB(t))
	owner := shared.NewOwnerKey(shared.OwnerShop, uuid.New())
	productID := uuid.New()

	require.NoError(t, repo.Ensure(ctx, owner, productID))
	ok, err := repo.ApplyDelta(ctx, owner, productID, inventory.BucketDelta{Total: 5, Available: 5})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Ensure(ctx, owner, productID))

	b, err := repo.Find(ctx, owner, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.TotalStock)
	assert.Equal(t, int64(5), b.AvailableStock)
	assert.Equal(t, 2, b.Version)
}

func TestBucketRepository_ApplyDeltaGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewGormBucketRepository(newSQLiteDB(t))
	owner := shared.NewOwnerKey(shared.OwnerRetailer, uuid.New())
	productID := uuid.New()

	require.NoError(t, repo.Ensure(ctx, owner, productID))
	_, err := repo.ApplyDelta(ctx, owner, productID, inventory.BucketDelta{Total: 10, Available: 10})
	require.NoError(t, err)

	ok, err := repo.ApplyDelta(ctx, owner, productID, inventory.BucketDelta{Available: -11, Allocated: 11})
	require.NoError(t, err)
	assert.False(t, ok, "allocation beyond available must not apply")

	ok, err = repo.ApplyDelta(ctx, owner, productID, inventory.BucketDelta{Available: -6, Allocated: 6})
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := repo.Find(ctx, owner, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.TotalStock)
	assert.Equal(t, int64(4), b.AvailableStock)
	assert.Equal(t, int64(6), b.AllocatedStock)
	assert.NoError(t, b.CheckInvariant())
}

func TestBucketRepository_MissingRow(t *testing.T) {
	ctx := context.Background()
	repo := NewGormBucketRepository(newSQLiteDB(t))
	owner := shared.NewOwnerKey(shared.OwnerShop, uuid.New())

	ok, err := repo.ApplyDelta(ctx, owner, uuid.New(), inventory.BucketDelta{Total: 1, Available: 1})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Find(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBucketRepository_ListByOwnerIsScoped(t *testing.T) {
	ctx := context.Background()
	repo := NewGormBucketRepository(newSQLiteDB(t))
	mine := shared.NewOwnerKey(shared.OwnerShop, uuid.New())
	other := shared.NewOwnerKey(shared.OwnerShop, uuid.New())

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Ensure(ctx, mine, uuid.New()))
	}
	require.NoError(t, repo.Ensure(ctx, other, uuid.New()))

	f := shared.DefaultFilter()
	f.PageSize = 2
	items, total, err := repo.ListByOwner(ctx, mine, f)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 2)
	for _, b := range items {
		assert.Equal(t, mine.ID, b.OwnerID)
	}
}

func TestLotRepository_ProvenanceAndGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewGormLotRepository(newSQLiteDB(t))
	owner := shared.NewOwnerKey(shared.OwnerShop, uuid.New())
	productID := uuid.New()
	price := decimal.NewFromInt(12)
	expiry := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Ensure(ctx, inventory.NewLot(owner, productID)))
	ok, err := repo.ApplyDelta(ctx, owner, productID, inventory.LotDelta{Current: 18},
		inventory.Provenance{Supplier: "Acme", BatchNumber: "B-1", ExpiryDate: &expiry, PurchasePrice: &price})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ApplyDelta(ctx, owner, productID, inventory.LotDelta{Reserved: -1}, inventory.Provenance{})
	require.NoError(t, err)
	assert.False(t, ok)

	lot, err := repo.Find(ctx, owner, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(18), lot.CurrentStock)
	assert.Equal(t, "Acme", lot.Supplier)
	assert.Equal(t, "B-1", lot.BatchNumber)
	assert.True(t, lot.LastPurchasePrice.Equal(price))
	require.NotNil(t, lot.ExpiryDate)

	lots, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, lots, 1)
}

func TestReceiptRepository_CompleteDecisionOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReceiptRepository(newSQLiteDB(t))
	owner := shared.NewOwnerKey(shared.OwnerShop, uuid.New())

	r, err := inventory.NewStockReceipt(owner, uuid.New(), 20, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, r))

	first := *r
	verified := int64(18)
	require.NoError(t, first.Approve(uuid.New(), &verified, "two damaged"))
	require.NoError(t, repo.CompleteDecision(ctx, &first))

	second := *r
	require.NoError(t, second.Reject(uuid.New(), "late"))
	err = repo.CompleteDecision(ctx, &second)
	assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)

	stored, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReceiptApproved, stored.Status)
	require.NotNil(t, stored.VerifiedQuantity)
	assert.Equal(t, int64(18), *stored.VerifiedQuantity)

	pending := inventory.ReceiptPending
	items, total, err := repo.ListByOwner(ctx, owner, &pending, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestDistributionRepository_UpdateDeliveryIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDistributionRepository(newSQLiteDB(t))

	line, err := distribution.NewShopDistribution(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 3, decimal.NewFromInt(10), "")
	require.NoError(t, err)
	require.NoError(t, repo.CreateBatch(ctx, []*distribution.ShopDistribution{line}))

	loaded, err := repo.FindByIDForUpdate(ctx, line.ID)
	require.NoError(t, err)
	tr, err := loaded.AdvanceDelivery(distribution.DeliveryUpdate{Status: distribution.DeliveryShipped, TrackingNumber: "TRK-1"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateDelivery(ctx, loaded, tr.From))

	// a writer still holding the PENDING snapshot loses
	stale := *line
	_, err = stale.AdvanceDelivery(distribution.DeliveryUpdate{Status: distribution.DeliveryCancelled})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.UpdateDelivery(ctx, &stale, distribution.DeliveryPending), shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, distribution.DeliveryShipped, stored.DeliveryStatus)
	assert.Equal(t, "TRK-1", stored.TrackingNumber)

	shipped := distribution.DeliveryShipped
	items, total, err := repo.List(ctx, distribution.ListFilter{Filter: shared.DefaultFilter(), ShopID: &line.ShopID, DeliveryStatus: &shipped})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)
}

func TestGiftCardRepository_RedeemGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewGormGiftCardRepository(newSQLiteDB(t))
	owner := shared.NewOwnerKey(shared.OwnerShop, uuid.New())

	card, err := finance.NewGiftCardAccount(owner, "gift-50", decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, card))

	exists, err := repo.ExistsByCode(ctx, owner, card.Code)
	require.NoError(t, err)
	assert.True(t, exists)

	ok, err := repo.Redeem(ctx, card.ID, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Redeem(ctx, card.ID, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByCode(ctx, owner, card.Code)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(10)), "balance %s", stored.Balance)

	_, err = repo.FindByCode(ctx, shared.NewOwnerKey(shared.OwnerShop, uuid.New()), card.Code)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTransactionScope_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	txScope := NewGormTransactionScope(db)
	owner := shared.NewOwnerKey(shared.OwnerShop, uuid.New())
	productID := uuid.New()

	err := txScope.Execute(ctx, func(repos scope.Repositories) error {
		if err := repos.Buckets().Ensure(ctx, owner, productID); err != nil {
			return err
		}
		return shared.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	_, err = NewGormBucketRepository(db).Find(ctx, owner, productID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

package inventory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appinventory "github.com/retailops/backend/internal/application/inventory"
	"github.com/retailops/backend/internal/application/scope"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveStock(t *testing.T, f *stockFixture, p shared.Principal, qty int64) {
	t.Helper()
	ctx := context.Background()
	receipt, err := f.receipts.Submit(ctx, p, appinventory.SubmitReceiptInput{ProductID: f.productID, ReceivedQuantity: qty})
	require.NoError(t, err)
	_, err = f.receipts.Decide(ctx, p, receipt.ID, appinventory.DecideReceiptInput{Decision: inventory.DecisionApprove})
	require.NoError(t, err)
}

func TestInventoryService_AdjustKeepsBucketBalanced(t *testing.T) {
	ctx := context.Background()
	f := newStockFixture(t)
	p := shopPrincipal()
	receiveStock(t, f, p, 10)

	results, err := f.inventory.Adjust(ctx, p, []appinventory.AdjustmentLine{
		{ProductID: f.productID, Field: inventory.FieldAvailable, Delta: -3, Reason: "expired"},
		{ProductID: f.productID, Field: inventory.FieldAvailable, Delta: 1, Reason: "recount"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(10), results[0].PreviousQty)
	assert.Equal(t, int64(7), results[0].NewQty)
	assert.Equal(t, int64(8), results[1].NewQty)

	view, err := f.inventory.GetStock(ctx, p, f.productID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), view.Bucket.TotalStock)
	assertBalanced(t, &view.Bucket)
	require.NotNil(t, view.Lot)
	assert.Equal(t, int64(8), view.Lot.CurrentStock)

	removed := inventory.MovementRemove
	page, err := f.inventory.ListMovements(ctx, p, appinventory.MovementQuery{Type: &removed})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(3), page.Items[0].Quantity)
}

func TestInventoryService_AdjustRollsBackWholeBatch(t *testing.T) {
	ctx := context.Background()
	f := newStockFixture(t)
	p := shopPrincipal()
	receiveStock(t, f, p, 5)

	_, err := f.inventory.Adjust(ctx, p, []appinventory.AdjustmentLine{
		{ProductID: f.productID, Field: inventory.FieldAvailable, Delta: -2},
		{ProductID: f.productID, Field: inventory.FieldAvailable, Delta: -4},
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	view, err := f.inventory.GetStock(ctx, p, f.productID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.Bucket.AvailableStock)
	assert.Equal(t, 2, view.Bucket.Version, "only the receipt changed the bucket")
}

func TestInventoryService_AdjustRejectsInvalidLines(t *testing.T) {
	ctx := context.Background()
	f := newStockFixture(t)
	p := shopPrincipal()
	receiveStock(t, f, p, 5)

	_, err := f.inventory.Adjust(ctx, p, []appinventory.AdjustmentLine{
		{ProductID: f.productID, Field: inventory.FieldTotal, Delta: 1},
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.inventory.Adjust(ctx, p, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.inventory.Adjust(ctx, p, []appinventory.AdjustmentLine{
		{ProductID: f.productID, Field: inventory.FieldAllocated, Delta: -1},
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestInventoryService_StockIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	f := newStockFixture(t)
	owner := shopPrincipal()
	receiveStock(t, f, owner, 4)

	_, err := f.inventory.GetStock(ctx, shopPrincipal(), f.productID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	page, err := f.inventory.ListStock(ctx, owner, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(4), page.Items[0].Bucket.AvailableStock)
	require.NotNil(t, page.Items[0].Lot)
	assert.Equal(t, int64(4), page.Items[0].Lot.CurrentStock)
}

func TestInventoryService_AdjustRejectsUnknownProduct(t *testing.T) {
	ctx := context.Background()
	f := newStockFixture(t)
	p := shopPrincipal()
	unknown := uuid.New()

	_, err := f.inventory.Adjust(ctx, p, []appinventory.AdjustmentLine{
		{ProductID: f.productID, Field: inventory.FieldAvailable, Delta: 5},
		{ProductID: unknown, Field: inventory.FieldAvailable, Delta: 5},
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.buckets.Find(ctx, p.Owner(), unknown)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.buckets.Find(ctx, p.Owner(), f.productID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "the valid line must not be applied either")
	_, total, err := f.movements.List(ctx, p.Owner(), inventory.MovementFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBucketStore_SeedsMissingLotFromBucket(t *testing.T) {
	ctx := context.Background()
	f := newStockFixture(t)
	owner := shopPrincipal().Owner()

	// A bucket written without its lot: 4 available, 6 allocated.
	require.NoError(t, f.buckets.Ensure(ctx, owner, f.productID))
	ok, err := f.buckets.ApplyDelta(ctx, owner, f.productID, inventory.BucketDelta{Total: 10, Available: 4, Allocated: 6})
	require.NoError(t, err)
	require.True(t, ok)

	err = f.txScope.Execute(ctx, func(repos scope.Repositories) error {
		change, err := f.store.CommitDelivery(ctx, repos, owner, f.productID, 6, false, inventory.MovementMeta{})
		if err != nil {
			return err
		}
		assert.Equal(t, int64(6), change.PreviousQty())
		assert.Equal(t, int64(0), change.NewQty())
		return nil
	})
	require.NoError(t, err)

	lot, err := f.lots.Find(ctx, owner, f.productID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), lot.CurrentStock)
	assert.Equal(t, int64(0), lot.ReservedStock)
}

func TestBucketStore_EveryMutationWritesBothViews(t *testing.T) {
	ctx := context.Background()
	f := newStockFixture(t)
	owner := shopPrincipal().Owner()

	err := f.txScope.Execute(ctx, func(repos scope.Repositories) error {
		if _, err := f.store.Adjust(ctx, repos, owner, f.productID, inventory.FieldAvailable, 10, inventory.MovementMeta{}); err != nil {
			return err
		}
		_, err := f.store.Allocate(ctx, repos, owner, f.productID, 4, inventory.MovementMeta{})
		return err
	})
	require.NoError(t, err)

	lot, err := f.lots.Find(ctx, owner, f.productID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), lot.CurrentStock)
	assert.Equal(t, int64(4), lot.ReservedStock)
	b, err := f.buckets.Find(ctx, owner, f.productID)
	require.NoError(t, err)
	assertBalanced(t, b)
	assert.Equal(t, int64(4), b.AllocatedStock)
}

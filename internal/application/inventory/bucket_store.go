package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/application/scope"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockChange is the committed outcome of one mutation
type StockChange struct {
	Owner     shared.OwnerKey
	ProductID uuid.UUID
	Movement  *inventory.Movement
	Bucket    *inventory.Bucket
	Lot       *inventory.Lot
}

// PreviousQty returns the tracked counter before the change
func (c *StockChange) PreviousQty() int64 {
	if c == nil || c.Movement == nil {
		return 0
	}
	return c.Movement.PreviousQty
}

// NewQty returns the tracked counter after the change
func (c *StockChange) NewQty() int64 {
	if c == nil || c.Movement == nil {
		return 0
	}
	return c.Movement.NewQty
}

// BucketStore is the single write path for stock counters. Every operation
// runs inside the caller's transaction and funnels into apply, which changes
// the aggregate bucket and the lot together and appends exactly one movement.
type BucketStore struct {
	metrics *telemetry.SettlementMetrics
}

// NewBucketStore creates a BucketStore. metrics may be nil.
func NewBucketStore(metrics *telemetry.SettlementMetrics) *BucketStore {
	return &BucketStore{metrics: metrics}
}

// Receive books approved incoming stock
func (s *BucketStore) Receive(ctx context.Context, repos scope.Repositories, owner shared.OwnerKey, productID uuid.UUID,
	qty int64, prov inventory.Provenance, meta inventory.MovementMeta) (*StockChange, error) {
	return s.apply(ctx, repos, inventory.Receive(owner, productID, qty, prov, meta))
}

// Adjust changes AVAILABLE or ALLOCATED by a signed delta; TOTAL follows
func (s *BucketStore) Adjust(ctx context.Context, repos scope.Repositories, owner shared.OwnerKey, productID uuid.UUID,
	field inventory.BucketField, delta int64, meta inventory.MovementMeta) (*StockChange, error) {
	m, err := inventory.Adjust(owner, productID, field, delta, meta)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, repos, m)
}

// Transfer moves qty between AVAILABLE and ALLOCATED
func (s *BucketStore) Transfer(ctx context.Context, repos scope.Repositories, owner shared.OwnerKey, productID uuid.UUID,
	from, to inventory.BucketField, qty int64, meta inventory.MovementMeta) (*StockChange, error) {
	m, err := inventory.Transfer(owner, productID, from, to, qty, meta)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, repos, m)
}

// Allocate reserves available stock
func (s *BucketStore) Allocate(ctx context.Context, repos scope.Repositories, owner shared.OwnerKey, productID uuid.UUID,
	qty int64, meta inventory.MovementMeta) (*StockChange, error) {
	return s.apply(ctx, repos, inventory.Allocate(owner, productID, qty, meta))
}

// Release returns allocated stock to available
func (s *BucketStore) Release(ctx context.Context, repos scope.Repositories, owner shared.OwnerKey, productID uuid.UUID,
	qty int64, wasInTransit bool, meta inventory.MovementMeta) (*StockChange, error) {
	return s.apply(ctx, repos, inventory.Release(owner, productID, qty, wasInTransit, meta))
}

// MarkInTransit moves reserved lot stock into transit
func (s *BucketStore) MarkInTransit(ctx context.Context, repos scope.Repositories, owner shared.OwnerKey, productID uuid.UUID,
	qty int64, meta inventory.MovementMeta) (*StockChange, error) {
	return s.apply(ctx, repos, inventory.MarkInTransit(owner, productID, qty, meta))
}

// CommitDelivery settles reserved lot stock after delivery
func (s *BucketStore) CommitDelivery(ctx context.Context, repos scope.Repositories, owner shared.OwnerKey, productID uuid.UUID,
	qty int64, wasInTransit bool, meta inventory.MovementMeta) (*StockChange, error) {
	return s.apply(ctx, repos, inventory.CommitDelivery(owner, productID, qty, wasInTransit, meta))
}

func (s *BucketStore) apply(ctx context.Context, repos scope.Repositories, m inventory.Mutation) (*StockChange, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	buckets, lots := repos.Buckets(), repos.Lots()
	change := &StockChange{Owner: m.Owner, ProductID: m.ProductID}

	if m.Bucket.Grows() {
		if err := buckets.Ensure(ctx, m.Owner, m.ProductID); err != nil {
			return nil, err
		}
	}
	// The lot is seeded from the bucket as it stands before this mutation,
	// so it must exist before the bucket delta lands.
	if err := s.ensureLot(ctx, repos, m.Owner, m.ProductID); err != nil {
		return nil, err
	}

	if !m.LotOnly() {
		ok, err := buckets.ApplyDelta(ctx, m.Owner, m.ProductID, m.Bucket)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.metrics.RecordStockConflict(ctx, m.Type.String())
			return nil, shared.NewInsufficientStockError(m.ProductID, m.Quantity)
		}
	}
	ok, err := lots.ApplyDelta(ctx, m.Owner, m.ProductID, m.Lot, m.Provenance)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.RecordStockConflict(ctx, m.Type.String())
		return nil, shared.NewInsufficientStockError(m.ProductID, m.Quantity)
	}

	// Values are read back inside the transaction so they reflect the row
	// as it will be committed, not as it looked before the update.
	if !m.LotOnly() {
		if change.Bucket, err = buckets.Find(ctx, m.Owner, m.ProductID); err != nil {
			return nil, err
		}
	}
	if change.Lot, err = lots.Find(ctx, m.Owner, m.ProductID); err != nil {
		return nil, err
	}

	var next, delta int64
	if m.TrackBucket != "" {
		next, delta = change.Bucket.Value(m.TrackBucket), m.Bucket.Of(m.TrackBucket)
	} else {
		next, delta = change.Lot.Value(m.TrackLot), m.Lot.Of(m.TrackLot)
	}
	mv, err := inventory.NewMovement(m.Owner, m.ProductID, m.Type, m.Counter(), m.Quantity, next-delta, next, m.Meta)
	if err != nil {
		return nil, err
	}
	if err := repos.Movements().Append(ctx, mv); err != nil {
		return nil, err
	}
	change.Movement = mv
	s.metrics.RecordStockMovement(ctx, m.Type.String(), m.Quantity)
	return change, nil
}

// ensureLot creates the lot for the key on first touch, seeded from the
// aggregate bucket when one exists.
func (s *BucketStore) ensureLot(ctx context.Context, repos scope.Repositories, owner shared.OwnerKey, productID uuid.UUID) error {
	_, err := repos.Lots().Find(ctx, owner, productID)
	if err == nil || !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	bucket, err := repos.Buckets().Find(ctx, owner, productID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if err := repos.Lots().Ensure(ctx, inventory.SeedLot(owner, productID, bucket)); err != nil {
		return err
	}
	logger.L(ctx).Debug("inventory lot created",
		zap.String("owner", owner.String()),
		zap.String("product_id", productID.String()))
	return nil
}

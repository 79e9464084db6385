package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBucketRepository implements inventory.BucketRepository
type GormBucketRepository struct {
	db *gorm.DB
}

// NewGormBucketRepository creates a new GormBucketRepository
func NewGormBucketRepository(db *gorm.DB) *GormBucketRepository {
	return &GormBucketRepository{db: db}
}

func ownerProductScope(owner shared.OwnerKey, productID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_kind = ? AND owner_id = ? AND product_id = ?", owner.Kind, owner.ID, productID)
	}
}

// Ensure inserts a zero bucket, leaving an existing one untouched
func (r *GormBucketRepository) Ensure(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID) error {
	bucket, err := inventory.NewBucket(owner, productID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(bucket).Error
}

// ApplyDelta issues one guarded UPDATE. Every counter the delta decreases
// carries a "col + delta >= 0" predicate, so a concurrent writer can never
// drive it negative.
func (r *GormBucketRepository) ApplyDelta(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID, d inventory.BucketDelta) (bool, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Bucket{}).Scopes(ownerProductScope(owner, productID))
	updates := map[string]any{
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	for _, f := range []inventory.BucketField{inventory.FieldTotal, inventory.FieldAvailable, inventory.FieldAllocated} {
		delta := d.Of(f)
		if delta == 0 {
			continue
		}
		col := f.Column()
		updates[col] = gorm.Expr(col+" + ?", delta)
		if delta < 0 {
			query = query.Where(col+" + ? >= 0", delta)
		}
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Find returns the bucket for the key
func (r *GormBucketRepository) Find(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID) (*inventory.Bucket, error) {
	var bucket inventory.Bucket
	if err := r.db.WithContext(ctx).Scopes(ownerProductScope(owner, productID)).First(&bucket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("inventory bucket for product", productID)
		}
		return nil, err
	}
	return &bucket, nil
}

// ListByOwner returns one page of the owner's buckets and the total count
func (r *GormBucketRepository) ListByOwner(ctx context.Context, owner shared.OwnerKey, filter shared.Filter) ([]inventory.Bucket, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Bucket{}).
		Where("owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var buckets []inventory.Bucket
	if err := paginate(query, filter, BucketSortFields).Find(&buckets).Error; err != nil {
		return nil, 0, err
	}
	return buckets, total, nil
}

var _ inventory.BucketRepository = (*GormBucketRepository)(nil)

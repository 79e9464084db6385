package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// BucketField names one of the aggregate counters of a Bucket
type BucketField string

const (
	FieldTotal     BucketField = "TOTAL"
	FieldAvailable BucketField = "AVAILABLE"
	FieldAllocated BucketField = "ALLOCATED"
)

// String returns the string representation of BucketField
func (f BucketField) String() string {
	return string(f)
}

// IsValid returns true if the field is one of the aggregate counters
func (f BucketField) IsValid() bool {
	switch f {
	case FieldTotal, FieldAvailable, FieldAllocated:
		return true
	}
	return false
}

// Column returns the database column backing the field
func (f BucketField) Column() string {
	switch f {
	case FieldTotal:
		return "total_stock"
	case FieldAvailable:
		return "available_stock"
	case FieldAllocated:
		return "allocated_stock"
	}
	return ""
}

// Bucket holds the aggregate stock counters of one owner for one product.
// AvailableStock + AllocatedStock == TotalStock at all times.
type Bucket struct {
	shared.BaseAggregateRoot
	OwnerKind      shared.OwnerKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_bucket_owner_product,priority:1" json:"ownerKind"`
	OwnerID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_bucket_owner_product,priority:2" json:"ownerId"`
	ProductID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_bucket_owner_product,priority:3" json:"productId"`
	TotalStock     int64            `gorm:"not null;default:0" json:"totalStock"`
	AvailableStock int64            `gorm:"not null;default:0" json:"availableStock"`
	AllocatedStock int64            `gorm:"not null;default:0" json:"allocatedStock"`
}

// TableName returns the table name for GORM
func (Bucket) TableName() string {
	return "inventory_buckets"
}

// NewBucket creates an empty bucket for an owner-product pair
func NewBucket(owner shared.OwnerKey, productID uuid.UUID) (*Bucket, error) {
	if !owner.Kind.IsValid() || owner.ID == uuid.Nil {
		return nil, shared.NewValidationError("invalid owner %s", owner)
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product ID cannot be empty")
	}
	return &Bucket{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerKind:         owner.Kind,
		OwnerID:           owner.ID,
		ProductID:         productID,
	}, nil
}

// Owner returns the owner key of the bucket
func (b *Bucket) Owner() shared.OwnerKey {
	return shared.NewOwnerKey(b.OwnerKind, b.OwnerID)
}

// Value returns the current value of a counter
func (b *Bucket) Value(f BucketField) int64 {
	switch f {
	case FieldTotal:
		return b.TotalStock
	case FieldAvailable:
		return b.AvailableStock
	case FieldAllocated:
		return b.AllocatedStock
	}
	return 0
}

// CheckInvariant verifies the aggregate counters are consistent
func (b *Bucket) CheckInvariant() error {
	if b.AvailableStock < 0 || b.AllocatedStock < 0 || b.TotalStock < 0 {
		return fmt.Errorf("bucket %s/%s has negative counters", b.Owner(), b.ProductID)
	}
	if b.AvailableStock+b.AllocatedStock != b.TotalStock {
		return fmt.Errorf("bucket %s/%s: available %d + allocated %d != total %d",
			b.Owner(), b.ProductID, b.AvailableStock, b.AllocatedStock, b.TotalStock)
	}
	return nil
}

// BucketDelta is a signed change applied to the aggregate counters in one step
type BucketDelta struct {
	Total     int64
	Available int64
	Allocated int64
}

// IsZero reports whether the delta changes nothing
func (d BucketDelta) IsZero() bool {
	return d.Total == 0 && d.Available == 0 && d.Allocated == 0
}

// Validate rejects deltas that would break available + allocated == total
func (d BucketDelta) Validate() error {
	if d.Available+d.Allocated != d.Total {
		return shared.NewValidationError(
			"bucket delta must keep available + allocated == total (total %+d, available %+d, allocated %+d)",
			d.Total, d.Available, d.Allocated)
	}
	return nil
}

// Grows reports whether no counter decreases
func (d BucketDelta) Grows() bool {
	return d.Total >= 0 && d.Available >= 0 && d.Allocated >= 0
}

// Of returns the component of the delta for a field
func (d BucketDelta) Of(f BucketField) int64 {
	switch f {
	case FieldTotal:
		return d.Total
	case FieldAvailable:
		return d.Available
	case FieldAllocated:
		return d.Allocated
	}
	return 0
}

// Apply applies the delta in memory. It fails without modifying the bucket
// when any counter would go negative.
func (b *Bucket) Apply(d BucketDelta) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if b.TotalStock+d.Total < 0 || b.AvailableStock+d.Available < 0 || b.AllocatedStock+d.Allocated < 0 {
		requested := -d.Available
		if requested <= 0 {
			requested = -d.Allocated
		}
		return shared.NewInsufficientStockError(b.ProductID, requested)
	}
	b.TotalStock += d.Total
	b.AvailableStock += d.Available
	b.AllocatedStock += d.Allocated
	b.IncrementVersion()
	return nil
}

package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// BucketRepository persists aggregate stock counters.
//
// Counters are only ever changed through ApplyDelta, a single conditional
// UPDATE; there is no Save path for counter values.
type BucketRepository interface {
	// Ensure creates a zero bucket for the key when none exists
	Ensure(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID) error

	// ApplyDelta adds d to the counters only if no counter would go negative.
	// It returns false when no row was changed (row missing or guard failed).
	ApplyDelta(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID, d BucketDelta) (bool, error)

	// Find returns the bucket for the key, NotFound when absent
	Find(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID) (*Bucket, error)

	// ListByOwner returns the owner's buckets
	ListByOwner(ctx context.Context, owner shared.OwnerKey, filter shared.Filter) ([]Bucket, int64, error)
}

// LotRepository persists batch-level stock records
type LotRepository interface {
	// Ensure inserts lot when no row exists for its key. An existing row is
	// left untouched.
	Ensure(ctx context.Context, lot *Lot) error

	// ApplyDelta adds d to the lot counters only if none would go negative and
	// records any provenance fields that are set. Returns false when no row changed.
	ApplyDelta(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID, d LotDelta, prov Provenance) (bool, error)

	// Find returns the lot for the key, NotFound when absent
	Find(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID) (*Lot, error)

	// ListByOwner returns all lots of the owner
	ListByOwner(ctx context.Context, owner shared.OwnerKey) ([]Lot, error)
}

// MovementFilter narrows a movement listing
type MovementFilter struct {
	shared.Filter
	ProductID *uuid.UUID
	Type      *MovementType
}

// MovementRepository is the append-only audit store
type MovementRepository interface {
	Append(ctx context.Context, m *Movement) error
	List(ctx context.Context, owner shared.OwnerKey, filter MovementFilter) ([]Movement, int64, error)
}

// ReceiptRepository persists stock receipts
type ReceiptRepository interface {
	Create(ctx context.Context, r *StockReceipt) error

	// FindByID returns the receipt, NotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*StockReceipt, error)

	// ListByOwner lists the owner's receipts, optionally filtered by status
	ListByOwner(ctx context.Context, owner shared.OwnerKey, status *ReceiptStatus, filter shared.Filter) ([]StockReceipt, int64, error)

	// CompleteDecision writes the decided fields only while the stored row is
	// still PENDING. A concurrent decision makes it fail with AlreadyProcessed.
	CompleteDecision(ctx context.Context, r *StockReceipt) error
}

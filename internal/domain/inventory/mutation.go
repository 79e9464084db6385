package inventory

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// Mutation is one atomic change to an owner's stock of one product: the
// aggregate delta, the lot delta and the movement that records it.
// Both views are changed together or not at all.
type Mutation struct {
	Owner     shared.OwnerKey
	ProductID uuid.UUID
	Quantity  int64

	Bucket BucketDelta
	Lot    LotDelta

	Provenance Provenance

	Type MovementType
	// Exactly one of TrackBucket and TrackLot names the counter whose
	// before/after values are recorded on the movement.
	TrackBucket BucketField
	TrackLot    LotField
	Meta        MovementMeta
}

// Validate checks the mutation is well formed before anything is written
func (m Mutation) Validate() error {
	if m.Quantity <= 0 {
		return shared.NewValidationError("quantity must be greater than zero")
	}
	if !m.Owner.Kind.IsValid() || m.Owner.ID == uuid.Nil {
		return shared.NewValidationError("invalid owner %s", m.Owner)
	}
	if m.ProductID == uuid.Nil {
		return shared.NewValidationError("product ID is required")
	}
	if err := m.Bucket.Validate(); err != nil {
		return err
	}
	if m.Bucket.IsZero() && m.Lot.IsZero() {
		return shared.NewValidationError("mutation changes no counter")
	}
	if (m.TrackBucket == "") == (m.TrackLot == "") {
		return shared.NewValidationError("mutation must track exactly one counter")
	}
	return nil
}

// LotOnly reports whether the mutation leaves the aggregate counters untouched
func (m Mutation) LotOnly() bool {
	return m.Bucket.IsZero()
}

// Counter returns the name of the tracked counter
func (m Mutation) Counter() string {
	if m.TrackBucket != "" {
		return string(m.TrackBucket)
	}
	return string(m.TrackLot)
}

// Receive adds approved incoming stock: total and available grow by qty and
// the lot's current stock grows with it.
func Receive(owner shared.OwnerKey, productID uuid.UUID, qty int64, prov Provenance, meta MovementMeta) Mutation {
	return Mutation{
		Owner:       owner,
		ProductID:   productID,
		Quantity:    qty,
		Bucket:      BucketDelta{Total: qty, Available: qty},
		Lot:         LotDelta{Current: qty},
		Provenance:  prov,
		Type:        MovementStockIn,
		TrackBucket: FieldAvailable,
		Meta:        meta,
	}
}

// Adjust changes one usable counter by a signed delta. TOTAL moves with it so
// the aggregate stays balanced; adjusting TOTAL alone is rejected.
func Adjust(owner shared.OwnerKey, productID uuid.UUID, field BucketField, delta int64, meta MovementMeta) (Mutation, error) {
	if field != FieldAvailable && field != FieldAllocated {
		return Mutation{}, shared.NewValidationError("adjustment field must be AVAILABLE or ALLOCATED, got %q", field)
	}
	if delta == 0 {
		return Mutation{}, shared.NewValidationError("adjustment delta cannot be zero")
	}
	bd := BucketDelta{Total: delta}
	if field == FieldAvailable {
		bd.Available = delta
	} else {
		bd.Allocated = delta
	}
	t, qty := MovementAdd, delta
	if delta < 0 {
		t, qty = MovementRemove, -delta
	}
	return Mutation{
		Owner:       owner,
		ProductID:   productID,
		Quantity:    qty,
		Bucket:      bd,
		Lot:         LotDelta{Current: delta},
		Type:        t,
		TrackBucket: field,
		Meta:        meta,
	}, nil
}

// Transfer moves qty between the usable counters. The lot's reserved stock
// follows the allocated side.
func Transfer(owner shared.OwnerKey, productID uuid.UUID, from, to BucketField, qty int64, meta MovementMeta) (Mutation, error) {
	var bd BucketDelta
	var ld LotDelta
	switch {
	case from == FieldAvailable && to == FieldAllocated:
		bd = BucketDelta{Available: -qty, Allocated: qty}
		ld = LotDelta{Reserved: qty}
	case from == FieldAllocated && to == FieldAvailable:
		bd = BucketDelta{Available: qty, Allocated: -qty}
		ld = LotDelta{Reserved: -qty}
	default:
		return Mutation{}, shared.NewValidationError("cannot transfer from %s to %s", from, to)
	}
	t := MovementAdd
	if from == FieldAvailable {
		t = MovementRemove
	}
	return Mutation{
		Owner:       owner,
		ProductID:   productID,
		Quantity:    qty,
		Bucket:      bd,
		Lot:         ld,
		Type:        t,
		TrackBucket: FieldAvailable,
		Meta:        meta,
	}, nil
}

// Allocate reserves qty of available stock
func Allocate(owner shared.OwnerKey, productID uuid.UUID, qty int64, meta MovementMeta) Mutation {
	m, _ := Transfer(owner, productID, FieldAvailable, FieldAllocated, qty, meta)
	return m
}

// Release returns allocated stock to available. Stock that had left for the
// shop is also taken off the lot's in-transit counter.
func Release(owner shared.OwnerKey, productID uuid.UUID, qty int64, wasInTransit bool, meta MovementMeta) Mutation {
	m, _ := Transfer(owner, productID, FieldAllocated, FieldAvailable, qty, meta)
	if wasInTransit {
		m.Lot.InTransit = -qty
	}
	return m
}

// MarkInTransit records reserved stock leaving the owner's premises
func MarkInTransit(owner shared.OwnerKey, productID uuid.UUID, qty int64, meta MovementMeta) Mutation {
	return Mutation{
		Owner:     owner,
		ProductID: productID,
		Quantity:  qty,
		Lot:       LotDelta{InTransit: qty},
		Type:      MovementTransit,
		TrackLot:  LotInTransit,
		Meta:      meta,
	}
}

// CommitDelivery settles reserved stock once the shop has it. The aggregate
// allocated counter already reflects the sale and is left alone.
func CommitDelivery(owner shared.OwnerKey, productID uuid.UUID, qty int64, wasInTransit bool, meta MovementMeta) Mutation {
	ld := LotDelta{Reserved: -qty}
	if wasInTransit {
		ld.InTransit = -qty
	}
	return Mutation{
		Owner:     owner,
		ProductID: productID,
		Quantity:  qty,
		Lot:       ld,
		Type:      MovementDeliver,
		TrackLot:  LotReserved,
		Meta:      meta,
	}
}

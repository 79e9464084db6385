package inventory

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// MovementType represents the kind of stock mutation recorded in the audit trail
type MovementType string

const (
	// MovementStockIn records approved incoming stock
	MovementStockIn MovementType = "STOCK_IN"
	// MovementAdd records an increase of a usable counter
	MovementAdd MovementType = "ADD"
	// MovementRemove records a decrease of a usable counter
	MovementRemove MovementType = "REMOVE"
	// MovementTransit records stock leaving for a shop
	MovementTransit MovementType = "TRANSIT"
	// MovementDeliver records stock handed over to a shop
	MovementDeliver MovementType = "DELIVER"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementStockIn,
		MovementAdd,
		MovementRemove,
		MovementTransit,
		MovementDeliver:
		return true
	}
	return false
}

// Movement is an immutable audit record of one stock mutation. PreviousQty
// and NewQty describe the counter named by Counter as read inside the
// committing transaction.
type Movement struct {
	shared.AppendOnlyEntity
	OwnerKind      shared.OwnerKind `gorm:"type:varchar(20);not null;index:idx_movement_owner,priority:1" json:"ownerKind"`
	OwnerID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_movement_owner,priority:2" json:"ownerId"`
	ProductID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"productId"`
	Type           MovementType     `gorm:"type:varchar(20);not null" json:"type"`
	Counter        string           `gorm:"type:varchar(20);not null" json:"counter"`
	Quantity       int64            `gorm:"not null" json:"quantity"`
	PreviousQty    int64            `gorm:"not null" json:"previousQty"`
	NewQty         int64            `gorm:"not null" json:"newQty"`
	ActorID        uuid.UUID        `gorm:"type:uuid;not null" json:"actorId"`
	ReceiptID      *uuid.UUID       `gorm:"type:uuid;index" json:"receiptId,omitempty"`
	DistributionID *uuid.UUID       `gorm:"type:uuid;index" json:"distributionId,omitempty"`
	Reason         string           `gorm:"type:varchar(255)" json:"reason,omitempty"`
}

// TableName returns the table name for GORM
func (Movement) TableName() string {
	return "stock_movements"
}

// MovementMeta is the caller-supplied context recorded on a movement
type MovementMeta struct {
	ActorID        uuid.UUID
	ReceiptID      *uuid.UUID
	DistributionID *uuid.UUID
	Reason         string
}

// NewMovement creates a movement record
func NewMovement(owner shared.OwnerKey, productID uuid.UUID, t MovementType, counter string,
	quantity, previous, next int64, meta MovementMeta) (*Movement, error) {
	if !t.IsValid() {
		return nil, shared.NewValidationError("invalid movement type %q", t)
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("movement quantity must be positive")
	}
	return &Movement{
		AppendOnlyEntity: shared.NewAppendOnlyEntity(),
		OwnerKind:        owner.Kind,
		OwnerID:          owner.ID,
		ProductID:        productID,
		Type:             t,
		Counter:          counter,
		Quantity:         quantity,
		PreviousQty:      previous,
		NewQty:           next,
		ActorID:          meta.ActorID,
		ReceiptID:        meta.ReceiptID,
		DistributionID:   meta.DistributionID,
		Reason:           meta.Reason,
	}, nil
}

package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SubmitReceiptInput is the operator's claim of incoming stock
type SubmitReceiptInput struct {
	ProductID        uuid.UUID
	ReceivedQuantity int64
	SupplierName     string
	BatchNumber      string
	ExpiryDate       *time.Time
}

// DecideReceiptInput is the approver's verdict
type DecideReceiptInput struct {
	Decision          inventory.Decision
	VerifiedQuantity  *int64
	DiscrepancyReason string
	// PurchasePrice is recorded on the lot when set
	PurchasePrice *decimal.Decimal
}

// InventoryDelta describes how an approval changed the owner's bucket
type InventoryDelta struct {
	ProductID         uuid.UUID `json:"productId"`
	Quantity          int64     `json:"quantity"`
	PreviousTotal     int64     `json:"previousTotal"`
	NewTotal          int64     `json:"newTotal"`
	PreviousAvailable int64     `json:"previousAvailable"`
	NewAvailable      int64     `json:"newAvailable"`
}

// DecisionResult is the decided receipt plus its stock effect (nil on reject)
type DecisionResult struct {
	Receipt *inventory.StockReceipt `json:"receipt"`
	Delta   *InventoryDelta         `json:"inventoryDelta,omitempty"`
}

// AdjustmentLine is one line of a bulk stock adjustment
type AdjustmentLine struct {
	ProductID uuid.UUID
	Field     inventory.BucketField
	Delta     int64
	Reason    string
}

// AdjustmentResult reports the committed value of one adjusted line
type AdjustmentResult struct {
	ProductID   uuid.UUID             `json:"productId"`
	Field       inventory.BucketField `json:"field"`
	Delta       int64                 `json:"delta"`
	PreviousQty int64                 `json:"previousQty"`
	NewQty      int64                 `json:"newQty"`
	MovementID  uuid.UUID             `json:"movementId"`
}

// StockView is an owner's aggregate bucket together with its lot
type StockView struct {
	Bucket inventory.Bucket `json:"bucket"`
	Lot    *inventory.Lot   `json:"lot,omitempty"`
}

// MovementQuery narrows the movement audit listing
type MovementQuery struct {
	ProductID *uuid.UUID
	Type      *inventory.MovementType
	Page      int
	PageSize  int
}

func (q MovementQuery) filter() shared.Filter {
	f := shared.DefaultFilter()
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	return f
}

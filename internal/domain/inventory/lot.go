package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LotField names one of the counters of a Lot
type LotField string

const (
	LotCurrent   LotField = "CURRENT"
	LotReserved  LotField = "RESERVED"
	LotInTransit LotField = "IN_TRANSIT"
)

// Column returns the database column backing the field
func (f LotField) Column() string {
	switch f {
	case LotCurrent:
		return "current_stock"
	case LotReserved:
		return "reserved_stock"
	case LotInTransit:
		return "in_transit_stock"
	}
	return ""
}

// Lot is the batch-level view of an owner's stock of one product. It shares
// the owner-product key with Bucket and is mutated in the same unit of work.
type Lot struct {
	shared.BaseAggregateRoot
	OwnerKind         shared.OwnerKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_lot_owner_product,priority:1" json:"ownerKind"`
	OwnerID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_lot_owner_product,priority:2" json:"ownerId"`
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_lot_owner_product,priority:3" json:"productId"`
	CurrentStock      int64            `gorm:"not null;default:0" json:"currentStock"`
	ReservedStock     int64            `gorm:"not null;default:0" json:"reservedStock"`
	InTransitStock    int64            `gorm:"not null;default:0" json:"inTransitStock"`
	Supplier          string           `gorm:"type:varchar(200)" json:"supplier,omitempty"`
	BatchNumber       string           `gorm:"type:varchar(100)" json:"batchNumber,omitempty"`
	ExpiryDate        *time.Time       `json:"expiryDate,omitempty"`
	LastPurchasePrice decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0" json:"lastPurchasePrice"`
}

// TableName returns the table name for GORM
func (Lot) TableName() string {
	return "inventory_lots"
}

// NewLot creates an empty lot for an owner-product pair
func NewLot(owner shared.OwnerKey, productID uuid.UUID) *Lot {
	return &Lot{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerKind:         owner.Kind,
		OwnerID:           owner.ID,
		ProductID:         productID,
		LastPurchasePrice: decimal.Zero,
	}
}

// SeedLot builds the lot for a key that has none yet, starting from the
// aggregate so both views agree from the first write: current stock is the
// bucket total and reserved stock is the bucket's allocated stock. b may be nil.
func SeedLot(owner shared.OwnerKey, productID uuid.UUID, b *Bucket) *Lot {
	lot := NewLot(owner, productID)
	if b != nil {
		lot.CurrentStock = b.TotalStock
		lot.ReservedStock = b.AllocatedStock
	}
	return lot
}

// Owner returns the owner key of the lot
func (l *Lot) Owner() shared.OwnerKey {
	return shared.NewOwnerKey(l.OwnerKind, l.OwnerID)
}

// Value returns the current value of a counter
func (l *Lot) Value(f LotField) int64 {
	switch f {
	case LotCurrent:
		return l.CurrentStock
	case LotReserved:
		return l.ReservedStock
	case LotInTransit:
		return l.InTransitStock
	}
	return 0
}

// LotDelta is a signed change applied to the lot counters in one step
type LotDelta struct {
	Current   int64
	Reserved  int64
	InTransit int64
}

// IsZero reports whether the delta changes nothing
func (d LotDelta) IsZero() bool {
	return d.Current == 0 && d.Reserved == 0 && d.InTransit == 0
}

// Of returns the component of the delta for a field
func (d LotDelta) Of(f LotField) int64 {
	switch f {
	case LotCurrent:
		return d.Current
	case LotReserved:
		return d.Reserved
	case LotInTransit:
		return d.InTransit
	}
	return 0
}

// Apply applies the delta in memory, failing when a counter would go negative
func (l *Lot) Apply(d LotDelta) error {
	if l.CurrentStock+d.Current < 0 || l.ReservedStock+d.Reserved < 0 || l.InTransitStock+d.InTransit < 0 {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			"lot counters for product "+l.ProductID.String()+" cannot go negative")
	}
	l.CurrentStock += d.Current
	l.ReservedStock += d.Reserved
	l.InTransitStock += d.InTransit
	l.IncrementVersion()
	return nil
}

// Provenance carries traceability data recorded on a lot when stock arrives
type Provenance struct {
	Supplier      string
	BatchNumber   string
	ExpiryDate    *time.Time
	PurchasePrice *decimal.Decimal
}

// IsEmpty reports whether no provenance field is set
func (p Provenance) IsEmpty() bool {
	return strings.TrimSpace(p.Supplier) == "" && strings.TrimSpace(p.BatchNumber) == "" &&
		p.ExpiryDate == nil && p.PurchasePrice == nil
}

// Updates returns the column updates for the provenance fields that are set
func (p Provenance) Updates() map[string]any {
	updates := make(map[string]any)
	if s := strings.TrimSpace(p.Supplier); s != "" {
		updates["supplier"] = s
	}
	if b := strings.TrimSpace(p.BatchNumber); b != "" {
		updates["batch_number"] = b
	}
	if p.ExpiryDate != nil {
		updates["expiry_date"] = *p.ExpiryDate
	}
	if p.PurchasePrice != nil {
		updates["last_purchase_price"] = p.PurchasePrice.Round(2)
	}
	return updates
}

package distribution

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DeliveryStatus represents where a distributed line is on its way to the shop
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryShipped   DeliveryStatus = "SHIPPED"
	DeliveryInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
)

// IsValid checks if the status is a valid DeliveryStatus
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryPending, DeliveryShipped, DeliveryInTransit, DeliveryDelivered, DeliveryCancelled:
		return true
	}
	return false
}

// String returns the string representation of DeliveryStatus
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsTerminal returns true for DELIVERED and CANCELLED
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled
}

// CanTransitionTo checks if the status can transition to the target status.
// DELIVERED -> DELIVERED is allowed and has no effect.
func (s DeliveryStatus) CanTransitionTo(target DeliveryStatus) bool {
	switch s {
	case DeliveryPending:
		return target == DeliveryShipped || target == DeliveryDelivered || target == DeliveryCancelled
	case DeliveryShipped:
		return target == DeliveryInTransit || target == DeliveryDelivered || target == DeliveryCancelled
	case DeliveryInTransit:
		return target == DeliveryDelivered || target == DeliveryCancelled
	case DeliveryDelivered:
		return target == DeliveryDelivered
	case DeliveryCancelled:
		return false
	}
	return false
}

// ParseDeliveryStatus parses a request value
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	st := DeliveryStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.NewValidationError("invalid delivery status %q", s)
	}
	return st, nil
}

// PaymentStatus is the retailer-side settlement flag of a distributed line
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	return s == PaymentPending || s == PaymentPaid
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// ParsePaymentStatus parses a request value
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.NewValidationError("invalid payment status %q", s)
	}
	return st, nil
}

// StockEffect is the lot-level consequence of a delivery transition
type StockEffect int

const (
	EffectNone StockEffect = iota
	EffectInTransit
	EffectCommit
	EffectRelease
)

// Transition describes an accepted delivery status change
type Transition struct {
	From   DeliveryStatus
	To     DeliveryStatus
	Effect StockEffect
	// Noop is set for a repeated DELIVERED; nothing is written
	Noop bool
}

// WasInTransit reports whether the stock had left the retailer before the change
func (t Transition) WasInTransit() bool {
	return t.From == DeliveryInTransit
}

// DeliveryUpdate carries the target status plus optional delivery metadata
type DeliveryUpdate struct {
	Status         DeliveryStatus
	TrackingNumber string
	At             *time.Time
}

// ShopDistribution is one line of stock allocated by a retailer to a shop.
// Quantity and price are fixed at creation.
type ShopDistribution struct {
	shared.BaseAggregateRoot
	BatchID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"batchId"`
	RetailerID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_distribution_retailer" json:"retailerId"`
	ShopID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_distribution_shop" json:"shopId"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null" json:"productId"`
	Quantity       int64           `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unitPrice"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"totalAmount"`
	DeliveryStatus DeliveryStatus  `gorm:"type:varchar(20);not null;default:'PENDING'" json:"deliveryStatus"`
	PaymentStatus  PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING'" json:"paymentStatus"`
	TrackingNumber string          `gorm:"type:varchar(100)" json:"trackingNumber,omitempty"`
	Notes          string          `gorm:"type:varchar(500)" json:"notes,omitempty"`
	ShippedAt      *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt    *time.Time      `json:"cancelledAt,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
}

// TableName returns the table name for GORM
func (ShopDistribution) TableName() string {
	return "shop_distributions"
}

// NewShopDistribution creates a PENDING line
func NewShopDistribution(batchID, retailerID, shopID, productID uuid.UUID, qty int64, unitPrice decimal.Decimal, notes string) (*ShopDistribution, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewValidationError("retailerShopId is required")
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("retailerProductId is required")
	}
	if qty <= 0 {
		return nil, shared.NewValidationError("quantity must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("unitPrice cannot be negative")
	}
	price := unitPrice.Round(2)
	return &ShopDistribution{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BatchID:           batchID,
		RetailerID:        retailerID,
		ShopID:            shopID,
		ProductID:         productID,
		Quantity:          qty,
		UnitPrice:         price,
		TotalAmount:       price.Mul(decimal.NewFromInt(qty)).Round(2),
		DeliveryStatus:    DeliveryPending,
		PaymentStatus:     PaymentPending,
		Notes:             strings.TrimSpace(notes),
	}, nil
}

// AdvanceDelivery applies a delivery status change in memory and reports the
// stock effect the caller must apply in the same unit of work.
func (d *ShopDistribution) AdvanceDelivery(u DeliveryUpdate) (Transition, error) {
	from := d.DeliveryStatus
	if !u.Status.IsValid() {
		return Transition{}, shared.NewValidationError("invalid delivery status %q", u.Status)
	}
	if !from.CanTransitionTo(u.Status) {
		return Transition{}, shared.NewInvalidTransitionError(from.String(), u.Status.String())
	}
	t := Transition{From: from, To: u.Status}
	if from == DeliveryDelivered {
		t.Noop = true
		return t, nil
	}

	now := time.Now()
	at := now
	if u.At != nil {
		at = *u.At
	}
	switch u.Status {
	case DeliveryShipped:
		d.ShippedAt = &at
	case DeliveryInTransit:
		t.Effect = EffectInTransit
		if d.ShippedAt == nil {
			d.ShippedAt = &at
		}
	case DeliveryDelivered:
		t.Effect = EffectCommit
		d.DeliveredAt = &at
	case DeliveryCancelled:
		t.Effect = EffectRelease
		d.CancelledAt = &at
	}
	if tn := strings.TrimSpace(u.TrackingNumber); tn != "" {
		d.TrackingNumber = tn
	}
	d.DeliveryStatus = u.Status
	d.UpdatedAt = now
	d.IncrementVersion()
	return t, nil
}

// SetPaymentStatus updates the settlement flag. It returns false when the
// status is unchanged.
func (d *ShopDistribution) SetPaymentStatus(s PaymentStatus) (bool, error) {
	if !s.IsValid() {
		return false, shared.NewValidationError("invalid payment status %q", s)
	}
	if d.PaymentStatus == s {
		return false, nil
	}
	now := time.Now()
	d.PaymentStatus = s
	if s == PaymentPaid {
		d.PaidAt = &now
	} else {
		d.PaidAt = nil
	}
	d.UpdatedAt = now
	d.IncrementVersion()
	return true, nil
}

// VisibleTo reports whether the party may see or update the line
func (d *ShopDistribution) VisibleTo(p shared.Principal) bool {
	switch r := p.Role.(type) {
	case shared.RetailerRole:
		return r.RetailerID == d.RetailerID
	case shared.ShopRole:
		return r.ShopID == d.ShopID
	case shared.DoctorRole, shared.DistributorRole:
		return false
	default:
		return false
	}
}

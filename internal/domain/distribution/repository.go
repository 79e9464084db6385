package distribution

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// ListFilter narrows distribution listings. Exactly one of RetailerID and
// ShopID is set by the caller's role.
type ListFilter struct {
	shared.Filter
	RetailerID     *uuid.UUID
	ShopID         *uuid.UUID
	DeliveryStatus *DeliveryStatus
	PaymentStatus  *PaymentStatus
}

// Repository persists shop distributions
type Repository interface {
	CreateBatch(ctx context.Context, lines []*ShopDistribution) error

	// FindByID returns the line, NotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*ShopDistribution, error)

	// FindByIDForUpdate loads the line with a row lock held until commit
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ShopDistribution, error)

	// UpdateDelivery writes the delivery fields only while the stored status
	// still equals from; ConcurrencyConflict otherwise.
	UpdateDelivery(ctx context.Context, d *ShopDistribution, from DeliveryStatus) error

	UpdatePayment(ctx context.Context, d *ShopDistribution) error

	List(ctx context.Context, filter ListFilter) ([]ShopDistribution, int64, error)
}

// LedgerRepository is the append-only retailer revenue ledger
type LedgerRepository interface {
	Append(ctx context.Context, e *LedgerEntry) error
	ListByRetailer(ctx context.Context, retailerID uuid.UUID, filter shared.Filter) ([]LedgerEntry, int64, error)
}

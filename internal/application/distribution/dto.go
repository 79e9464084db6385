package distribution

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/distribution"
	"github.com/shopspring/decimal"
)

// DistributeLine is one requested product line
type DistributeLine struct {
	ProductID uuid.UUID
	Quantity  int64
	UnitPrice decimal.Decimal
}

// DistributeInput is a retailer's request to allocate stock to a shop
type DistributeInput struct {
	ShopID uuid.UUID
	Lines  []DistributeLine
	Notes  string
}

// DistributeResult is the committed outcome of a distribution request
type DistributeResult struct {
	BatchID       uuid.UUID                        `json:"batchId"`
	Distributions []*distribution.ShopDistribution `json:"distributions"`
	TotalAmount   decimal.Decimal                  `json:"totalAmount"`
	LedgerEntryID uuid.UUID                        `json:"ledgerEntryId"`
}

// DeliveryInput carries a delivery status change request
type DeliveryInput struct {
	Status         distribution.DeliveryStatus
	TrackingNumber string
	DeliveredAt    *time.Time
}

// ListQuery narrows a distribution listing
type ListQuery struct {
	DeliveryStatus *distribution.DeliveryStatus
	PaymentStatus  *distribution.PaymentStatus
	Page           int
	PageSize       int
}

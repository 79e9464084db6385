package distribution

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LedgerEntryType classifies retailer revenue ledger rows
type LedgerEntryType string

const (
	// LedgerRevenue is booked once per distribution request
	LedgerRevenue LedgerEntryType = "REVENUE"
	// LedgerReversal cancels the revenue of one cancelled line
	LedgerReversal LedgerEntryType = "REVERSAL"
)

// LedgerEntry is an append-only retailer-side revenue record tagged with the
// destination shop
type LedgerEntry struct {
	shared.AppendOnlyEntity
	RetailerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"retailerId"`
	ShopID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"shopId"`
	BatchID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"batchId"`
	DistributionID *uuid.UUID      `gorm:"type:uuid" json:"distributionId,omitempty"`
	Type           LedgerEntryType `gorm:"type:varchar(20);not null" json:"type"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	LineCount      int             `gorm:"not null" json:"lineCount"`
	Notes          string          `gorm:"type:varchar(500)" json:"notes,omitempty"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "distribution_ledger"
}

// NewRevenueEntry books the total of a distribution request
func NewRevenueEntry(retailerID, shopID, batchID uuid.UUID, lines []*ShopDistribution, notes string) *LedgerEntry {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalAmount)
	}
	return &LedgerEntry{
		AppendOnlyEntity: shared.NewAppendOnlyEntity(),
		RetailerID:       retailerID,
		ShopID:           shopID,
		BatchID:          batchID,
		Type:             LedgerRevenue,
		Amount:           total,
		LineCount:        len(lines),
		Notes:            notes,
	}
}

// NewReversalEntry books the negative amount of a cancelled line
func NewReversalEntry(d *ShopDistribution) *LedgerEntry {
	id := d.ID
	return &LedgerEntry{
		AppendOnlyEntity: shared.NewAppendOnlyEntity(),
		RetailerID:       d.RetailerID,
		ShopID:           d.ShopID,
		BatchID:          d.BatchID,
		DistributionID:   &id,
		Type:             LedgerReversal,
		Amount:           d.TotalAmount.Neg(),
		LineCount:        1,
		Notes:            "cancelled",
	}
}

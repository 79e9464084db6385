package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// ReceiptStatus represents the lifecycle state of a stock receipt
type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "PENDING"
	ReceiptApproved ReceiptStatus = "APPROVED"
	ReceiptRejected ReceiptStatus = "REJECTED"
)

// String returns the string representation of ReceiptStatus
func (s ReceiptStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptPending, ReceiptApproved, ReceiptRejected:
		return true
	}
	return false
}

// IsTerminal returns true once the receipt has been decided
func (s ReceiptStatus) IsTerminal() bool {
	return s == ReceiptApproved || s == ReceiptRejected
}

// ParseReceiptStatus parses a status query value
func ParseReceiptStatus(s string) (ReceiptStatus, error) {
	st := ReceiptStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.NewValidationError("invalid receipt status %q", s)
	}
	return st, nil
}

// Decision is an approver's verdict on a pending receipt
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// ParseDecision accepts both the verb and the resulting status
func ParseDecision(s string) (Decision, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "APPROVE", "APPROVED":
		return DecisionApprove, nil
	case "REJECT", "REJECTED":
		return DecisionReject, nil
	}
	return "", shared.NewValidationError("decision must be APPROVED or REJECTED, got %q", s)
}

// StockReceipt is a claim of incoming stock awaiting an approver. It leaves
// PENDING exactly once.
type StockReceipt struct {
	shared.BaseAggregateRoot
	OwnerKind         shared.OwnerKind `gorm:"type:varchar(20);not null;index:idx_receipt_owner_status,priority:1" json:"ownerKind"`
	OwnerID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_receipt_owner_status,priority:2" json:"ownerId"`
	ProductID         uuid.UUID        `gorm:"type:uuid;not null" json:"productId"`
	ReceivedQuantity  int64            `gorm:"not null" json:"receivedQuantity"`
	VerifiedQuantity  *int64           `json:"verifiedQuantity"`
	Status            ReceiptStatus    `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_receipt_owner_status,priority:3" json:"status"`
	SupplierName      string           `gorm:"type:varchar(200)" json:"supplierName,omitempty"`
	BatchNumber       string           `gorm:"type:varchar(100)" json:"batchNumber,omitempty"`
	ExpiryDate        *time.Time       `json:"expiryDate,omitempty"`
	SubmittedBy       uuid.UUID        `gorm:"type:uuid;not null" json:"submittedBy"`
	VerifiedBy        *uuid.UUID       `gorm:"type:uuid" json:"verifiedBy,omitempty"`
	VerifiedAt        *time.Time       `json:"verifiedAt,omitempty"`
	DiscrepancyReason string           `gorm:"type:varchar(500)" json:"discrepancyReason,omitempty"`
}

// TableName returns the table name for GORM
func (StockReceipt) TableName() string {
	return "stock_receipts"
}

// NewStockReceipt creates a pending receipt
func NewStockReceipt(owner shared.OwnerKey, productID uuid.UUID, claimed int64, submittedBy uuid.UUID) (*StockReceipt, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("productId is required")
	}
	if claimed <= 0 {
		return nil, shared.NewValidationError("receivedQuantity must be greater than zero")
	}
	if !owner.Kind.IsValid() || owner.ID == uuid.Nil {
		return nil, shared.NewValidationError("invalid owner %s", owner)
	}
	return &StockReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerKind:         owner.Kind,
		OwnerID:           owner.ID,
		ProductID:         productID,
		ReceivedQuantity:  claimed,
		Status:            ReceiptPending,
		SubmittedBy:       submittedBy,
	}, nil
}

// Owner returns the owner key of the receipt
func (r *StockReceipt) Owner() shared.OwnerKey {
	return shared.NewOwnerKey(r.OwnerKind, r.OwnerID)
}

// Provenance returns the lot provenance carried by the receipt
func (r *StockReceipt) Provenance() Provenance {
	return Provenance{
		Supplier:    r.SupplierName,
		BatchNumber: r.BatchNumber,
		ExpiryDate:  r.ExpiryDate,
	}
}

// Approve accepts the receipt. verified defaults to the claimed quantity.
func (r *StockReceipt) Approve(verifier uuid.UUID, verified *int64, reason string) error {
	if r.Status.IsTerminal() {
		return shared.NewAlreadyProcessedError("stock receipt", r.ID, r.Status.String())
	}
	qty := r.ReceivedQuantity
	if verified != nil {
		qty = *verified
	}
	if qty <= 0 {
		return shared.NewValidationError("verifiedQuantity must be greater than zero")
	}
	r.decide(ReceiptApproved, verifier, reason)
	r.VerifiedQuantity = &qty
	return nil
}

// Reject declines the receipt; no stock is affected
func (r *StockReceipt) Reject(verifier uuid.UUID, reason string) error {
	if r.Status.IsTerminal() {
		return shared.NewAlreadyProcessedError("stock receipt", r.ID, r.Status.String())
	}
	r.decide(ReceiptRejected, verifier, reason)
	return nil
}

func (r *StockReceipt) decide(status ReceiptStatus, verifier uuid.UUID, reason string) {
	now := time.Now()
	r.Status = status
	r.VerifiedBy = &verifier
	r.VerifiedAt = &now
	r.DiscrepancyReason = strings.TrimSpace(reason)
	r.UpdatedAt = now
	r.IncrementVersion()
}

// AcceptedQuantity returns the authoritative quantity of an approved receipt
func (r *StockReceipt) AcceptedQuantity() int64 {
	if r.Status != ReceiptApproved || r.VerifiedQuantity == nil {
		return 0
	}
	return *r.VerifiedQuantity
}

package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the settlement state of an invoice
type InvoiceStatus string

const (
	InvoiceUnpaid        InvoiceStatus = "UNPAID"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
)

// IsValid checks if the status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceUnpaid, InvoicePartiallyPaid, InvoicePaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// Invoice is an amount owed by a party. PaidAmount and Status are derived
// from the transaction ledger and rewritten on every payment.
type Invoice struct {
	shared.BaseAggregateRoot
	OwnerKind   shared.OwnerKind `gorm:"type:varchar(20);not null;index:idx_invoice_owner,priority:1" json:"ownerKind"`
	OwnerID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_invoice_owner,priority:2" json:"ownerId"`
	Reference   string           `gorm:"type:varchar(100)" json:"reference,omitempty"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"totalAmount"`
	PaidAmount  decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0" json:"paidAmount"`
	Status      InvoiceStatus    `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"status"`
	PaidAt      *time.Time       `json:"paidAt,omitempty"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates an unpaid invoice
func NewInvoice(owner shared.OwnerKey, total decimal.Decimal, reference string) (*Invoice, error) {
	if !owner.Kind.IsValid() || owner.ID == uuid.Nil {
		return nil, shared.NewValidationError("invalid owner %s", owner)
	}
	if err := ValidateAmount("totalAmount", total); err != nil {
		return nil, err
	}
	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerKind:         owner.Kind,
		OwnerID:           owner.ID,
		Reference:         strings.TrimSpace(reference),
		TotalAmount:       total,
		PaidAmount:        decimal.Zero,
		Status:            InvoiceUnpaid,
	}, nil
}

// Owner returns the owner key of the invoice
func (i *Invoice) Owner() shared.OwnerKey {
	return shared.NewOwnerKey(i.OwnerKind, i.OwnerID)
}

// SumTransactions is the literal sum of the ledger amounts
func SumTransactions(txs []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// CheckPayment rejects a payment against the ledger as it stands
func (i *Invoice) CheckPayment(amount decimal.Decimal, ledger []Transaction) error {
	if err := ValidateAmount("amount", amount); err != nil {
		return err
	}
	paid := SumTransactions(ledger)
	if i.Status == InvoicePaid || paid.GreaterThanOrEqual(i.TotalAmount) {
		return shared.NewAlreadySettledError(i.ID)
	}
	due := i.TotalAmount.Sub(paid)
	if amount.GreaterThan(due) {
		return shared.NewOverpaymentError(amount, due)
	}
	return nil
}

// Reconcile recomputes PaidAmount and Status from the full ledger
func (i *Invoice) Reconcile(ledger []Transaction) {
	paid := SumTransactions(ledger)
	i.PaidAmount = paid
	switch {
	case paid.GreaterThanOrEqual(i.TotalAmount):
		i.Status = InvoicePaid
		if i.PaidAt == nil {
			now := time.Now()
			i.PaidAt = &now
		}
	case paid.IsPositive():
		i.Status = InvoicePartiallyPaid
		i.PaidAt = nil
	default:
		i.Status = InvoiceUnpaid
		i.PaidAt = nil
	}
	i.UpdatedAt = time.Now()
}

// AmountDue returns what is still owed given the ledger
func (i *Invoice) AmountDue(ledger []Transaction) decimal.Decimal {
	due := i.TotalAmount.Sub(SumTransactions(ledger))
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

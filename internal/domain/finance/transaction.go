package finance

import (
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places stored for every amount.
const MoneyScale = 2

// ValidateAmount rejects amounts that are not positive or that carry more
// precision than the ledger stores. Amounts are never rounded, so what is
// debited from a gift card is exactly what the ledger records.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("%s must be greater than zero", field)
	}
	return checkScale(field, amount)
}

func checkScale(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyScale)) {
		return shared.NewValidationError("%s cannot have more than %d decimal places", field, MoneyScale)
	}
	return nil
}

// Transaction is an immutable ledger row for money received against an
// invoice. The ledger is the only authority for how much has been paid.
type Transaction struct {
	shared.AppendOnlyEntity
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoiceId"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Method       MethodKind      `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	GiftCardID   *uuid.UUID      `gorm:"type:uuid" json:"giftCardId,omitempty"`
	GiftCardCode string          `gorm:"type:varchar(50)" json:"giftCardCode,omitempty"`
	RecordedBy   uuid.UUID       `gorm:"type:uuid;not null" json:"recordedBy"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "invoice_transactions"
}

// NewTransaction creates a ledger row. card is set for gift card payments.
func NewTransaction(invoiceID uuid.UUID, amount decimal.Decimal, method PaymentMethod, card *GiftCardAccount, recordedBy uuid.UUID) (*Transaction, error) {
	if err := ValidateAmount("amount", amount); err != nil {
		return nil, err
	}
	tx := &Transaction{
		AppendOnlyEntity: shared.NewAppendOnlyEntity(),
		InvoiceID:        invoiceID,
		Amount:           amount,
		Method:           method.Kind(),
		RecordedBy:       recordedBy,
	}
	if card != nil {
		id := card.ID
		tx.GiftCardID = &id
		tx.GiftCardCode = card.Code
	}
	return tx, nil
}

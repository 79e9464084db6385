package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error

	// FindByID returns the invoice, NotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate loads the invoice with a row lock held until commit
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// SaveSettlement writes the recomputed paid amount and status
	SaveSettlement(ctx context.Context, inv *Invoice) error
}

// TransactionRepository is the append-only payment ledger
type TransactionRepository interface {
	Append(ctx context.Context, tx *Transaction) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Transaction, error)
}

// GiftCardRepository persists gift cards
type GiftCardRepository interface {
	Create(ctx context.Context, card *GiftCardAccount) error

	// FindByCode looks the code up among the owner's cards, NotFound when absent
	FindByCode(ctx context.Context, owner shared.OwnerKey, code string) (*GiftCardAccount, error)

	ExistsByCode(ctx context.Context, owner shared.OwnerKey, code string) (bool, error)

	// Redeem subtracts amount only while the balance covers it. Returns false
	// when the guard failed.
	Redeem(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error)
}

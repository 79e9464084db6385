// Package scope defines the unit of work shared by the stock and settlement
// services.
package scope

import (
	"context"

	"github.com/retailops/backend/internal/domain/distribution"
	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the repositories.
// All repository operations performed through the Repositories handed to fn
// commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to every repository within one transaction.
// Code running inside Execute must only use these, never repositories bound
// to the root connection.
type Repositories interface {
	Buckets() inventory.BucketRepository
	Lots() inventory.LotRepository
	Movements() inventory.MovementRepository
	Receipts() inventory.ReceiptRepository
	Distributions() distribution.Repository
	Ledger() distribution.LedgerRepository
	Invoices() finance.InvoiceRepository
	Transactions() finance.TransactionRepository
	GiftCards() finance.GiftCardRepository
}

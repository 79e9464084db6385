package persistence

import (
	"context"

	"github.com/retailops/backend/internal/application/scope"
	"github.com/retailops/backend/internal/domain/distribution"
	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements scope.TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn in one transaction, rolling back when it returns an error
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos scope.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	})
}

// gormRepositories hands out repositories bound to one transaction
type gormRepositories struct {
	tx *gorm.DB
}

func (r *gormRepositories) Buckets() inventory.BucketRepository {
	return NewGormBucketRepository(r.tx)
}

func (r *gormRepositories) Lots() inventory.LotRepository {
	return NewGormLotRepository(r.tx)
}

func (r *gormRepositories) Movements() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *gormRepositories) Receipts() inventory.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

func (r *gormRepositories) Distributions() distribution.Repository {
	return NewGormDistributionRepository(r.tx)
}

func (r *gormRepositories) Ledger() distribution.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

func (r *gormRepositories) Invoices() finance.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormRepositories) Transactions() finance.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

func (r *gormRepositories) GiftCards() finance.GiftCardRepository {
	return NewGormGiftCardRepository(r.tx)
}

var (
	_ scope.TransactionScope = (*GormTransactionScope)(nil)
	_ scope.Repositories     = (*gormRepositories)(nil)
)

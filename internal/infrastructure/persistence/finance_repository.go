package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements finance.InvoiceRepository
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create inserts an invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *finance.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate loads the invoice with SELECT ... FOR UPDATE. Concurrent
// payments against one invoice serialize here.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormInvoiceRepository) find(db *gorm.DB, id uuid.UUID) (*finance.Invoice, error) {
	var inv finance.Invoice
	if err := db.First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("invoice", id)
		}
		return nil, err
	}
	return &inv, nil
}

// SaveSettlement writes the recomputed paid amount and status
func (r *GormInvoiceRepository) SaveSettlement(ctx context.Context, inv *finance.Invoice) error {
	res := r.db.WithContext(ctx).Model(&finance.Invoice{}).
		Where("id = ?", inv.ID).
		Updates(map[string]any{
			"paid_amount": inv.PaidAmount,
			"status":      inv.Status,
			"paid_at":     inv.PaidAt,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  inv.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewNotFoundError("invoice", inv.ID)
	}
	return nil
}

// GormTransactionRepository implements finance.TransactionRepository
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Append inserts a ledger row
func (r *GormTransactionRepository) Append(ctx context.Context, tx *finance.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListByInvoice returns the invoice's full ledger in insertion order
func (r *GormTransactionRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]finance.Transaction, error) {
	var txs []finance.Transaction
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at").Order("id").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// GormGiftCardRepository implements finance.GiftCardRepository
type GormGiftCardRepository struct {
	db *gorm.DB
}

// NewGormGiftCardRepository creates a new GormGiftCardRepository
func NewGormGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{db: db}
}

// Create inserts a card
func (r *GormGiftCardRepository) Create(ctx context.Context, card *finance.GiftCardAccount) error {
	return r.db.WithContext(ctx).Create(card).Error
}

// FindByCode finds a card by code within one owner
func (r *GormGiftCardRepository) FindByCode(ctx context.Context, owner shared.OwnerKey, code string) (*finance.GiftCardAccount, error) {
	var card finance.GiftCardAccount
	if err := r.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ? AND code = ?", owner.Kind, owner.ID, code).
		First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("gift card", code)
		}
		return nil, err
	}
	return &card, nil
}

// ExistsByCode reports whether the owner already has a card with the code
func (r *GormGiftCardRepository) ExistsByCode(ctx context.Context, owner shared.OwnerKey, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&finance.GiftCardAccount{}).
		Where("owner_kind = ? AND owner_id = ? AND code = ?", owner.Kind, owner.ID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Redeem subtracts amount with a balance >= amount predicate
func (r *GormGiftCardRepository) Redeem(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&finance.GiftCardAccount{}).
		Where("id = ? AND balance >= ?", id, amount).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

var (
	_ finance.InvoiceRepository     = (*GormInvoiceRepository)(nil)
	_ finance.TransactionRepository = (*GormTransactionRepository)(nil)
	_ finance.GiftCardRepository    = (*GormGiftCardRepository)(nil)
)

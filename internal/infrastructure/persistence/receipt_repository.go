package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReceiptRepository implements inventory.ReceiptRepository
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Create inserts a receipt
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *inventory.StockReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

// FindByID finds a receipt by its ID
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockReceipt, error) {
	var receipt inventory.StockReceipt
	if err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("stock receipt", id)
		}
		return nil, err
	}
	return &receipt, nil
}

// ListByOwner lists receipts of one owner, optionally by status
func (r *GormReceiptRepository) ListByOwner(ctx context.Context, owner shared.OwnerKey, status *inventory.ReceiptStatus, filter shared.Filter) ([]inventory.StockReceipt, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.StockReceipt{}).
		Where("owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var receipts []inventory.StockReceipt
	if err := paginate(query, filter, ReceiptSortFields).Find(&receipts).Error; err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

// CompleteDecision writes the decision with a status = PENDING predicate.
// Exactly one of two racing decisions matches a row.
func (r *GormReceiptRepository) CompleteDecision(ctx context.Context, receipt *inventory.StockReceipt) error {
	res := r.db.WithContext(ctx).Model(&inventory.StockReceipt{}).
		Where("id = ? AND status = ?", receipt.ID, inventory.ReceiptPending).
		Updates(map[string]any{
			"status":             receipt.Status,
			"verified_quantity":  receipt.VerifiedQuantity,
			"verified_by":        receipt.VerifiedBy,
			"verified_at":        receipt.VerifiedAt,
			"discrepancy_reason": receipt.DiscrepancyReason,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         receipt.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	current, err := r.FindByID(ctx, receipt.ID)
	if err != nil {
		return err
	}
	return shared.NewAlreadyProcessedError("stock receipt", receipt.ID, current.Status.String())
}

var _ inventory.ReceiptRepository = (*GormReceiptRepository)(nil)

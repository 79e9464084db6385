package persistence

import (
	"context"

	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMovementRepository implements inventory.MovementRepository.
// Rows are insert-only.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts a movement
func (r *GormMovementRepository) Append(ctx context.Context, m *inventory.Movement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// List returns one page of the owner's movements, newest first by default
func (r *GormMovementRepository) List(ctx context.Context, owner shared.OwnerKey, filter inventory.MovementFilter) ([]inventory.Movement, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Movement{}).
		Where("owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID)
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var movements []inventory.Movement
	if err := paginate(query, filter.Filter, MovementSortFields).Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLotRepository implements inventory.LotRepository
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// Ensure inserts lot, leaving an existing row for the same key untouched
func (r *GormLotRepository) Ensure(ctx context.Context, lot *inventory.Lot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(lot).Error
}

// ApplyDelta adds d under the same non-negative guard as buckets and sets
// the provenance columns that are present.
func (r *GormLotRepository) ApplyDelta(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID, d inventory.LotDelta, prov inventory.Provenance) (bool, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Lot{}).Scopes(ownerProductScope(owner, productID))
	updates := prov.Updates()
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now()
	for _, f := range []inventory.LotField{inventory.LotCurrent, inventory.LotReserved, inventory.LotInTransit} {
		delta := d.Of(f)
		if delta == 0 {
			continue
		}
		col := f.Column()
		updates[col] = gorm.Expr(col+" + ?", delta)
		if delta < 0 {
			query = query.Where(col+" + ? >= 0", delta)
		}
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Find returns the lot for the key
func (r *GormLotRepository) Find(ctx context.Context, owner shared.OwnerKey, productID uuid.UUID) (*inventory.Lot, error) {
	var lot inventory.Lot
	if err := r.db.WithContext(ctx).Scopes(ownerProductScope(owner, productID)).First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("inventory lot for product", productID)
		}
		return nil, err
	}
	return &lot, nil
}

// ListByOwner returns all of the owner's lots
func (r *GormLotRepository) ListByOwner(ctx context.Context, owner shared.OwnerKey) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	if err := r.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ?", owner.Kind, owner.ID).
		Order("product_id").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

var _ inventory.LotRepository = (*GormLotRepository)(nil)

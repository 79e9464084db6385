package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/distribution"
	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDistributionRepository implements distribution.Repository
type GormDistributionRepository struct {
	db *gorm.DB
}

// NewGormDistributionRepository creates a new GormDistributionRepository
func NewGormDistributionRepository(db *gorm.DB) *GormDistributionRepository {
	return &GormDistributionRepository{db: db}
}

// CreateBatch inserts all lines of one distribution request
func (r *GormDistributionRepository) CreateBatch(ctx context.Context, lines []*distribution.ShopDistribution) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

// FindByID finds a line by its ID
func (r *GormDistributionRepository) FindByID(ctx context.Context, id uuid.UUID) (*distribution.ShopDistribution, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate loads the line with SELECT ... FOR UPDATE
func (r *GormDistributionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*distribution.ShopDistribution, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormDistributionRepository) find(db *gorm.DB, id uuid.UUID) (*distribution.ShopDistribution, error) {
	var d distribution.ShopDistribution
	if err := db.First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("distribution", id)
		}
		return nil, err
	}
	return &d, nil
}

// UpdateDelivery writes the delivery columns while the stored status still equals from
func (r *GormDistributionRepository) UpdateDelivery(ctx context.Context, d *distribution.ShopDistribution, from distribution.DeliveryStatus) error {
	res := r.db.WithContext(ctx).Model(&distribution.ShopDistribution{}).
		Where("id = ? AND delivery_status = ?", d.ID, from).
		Updates(map[string]any{
			"delivery_status": d.DeliveryStatus,
			"tracking_number": d.TrackingNumber,
			"shipped_at":      d.ShippedAt,
			"delivered_at":    d.DeliveredAt,
			"cancelled_at":    d.CancelledAt,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      d.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// UpdatePayment writes the payment columns
func (r *GormDistributionRepository) UpdatePayment(ctx context.Context, d *distribution.ShopDistribution) error {
	res := r.db.WithContext(ctx).Model(&distribution.ShopDistribution{}).
		Where("id = ?", d.ID).
		Updates(map[string]any{
			"payment_status": d.PaymentStatus,
			"paid_at":        d.PaidAt,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     d.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewNotFoundError("distribution", d.ID)
	}
	return nil
}

// List returns one page of lines matching the filter
func (r *GormDistributionRepository) List(ctx context.Context, filter distribution.ListFilter) ([]distribution.ShopDistribution, int64, error) {
	query := r.db.WithContext(ctx).Model(&distribution.ShopDistribution{})
	if filter.RetailerID != nil {
		query = query.Where("retailer_id = ?", *filter.RetailerID)
	}
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.DeliveryStatus != nil {
		query = query.Where("delivery_status = ?", *filter.DeliveryStatus)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var lines []distribution.ShopDistribution
	if err := paginate(query, filter.Filter, DistributionSortFields).Find(&lines).Error; err != nil {
		return nil, 0, err
	}
	return lines, total, nil
}

// GormLedgerRepository implements distribution.LedgerRepository
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts a ledger entry
func (r *GormLedgerRepository) Append(ctx context.Context, e *distribution.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ListByRetailer returns one page of a retailer's ledger
func (r *GormLedgerRepository) ListByRetailer(ctx context.Context, retailerID uuid.UUID, filter shared.Filter) ([]distribution.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&distribution.LedgerEntry{}).Where("retailer_id = ?", retailerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var entries []distribution.LedgerEntry
	if err := paginate(query, filter, LedgerSortFields).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

var (
	_ distribution.Repository       = (*GormDistributionRepository)(nil)
	_ distribution.LedgerRepository = (*GormLedgerRepository)(nil)
)

package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/application/scope"
	"github.com/retailops/backend/internal/domain/catalog"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MaxAdjustmentLines caps a single bulk adjustment request
const MaxAdjustmentLines = 200

// InventoryService serves the stock views of an owner and bulk adjustments
type InventoryService struct {
	buckets   inventory.BucketRepository
	lots      inventory.LotRepository
	movements inventory.MovementRepository
	products  catalog.ProductRepository
	txScope   scope.TransactionScope
	store     *BucketStore
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	buckets inventory.BucketRepository,
	lots inventory.LotRepository,
	movements inventory.MovementRepository,
	products catalog.ProductRepository,
	txScope scope.TransactionScope,
	store *BucketStore,
) *InventoryService {
	return &InventoryService{
		buckets:   buckets,
		lots:      lots,
		movements: movements,
		products:  products,
		txScope:   txScope,
		store:     store,
	}
}

// GetStock returns the caller's bucket and lot for one product
func (s *InventoryService) GetStock(ctx context.Context, p shared.Principal, productID uuid.UUID) (*StockView, error) {
	if err := p.RequireStockHolder(); err != nil {
		return nil, err
	}
	bucket, err := s.buckets.Find(ctx, p.Owner(), productID)
	if err != nil {
		return nil, err
	}
	view := &StockView{Bucket: *bucket}
	lot, err := s.lots.Find(ctx, p.Owner(), productID)
	switch {
	case err == nil:
		view.Lot = lot
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	return view, nil
}

// ListStock returns the caller's buckets joined with their lots
func (s *InventoryService) ListStock(ctx context.Context, p shared.Principal, filter shared.Filter) (shared.Paginated[StockView], error) {
	if err := p.RequireStockHolder(); err != nil {
		return shared.Paginated[StockView]{}, err
	}
	buckets, total, err := s.buckets.ListByOwner(ctx, p.Owner(), filter)
	if err != nil {
		return shared.Paginated[StockView]{}, err
	}
	lots, err := s.lots.ListByOwner(ctx, p.Owner())
	if err != nil {
		return shared.Paginated[StockView]{}, err
	}
	byProduct := make(map[uuid.UUID]*inventory.Lot, len(lots))
	for i := range lots {
		byProduct[lots[i].ProductID] = &lots[i]
	}
	views := make([]StockView, 0, len(buckets))
	for _, b := range buckets {
		views = append(views, StockView{Bucket: b, Lot: byProduct[b.ProductID]})
	}
	return shared.NewPaginated(views, total, filter.Page, filter.PageSize), nil
}

// ListMovements returns the caller's stock audit trail, newest first
func (s *InventoryService) ListMovements(ctx context.Context, p shared.Principal, q MovementQuery) (shared.Paginated[inventory.Movement], error) {
	if err := p.RequireStockHolder(); err != nil {
		return shared.Paginated[inventory.Movement]{}, err
	}
	f := q.filter()
	items, total, err := s.movements.List(ctx, p.Owner(), inventory.MovementFilter{
		Filter:    f,
		ProductID: q.ProductID,
		Type:      q.Type,
	})
	if err != nil {
		return shared.Paginated[inventory.Movement]{}, err
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// Adjust applies a batch of signed corrections to the caller's stock. Each
// line changes the bucket and the lot together; any failing line rolls the
// whole batch back.
func (s *InventoryService) Adjust(ctx context.Context, p shared.Principal, lines []AdjustmentLine) ([]AdjustmentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "adjust")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOwner, p.Owner().String(),
		"lines", len(lines),
	)

	if err := p.RequireStockHolder(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("at least one adjustment line is required")
	}
	if len(lines) > MaxAdjustmentLines {
		return nil, shared.NewValidationError("at most %d adjustment lines are allowed", MaxAdjustmentLines)
	}

	if err := s.requireProducts(ctx, lines); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	owner := p.Owner()
	results := make([]AdjustmentResult, 0, len(lines))
	err := s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		for _, line := range lines {
			change, err := s.store.Adjust(ctx, repos, owner, line.ProductID, line.Field, line.Delta, inventory.MovementMeta{
				ActorID: p.UserID,
				Reason:  line.Reason,
			})
			if err != nil {
				return err
			}
			results = append(results, AdjustmentResult{
				ProductID:   line.ProductID,
				Field:       line.Field,
				Delta:       line.Delta,
				PreviousQty: change.PreviousQty(),
				NewQty:      change.NewQty(),
				MovementID:  change.Movement.ID,
			})
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.L(ctx).Info("stock adjusted",
		zap.String("owner", owner.String()),
		zap.Int("lines", len(results)))
	return results, nil
}

// requireProducts rejects a batch naming a product missing from the catalog
func (s *InventoryService) requireProducts(ctx context.Context, lines []AdjustmentLine) error {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		if line.ProductID == uuid.Nil {
			return shared.NewValidationError("product ID is required")
		}
		if _, err := s.products.FindByID(ctx, line.ProductID); err != nil {
			return err
		}
	}
	return nil
}

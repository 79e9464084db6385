package distribution

import (
	"bytes"
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	appinv "github.com/retailops/backend/internal/application/inventory"
	"github.com/retailops/backend/internal/application/scope"
	"github.com/retailops/backend/internal/domain/distribution"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MaxLines caps the number of product lines in one distribution request
const MaxLines = 100

// DistributionService allocates retailer stock to shops and drives the
// delivery lifecycle of each allocated line.
type DistributionService struct {
	distributions distribution.Repository
	ledger        distribution.LedgerRepository
	txScope       scope.TransactionScope
	store         *appinv.BucketStore
	metrics       *telemetry.SettlementMetrics
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(
	distributions distribution.Repository,
	ledger distribution.LedgerRepository,
	txScope scope.TransactionScope,
	store *appinv.BucketStore,
	metrics *telemetry.SettlementMetrics,
) *DistributionService {
	return &DistributionService{
		distributions: distributions,
		ledger:        ledger,
		txScope:       txScope,
		store:         store,
		metrics:       metrics,
	}
}

// mergeLines folds repeated products into one line. Repeated lines must
// agree on the unit price.
func mergeLines(lines []DistributeLine) ([]DistributeLine, error) {
	merged := make([]DistributeLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, shared.NewValidationError("quantity for product %s must be greater than zero", l.ProductID)
		}
		i, seen := index[l.ProductID]
		if !seen {
			index[l.ProductID] = len(merged)
			merged = append(merged, l)
			continue
		}
		if !merged[i].UnitPrice.Equal(l.UnitPrice) {
			return nil, shared.NewValidationError("product %s is listed twice with different unit prices", l.ProductID)
		}
		merged[i].Quantity += l.Quantity
	}
	return merged, nil
}

// lockOrder returns rows sorted by product so concurrent batches take the
// bucket and lot row locks in the same order. rows keeps request order.
func lockOrder(rows []*distribution.ShopDistribution) []*distribution.ShopDistribution {
	ordered := slices.Clone(rows)
	slices.SortFunc(ordered, func(a, b *distribution.ShopDistribution) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return ordered
}

// Distribute allocates every requested line from the calling retailer's
// available stock or none of them.
func (s *DistributionService) Distribute(ctx context.Context, p shared.Principal, in DistributeInput) (*DistributeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "distribution", "distribute")
	defer span.End()

	retailerID, ok := p.RetailerID()
	if !ok {
		return nil, shared.NewForbiddenError("only retailers can distribute stock")
	}
	if in.ShopID == uuid.Nil {
		return nil, shared.NewValidationError("retailerShopId is required")
	}
	if len(in.Lines) == 0 {
		return nil, shared.NewValidationError("at least one distribution line is required")
	}
	if len(in.Lines) > MaxLines {
		return nil, shared.NewValidationError("at most %d distribution lines are allowed", MaxLines)
	}
	lines, err := mergeLines(in.Lines)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRetailerID, retailerID.String(),
		telemetry.SpanAttrShopID, in.ShopID.String(),
		"lines", len(lines),
	)

	batchID := uuid.New()
	rows := make([]*distribution.ShopDistribution, 0, len(lines))
	for _, l := range lines {
		row, err := distribution.NewShopDistribution(batchID, retailerID, in.ShopID, l.ProductID, l.Quantity, l.UnitPrice, in.Notes)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	owner := p.Owner()
	entry := distribution.NewRevenueEntry(retailerID, in.ShopID, batchID, rows, in.Notes)
	ordered := lockOrder(rows)
	err = s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		// Fail fast on any visibly short line before writing anything. The
		// conditional allocation below remains the authority under races.
		for _, row := range ordered {
			bucket, err := repos.Buckets().Find(ctx, owner, row.ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewInsufficientStockError(row.ProductID, row.Quantity)
				}
				return err
			}
			if bucket.AvailableStock < row.Quantity {
				return shared.NewInsufficientStockError(row.ProductID, row.Quantity)
			}
		}
		for _, row := range ordered {
			id := row.ID
			if _, err := s.store.Allocate(ctx, repos, owner, row.ProductID, row.Quantity, inventory.MovementMeta{
				ActorID:        p.UserID,
				DistributionID: &id,
				Reason:         "distribution to shop " + in.ShopID.String(),
			}); err != nil {
				return err
			}
		}
		if err := repos.Distributions().CreateBatch(ctx, rows); err != nil {
			return err
		}
		return repos.Ledger().Append(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.metrics.RecordStockConflict(ctx, "distribute")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordDistribution(ctx, len(rows), entry.Amount)
	logger.L(ctx).Info("stock distributed",
		zap.String("batch_id", batchID.String()),
		zap.String("retailer_id", retailerID.String()),
		zap.String("shop_id", in.ShopID.String()),
		zap.Int("lines", len(rows)),
		zap.String("total_amount", entry.Amount.String()))

	return &DistributeResult{
		BatchID:       batchID,
		Distributions: rows,
		TotalAmount:   entry.Amount,
		LedgerEntryID: entry.ID,
	}, nil
}

// UpdateDeliveryStatus advances one line through its delivery lifecycle and
// applies the matching lot effect in the same transaction.
func (s *DistributionService) UpdateDeliveryStatus(ctx context.Context, p shared.Principal, id uuid.UUID, in DeliveryInput) (*distribution.ShopDistribution, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "distribution", "update_delivery_status")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDistributionID, id.String(),
		telemetry.SpanAttrDeliveryStatus, in.Status.String(),
	)

	var (
		row *distribution.ShopDistribution
		tr  distribution.Transition
	)
	err := s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		row, err = repos.Distributions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !row.VisibleTo(p) {
			return shared.NewForbiddenError("distribution belongs to another party")
		}
		tr, err = row.AdvanceDelivery(distribution.DeliveryUpdate{
			Status:         in.Status,
			TrackingNumber: in.TrackingNumber,
			At:             in.DeliveredAt,
		})
		if err != nil {
			return err
		}
		if tr.Noop {
			return nil
		}
		if err := repos.Distributions().UpdateDelivery(ctx, row, tr.From); err != nil {
			return err
		}
		return s.applyDeliveryEffect(ctx, repos, p, row, tr)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !tr.Noop {
		s.metrics.RecordDeliveryTransition(ctx, tr.To.String())
		logger.L(ctx).Info("delivery status updated",
			zap.String("distribution_id", id.String()),
			zap.String("from", tr.From.String()),
			zap.String("to", tr.To.String()))
	}
	return row, nil
}

func (s *DistributionService) applyDeliveryEffect(ctx context.Context, repos scope.Repositories, p shared.Principal,
	row *distribution.ShopDistribution, tr distribution.Transition) error {
	owner := shared.NewOwnerKey(shared.OwnerRetailer, row.RetailerID)
	id := row.ID
	meta := inventory.MovementMeta{ActorID: p.UserID, DistributionID: &id, Reason: "delivery " + tr.To.String()}

	var err error
	switch tr.Effect {
	case distribution.EffectNone:
	case distribution.EffectInTransit:
		_, err = s.store.MarkInTransit(ctx, repos, owner, row.ProductID, row.Quantity, meta)
	case distribution.EffectCommit:
		_, err = s.store.CommitDelivery(ctx, repos, owner, row.ProductID, row.Quantity, tr.WasInTransit(), meta)
	case distribution.EffectRelease:
		if _, err = s.store.Release(ctx, repos, owner, row.ProductID, row.Quantity, tr.WasInTransit(), meta); err != nil {
			return err
		}
		err = repos.Ledger().Append(ctx, distribution.NewReversalEntry(row))
	}
	return err
}

// UpdatePaymentStatus flips the settlement flag of a line. It has no stock effect.
func (s *DistributionService) UpdatePaymentStatus(ctx context.Context, p shared.Principal, id uuid.UUID, status distribution.PaymentStatus) (*distribution.ShopDistribution, error) {
	retailerID, ok := p.RetailerID()
	if !ok {
		return nil, shared.NewForbiddenError("only the distributing retailer can update payment status")
	}

	var row *distribution.ShopDistribution
	err := s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		row, err = repos.Distributions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if row.RetailerID != retailerID {
			return shared.NewForbiddenError("distribution belongs to another retailer")
		}
		changed, err := row.SetPaymentStatus(status)
		if err != nil || !changed {
			return err
		}
		return repos.Distributions().UpdatePayment(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Get returns one line visible to the caller
func (s *DistributionService) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (*distribution.ShopDistribution, error) {
	row, err := s.distributions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !row.VisibleTo(p) {
		return nil, shared.NewForbiddenError("distribution belongs to another party")
	}
	return row, nil
}

// List returns outgoing lines for a retailer and incoming lines for a shop
func (s *DistributionService) List(ctx context.Context, p shared.Principal, q ListQuery) (shared.Paginated[distribution.ShopDistribution], error) {
	f := distribution.ListFilter{
		Filter:         pageFilter(q.Page, q.PageSize),
		DeliveryStatus: q.DeliveryStatus,
		PaymentStatus:  q.PaymentStatus,
	}
	switch r := p.Role.(type) {
	case shared.RetailerRole:
		f.RetailerID = &r.RetailerID
	case shared.ShopRole:
		f.ShopID = &r.ShopID
	case shared.DoctorRole, shared.DistributorRole:
		return shared.Paginated[distribution.ShopDistribution]{}, shared.NewForbiddenError("role cannot list distributions")
	default:
		return shared.Paginated[distribution.ShopDistribution]{}, shared.ErrUnauthorized
	}
	items, total, err := s.distributions.List(ctx, f)
	if err != nil {
		return shared.Paginated[distribution.ShopDistribution]{}, err
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// Ledger returns the calling retailer's revenue ledger
func (s *DistributionService) Ledger(ctx context.Context, p shared.Principal, page, pageSize int) (shared.Paginated[distribution.LedgerEntry], error) {
	retailerID, ok := p.RetailerID()
	if !ok {
		return shared.Paginated[distribution.LedgerEntry]{}, shared.NewForbiddenError("only retailers have a revenue ledger")
	}
	f := pageFilter(page, pageSize)
	items, total, err := s.ledger.ListByRetailer(ctx, retailerID, f)
	if err != nil {
		return shared.Paginated[distribution.LedgerEntry]{}, err
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

func pageFilter(page, pageSize int) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	return f
}

package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/application/scope"
	"github.com/retailops/backend/internal/domain/catalog"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReceiptService runs the stock receipt workflow: operators submit claims,
// approvers turn them into stock exactly once.
type ReceiptService struct {
	receipts inventory.ReceiptRepository
	products catalog.ProductRepository
	txScope  scope.TransactionScope
	store    *BucketStore
	metrics  *telemetry.SettlementMetrics
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	receipts inventory.ReceiptRepository,
	products catalog.ProductRepository,
	txScope scope.TransactionScope,
	store *BucketStore,
	metrics *telemetry.SettlementMetrics,
) *ReceiptService {
	return &ReceiptService{
		receipts: receipts,
		products: products,
		txScope:  txScope,
		store:    store,
		metrics:  metrics,
	}
}

// Submit registers a pending claim. No stock changes until it is approved.
func (s *ReceiptService) Submit(ctx context.Context, p shared.Principal, in SubmitReceiptInput) (*inventory.StockReceipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_receipt", "submit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOwner, p.Owner().String(),
		telemetry.SpanAttrProductID, in.ProductID.String(),
		telemetry.SpanAttrQuantity, in.ReceivedQuantity,
	)

	if err := p.RequireStockHolder(); err != nil {
		return nil, err
	}
	receipt, err := inventory.NewStockReceipt(p.Owner(), in.ProductID, in.ReceivedQuantity, p.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, in.ProductID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	receipt.SupplierName = strings.TrimSpace(in.SupplierName)
	receipt.BatchNumber = strings.TrimSpace(in.BatchNumber)
	receipt.ExpiryDate = in.ExpiryDate

	if err := s.receipts.Create(ctx, receipt); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.L(ctx).Info("stock receipt submitted",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("product_id", receipt.ProductID.String()),
		zap.Int64("received_quantity", receipt.ReceivedQuantity))
	return receipt, nil
}

// Decide approves or rejects a pending receipt. On approval the status
// change and the stock increment commit together.
func (s *ReceiptService) Decide(ctx context.Context, p shared.Principal, id uuid.UUID, in DecideReceiptInput) (*DecisionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_receipt", "decide")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrReceiptID, id.String(),
		telemetry.SpanAttrDecision, string(in.Decision),
	)

	if err := p.RequireStockHolder(); err != nil {
		return nil, err
	}

	var result *DecisionResult
	err := s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		receipt, err := repos.Receipts().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.Owns(receipt.Owner()) {
			return shared.NewForbiddenError("stock receipt belongs to another owner")
		}

		switch in.Decision {
		case inventory.DecisionApprove:
			if err := receipt.Approve(p.UserID, in.VerifiedQuantity, in.DiscrepancyReason); err != nil {
				return err
			}
		case inventory.DecisionReject:
			if err := receipt.Reject(p.UserID, in.DiscrepancyReason); err != nil {
				return err
			}
		default:
			return shared.NewValidationError("decision must be APPROVED or REJECTED")
		}

		// The guarded status write goes first so a concurrent decision on the
		// same receipt fails before any stock is touched.
		if err := repos.Receipts().CompleteDecision(ctx, receipt); err != nil {
			return err
		}
		result = &DecisionResult{Receipt: receipt}
		if receipt.Status != inventory.ReceiptApproved {
			return nil
		}

		qty := receipt.AcceptedQuantity()
		prov := receipt.Provenance()
		prov.PurchasePrice = in.PurchasePrice
		rid := receipt.ID
		change, err := s.store.Receive(ctx, repos, receipt.Owner(), receipt.ProductID, qty, prov, inventory.MovementMeta{
			ActorID:   p.UserID,
			ReceiptID: &rid,
			Reason:    receipt.DiscrepancyReason,
		})
		if err != nil {
			return err
		}
		result.Delta = &InventoryDelta{
			ProductID:         receipt.ProductID,
			Quantity:          qty,
			PreviousTotal:     change.Bucket.TotalStock - qty,
			NewTotal:          change.Bucket.TotalStock,
			PreviousAvailable: change.PreviousQty(),
			NewAvailable:      change.NewQty(),
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordReceiptDecision(ctx, string(result.Receipt.Status))
	logger.L(ctx).Info("stock receipt decided",
		zap.String("receipt_id", id.String()),
		zap.String("status", result.Receipt.Status.String()),
		zap.Int64("accepted_quantity", result.Receipt.AcceptedQuantity()))
	return result, nil
}

// List returns the caller's receipts, optionally filtered by status
func (s *ReceiptService) List(ctx context.Context, p shared.Principal, status *inventory.ReceiptStatus, filter shared.Filter) (shared.Paginated[inventory.StockReceipt], error) {
	if err := p.RequireStockHolder(); err != nil {
		return shared.Paginated[inventory.StockReceipt]{}, err
	}
	items, total, err := s.receipts.ListByOwner(ctx, p.Owner(), status, filter)
	if err != nil {
		return shared.Paginated[inventory.StockReceipt]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Get returns one of the caller's receipts
func (s *ReceiptService) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (*inventory.StockReceipt, error) {
	receipt, err := s.receipts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(receipt.Owner()) {
		return nil, shared.NewForbiddenError("stock receipt belongs to another owner")
	}
	return receipt, nil
}

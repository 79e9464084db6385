package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService creates invoices and reads them back with their ledger
type InvoiceService struct {
	invoices     finance.InvoiceRepository
	transactions finance.TransactionRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoices finance.InvoiceRepository, transactions finance.TransactionRepository) *InvoiceService {
	return &InvoiceService{invoices: invoices, transactions: transactions}
}

// Create opens an unpaid invoice owned by the caller
func (s *InvoiceService) Create(ctx context.Context, p shared.Principal, total decimal.Decimal, reference string) (*finance.Invoice, error) {
	if p.Role == nil {
		return nil, shared.ErrUnauthorized
	}
	inv, err := finance.NewInvoice(p.Owner(), total, reference)
	if err != nil {
		return nil, err
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("total_amount", inv.TotalAmount.String()))
	return inv, nil
}

// Get returns the invoice with its ledger. The paid amount is recomputed
// from the ledger on read and is not written back.
func (s *InvoiceService) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (*InvoiceWithTransactions, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(inv.Owner()) {
		return nil, shared.NewForbiddenError("invoice belongs to another owner")
	}
	ledger, err := s.transactions.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	stored := inv.PaidAmount
	inv.Reconcile(ledger)
	if !stored.Equal(inv.PaidAmount) {
		logger.L(ctx).Warn("stored paid amount drifted from ledger",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("stored", stored.String()),
			zap.String("ledger", inv.PaidAmount.String()))
	}
	return &InvoiceWithTransactions{Invoice: inv, Transactions: ledger, AmountDue: inv.AmountDue(ledger)}, nil
}

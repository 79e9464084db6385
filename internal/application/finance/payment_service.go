package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/application/scope"
	"github.com/retailops/backend/internal/domain/finance"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// IdempotencyNamespace is the cache namespace holding claimed payment keys
const IdempotencyNamespace = "idempotency"

// Locker serializes work on a key across processes. Implementations are best
// effort: the database row lock stays the authority.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// RequestClaimer records request keys so a replay can be refused
type RequestClaimer interface {
	// Claim returns false when the key was already claimed
	Claim(ctx context.Context, namespace, key string) (bool, error)
	Invalidate(ctx context.Context, namespace string, keys ...string) error
}

// RecordPaymentInput is a payment against one invoice
type RecordPaymentInput struct {
	InvoiceID      uuid.UUID
	Amount         decimal.Decimal
	Method         finance.PaymentMethod
	IdempotencyKey string
}

// InvoiceWithTransactions is an invoice together with its full ledger
type InvoiceWithTransactions struct {
	Invoice      *finance.Invoice      `json:"invoice"`
	Transactions []finance.Transaction `json:"transactions"`
	AmountDue    decimal.Decimal       `json:"amountDue"`
	// GiftCardBalance is the card balance after a gift card payment.
	GiftCardBalance *decimal.Decimal `json:"giftCardBalance,omitempty"`
}

// PaymentService reconciles invoices against their transaction ledger.
// Paid amount and status are always recomputed from the ledger rows.
type PaymentService struct {
	txScope scope.TransactionScope
	locker  Locker
	claimer RequestClaimer
	lockTTL time.Duration
	metrics *telemetry.SettlementMetrics
}

// NewPaymentService creates a new PaymentService. locker and claimer may be nil.
func NewPaymentService(txScope scope.TransactionScope, locker Locker, claimer RequestClaimer, lockTTL time.Duration, metrics *telemetry.SettlementMetrics) *PaymentService {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &PaymentService{
		txScope: txScope,
		locker:  locker,
		claimer: claimer,
		lockTTL: lockTTL,
		metrics: metrics,
	}
}

// RecordPayment appends one ledger row for the payment and re-derives the
// invoice settlement from the full ledger, all in one transaction.
func (s *PaymentService) RecordPayment(ctx context.Context, p shared.Principal, in RecordPaymentInput) (_ *InvoiceWithTransactions, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, in.InvoiceID.String(),
		telemetry.SpanAttrAmount, in.Amount.String(),
	)

	if p.Role == nil {
		return nil, shared.ErrUnauthorized
	}
	if in.Method == nil {
		return nil, shared.NewValidationError("paymentMethod is required")
	}
	if err := finance.ValidateAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentMethod, in.Method.Kind().String())

	if in.IdempotencyKey != "" {
		key := fmt.Sprintf("%s:%s", p.Owner(), in.IdempotencyKey)
		if err := s.claim(ctx, key); err != nil {
			return nil, err
		}
		defer func() {
			// A failed attempt frees the key so the caller can retry.
			if err != nil && s.claimer != nil {
				_ = s.claimer.Invalidate(context.WithoutCancel(ctx), IdempotencyNamespace, key)
			}
		}()
	}

	release := s.lock(ctx, "invoice:"+in.InvoiceID.String())
	defer release()

	var result *InvoiceWithTransactions
	err = s.txScope.Execute(ctx, func(repos scope.Repositories) error {
		inv, err := repos.Invoices().FindByIDForUpdate(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if !p.Owns(inv.Owner()) {
			return shared.NewForbiddenError("invoice belongs to another owner")
		}
		ledger, err := repos.Transactions().ListByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		if err := inv.CheckPayment(in.Amount, ledger); err != nil {
			return err
		}

		card, err := s.redeem(ctx, repos, inv, in.Method, in.Amount)
		if err != nil {
			return err
		}

		tx, err := finance.NewTransaction(inv.ID, in.Amount, in.Method, card, p.UserID)
		if err != nil {
			return err
		}
		if err := repos.Transactions().Append(ctx, tx); err != nil {
			return err
		}

		// Re-read so the settlement is a fresh aggregate of every stored row.
		ledger, err = repos.Transactions().ListByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		inv.Reconcile(ledger)
		if err := repos.Invoices().SaveSettlement(ctx, inv); err != nil {
			return err
		}
		result = &InvoiceWithTransactions{Invoice: inv, Transactions: ledger, AmountDue: inv.AmountDue(ledger)}
		if card != nil {
			balance := card.Balance
			result.GiftCardBalance = &balance
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordPaymentRejected(ctx, errorCode(err))
		return nil, err
	}

	s.metrics.RecordPayment(ctx, in.Method.Kind().String(), in.Amount)
	logger.L(ctx).Info("payment recorded",
		zap.String("invoice_id", in.InvoiceID.String()),
		zap.String("amount", in.Amount.String()),
		zap.String("method", in.Method.Kind().String()),
		zap.String("status", result.Invoice.Status.String()),
		zap.String("paid_amount", result.Invoice.PaidAmount.String()))
	return result, nil
}

// redeem dispatches on the payment method. Only gift cards touch a balance.
func (s *PaymentService) redeem(ctx context.Context, repos scope.Repositories, inv *finance.Invoice,
	method finance.PaymentMethod, amount decimal.Decimal) (*finance.GiftCardAccount, error) {
	switch m := method.(type) {
	case finance.Cash, finance.Card, finance.UPI, finance.BankTransfer:
		return nil, nil
	case finance.GiftCard:
		card, err := repos.GiftCards().FindByCode(ctx, inv.Owner(), m.Code)
		if err != nil {
			return nil, err
		}
		if !card.CanCover(amount) {
			return nil, shared.NewInsufficientBalanceError(card.Code)
		}
		ok, err := repos.GiftCards().Redeem(ctx, card.ID, amount)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, shared.NewInsufficientBalanceError(card.Code)
		}
		// Re-read under the row lock the UPDATE took; concurrent redemptions
		// may have moved the balance since FindByCode.
		return repos.GiftCards().FindByCode(ctx, inv.Owner(), card.Code)
	default:
		return nil, shared.NewValidationError("unsupported payment method %T", method)
	}
}

func (s *PaymentService) claim(ctx context.Context, key string) error {
	if s.claimer == nil {
		return nil
	}
	ok, err := s.claimer.Claim(ctx, IdempotencyNamespace, key)
	if err != nil {
		// The store being down must not block payments.
		logger.L(ctx).Warn("idempotency store unavailable, proceeding without claim", zap.Error(err))
		return nil
	}
	if !ok {
		return shared.ErrDuplicateRequest
	}
	return nil
}

func (s *PaymentService) lock(ctx context.Context, key string) func() {
	if s.locker == nil {
		return func() {}
	}
	release, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		logger.L(ctx).Warn("could not obtain payment lock; proceeding without it",
			zap.String("key", key), zap.Error(err))
		return func() {}
	}
	return release
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}

package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when NewSettlementMetrics is given no meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

var centsPerUnit = decimal.NewFromInt(100)

// SettlementMetrics counts stock movements, receipt decisions, distributions
// and payments. A nil *SettlementMetrics records nothing, so services can be
// built without a meter in tests.
type SettlementMetrics struct {
	logger *zap.Logger

	stockMovements     *Counter
	stockQuantity      *Counter
	stockConflicts     *Counter
	receiptDecisions   *Counter
	distributions      *Counter
	distributionLines  *Histogram
	distributionAmount *Counter
	deliveryTransition *Counter
	payments           *Counter
	paymentAmount      *Counter
	paymentsRejected   *Counter
}

// NewSettlementMetrics registers the settlement instruments on meter.
func NewSettlementMetrics(meter metric.Meter, logger *zap.Logger) (*SettlementMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SettlementMetrics{logger: logger}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&m.stockMovements, "retail_stock_movements_total", "Stock movements appended to the ledger", "{movements}"},
		{&m.stockQuantity, "retail_stock_movement_quantity_total", "Units moved by stock movements", "{units}"},
		{&m.stockConflicts, "retail_stock_conflicts_total", "Stock mutations rejected by the non-negative guard", "{conflicts}"},
		{&m.receiptDecisions, "retail_receipt_decisions_total", "Stock receipts approved or rejected", "{receipts}"},
		{&m.distributions, "retail_distributions_total", "Distribution batches created", "{batches}"},
		{&m.distributionAmount, "retail_distribution_amount_cents_total", "Revenue booked by distributions in cents", "{cents}"},
		{&m.deliveryTransition, "retail_delivery_transitions_total", "Delivery status transitions applied", "{transitions}"},
		{&m.payments, "retail_payments_total", "Payments recorded against invoices", "{payments}"},
		{&m.paymentAmount, "retail_payment_amount_cents_total", "Payment amount recorded in cents", "{cents}"},
		{&m.paymentsRejected, "retail_payments_rejected_total", "Payments rejected, by error code", "{payments}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	m.distributionLines, err = NewHistogram(meter, HistogramOpts{
		Name:        "retail_distribution_lines",
		Description: "Product lines per distribution batch",
		Unit:        "{lines}",
		Boundaries:  []float64{1, 2, 5, 10, 25, 50, 100},
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(centsPerUnit).Round(0).IntPart()
}

// RecordStockMovement counts one appended movement and its quantity.
func (m *SettlementMetrics) RecordStockMovement(ctx context.Context, movementType string, quantity int64) {
	if m == nil {
		return
	}
	attr := AttrMovementType.String(movementType)
	m.stockMovements.Inc(ctx, attr)
	m.stockQuantity.Add(ctx, quantity, attr)
}

// RecordStockConflict counts a mutation refused because a counter would go negative.
func (m *SettlementMetrics) RecordStockConflict(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.stockConflicts.Inc(ctx, AttrOperation.String(operation))
}

// RecordReceiptDecision counts a receipt leaving PENDING.
func (m *SettlementMetrics) RecordReceiptDecision(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.receiptDecisions.Inc(ctx, AttrReceiptStatus.String(status))
}

// RecordDistribution counts a committed batch, its size and its revenue.
func (m *SettlementMetrics) RecordDistribution(ctx context.Context, lines int, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.distributions.Inc(ctx)
	m.distributionLines.Record(ctx, float64(lines))
	m.distributionAmount.Add(ctx, toCents(amount))
}

// RecordDeliveryTransition counts an applied delivery status change.
func (m *SettlementMetrics) RecordDeliveryTransition(ctx context.Context, to string) {
	if m == nil {
		return
	}
	m.deliveryTransition.Inc(ctx, AttrDeliveryStatus.String(to))
}

// RecordPayment counts an accepted payment.
func (m *SettlementMetrics) RecordPayment(ctx context.Context, method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attr := AttrPaymentMethod.String(method)
	m.payments.Inc(ctx, attr)
	m.paymentAmount.Add(ctx, toCents(amount), attr)
}

// RecordPaymentRejected counts a refused payment by error code.
func (m *SettlementMetrics) RecordPaymentRejected(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.paymentsRejected.Inc(ctx, AttrErrorCode.String(code))
}

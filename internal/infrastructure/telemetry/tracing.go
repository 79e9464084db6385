package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName scopes every span opened by the application services.
const TracerName = "retailops-backend"

// Span attribute keys.
const (
	SpanAttrOwner      = "owner"
	SpanAttrProductID  = "product_id"
	SpanAttrQuantity   = "quantity"
	SpanAttrReceiptID  = "receipt_id"
	SpanAttrDecision   = "decision"
	SpanAttrRetailerID = "retailer_id"
	SpanAttrShopID     = "shop_id"

	SpanAttrDistributionID = "distribution_id"
	SpanAttrDeliveryStatus = "delivery_status"

	SpanAttrInvoiceID     = "invoice_id"
	SpanAttrAmount        = "amount"
	SpanAttrPaymentMethod = "payment_method"
)

// StartSpan opens an internal span on the global provider. Callers end it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartServiceSpan names the span "<service>.<operation>", e.g. "stock_receipt.decide".
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+operation)
}

// SetAttributes takes alternating key/value pairs. Pairs whose key is not a
// string are dropped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(pairs(keyValues)...)
}

// SetAttribute sets a single attribute on span
func SetAttribute(span trace.Span, key string, value any) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttribute(key, value))
}

// RecordError marks the span failed. Nil spans and nil errors are ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent attaches a timestamped event, with key/value pairs as in SetAttributes.
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(pairs(keyValues)...))
}

// GetTraceID returns the hex trace id of the span in ctx, or "" without one.
func GetTraceID(ctx context.Context) string {
	if id := trace.SpanContextFromContext(ctx).TraceID(); id.IsValid() {
		return id.String()
	}
	return ""
}

// GetSpanID returns the hex span id of the span in ctx, or "" without one.
func GetSpanID(ctx context.Context) string {
	if id := trace.SpanContextFromContext(ctx).SpanID(); id.IsValid() {
		return id.String()
	}
	return ""
}

func pairs(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		if key, ok := keyValues[i].(string); ok {
			attrs = append(attrs, toAttribute(key, keyValues[i+1]))
		}
	}
	return attrs
}

// toAttribute keeps numeric and boolean values typed; ids, decimals and
// anything else are recorded as strings.
func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}

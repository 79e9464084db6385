package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})
	return sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_AnnotatesServerSpan(t *testing.T) {
	sr := setupTestTracer(t)
	svc := newTestJWTService(time.Minute)
	p := shared.NewPrincipal(uuid.New(), shared.ShopRole{ShopID: uuid.New()})
	token, _, err := svc.IssueAccessToken(p)
	require.NoError(t, err)

	router := gin.New()
	router.Use(RequestID(), Tracing("retailops-test", "/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	authed := router.Group("", Auth(svc), SpanAttributes())
	authed.GET("/stock-receipts", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/stock-receipts", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	spans := sr.Ended()
	require.Len(t, spans, 1, "health and metrics paths are not traced")
	span := spans[0]
	assert.Contains(t, span.Name(), "/stock-receipts")

	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-42", v.AsString())
	v, ok = spanAttr(span, "owner")
	require.True(t, ok)
	assert.Equal(t, p.Owner().String(), v.AsString())
	v, ok = spanAttr(span, "user_id")
	require.True(t, ok)
	assert.Equal(t, p.UserID.String(), v.AsString())
}

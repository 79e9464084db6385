package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts the server span with otelgin. Health and metrics paths are not traced.
// It must run outside the request logger so log lines carry the trace id.
func Tracing(serviceName string, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		_, skipped := skip[r.URL.Path]
		return !skipped
	}))
}

// SpanAttributes runs after Auth and annotates the active span.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			ctx := c.Request.Context()
			attrs := []attribute.KeyValue{attribute.String("request_id", c.GetString(RequestIDKey))}
			if owner := logger.GetOwner(ctx); owner != "" {
				attrs = append(attrs, attribute.String("owner", owner))
			}
			if userID := logger.GetUserID(ctx); userID != "" {
				attrs = append(attrs, attribute.String("user_id", userID))
			}
			span.SetAttributes(attrs...)
		}
		c.Next()
	}
}

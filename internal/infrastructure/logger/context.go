package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	LoggerKey    contextKey = "logger"
	RequestIDKey contextKey = "request_id"
	// OwnerKey carries the "<ROLE>:<party id>" of the authenticated principal.
	OwnerKey  contextKey = "owner"
	UserIDKey contextKey = "user_id"
)

// WithContext attaches logger to ctx.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request id on ctx. The id is added to log
// entries by L, so the attached logger itself is left untouched.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithOwner stores the principal's owner scope on ctx.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, OwnerKey, owner)
}

// WithUserID stores the authenticated user id on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetRequestID returns the request id stored in ctx
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetOwner returns the owner key stored in ctx
func GetOwner(ctx context.Context) string {
	return stringValue(ctx, OwnerKey)
}

// GetUserID returns the user id stored in ctx
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetTraceID returns the trace id of the active span, or "".
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// ContextLogger decorates every entry with the correlation fields found on
// its context: trace_id, span_id, request_id, owner and user_id.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger for ctx.
//
//	logger.L(ctx).Info("stock distributed", zap.String("distribution_id", id))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

func (cl *ContextLogger) fields() []zap.Field {
	fields := make([]zap.Field, 0, 5)
	if spanCtx := trace.SpanContextFromContext(cl.ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if v := GetRequestID(cl.ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetOwner(cl.ctx); v != "" {
		fields = append(fields, zap.String("owner", v))
	}
	if v := GetUserID(cl.ctx); v != "" {
		fields = append(fields, zap.String("user_id", v))
	}
	return fields
}

// With returns a child ContextLogger carrying extra fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger.With(fields...)}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.logger.Debug(msg, append(cl.fields(), fields...)...)
}

func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.logger.Info(msg, append(cl.fields(), fields...)...)
}

func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.logger.Warn(msg, append(cl.fields(), fields...)...)
}

func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.logger.Error(msg, append(cl.fields(), fields...)...)
}

// Zap returns the underlying logger with the correlation fields applied.
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.logger.With(cl.fields()...)
}

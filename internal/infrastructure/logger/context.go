package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	tenantIDKey  contextKey = "tenant_id"
	userIDKey    contextKey = "user_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID for log correlation
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithTenantID stores the tenant ID for log correlation
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// WithUserID stores the user ID for log correlation
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}

// GetTenantID retrieves tenant ID from context
func GetTenantID(ctx context.Context) string {
	s, _ := ctx.Value(tenantIDKey).(string)
	return s
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	s, _ := ctx.Value(userIDKey).(string)
	return s
}

// Fields returns the correlation fields present in ctx: trace and span IDs
// from the active span, then request, tenant and user IDs.
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetTenantID(ctx); v != "" {
		fields = append(fields, zap.String("tenant_id", v))
	}
	if v := GetUserID(ctx); v != "" {
		fields = append(fields, zap.String("user_id", v))
	}
	return fields
}

// L returns the context logger enriched with the correlation fields.
// Usage: logger.L(ctx).Info("session closed", zap.String("session_id", id))
func L(ctx context.Context) *zap.Logger {
	return FromContext(ctx).With(Fields(ctx)...)
}

// Enrich returns l with the correlation fields of ctx.
func Enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		return L(ctx)
	}
	return l.With(Fields(ctx)...)
}

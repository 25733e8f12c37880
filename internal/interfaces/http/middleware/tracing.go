// Package middleware provides the HTTP pipeline of the register API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing wraps otelgin. Span names follow "METHOD /route/:pattern".
// When disabled the middleware is a pass-through.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// TracingAttributeInjector copies request and caller IDs onto the server span.
// Place it after Authenticate.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if rid := GetRequestID(c); rid != "" {
				span.SetAttributes(attribute.String("request_id", rid))
			}
			if id, ok := GetIdentity(c); ok {
				span.SetAttributes(
					attribute.String("tenant_id", id.TenantID.String()),
					attribute.String("user_id", id.UserID.String()),
				)
			}
		}
		c.Next()
	}
}

// SpanErrorMarker marks the server span as failed for 4xx/5xx responses
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("error.message", c.Errors.Last().Error()))
		}
	}
}

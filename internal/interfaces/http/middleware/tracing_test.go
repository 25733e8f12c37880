package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracing_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(Tracing("treasury", false))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestTracing_SpanAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tenantID, userID := uuid.New(), uuid.New()

	r := gin.New()
	r.Use(RequestID(), Tracing("treasury", true), SpanErrorMarker(),
		Authenticate(AuthConfig{AllowHeaderIdentity: true}), TracingAttributeInjector())
	r.GET("/api/v1/cashboxes/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cashboxes/1", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	req.Header.Set(HeaderTenantID, tenantID.String())
	req.Header.Set(HeaderUserID, userID.String())
	serve(r, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "req-42", attrs["request_id"].AsString())
	assert.Equal(t, tenantID.String(), attrs["tenant_id"].AsString())
	assert.Equal(t, userID.String(), attrs["user_id"].AsString())
}

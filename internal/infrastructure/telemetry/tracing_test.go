package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartSpan_NameAndAttributes(t *testing.T) {
	rec := installRecorder(t)

	ctx, span := StartSpan(context.Background(), "cashbox_session", "open", AttrStoreID.String("s-1"))
	assert.NotEmpty(t, TraceID(ctx))
	End(span, nil)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "cashbox_session.open", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestEnd_RecordsDomainErrorCode(t *testing.T) {
	rec := installRecorder(t)

	_, span := StartSpan(context.Background(), "cash_movement", "record")
	End(span, shared.NewDomainError("INSUFFICIENT_FUNDS", "short"))

	s := rec.Ended()[0]
	assert.Equal(t, codes.Error, s.Status().Code)
	found := false
	for _, kv := range s.Attributes() {
		if kv.Key == "error.code" {
			found = true
			assert.Equal(t, "INSUFFICIENT_FUNDS", kv.Value.AsString())
		}
	}
	assert.True(t, found)
}

func TestEnd_PlainError(t *testing.T) {
	rec := installRecorder(t)

	_, span := StartSpan(context.Background(), "x", "y")
	End(span, errors.New("boom"))

	assert.Equal(t, codes.Error, rec.Ended()[0].Status().Code)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of application spans
const TracerName = "github.com/erp/treasury"

// Span attribute keys shared by services
var (
	AttrTenantID  = attribute.Key("tenant_id")
	AttrStoreID   = attribute.Key("store_id")
	AttrCashboxID = attribute.Key("cashbox_id")
	AttrSessionID = attribute.Key("session_id")
	AttrChannel   = attribute.Key("channel")
	AttrCategory  = attribute.Key("category")
	AttrDirection = attribute.Key("direction")
	AttrOutcome   = attribute.Key("outcome")
)

// StartSpan starts an internal span named "{service}.{operation}".
//
//	ctx, span := telemetry.StartSpan(ctx, "cashbox_session", "close", telemetry.AttrSessionID.String(id))
//	defer span.End()
func StartSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// End records err on the span, if any, and ends it. Intended for
// `defer func() { telemetry.End(span, err) }()` with a named error result.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var coded interface{ ErrorCode() string }
		if errors.As(err, &coded) {
			span.SetAttributes(attribute.String("error.code", coded.ErrorCode()))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the current trace ID, or "" outside a sampled span
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

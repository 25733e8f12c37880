package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPDurationBuckets are latency bucket boundaries in seconds
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requests, err := meter.Int64Counter("http_server_request_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency distribution in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(HTTPDurationBuckets...))
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &httpMetrics{requests: requests, duration: duration, active: active}, nil
}

// HTTPMetrics counts requests and records their latency by method and route
// pattern. A nil meter, or a failure to create instruments, yields a no-op.
func HTTPMetrics(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	noop := func(c *gin.Context) { c.Next() }
	if meter == nil {
		return noop
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return noop
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.active.Add(ctx, 1)

		c.Next()

		m.active.Add(ctx, -1)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		}
		m.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
		attrs = append(attrs, attribute.Int("http.status_code", c.Writer.Status()))
		if tid := c.GetString(TenantIDKey); tid != "" {
			attrs = append(attrs, attribute.String("tenant_id", tid))
		}
		m.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

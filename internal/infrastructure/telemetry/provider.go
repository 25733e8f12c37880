// Package telemetry wires OpenTelemetry traces, metrics and logs for the treasury service.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds OpenTelemetry export configuration.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	LogsLevel         zapcore.Level
}

// Providers owns the SDK providers. A nil field means that signal is disabled
// and the global no-op implementation is in effect.
type Providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
	logs   *sdklog.LoggerProvider
	config Config
	logger *zap.Logger
}

// Setup creates the providers enabled by cfg and installs them globally.
func Setup(ctx context.Context, cfg Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{config: cfg, logger: logger}
	if !cfg.Enabled {
		logger.Info("Telemetry disabled, using no-op providers")
		return p, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	if err := p.setupTracing(ctx, res); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled {
		if err := p.setupMetrics(ctx, res); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}
	if cfg.LogsEnabled {
		if err := p.setupLogs(ctx, res); err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
	}

	logger.Info("OpenTelemetry initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Bool("logs", cfg.LogsEnabled),
	)
	return p, nil
}

func newResource(cfg Config) (*resource.Resource, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// Sampler maps a sampling ratio to an SDK sampler, honouring the parent's decision.
func Sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1.0:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0.0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func (p *Providers) setupTracing(ctx context.Context, res *resource.Resource) error {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(p.config.CollectorEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	p.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(p.config.SamplingRatio)),
	)
	otel.SetTracerProvider(p.tracer)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

func (p *Providers) setupMetrics(ctx context.Context, res *resource.Resource) error {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(p.config.CollectorEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	interval := p.config.MetricsInterval
	if interval == 0 {
		interval = 60 * time.Second
	}
	p.meter = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(p.meter)
	return nil
}

func (p *Providers) setupLogs(ctx context.Context, res *resource.Resource) error {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(p.config.CollectorEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}

	p.logs = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(p.logs)
	return nil
}

// Meter returns a named meter, falling back to the global provider.
func (p *Providers) Meter(name string) metric.Meter {
	if p == nil || p.meter == nil {
		return otel.GetMeterProvider().Meter(name)
	}
	return p.meter.Meter(name)
}

// TracerProvider exposes the SDK tracer provider, nil when tracing is off.
func (p *Providers) TracerProvider() *sdktrace.TracerProvider {
	return p.tracer
}

// LogCore returns a zap core shipping entries to the OTLP log pipeline, or nil
// when log export is disabled.
func (p *Providers) LogCore() zapcore.Core {
	if p == nil || p.logs == nil {
		return nil
	}
	return &levelFilterCore{
		Core:     otelzap.NewCore(p.config.ServiceName, otelzap.WithLoggerProvider(p.logs)),
		minLevel: p.config.LogsLevel,
	}
}

// Shutdown flushes and stops every enabled provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error
	if p.tracer != nil {
		errs = append(errs, p.tracer.Shutdown(ctx))
	}
	if p.meter != nil {
		errs = append(errs, p.meter.Shutdown(ctx))
	}
	if p.logs != nil {
		errs = append(errs, p.logs.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		p.logger.Error("Error shutting down telemetry", zap.Error(err))
		return err
	}
	return nil
}

// levelFilterCore drops entries below minLevel; otelzap cores accept every level.
type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.minLevel && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), minLevel: c.minLevel}
}

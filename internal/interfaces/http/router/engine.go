package router

import (
	"github.com/erp/treasury/internal/infrastructure/config"
	"github.com/erp/treasury/internal/infrastructure/logger"
	"github.com/erp/treasury/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineOptions are the dependencies of the HTTP engine
type EngineOptions struct {
	App       config.AppConfig
	HTTP      config.HTTPConfig
	JWT       config.JWTConfig
	Telemetry config.TelemetryConfig
	Verifier  middleware.TokenVerifier
	Meter     metric.Meter
	Logger    *zap.Logger
}

// NewEngine builds the gin engine with the full middleware chain, the health
// probes and the register API under /api/v1.
func NewEngine(opts EngineOptions, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Tracing(opts.Telemetry.ServiceName, opts.Telemetry.Enabled),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(opts.Meter, log),
		middleware.Secure(middleware.SecurityConfig{HSTSEnabled: opts.App.IsProduction()}),
		middleware.CORSWithConfig(middleware.CORSFromHTTPConfig(opts.HTTP)),
		middleware.BodyLimit(opts.HTTP.MaxBodySize),
	)

	HealthRoutes(engine, h.System)

	NewRouter(engine, WithMiddleware(
		middleware.Authenticate(middleware.AuthConfig{
			Verifier:            opts.Verifier,
			AllowHeaderIdentity: opts.JWT.AllowHeaderIdentity && !opts.App.IsProduction(),
			Logger:              log,
		}),
		middleware.TracingAttributeInjector(),
	)).Register(TreasuryGroups(h, log)...).Setup()

	return engine
}

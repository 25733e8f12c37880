package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in spans (dev only)
	SlowQueryThresh time.Duration
	DBName          string
}

type queryStartKey struct{}

type registerFunc func(name string, fn func(*gorm.DB)) error

// RegisterDBTracing installs the otelgorm plugin plus timing callbacks that
// flag slow statements and mark failed ones on the active span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	hooks := []struct {
		op            string
		before, after registerFunc
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	after := slowQueryCallback(cfg.SlowQueryThresh)
	for _, h := range hooks {
		if err := h.before("otel_timing:before_"+h.op, markQueryStart); err != nil {
			return err
		}
		if err := h.after("otel_timing:after_"+h.op, after); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func slowQueryCallback(threshold time.Duration) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}

		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok || threshold <= 0 {
			return
		}
		if elapsed := time.Since(start); elapsed > threshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("threshold_ms", threshold.Milliseconds()),
			))
		}
	}
}

package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes GORM logs through zap
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	logSQL        bool
}

// GormOption configures a GormLogger
type GormOption func(*GormLogger)

// WithSlowThreshold sets the slow query threshold; zero disables slow query warnings
func WithSlowThreshold(d time.Duration) GormOption {
	return func(l *GormLogger) { l.slowThreshold = d }
}

// WithSQL includes the full SQL text on every query log
func WithSQL(enabled bool) GormOption {
	return func(l *GormLogger) { l.logSQL = enabled }
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormOption) *GormLogger {
	gl := &GormLogger{
		logger:        base.Named("gorm"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		Enrich(ctx, l.logger).Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		Enrich(ctx, l.logger).Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		Enrich(ctx, l.logger).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := append(Fields(ctx),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	)

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		fields = append(fields, zap.String("sql", sql), zap.Error(err))
		l.logger.Error("SQL error", fields...)
	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		fields = append(fields, zap.String("sql", sql), zap.Duration("threshold", l.slowThreshold))
		l.logger.Warn("Slow SQL", fields...)
	case l.level >= gormlogger.Info:
		if l.logSQL {
			fields = append(fields, zap.String("sql", sql))
		}
		l.logger.Debug("SQL query", fields...)
	}
}

// MapGormLogLevel maps an application log level to the GORM level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

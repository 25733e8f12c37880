package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when TreasuryMetrics is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// TreasuryMetrics records register business metrics. A nil *TreasuryMetrics is
// valid and records nothing, so services can take it as an optional dependency.
type TreasuryMetrics struct {
	logger *zap.Logger

	movements         metric.Int64Counter
	movementAmount    metric.Float64Counter
	sessionsOpened    metric.Int64Counter
	sessionsClosed    metric.Int64Counter
	discrepancy       metric.Float64Histogram
	insufficientFunds metric.Int64Counter
	cacheAdjustments  metric.Int64Counter
	cacheDrift        metric.Float64Gauge
	balanceDuration   metric.Float64Histogram
}

// DurationBuckets are bucket boundaries for balance computation (seconds).
var DurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// NewTreasuryMetrics creates the instruments on meter.
func NewTreasuryMetrics(meter metric.Meter, logger *zap.Logger) (*TreasuryMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &TreasuryMetrics{logger: logger}
	var err error
	if m.movements, err = meter.Int64Counter("erp_cash_movements_total",
		metric.WithDescription("Ledger entries recorded"), metric.WithUnit("{entries}")); err != nil {
		return nil, err
	}
	if m.movementAmount, err = meter.Float64Counter("erp_cash_movement_amount_total",
		metric.WithDescription("Sum of ledger entry amounts")); err != nil {
		return nil, err
	}
	if m.sessionsOpened, err = meter.Int64Counter("erp_register_sessions_opened_total",
		metric.WithDescription("Register sessions opened"), metric.WithUnit("{sessions}")); err != nil {
		return nil, err
	}
	if m.sessionsClosed, err = meter.Int64Counter("erp_register_sessions_closed_total",
		metric.WithDescription("Register sessions closed"), metric.WithUnit("{sessions}")); err != nil {
		return nil, err
	}
	if m.discrepancy, err = meter.Float64Histogram("erp_register_session_discrepancy",
		metric.WithDescription("Absolute closing discrepancy per session")); err != nil {
		return nil, err
	}
	if m.insufficientFunds, err = meter.Int64Counter("erp_insufficient_funds_total",
		metric.WithDescription("Outflows rejected for insufficient funds")); err != nil {
		return nil, err
	}
	if m.cacheAdjustments, err = meter.Int64Counter("erp_cashbox_cache_adjustments_total",
		metric.WithDescription("Cached balance adjustments applied")); err != nil {
		return nil, err
	}
	if m.cacheDrift, err = meter.Float64Gauge("erp_cashbox_cache_drift",
		metric.WithDescription("Last observed difference between cached and recomputed balance")); err != nil {
		return nil, err
	}
	if m.balanceDuration, err = meter.Float64Histogram("erp_balance_compute_duration_seconds",
		metric.WithDescription("Balance reconciliation latency"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DurationBuckets...)); err != nil {
		return nil, err
	}
	return m, nil
}

func tenantAttr(id uuid.UUID) attribute.KeyValue {
	return AttrTenantID.String(id.String())
}

// RecordMovement counts a ledger entry and adds its amount.
func (m *TreasuryMetrics) RecordMovement(ctx context.Context, tenantID uuid.UUID, direction, category, channel string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		tenantAttr(tenantID),
		AttrDirection.String(direction),
		AttrCategory.String(category),
		AttrChannel.String(channel),
	)
	m.movements.Add(ctx, 1, attrs)
	m.movementAmount.Add(ctx, amount.InexactFloat64(), attrs)
}

// RecordSessionOpened counts a session opening.
func (m *TreasuryMetrics) RecordSessionOpened(ctx context.Context, tenantID uuid.UUID) {
	if m == nil {
		return
	}
	m.sessionsOpened.Add(ctx, 1, metric.WithAttributes(tenantAttr(tenantID)))
}

// RecordSessionClosed counts a session close and records its discrepancy.
func (m *TreasuryMetrics) RecordSessionClosed(ctx context.Context, tenantID uuid.UUID, discrepancy decimal.Decimal) {
	if m == nil {
		return
	}
	outcome := "balanced"
	switch discrepancy.Sign() {
	case 1:
		outcome = "over"
	case -1:
		outcome = "short"
	}
	attrs := metric.WithAttributes(tenantAttr(tenantID), AttrOutcome.String(outcome))
	m.sessionsClosed.Add(ctx, 1, attrs)
	m.discrepancy.Record(ctx, discrepancy.Abs().InexactFloat64(), attrs)
}

// RecordInsufficientFunds counts a rejected outflow.
func (m *TreasuryMetrics) RecordInsufficientFunds(ctx context.Context, tenantID uuid.UUID, channel string) {
	if m == nil {
		return
	}
	m.insufficientFunds.Add(ctx, 1, metric.WithAttributes(tenantAttr(tenantID), AttrChannel.String(channel)))
}

// RecordCacheAdjustment counts one cached balance update.
func (m *TreasuryMetrics) RecordCacheAdjustment(ctx context.Context, tenantID uuid.UUID, source string) {
	if m == nil {
		return
	}
	m.cacheAdjustments.Add(ctx, 1, metric.WithAttributes(tenantAttr(tenantID), attribute.String("source", source)))
}

// RecordDrift records recomputed minus cached balance for a register.
func (m *TreasuryMetrics) RecordDrift(ctx context.Context, tenantID, cashboxID uuid.UUID, drift decimal.Decimal) {
	if m == nil {
		return
	}
	if !drift.IsZero() {
		m.logger.Warn("Cashbox cache drift detected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("cashbox_id", cashboxID.String()),
			zap.String("drift", drift.String()),
		)
	}
	m.cacheDrift.Record(ctx, drift.InexactFloat64(),
		metric.WithAttributes(tenantAttr(tenantID), AttrCashboxID.String(cashboxID.String())))
}

// RecordBalanceComputation records how long a reconciliation took.
func (m *TreasuryMetrics) RecordBalanceComputation(ctx context.Context, channel string, d time.Duration) {
	if m == nil {
		return
	}
	m.balanceDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrChannel.String(channel)))
}

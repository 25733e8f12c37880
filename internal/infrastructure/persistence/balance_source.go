package persistence

import (
	"context"
	"fmt"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/domain/finance"
	"github.com/erp/treasury/internal/infrastructure/persistence/models"
	"github.com/erp/treasury/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBalanceSource aggregates transaction sources and ledger entries for
// the balance computation. It reads only source tables, never cashboxes.balance.
type GormBalanceSource struct {
	db *gorm.DB
}

// NewGormBalanceSource creates a new GormBalanceSource
func NewGormBalanceSource(db *gorm.DB) *GormBalanceSource {
	return &GormBalanceSource{db: db}
}

type channelTotal struct {
	Channel string
	Total   decimal.Decimal
}

type ledgerTotal struct {
	Direction string
	Category  string
	Channel   string
	Total     decimal.Decimal
}

// SourceTotals sums every source per channel, scoped to storeID when set
func (s *GormBalanceSource) SourceTotals(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID) (cashbox.SourceTotals, error) {
	totals := cashbox.NewSourceTotals()

	sums := []struct {
		name   string
		model  any
		column string
		where  func(db *gorm.DB) *gorm.DB
		into   map[cashbox.PaymentChannel]decimal.Decimal
	}{
		{"sales", &models.SaleModel{}, "paid_amount", nil, totals.SalesPaid},
		{"invoice payments", &models.InvoicePaymentModel{}, "amount", nil, totals.InvoicePayments},
		{"expenses", &models.ExpenseModel{}, "amount", paidExpenses, totals.PaidExpenses},
		{"supplier payments", &models.SupplierPaymentModel{}, "amount", nil, totals.SupplierPayments},
		{"loan payments", &models.LoanPaymentModel{}, "amount", nil, totals.LoanPayments},
	}
	for _, sum := range sums {
		if err := s.sumByChannel(ctx, tenantID, storeID, sum.model, sum.column, sum.where, sum.into); err != nil {
			return cashbox.SourceTotals{}, fmt.Errorf("failed to sum %s: %w", sum.name, err)
		}
	}

	ledger, err := s.ledgerTotals(ctx, tenantID, storeID)
	if err != nil {
		return cashbox.SourceTotals{}, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	totals.Ledger = ledger
	return totals, nil
}

func paidExpenses(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", finance.ExpenseStatusPaid)
}

func (s *GormBalanceSource) sumByChannel(
	ctx context.Context,
	tenantID uuid.UUID,
	storeID *uuid.UUID,
	model any,
	column string,
	where func(db *gorm.DB) *gorm.DB,
	into map[cashbox.PaymentChannel]decimal.Decimal,
) error {
	query := s.db.WithContext(ctx).
		Model(model).
		Scopes(tenant.Scope(tenantID), tenant.StoreScope("store_id", storeID)).
		Select(fmt.Sprintf("channel, COALESCE(SUM(%s), 0) AS total", column)).
		Where("channel IS NOT NULL").
		Group("channel")
	if where != nil {
		query = query.Scopes(where)
	}

	var rows []channelTotal
	if err := query.Scan(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		ch := cashbox.PaymentChannel(row.Channel)
		into[ch] = into[ch].Add(row.Total)
	}
	return nil
}

func (s *GormBalanceSource) ledgerTotals(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID) ([]cashbox.LedgerTotal, error) {
	var rows []ledgerTotal
	if err := s.db.WithContext(ctx).
		Model(&models.CashMovementModel{}).
		Scopes(tenant.Scope(tenantID), tenant.StoreScope("store_id", storeID)).
		Select("direction, category, channel, COALESCE(SUM(amount), 0) AS total").
		Group("direction, category, channel").
		Order("direction, category, channel").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]cashbox.LedgerTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, cashbox.LedgerTotal{
			Direction: cashbox.Direction(row.Direction),
			Category:  cashbox.Category(row.Category),
			Channel:   cashbox.PaymentChannel(row.Channel),
			Amount:    row.Total,
		})
	}
	return out, nil
}

var _ cashbox.BalanceSource = (*GormBalanceSource)(nil)

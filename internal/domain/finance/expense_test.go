package finance

import (
	"testing"
	"time"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestExpense(t *testing.T) *Expense {
	t.Helper()
	e, err := NewExpense(uuid.New(), uuid.New(), "EXP-202601-00001", ExpenseCategoryRent, amt("300"), "January rent", time.Now())
	require.NoError(t, err)
	return e
}

func TestNewExpense(t *testing.T) {
	e := newTestExpense(t)
	assert.Equal(t, ExpenseStatusPending, e.Status)
	assert.Nil(t, e.Channel)
	assert.Empty(t, cashbox.CollectEffects(e.GetDomainEvents()))

	tenant, store := uuid.New(), uuid.New()
	tests := []struct {
		name     string
		number   string
		category ExpenseCategory
		amount   string
		desc     string
	}{
		{"empty number", "", ExpenseCategoryRent, "1", "x"},
		{"bad category", "E-1", ExpenseCategory("PARTY"), "1", "x"},
		{"zero amount", "E-1", ExpenseCategoryRent, "0", "x"},
		{"empty description", "E-1", ExpenseCategoryRent, "1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExpense(tenant, store, tt.number, tt.category, amt(tt.amount), tt.desc, time.Time{})
			assert.Error(t, err)
		})
	}
}

func TestExpense_PayAndReverse(t *testing.T) {
	e := newTestExpense(t)
	e.ClearDomainEvents()

	require.NoError(t, e.Pay(cashbox.PaymentChannelCash, uuid.New()))
	assert.True(t, e.IsPaid())
	assert.Equal(t, cashbox.PaymentChannelCash, *e.Channel)

	effects := cashbox.CollectEffects(e.GetDomainEvents())
	require.Len(t, effects, 1)
	assert.True(t, effects[0].Delta.Equal(amt("-300")))
	assert.Equal(t, cashbox.CategoryExpense, effects[0].Mirror)

	assert.Error(t, e.Pay(cashbox.PaymentChannelCash, uuid.New()))
	assert.Error(t, e.Cancel("too late"))

	e.ClearDomainEvents()
	assert.Error(t, e.ReversePayment(""))
	require.NoError(t, e.ReversePayment("paid twice by mistake"))
	assert.Equal(t, ExpenseStatusPending, e.Status)
	assert.Nil(t, e.Channel)

	effects = cashbox.CollectEffects(e.GetDomainEvents())
	require.Len(t, effects, 1)
	assert.True(t, effects[0].Delta.Equal(amt("300")))
	assert.Equal(t, cashbox.BalanceCash, effects[0].Channel)
}

func TestExpense_Cancel(t *testing.T) {
	e := newTestExpense(t)
	require.NoError(t, e.Cancel("duplicate"))
	assert.Equal(t, ExpenseStatusCancelled, e.Status)
	assert.Error(t, e.Pay(cashbox.PaymentChannelCash, uuid.Nil))
	assert.Error(t, e.ReversePayment("x"))
}

func TestExpense_PayRejectsUnknownChannel(t *testing.T) {
	e := newTestExpense(t)
	err := e.Pay(cashbox.PaymentChannel("crypto"), uuid.New())
	assert.ErrorIs(t, err, cashbox.ErrInvalidChannel)
	assert.Equal(t, ExpenseStatusPending, e.Status)
}

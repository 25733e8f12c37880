package cashbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManualMovement(t *testing.T) {
	rs := CurrentRules()

	t.Run("session movement inherits store and cashbox", func(t *testing.T) {
		s := newOpenSession(t, "1000")
		m, err := NewManualMovement(rs, MovementParams{
			TenantID:  s.TenantID,
			Number:    "MVT-202601-00001",
			Session:   s,
			Direction: DirectionOut,
			Category:  CategoryAdjustment,
			Channel:   PaymentChannelCash,
			Amount:    d("1000"),
		})
		require.NoError(t, err)
		assert.Equal(t, s.ID, *m.SessionID)
		assert.Equal(t, s.CashboxID, *m.CashboxID)
		assert.Equal(t, s.StoreID, *m.StoreID)
		assert.True(t, m.SignedAmount().Equal(d("-1000")))

		events := m.GetDomainEvents()
		require.Len(t, events, 1)
		effects := CollectEffects(events)
		require.Len(t, effects, 1)
		assert.Equal(t, BalanceCash, effects[0].Channel)
		assert.True(t, effects[0].Delta.Equal(d("-1000")))
		assert.Equal(t, s.StoreID, *effects[0].StoreID)
	})

	t.Run("closed session is rejected", func(t *testing.T) {
		s := newOpenSession(t, "0")
		require.NoError(t, s.Close(uuid.New(), MovementTotals{In: d("0"), Out: d("0")}, d("0"), ""))
		_, err := NewManualMovement(rs, MovementParams{
			TenantID: s.TenantID, Number: "MVT-1", Session: s,
			Direction: DirectionIn, Category: CategoryOther, Channel: PaymentChannelCash, Amount: d("1"),
		})
		assertCode(t, err, CodeSessionNotOpen)
	})

	t.Run("session movement must be cash", func(t *testing.T) {
		s := newOpenSession(t, "0")
		_, err := NewManualMovement(rs, MovementParams{
			TenantID: s.TenantID, Number: "MVT-1", Session: s,
			Direction: DirectionIn, Category: CategoryOther, Channel: PaymentChannelBankTransfer, Amount: d("1"),
		})
		assertCode(t, err, CodeInvalidChannel)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		_, err := NewManualMovement(rs, MovementParams{
			TenantID: uuid.New(), Number: "MVT-1",
			Direction: DirectionIn, Category: CategoryOther, Channel: PaymentChannelCash, Amount: d("-1"),
		})
		assertCode(t, err, CodeInvalidAmount)
	})

	t.Run("tenant level movement has no store", func(t *testing.T) {
		m, err := NewManualMovement(rs, MovementParams{
			TenantID: uuid.New(), Number: "MVT-1",
			Direction: DirectionIn, Category: CategoryLoanDisbursement, Channel: PaymentChannelBankTransfer, Amount: d("300"),
		})
		require.NoError(t, err)
		assert.Nil(t, m.StoreID)
		assert.Nil(t, m.SessionID)
		effects := m.Effects(rs)
		require.Len(t, effects, 1)
		assert.Equal(t, BalanceBank, effects[0].Channel)
		assert.Nil(t, effects[0].StoreID)
	})

	t.Run("source owned category is rejected", func(t *testing.T) {
		_, err := NewManualMovement(rs, MovementParams{
			TenantID: uuid.New(), Number: "MVT-1",
			Direction: DirectionIn, Category: CategorySale, Channel: PaymentChannelCash, Amount: d("1"),
		})
		assertCode(t, err, CodeInvalidCategory)
	})
}

func TestNewMirroredMovement(t *testing.T) {
	s := newOpenSession(t, "0")
	saleID := uuid.New()
	effects := SourceEffect(s.TenantID, s.StoreID, PaymentChannelCash, d("-250"),
		SourceRef{Type: SourceSale, ID: saleID, Number: "SO-1"})
	require.Len(t, effects, 1)

	m, err := NewMirroredMovement(s, "MVT-2", effects[0])
	require.NoError(t, err)
	assert.Equal(t, DirectionOut, m.Direction)
	assert.Equal(t, CategorySale, m.Category)
	assert.True(t, m.Amount.Equal(d("250")))
	assert.Equal(t, saleID, *m.SaleID)
	assert.Equal(t, SourceSale, *m.SourceType)
	assert.Equal(t, "SO-1", m.Reference)
	assert.Equal(t, "sale SO-1", m.Description)
	assert.Empty(t, m.Effects(CurrentRules()))
	assert.Empty(t, CollectEffects(m.GetDomainEvents()))
}

func TestSourceEffect_UntrackedChannel(t *testing.T) {
	assert.Empty(t, SourceEffect(uuid.New(), uuid.New(), PaymentChannelCard, d("10"), SourceRef{Type: SourceSale}))
	assert.Empty(t, SourceEffect(uuid.New(), uuid.New(), PaymentChannelCash, d("0"), SourceRef{Type: SourceSale}))
}

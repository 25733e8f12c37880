package cashbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCashCount(t *testing.T) {
	s := newOpenSession(t, "0")

	t.Run("totals value times quantity", func(t *testing.T) {
		cc, err := NewCashCount(s, CountTypeClosing, map[string]int{
			"note_10000": 2,
			"note_500":   1,
			"coin_500":   3,
			"coin_25":    4,
		}, uuid.New(), "")
		require.NoError(t, err)
		assert.True(t, cc.Total.Equal(d("22100")), cc.Total.String())
		assert.Len(t, cc.Lines, len(Denominations))
		assert.Equal(t, map[string]int{"note_10000": 2, "note_500": 1, "coin_500": 3, "coin_25": 4}, cc.Quantities())
	})

	t.Run("empty count is zero", func(t *testing.T) {
		cc, err := NewCashCount(s, CountTypeInterim, nil, uuid.Nil, "")
		require.NoError(t, err)
		assert.True(t, cc.Total.IsZero())
		assert.Nil(t, cc.CountedBy)
	})

	t.Run("rejects unknown denomination", func(t *testing.T) {
		_, err := NewCashCount(s, CountTypeOpening, map[string]int{"note_20000": 1}, uuid.New(), "")
		assertCode(t, err, CodeInvalidDenomination)
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := NewCashCount(s, CountTypeOpening, map[string]int{"coin_5": -1}, uuid.New(), "")
		assertCode(t, err, CodeInvalidDenomination)
	})

	t.Run("rejects unknown count type", func(t *testing.T) {
		_, err := NewCashCount(s, CountType("surprise"), nil, uuid.New(), "")
		assertCode(t, err, "INVALID_COUNT_TYPE")
	})

	t.Run("rejects closed session", func(t *testing.T) {
		closed := newOpenSession(t, "0")
		require.NoError(t, closed.Close(uuid.New(), MovementTotals{In: d("0"), Out: d("0")}, d("0"), ""))
		_, err := NewCashCount(closed, CountTypeClosing, nil, uuid.New(), "")
		assertCode(t, err, CodeSessionNotOpen)
	})
}

func TestSortLines(t *testing.T) {
	lines := []DenominationLine{
		{Denomination: Denomination{KindCoin, 500}},
		{Denomination: Denomination{KindCoin, 5}},
		{Denomination: Denomination{KindNote, 500}},
		{Denomination: Denomination{KindNote, 10000}},
	}
	SortLines(lines)
	assert.Equal(t, "note_10000", lines[0].Key())
	assert.Equal(t, "note_500", lines[1].Key())
	assert.Equal(t, "coin_500", lines[2].Key())
	assert.Equal(t, "coin_5", lines[3].Key())
}

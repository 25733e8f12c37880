package cashbox

import (
	"fmt"
	"sort"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CountType is the moment a physical count was taken
type CountType string

const (
	CountTypeOpening CountType = "opening"
	CountTypeClosing CountType = "closing"
	CountTypeInterim CountType = "interim"
)

func (t CountType) IsValid() bool {
	switch t {
	case CountTypeOpening, CountTypeClosing, CountTypeInterim:
		return true
	}
	return false
}

// DenominationKind separates notes from coins of the same face value
type DenominationKind string

const (
	KindNote DenominationKind = "note"
	KindCoin DenominationKind = "coin"
)

// Denomination is one face value of the operating currency
type Denomination struct {
	Kind  DenominationKind `json:"kind"`
	Value int64            `json:"value"`
}

// Key identifies the denomination, e.g. "note_500"
func (d Denomination) Key() string {
	return fmt.Sprintf("%s_%d", d.Kind, d.Value)
}

// Denominations of the West African CFA franc, largest first
var Denominations = []Denomination{
	{KindNote, 10000}, {KindNote, 5000}, {KindNote, 2000}, {KindNote, 1000}, {KindNote, 500},
	{KindCoin, 500}, {KindCoin, 250}, {KindCoin, 200}, {KindCoin, 100},
	{KindCoin, 50}, {KindCoin, 25}, {KindCoin, 10}, {KindCoin, 5},
}

// DenominationLine is a counted quantity of one denomination
type DenominationLine struct {
	Denomination
	Quantity int `json:"quantity"`
}

// Subtotal returns value * quantity
func (l DenominationLine) Subtotal() decimal.Decimal {
	return decimal.NewFromInt(l.Value).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CashCount is a physical count of a session's drawer. It is an audit record
// and never feeds the balance computation.
type CashCount struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	SessionID uuid.UUID
	CountType CountType
	Lines     []DenominationLine
	Total     decimal.Decimal
	CountedBy *uuid.UUID
	Notes     string
}

// NewCashCount builds a count from quantities keyed by denomination key.
// Missing denominations count as zero.
func NewCashCount(session *Session, countType CountType, quantities map[string]int, countedBy uuid.UUID, notes string) (*CashCount, error) {
	if !countType.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_COUNT_TYPE", "Unknown count type %q", countType)
	}
	if !session.IsOpen() {
		return nil, NewSessionNotOpenError(session.ID)
	}

	known := make(map[string]Denomination, len(Denominations))
	for _, d := range Denominations {
		known[d.Key()] = d
	}
	for key, qty := range quantities {
		if _, ok := known[key]; !ok {
			return nil, shared.NewDomainErrorf(CodeInvalidDenomination, "Unknown denomination %q", key)
		}
		if qty < 0 {
			return nil, shared.NewDomainErrorf(CodeInvalidDenomination, "Quantity for %s cannot be negative", key)
		}
	}

	lines := make([]DenominationLine, 0, len(Denominations))
	for _, d := range Denominations {
		lines = append(lines, DenominationLine{Denomination: d, Quantity: quantities[d.Key()]})
	}

	cc := &CashCount{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   session.TenantID,
		SessionID:  session.ID,
		CountType:  countType,
		Lines:      lines,
		Notes:      notes,
	}
	if countedBy != uuid.Nil {
		cc.CountedBy = &countedBy
	}
	cc.Total = TotalOf(lines)
	return cc, nil
}

// TotalOf sums value * quantity over lines
func TotalOf(lines []DenominationLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Quantities returns the non-zero quantities keyed by denomination key
func (c *CashCount) Quantities() map[string]int {
	out := make(map[string]int)
	for _, l := range c.Lines {
		if l.Quantity > 0 {
			out[l.Key()] = l.Quantity
		}
	}
	return out
}

// SortLines orders lines largest first, notes before coins of equal value
func SortLines(lines []DenominationLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Value != lines[j].Value {
			return lines[i].Value > lines[j].Value
		}
		return lines[i].Kind == KindNote && lines[j].Kind == KindCoin
	})
}

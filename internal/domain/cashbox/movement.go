package cashbox

import (
	"strings"
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement is an immutable ledger entry of money entering or leaving a register.
// Entries owned by a session inherit the session's store; session-less entries
// may carry a store directly or none at all for tenant level movements.
type Movement struct {
	shared.TenantAggregateRoot
	MovementNumber string
	SessionID      *uuid.UUID
	CashboxID      *uuid.UUID
	StoreID        *uuid.UUID
	Direction      Direction
	Category       Category
	Channel        PaymentChannel
	Amount         decimal.Decimal
	Reference      string
	Description    string
	Notes          string
	SaleID         *uuid.UUID
	SourceType     *SourceType
	SourceID       *uuid.UUID
	RecordedBy     *uuid.UUID
	RecordedAt     time.Time
}

// MovementParams carries the caller supplied fields of a new movement
type MovementParams struct {
	TenantID    uuid.UUID
	Number      string
	Session     *Session
	CashboxID   *uuid.UUID
	StoreID     *uuid.UUID
	Direction   Direction
	Category    Category
	Channel     PaymentChannel
	Amount      decimal.Decimal
	Reference   string
	Description string
	Notes       string
	RecordedBy  uuid.UUID
}

// NewManualMovement validates and builds a hand-recorded movement
func NewManualMovement(rules RuleSet, p MovementParams) (*Movement, error) {
	if err := rules.ValidateManual(p.Direction, p.Category, p.Channel); err != nil {
		return nil, err
	}
	return newMovement(p)
}

// NewMirroredMovement records a transaction source's cash effect inside the
// store's open session. Its category is source owned, so it never counts twice.
func NewMirroredMovement(session *Session, number string, eff CashEffect) (*Movement, error) {
	if eff.Mirror == "" {
		return nil, shared.NewDomainError(CodeInvalidCategory, "Effect has no mirror category")
	}
	direction := DirectionIn
	if eff.IsDebit() {
		direction = DirectionOut
	}
	m, err := newMovement(MovementParams{
		TenantID:    eff.TenantID,
		Number:      number,
		Session:     session,
		Direction:   direction,
		Category:    eff.Mirror,
		Channel:     eff.Channel.PaymentChannel(),
		Amount:      eff.Delta.Abs(),
		Reference:   eff.Source.Number,
		Description: mirrorDescription(eff.Source),
	})
	if err != nil {
		return nil, err
	}
	st, sid := eff.Source.Type, eff.Source.ID
	m.SourceType = &st
	m.SourceID = &sid
	if st == SourceSale {
		m.SaleID = &sid
	}
	return m, nil
}

func mirrorDescription(src SourceRef) string {
	label := strings.ToLower(strings.ReplaceAll(string(src.Type), "_", " "))
	if src.Number == "" {
		return label
	}
	return label + " " + src.Number
}

func newMovement(p MovementParams) (*Movement, error) {
	if p.Number == "" {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_NUMBER", "Movement number cannot be empty")
	}
	if p.Amount.IsNegative() {
		return nil, shared.NewDomainError(CodeInvalidAmount, "Amount cannot be negative")
	}
	if len(p.Reference) > 100 {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference cannot exceed 100 characters")
	}
	if len(p.Description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}

	m := &Movement{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID),
		MovementNumber:      p.Number,
		Direction:           p.Direction,
		Category:            p.Category,
		Channel:             p.Channel,
		Amount:              p.Amount,
		Reference:           p.Reference,
		Description:         p.Description,
		Notes:               p.Notes,
		RecordedAt:          time.Now(),
	}
	if p.RecordedBy != uuid.Nil {
		by := p.RecordedBy
		m.RecordedBy = &by
		m.SetCreatedBy(by)
	}

	if s := p.Session; s != nil {
		if !s.IsOpen() {
			return nil, NewSessionNotOpenError(s.ID)
		}
		if s.TenantID != p.TenantID {
			return nil, NewSessionNotOpenError(s.ID)
		}
		if p.StoreID != nil && *p.StoreID != s.StoreID {
			return nil, shared.NewDomainError("INVALID_STORE", "Store does not match the session's cashbox")
		}
		if p.Channel != PaymentChannelCash {
			return nil, shared.NewDomainError(CodeInvalidChannel, "Session movements must use the cash channel")
		}
		sessionID, cashboxID, storeID := s.ID, s.CashboxID, s.StoreID
		m.SessionID = &sessionID
		m.CashboxID = &cashboxID
		m.StoreID = &storeID
	} else {
		m.CashboxID = p.CashboxID
		m.StoreID = p.StoreID
	}

	m.AddDomainEvent(NewMovementRecordedEvent(m))
	return m, nil
}

// Effects returns the signed position changes of this entry under rs
func (m *Movement) Effects(rs RuleSet) []CashEffect {
	deltas := rs.Effects(m.Direction, m.Category, m.Channel, m.Amount)
	out := make([]CashEffect, 0, len(deltas))
	for _, d := range deltas {
		out = append(out, CashEffect{
			TenantID: m.TenantID,
			StoreID:  m.StoreID,
			Channel:  d.Channel,
			Delta:    d.Delta,
			Source:   SourceRef{Type: SourceMovement, ID: m.ID, Number: m.MovementNumber},
		})
	}
	return out
}

// SignedAmount returns the amount with the sign of its direction
func (m *Movement) SignedAmount() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Amount.Neg()
	}
	return m.Amount
}

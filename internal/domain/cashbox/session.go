package cashbox

import (
	"time"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a register session
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "OPEN"
	SessionStatusClosed SessionStatus = "CLOSED"
)

func (s SessionStatus) IsValid() bool {
	return s == SessionStatusOpen || s == SessionStatusClosed
}

func (s SessionStatus) String() string {
	return string(s)
}

// MovementTotals sums the in and out entries of a session
type MovementTotals struct {
	In  decimal.Decimal
	Out decimal.Decimal
}

// Net returns In - Out
func (t MovementTotals) Net() decimal.Decimal {
	return t.In.Sub(t.Out)
}

// Session is one opening-to-closing period of a cashbox
type Session struct {
	shared.TenantAggregateRoot
	CashboxID              uuid.UUID
	StoreID                uuid.UUID
	OperatorID             uuid.UUID
	Status                 SessionStatus
	OpenedAt               time.Time
	ClosedAt               *time.Time
	ClosedBy               *uuid.UUID
	OpeningBalance         decimal.Decimal
	ExpectedClosingBalance *decimal.Decimal
	ActualClosingBalance   *decimal.Decimal
	OpeningNotes           string
	ClosingNotes           string
}

// OpenSession starts a session on cb. Uniqueness of the open session is
// checked by the caller under the cashbox lock.
func OpenSession(cb *Cashbox, operatorID uuid.UUID, openingBalance decimal.Decimal, notes string) (*Session, error) {
	if err := cb.EnsureActive(); err != nil {
		return nil, err
	}
	if operatorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OPERATOR", "Operator ID cannot be empty")
	}
	if openingBalance.IsNegative() {
		return nil, shared.NewDomainError(CodeInvalidAmount, "Opening balance cannot be negative")
	}

	s := &Session{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(cb.TenantID),
		CashboxID:           cb.ID,
		StoreID:             cb.StoreID,
		OperatorID:          operatorID,
		Status:              SessionStatusOpen,
		OpenedAt:            time.Now(),
		OpeningBalance:      openingBalance,
		OpeningNotes:        notes,
	}
	s.SetCreatedBy(operatorID)
	s.AddDomainEvent(NewSessionOpenedEvent(s))
	return s, nil
}

// IsOpen reports whether the session still accepts movements
func (s *Session) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// ExpectedBalance is the opening float plus the net of the session's movements
func (s *Session) ExpectedBalance(totals MovementTotals) decimal.Decimal {
	return s.OpeningBalance.Add(totals.Net())
}

// Close records the counted balance against the expected one. The
// discrepancy is kept as recorded and never corrected.
func (s *Session) Close(closedBy uuid.UUID, totals MovementTotals, actual decimal.Decimal, notes string) error {
	if !s.IsOpen() {
		return NewSessionNotOpenError(s.ID)
	}
	if actual.IsNegative() {
		return shared.NewDomainError(CodeInvalidAmount, "Actual closing balance cannot be negative")
	}

	now := time.Now()
	expected := s.ExpectedBalance(totals)
	s.Status = SessionStatusClosed
	s.ClosedAt = &now
	if closedBy != uuid.Nil {
		s.ClosedBy = &closedBy
	}
	s.ExpectedClosingBalance = &expected
	s.ActualClosingBalance = &actual
	s.ClosingNotes = notes
	s.IncrementVersion()

	s.AddDomainEvent(NewSessionClosedEvent(s))
	return nil
}

// Discrepancy returns actual - expected, nil while the session is open
func (s *Session) Discrepancy() *decimal.Decimal {
	if s.ExpectedClosingBalance == nil || s.ActualClosingBalance == nil {
		return nil
	}
	d := s.ActualClosingBalance.Sub(*s.ExpectedClosingBalance)
	return &d
}

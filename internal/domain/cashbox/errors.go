package cashbox

import (
	"strconv"
	"strings"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Error codes raised by the register engine
const (
	CodeAlreadyOpenSession  = "ALREADY_OPEN_SESSION"
	CodeSessionNotOpen      = "SESSION_NOT_OPEN"
	CodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	CodeInvalidCategory     = "INVALID_CATEGORY"
	CodeInvalidChannel      = "INVALID_CHANNEL"
	CodeInvalidDirection    = "INVALID_DIRECTION"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeCashboxInactive     = "CASHBOX_INACTIVE"
	CodeActiveCashboxExists = "ACTIVE_CASHBOX_EXISTS"
	CodeInvalidDenomination = "INVALID_DENOMINATION"
)

var (
	ErrAlreadyOpenSession  = shared.NewDomainError(CodeAlreadyOpenSession, "Cashbox already has an open session")
	ErrSessionNotOpen      = shared.NewDomainError(CodeSessionNotOpen, "Session is not open")
	ErrInsufficientFunds   = shared.NewDomainError(CodeInsufficientFunds, "Insufficient funds")
	ErrInvalidCategory     = shared.NewDomainError(CodeInvalidCategory, "Invalid movement category")
	ErrInvalidChannel      = shared.NewDomainError(CodeInvalidChannel, "Invalid channel")
	ErrInvalidAmount       = shared.NewDomainError(CodeInvalidAmount, "Invalid amount")
	ErrCashboxInactive     = shared.NewDomainError(CodeCashboxInactive, "Cashbox is not active")
	ErrActiveCashboxExists = shared.NewDomainError(CodeActiveCashboxExists, "Store already has an active cashbox")
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders an amount to two places with digit grouping for
// messages. The digits come from the decimal itself; an integer part beyond
// int64 is left ungrouped.
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = amountPrinter.Sprintf("%d", n)
	}
	return sign + whole + "." + frac
}

// NewAlreadyOpenSessionError reports the session blocking a new opening
func NewAlreadyOpenSessionError(existingSessionID uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorf(CodeAlreadyOpenSession,
		"Cashbox already has an open session (%s)", existingSessionID).
		WithDetail("existing_session_id", existingSessionID.String())
}

// NewSessionNotOpenError reports an operation against a closed or unknown session
func NewSessionNotOpenError(sessionID uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorf(CodeSessionNotOpen, "Session %s is not open", sessionID).
		WithDetail("session_id", sessionID.String())
}

// NewInsufficientFundsError reports a debit larger than the available balance
func NewInsufficientFundsError(ch BalanceChannel, available, requested decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(CodeInsufficientFunds,
		"Insufficient %s funds: available %s, requested %s",
		ch, FormatAmount(available), FormatAmount(requested)).
		WithDetail("channel", ch.String()).
		WithDetail("available", available.String()).
		WithDetail("requested", requested.String())
}

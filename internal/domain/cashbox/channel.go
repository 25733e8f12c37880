package cashbox

import (
	"strings"

	"github.com/erp/treasury/internal/domain/shared"
)

// PaymentChannel is the means by which money moved on a transaction record
type PaymentChannel string

const (
	PaymentChannelCash         PaymentChannel = "cash"
	PaymentChannelCard         PaymentChannel = "card"
	PaymentChannelBankTransfer PaymentChannel = "bank_transfer"
	PaymentChannelMobileMoney  PaymentChannel = "mobile_money"
	PaymentChannelCheck        PaymentChannel = "check"
)

// AllPaymentChannels lists every accepted payment channel
func AllPaymentChannels() []PaymentChannel {
	return []PaymentChannel{
		PaymentChannelCash,
		PaymentChannelCard,
		PaymentChannelBankTransfer,
		PaymentChannelMobileMoney,
		PaymentChannelCheck,
	}
}

// IsValid checks if the channel is a known payment channel
func (c PaymentChannel) IsValid() bool {
	switch c {
	case PaymentChannelCash, PaymentChannelCard, PaymentChannelBankTransfer,
		PaymentChannelMobileMoney, PaymentChannelCheck:
		return true
	}
	return false
}

func (c PaymentChannel) String() string {
	return string(c)
}

// ParsePaymentChannel converts external input into a PaymentChannel
func ParsePaymentChannel(s string) (PaymentChannel, error) {
	c := PaymentChannel(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", shared.NewDomainErrorf(CodeInvalidChannel, "Unknown payment channel %q", s)
	}
	return c, nil
}

// BalanceChannel identifies one of the money positions the engine tracks.
// The zero value is not a valid channel; use the package level values.
type BalanceChannel struct {
	name    string
	payment PaymentChannel
}

var (
	BalanceCash        = BalanceChannel{name: "cash", payment: PaymentChannelCash}
	BalanceBank        = BalanceChannel{name: "bank", payment: PaymentChannelBankTransfer}
	BalanceMobileMoney = BalanceChannel{name: "mobile_money", payment: PaymentChannelMobileMoney}
)

// BalanceChannels lists the tracked positions
func BalanceChannels() []BalanceChannel {
	return []BalanceChannel{BalanceCash, BalanceBank, BalanceMobileMoney}
}

func (c BalanceChannel) String() string {
	return c.name
}

// PaymentChannel returns the transaction channel feeding this position
func (c BalanceChannel) PaymentChannel() PaymentChannel {
	return c.payment
}

// IsZero reports whether c is the unusable zero value
func (c BalanceChannel) IsZero() bool {
	return c.name == ""
}

// ParseBalanceChannel converts external input into a BalanceChannel.
// "bank_transfer" is accepted as an alias of "bank".
func ParseBalanceChannel(s string) (BalanceChannel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return BalanceCash, nil
	case "bank", "bank_transfer":
		return BalanceBank, nil
	case "mobile_money":
		return BalanceMobileMoney, nil
	}
	return BalanceChannel{}, shared.NewDomainErrorf(CodeInvalidChannel, "Unknown balance channel %q", s)
}

// BalanceChannelOf maps a payment channel onto its tracked position.
// Card and check payments settle outside the store and are not tracked.
func BalanceChannelOf(p PaymentChannel) (BalanceChannel, bool) {
	switch p {
	case PaymentChannelCash:
		return BalanceCash, true
	case PaymentChannelBankTransfer:
		return BalanceBank, true
	case PaymentChannelMobileMoney:
		return BalanceMobileMoney, true
	}
	return BalanceChannel{}, false
}

// Direction is the sign of a ledger entry relative to its channel
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

func (d Direction) String() string {
	return string(d)
}

// ParseDirection converts external input into a Direction
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", shared.NewDomainErrorf(CodeInvalidDirection, "Unknown movement direction %q", s)
	}
	return d, nil
}

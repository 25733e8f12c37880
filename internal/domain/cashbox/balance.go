package cashbox

import (
	"github.com/shopspring/decimal"
)

// LedgerTotal is the sum of ledger entries sharing direction, category and channel
type LedgerTotal struct {
	Direction Direction
	Category  Category
	Channel   PaymentChannel
	Amount    decimal.Decimal
}

// SourceTotals carries the aggregated amounts a balance is derived from,
// each map keyed by payment channel.
type SourceTotals struct {
	SalesPaid        map[PaymentChannel]decimal.Decimal
	InvoicePayments  map[PaymentChannel]decimal.Decimal
	PaidExpenses     map[PaymentChannel]decimal.Decimal
	SupplierPayments map[PaymentChannel]decimal.Decimal
	LoanPayments     map[PaymentChannel]decimal.Decimal
	Ledger           []LedgerTotal
}

// NewSourceTotals returns empty totals ready to be filled
func NewSourceTotals() SourceTotals {
	return SourceTotals{
		SalesPaid:        map[PaymentChannel]decimal.Decimal{},
		InvoicePayments:  map[PaymentChannel]decimal.Decimal{},
		PaidExpenses:     map[PaymentChannel]decimal.Decimal{},
		SupplierPayments: map[PaymentChannel]decimal.Decimal{},
		LoanPayments:     map[PaymentChannel]decimal.Decimal{},
	}
}

func sumFor(m map[PaymentChannel]decimal.Decimal, ch PaymentChannel) decimal.Decimal {
	if v, ok := m[ch]; ok {
		return v
	}
	return decimal.Zero
}

// Balance component names
const (
	ComponentSales            = "sales"
	ComponentInvoicePayments  = "invoice_payments"
	ComponentLedgerIn         = "ledger_in"
	ComponentTransfersIn      = "transfers_in"
	ComponentExpenses         = "expenses"
	ComponentSupplierPayments = "supplier_payments"
	ComponentLoanPayments     = "loan_payments"
	ComponentLedgerOut        = "ledger_out"
	ComponentTransfersOut     = "transfers_out"
)

// BalanceComponent is one line of a balance breakdown. Amounts are unsigned.
type BalanceComponent struct {
	Name   string          `json:"name"`
	Inflow bool            `json:"inflow"`
	Amount decimal.Decimal `json:"amount"`
}

// BalanceBreakdown is the result of a balance computation
type BalanceBreakdown struct {
	Channel     BalanceChannel
	RuleVersion int
	Inflows     decimal.Decimal
	Outflows    decimal.Decimal
	Balance     decimal.Decimal
	Components  []BalanceComponent
}

// Component returns the named component amount, zero when absent
func (b BalanceBreakdown) Component(name string) decimal.Decimal {
	for _, c := range b.Components {
		if c.Name == name {
			return c.Amount
		}
	}
	return decimal.Zero
}

// Compute derives the balance of one position from source totals:
// every source that increased it minus every source that decreased it,
// with ledger entries filtered through the rule set.
func (rs RuleSet) Compute(ch BalanceChannel, totals SourceTotals) BalanceBreakdown {
	pc := ch.PaymentChannel()

	ledgerIn, ledgerOut := decimal.Zero, decimal.Zero
	transfersIn, transfersOut := decimal.Zero, decimal.Zero
	for _, lt := range totals.Ledger {
		for _, eff := range rs.Effects(lt.Direction, lt.Category, lt.Channel, lt.Amount) {
			if eff.Channel != ch {
				continue
			}
			switch {
			case eff.Counterpart && eff.Delta.IsPositive():
				transfersIn = transfersIn.Add(eff.Delta)
			case eff.Counterpart:
				transfersOut = transfersOut.Add(eff.Delta.Neg())
			case eff.Delta.IsPositive():
				ledgerIn = ledgerIn.Add(eff.Delta)
			default:
				ledgerOut = ledgerOut.Add(eff.Delta.Neg())
			}
		}
	}

	components := []BalanceComponent{
		{Name: ComponentSales, Inflow: true, Amount: sumFor(totals.SalesPaid, pc)},
		{Name: ComponentInvoicePayments, Inflow: true, Amount: sumFor(totals.InvoicePayments, pc)},
		{Name: ComponentLedgerIn, Inflow: true, Amount: ledgerIn},
		{Name: ComponentTransfersIn, Inflow: true, Amount: transfersIn},
		{Name: ComponentExpenses, Amount: sumFor(totals.PaidExpenses, pc)},
		{Name: ComponentSupplierPayments, Amount: sumFor(totals.SupplierPayments, pc)},
		{Name: ComponentLoanPayments, Amount: sumFor(totals.LoanPayments, pc)},
		{Name: ComponentLedgerOut, Amount: ledgerOut},
		{Name: ComponentTransfersOut, Amount: transfersOut},
	}

	b := BalanceBreakdown{
		Channel:     ch,
		RuleVersion: rs.Version,
		Inflows:     decimal.Zero,
		Outflows:    decimal.Zero,
		Components:  components,
	}
	for _, c := range components {
		if c.Inflow {
			b.Inflows = b.Inflows.Add(c.Amount)
		} else {
			b.Outflows = b.Outflows.Add(c.Amount)
		}
	}
	b.Balance = b.Inflows.Sub(b.Outflows)
	return b
}

package cashbox

import (
	"fmt"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CurrentRuleVersion is the rule set used for every balance computed today
const CurrentRuleVersion = 2

// Transfer describes a category that moves value between the cash drawer
// and another tracked position. The entry itself is always a cash entry.
type Transfer struct {
	// CashDirection is the only direction the entry may be recorded with
	CashDirection Direction
	// Counterpart is the position that receives the opposite effect
	Counterpart BalanceChannel
}

// CategoryRule tells the balance computation how to treat ledger entries of one category
type CategoryRule struct {
	Category Category
	// SourceOwned marks categories backed by a dedicated transaction table.
	// Manual entries may not use them.
	SourceOwned bool
	// ExcludeIn/ExcludeOut drop entries of that direction from every balance
	ExcludeIn  bool
	ExcludeOut bool
	Transfer   *Transfer
}

// Counts reports whether an entry in direction d contributes to balances
func (r CategoryRule) Counts(d Direction) bool {
	if d == DirectionIn {
		return !r.ExcludeIn
	}
	return !r.ExcludeOut
}

// RuleSet is a versioned table of category rules
type RuleSet struct {
	Version int
	rules   map[Category]CategoryRule
}

func newRuleSet(version int, rules ...CategoryRule) RuleSet {
	rs := RuleSet{Version: version, rules: make(map[Category]CategoryRule, len(AllCategories()))}
	for _, c := range AllCategories() {
		rs.rules[c] = CategoryRule{Category: c}
	}
	for _, r := range rules {
		rs.rules[r.Category] = r
	}
	return rs
}

var transferRules = []CategoryRule{
	{Category: CategoryBankDeposit, Transfer: &Transfer{CashDirection: DirectionOut, Counterpart: BalanceBank}},
	{Category: CategoryBankWithdrawal, Transfer: &Transfer{CashDirection: DirectionIn, Counterpart: BalanceBank}},
	{Category: CategoryMobileMoneyDeposit, Transfer: &Transfer{CashDirection: DirectionOut, Counterpart: BalanceMobileMoney}},
	{Category: CategoryMobileMoneyWithdrawal, Transfer: &Transfer{CashDirection: DirectionIn, Counterpart: BalanceMobileMoney}},
}

func sourceOwned(c Category) CategoryRule {
	return CategoryRule{Category: c, SourceOwned: true, ExcludeIn: true, ExcludeOut: true}
}

var ruleSets = map[int]RuleSet{
	// Version 1 only dropped outgoing loan and supplier entries. Kept for audits of
	// balances produced before sales and expenses were mirrored into sessions.
	1: newRuleSet(1, append([]CategoryRule{
		{Category: CategorySupplierPayment, ExcludeOut: true},
		{Category: CategoryLoanRepayment, ExcludeOut: true},
	}, transferRules...)...),
	2: newRuleSet(2, append([]CategoryRule{
		sourceOwned(CategorySale),
		sourceOwned(CategoryCustomerPayment),
		sourceOwned(CategoryExpense),
		sourceOwned(CategorySupplierPayment),
		sourceOwned(CategoryLoanRepayment),
	}, transferRules...)...),
}

// CurrentRules returns the rule set in force
func CurrentRules() RuleSet {
	return ruleSets[CurrentRuleVersion]
}

// RuleSetByVersion returns a historical or current rule set
func RuleSetByVersion(version int) (RuleSet, error) {
	rs, ok := ruleSets[version]
	if !ok {
		return RuleSet{}, shared.NewDomainErrorf("INVALID_RULE_VERSION", "Unknown balance rule version %d", version)
	}
	return rs, nil
}

// Rule returns the rule for category c
func (rs RuleSet) Rule(c Category) (CategoryRule, bool) {
	r, ok := rs.rules[c]
	return r, ok
}

// SourceOwnedCategories lists categories that only transaction sources may write
func (rs RuleSet) SourceOwnedCategories() []Category {
	var out []Category
	for _, c := range AllCategories() {
		if rs.rules[c].SourceOwned {
			out = append(out, c)
		}
	}
	return out
}

// ChannelDelta is the signed effect of one entry on one tracked position
type ChannelDelta struct {
	Channel     BalanceChannel
	Delta       decimal.Decimal
	Counterpart bool
}

// Effects returns the signed effects of a ledger entry on every tracked position.
// Entries in excluded categories or untracked channels have no effect.
func (rs RuleSet) Effects(d Direction, c Category, ch PaymentChannel, amount decimal.Decimal) []ChannelDelta {
	rule, ok := rs.rules[c]
	if !ok || !rule.Counts(d) {
		return nil
	}
	bc, tracked := BalanceChannelOf(ch)
	if !tracked {
		return nil
	}
	signed := amount
	if d == DirectionOut {
		signed = amount.Neg()
	}
	effects := []ChannelDelta{{Channel: bc, Delta: signed}}
	if rule.Transfer != nil && rule.Transfer.Counterpart != bc {
		effects = append(effects, ChannelDelta{Channel: rule.Transfer.Counterpart, Delta: signed.Neg(), Counterpart: true})
	}
	return effects
}

// ValidateManual checks that a hand-recorded entry is consistent with the rules
func (rs RuleSet) ValidateManual(d Direction, c Category, ch PaymentChannel) error {
	if !d.IsValid() {
		return shared.NewDomainErrorf(CodeInvalidDirection, "Unknown movement direction %q", d)
	}
	rule, ok := rs.rules[c]
	if !ok {
		return shared.NewDomainErrorf(CodeInvalidCategory, "Unknown movement category %q", c)
	}
	if !ch.IsValid() {
		return shared.NewDomainErrorf(CodeInvalidChannel, "Unknown payment channel %q", ch)
	}
	if rule.SourceOwned {
		return shared.NewDomainError(CodeInvalidCategory,
			fmt.Sprintf("Category %s is recorded through its own transaction type and cannot be entered manually", c))
	}
	if rule.Transfer != nil {
		if ch != PaymentChannelCash {
			return shared.NewDomainError(CodeInvalidChannel,
				fmt.Sprintf("Category %s must be recorded on the cash channel", c))
		}
		if d != rule.Transfer.CashDirection {
			return shared.NewDomainError(CodeInvalidDirection,
				fmt.Sprintf("Category %s must be recorded with direction %s", c, rule.Transfer.CashDirection))
		}
	}
	return nil
}

package cashbox

import (
	"strings"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

// Category classifies a ledger entry
type Category string

const (
	CategorySale                  Category = "sale"
	CategoryCustomerPayment       Category = "customer_payment"
	CategorySupplierPayment       Category = "supplier_payment"
	CategoryLoanRepayment         Category = "loan_repayment"
	CategoryLoanDisbursement      Category = "loan_disbursement"
	CategoryExpense               Category = "expense"
	CategoryBankDeposit           Category = "bank_deposit"
	CategoryBankWithdrawal        Category = "bank_withdrawal"
	CategoryMobileMoneyDeposit    Category = "mobile_money_deposit"
	CategoryMobileMoneyWithdrawal Category = "mobile_money_withdrawal"
	CategoryAdjustment            Category = "adjustment"
	CategoryOther                 Category = "other"
)

// AllCategories lists every ledger category
func AllCategories() []Category {
	return []Category{
		CategorySale, CategoryCustomerPayment, CategorySupplierPayment,
		CategoryLoanRepayment, CategoryLoanDisbursement, CategoryExpense,
		CategoryBankDeposit, CategoryBankWithdrawal,
		CategoryMobileMoneyDeposit, CategoryMobileMoneyWithdrawal,
		CategoryAdjustment, CategoryOther,
	}
}

// IsValid checks if the category is known
func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory converts external input into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", shared.NewDomainErrorf(CodeInvalidCategory, "Unknown movement category %q", s)
	}
	return c, nil
}

// SourceType names the transaction record behind a mirrored ledger entry
type SourceType string

const (
	SourceSale            SourceType = "SALE"
	SourceInvoicePayment  SourceType = "INVOICE_PAYMENT"
	SourceExpense         SourceType = "EXPENSE"
	SourceSupplierPayment SourceType = "SUPPLIER_PAYMENT"
	SourceLoanPayment     SourceType = "LOAN_PAYMENT"
	SourceMovement        SourceType = "CASH_MOVEMENT"
)

// Category returns the ledger category a source's mirrored entries carry
func (s SourceType) Category() Category {
	switch s {
	case SourceSale:
		return CategorySale
	case SourceInvoicePayment:
		return CategoryCustomerPayment
	case SourceExpense:
		return CategoryExpense
	case SourceSupplierPayment:
		return CategorySupplierPayment
	case SourceLoanPayment:
		return CategoryLoanRepayment
	}
	return ""
}

// SourceRef points at the record that caused a ledger entry or balance effect
type SourceRef struct {
	Type   SourceType `json:"type"`
	ID     uuid.UUID  `json:"id"`
	Number string     `json:"number,omitempty"`
}

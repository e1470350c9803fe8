package scoring

import (
	"strings"

	"github.com/sells-group/underwriter/internal/model"
)

// Policy holds the region-dependent constants the ledger and threshold
// checks need.
type Policy struct {
	CapitalRegions       []string `yaml:"capital_regions" mapstructure:"capital_regions"`
	CapitalLivingExpense int64    `yaml:"capital_living_expense" mapstructure:"capital_living_expense"`
	OtherLivingExpense   int64    `yaml:"other_living_expense" mapstructure:"other_living_expense"`
}

// DefaultPolicy returns the capital-region minimum living expense table.
func DefaultPolicy() Policy {
	return Policy{
		CapitalRegions:       []string{"台北市", "臺北市", "Taipei City"},
		CapitalLivingExpense: 20000,
		OtherLivingExpense:   15000,
	}
}

// LivingExpense returns the monthly minimum living expense for a property's
// region. Loans without a property use the non-capital figure.
func (p Policy) LivingExpense(prop *model.Property) int64 {
	if prop != nil {
		for _, r := range p.CapitalRegions {
			if strings.EqualFold(strings.TrimSpace(prop.Region), r) {
				return p.CapitalLivingExpense
			}
		}
	}
	return p.OtherLivingExpense
}

// Ledger categories.
const (
	IncomeSalary       = "salary"
	IncomeBusiness     = "business"
	IncomeRental       = "rental"
	IncomeDividend     = "dividend"
	IncomeOther        = "other"
	IncomeNonRecurring = "non_recurring"
	IncomeGuarantor    = "guarantor"

	ExpenseLiving           = "minimum_living"
	ExpenseExistingMortgage = "existing_mortgage"
	ExpenseExistingPersonal = "existing_personal_loan"
	ExpenseOtherLoan        = "other_loan"
	ExpenseNewLoan          = "new_loan"
)

// BuildRepaymentLedger compiles the monthly income/expense statement. Annual
// income streams are normalized to monthly; the new loan's own payment is
// priced at the policy rate for its type. A negative balance is returned as-is.
func BuildRepaymentLedger(req model.LoanRequest, policy Policy) model.RepaymentLedger {
	a := req.Applicant

	salaryAnnual := a.MonthlyIncome * 12
	if a.SalaryIncome != nil {
		salaryAnnual = *a.SalaryIncome
	}
	salary := salaryAnnual / 12
	business := a.BusinessIncome / 12
	rental := a.RentalIncome / 12
	dividend := a.DividendIncome / 12
	other := a.OtherIncome / 12
	nonRecurring := a.NonRecurringIncome / 12

	var guarantorIncome, guarantorMortgage, guarantorPersonal float64
	if g := req.Guarantor; g != nil {
		guarantorIncome = g.MonthlyIncome
		guarantorMortgage = g.ExistingMortgageMonthly
		guarantorPersonal = g.ExistingPersonalLoanMonthly
	}

	income := []model.LedgerLine{
		{Category: IncomeSalary, Amount: roundHalfUp(salary)},
		{Category: IncomeBusiness, Amount: roundHalfUp(business)},
		{Category: IncomeRental, Amount: roundHalfUp(rental)},
		{Category: IncomeDividend, Amount: roundHalfUp(dividend)},
		{Category: IncomeOther, Amount: roundHalfUp(other)},
		{Category: IncomeNonRecurring, Amount: roundHalfUp(nonRecurring)},
	}
	if guarantorIncome > 0 {
		income = append(income, model.LedgerLine{Category: IncomeGuarantor, Amount: roundHalfUp(guarantorIncome)})
	}
	monthlyIncome := roundHalfUp(salary + business + rental + dividend + other + nonRecurring + guarantorIncome)

	living := policy.LivingExpense(req.Property)
	newLoan := MonthlyPayment(req.LoanAmount, PolicyRate(req.LoanType.Secured()), req.TermYears)

	expense := []model.LedgerLine{
		{Category: ExpenseLiving, Amount: living},
		{Category: ExpenseExistingMortgage, Amount: roundHalfUp(a.ExistingMortgageMonthly + guarantorMortgage)},
		{Category: ExpenseExistingPersonal, Amount: roundHalfUp(a.ExistingPersonalLoanMonthly + guarantorPersonal)},
		{Category: ExpenseOtherLoan, Amount: roundHalfUp(a.OtherLoanMonthly)},
		{Category: ExpenseNewLoan, Amount: newLoan},
	}
	monthlyExpense := roundHalfUp(float64(living) +
		a.ExistingMortgageMonthly + a.ExistingPersonalLoanMonthly + a.OtherLoanMonthly +
		guarantorMortgage + guarantorPersonal +
		float64(newLoan))

	return model.RepaymentLedger{
		MonthlyIncome:    monthlyIncome,
		MonthlyExpense:   monthlyExpense,
		MonthlyBalance:   monthlyIncome - monthlyExpense,
		NewLoanPayment:   newLoan,
		LivingExpense:    living,
		IncomeBreakdown:  income,
		ExpenseBreakdown: expense,
	}
}

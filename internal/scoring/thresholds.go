package scoring

import (
	"math"

	"github.com/sells-group/underwriter/internal/model"
)

// Compliance limits.
const (
	DebtIncomeLimit     = 80.0
	DBRLimit            = 22.0
	MonthlyPaymentLimit = 33.33

	// affordableIncomeShare is the share of monthly income available for
	// debt service when back-solving a mortgage principal.
	affordableIncomeShare = 0.79
	// noIncomeDBR is the DBR sentinel for a zero monthly income.
	noIncomeDBR = 999.0
)

// CheckThresholds computes the compliance metrics for the loan type and,
// when the governing metric fails, an adjusted principal that would satisfy
// it. The adjusted amount is nil when no threshold failed or when no
// positive payment capacity remains.
func CheckThresholds(req model.LoanRequest, ledger model.RepaymentLedger, policy Policy) (model.Thresholds, *int64) {
	income := float64(ledger.MonthlyIncome)
	expense := float64(ledger.MonthlyExpense)
	newPayment := float64(ledger.NewLoanPayment)
	rate := PolicyRate(req.LoanType.Secured())

	dti := noIncomeDebtRatio
	if income > 0 {
		dti = expense / income * 100
	}
	debtIncome := model.Ratio{
		Value: roundTo(dti, 1),
		Limit: DebtIncomeLimit,
		Pass:  dti <= DebtIncomeLimit,
	}

	if req.LoanType.Secured() {
		t := model.Thresholds{DebtIncome: debtIncome}
		if debtIncome.Pass || income <= 0 {
			return t, nil
		}
		otherExpense := expense - newPayment
		available := income*affordableIncomeShare - otherExpense + float64(policy.LivingExpense(req.Property))
		if available <= 0 {
			return t, nil
		}
		adjusted := max(MaxPrincipal(available, rate, req.TermYears), 0)
		return t, &adjusted
	}

	unsecured := req.Applicant.TotalUnsecuredDebt
	dbr := noIncomeDBR
	paymentRatio := noIncomeDebtRatio
	if income > 0 {
		dbr = (unsecured + req.LoanAmount) / income
		paymentRatio = newPayment / income * 100
	}

	t := model.Thresholds{
		DebtIncome: debtIncome,
		DBR: &model.Ratio{
			Value: roundTo(dbr, 2),
			Limit: DBRLimit,
			Pass:  dbr <= DBRLimit,
		},
		MonthlyPayment: &model.Ratio{
			Value: roundTo(paymentRatio, 1),
			Limit: MonthlyPaymentLimit,
			Pass:  paymentRatio <= MonthlyPaymentLimit,
		},
	}
	if t.DBR.Pass {
		return t, nil
	}
	capacity := DBRLimit*income - unsecured
	adjusted := max(int64(math.Floor(capacity/10000))*10000, 0)
	return t, &adjusted
}

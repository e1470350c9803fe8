package model

import "time"

// ProfileEligibility holds the borrower-profile derivations.
type ProfileEligibility struct {
	IsRelatedParty     bool `json:"is_related_party"`
	FirstHomeEligible  bool `json:"first_home_eligible"`
	SubsidizedEligible bool `json:"subsidized_eligible"`
	MyDataProvided     bool `json:"my_data_provided"`
}

// TermCheck compares the requested term against the policy maximum.
type TermCheck struct {
	Pass       bool `json:"pass"`
	MaxAllowed int  `json:"max_allowed"`
	Requested  int  `json:"requested"`
}

// PurposeCheck holds the loan-purpose derivations.
type PurposeCheck struct {
	Purpose           string    `json:"purpose"`
	InvestorDetected  bool      `json:"investor_detected"`
	BuilderBackground bool      `json:"builder_background"`
	TermCheck         TermCheck `json:"term_check"`
}

// RepaymentLedger is the monthly income/expense statement.
type RepaymentLedger struct {
	MonthlyIncome    int64        `json:"monthly_income"`
	MonthlyExpense   int64        `json:"monthly_expense"`
	MonthlyBalance   int64        `json:"monthly_balance"`
	NewLoanPayment   int64        `json:"new_loan_payment"`
	LivingExpense    int64        `json:"living_expense"`
	IncomeBreakdown  []LedgerLine `json:"income_breakdown"`
	ExpenseBreakdown []LedgerLine `json:"expense_breakdown"`
}

// LedgerLine is one itemized ledger entry.
type LedgerLine struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

// BalanceSheet is the applicant's (plus guarantor's) asset/liability position.
type BalanceSheet struct {
	TotalAssets          float64  `json:"total_assets"`
	LiquidAssets         float64  `json:"liquid_assets"`
	RealEstateValue      float64  `json:"real_estate_value"`
	TotalLiabilities     float64  `json:"total_liabilities"`
	ShortTermLiabilities float64  `json:"short_term_liabilities"`
	LongTermLiabilities  float64  `json:"long_term_liabilities"`
	NetWorth             float64  `json:"net_worth"`
	LTVRatio             *float64 `json:"ltv_ratio,omitempty"`
}

// FactorScore is a single risk factor on the 1-10 scale.
type FactorScore struct {
	Level     int    `json:"level"`
	Label     string `json:"label"`
	Rationale string `json:"rationale"`
}

// RiskFactors holds the six scored factors.
type RiskFactors struct {
	EmploymentStability FactorScore `json:"employment_stability"`
	IncomeGrowth        FactorScore `json:"income_growth"`
	NetWorthLevel       FactorScore `json:"net_worth_level"`
	NetWorthRatio       FactorScore `json:"net_worth_ratio"`
	LiquidityRatio      FactorScore `json:"liquidity_ratio"`
	DebtRatio           FactorScore `json:"debt_ratio"`
}

// Levels returns the six factor levels in a fixed order.
func (r RiskFactors) Levels() []int {
	return []int{
		r.EmploymentStability.Level,
		r.IncomeGrowth.Level,
		r.NetWorthLevel.Level,
		r.NetWorthRatio.Level,
		r.LiquidityRatio.Level,
		r.DebtRatio.Level,
	}
}

// RiskScore scales the average factor level to 0-100.
func (r RiskFactors) RiskScore() int {
	levels := r.Levels()
	sum := 0
	for _, l := range levels {
		sum += l
	}
	avg := float64(sum) / float64(len(levels))
	return int(avg/10*100 + 0.5)
}

// Ratio is one compliance metric with its limit.
type Ratio struct {
	Value float64 `json:"value"`
	Limit float64 `json:"limit"`
	Pass  bool    `json:"pass"`
}

// Thresholds holds the compliance metrics. DBR and MonthlyPayment are only
// populated for unsecured loans.
type Thresholds struct {
	DebtIncome     Ratio  `json:"debt_income_ratio"`
	DBR            *Ratio `json:"dbr,omitempty"`
	MonthlyPayment *Ratio `json:"monthly_payment_ratio,omitempty"`
}

// Pass reports whether every populated metric passed.
func (t Thresholds) Pass() bool {
	if !t.DebtIncome.Pass {
		return false
	}
	if t.DBR != nil && !t.DBR.Pass {
		return false
	}
	if t.MonthlyPayment != nil && !t.MonthlyPayment.Pass {
		return false
	}
	return true
}

// FraudSeverity is the aggregate fraud-check level.
type FraudSeverity string

const (
	FraudNormal  FraudSeverity = "normal"
	FraudCaution FraudSeverity = "caution"
	FraudAlert   FraudSeverity = "alert"
)

// FraudItem is one of the eight fraud checks.
type FraudItem struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Triggered   bool   `json:"triggered"`
}

// FraudCheck holds the eight items and their aggregate severity.
type FraudCheck struct {
	Items    []FraudItem   `json:"items"`
	Severity FraudSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// PassCount returns the number of untriggered items.
func (f FraudCheck) PassCount() int {
	n := 0
	for _, it := range f.Items {
		if !it.Triggered {
			n++
		}
	}
	return n
}

// Assessment is the credit-scoring engine's full result.
type Assessment struct {
	LoanType             LoanType           `json:"loan_type"`
	Profile              ProfileEligibility `json:"profile"`
	Purpose              PurposeCheck       `json:"purpose"`
	Repayment            RepaymentLedger    `json:"repayment"`
	BalanceSheet         BalanceSheet       `json:"balance_sheet"`
	RiskFactors          RiskFactors        `json:"risk_factors"`
	Thresholds           Thresholds         `json:"thresholds"`
	Fraud                FraudCheck         `json:"fraud"`
	AdjustedLoanAmount   *int64             `json:"adjusted_loan_amount,omitempty"`
	OverallAssessment    string             `json:"overall_assessment"`
	RequiresManualReview bool               `json:"requires_manual_review"`
	SuggestedActions     []string           `json:"suggested_actions"`
	AssessedAt           time.Time          `json:"assessed_at"`
}

package model

// LoanType distinguishes secured (mortgage) from unsecured (personal) credit.
type LoanType string

const (
	LoanTypeMortgage LoanType = "mortgage"
	LoanTypePersonal LoanType = "personal"
)

// Secured reports whether the loan is backed by a property.
func (t LoanType) Secured() bool { return t == LoanTypeMortgage }

// Valid reports whether t is a known loan type.
func (t LoanType) Valid() bool {
	return t == LoanTypeMortgage || t == LoanTypePersonal
}

// Occupation is the applicant's occupation category.
type Occupation string

const (
	OccupationMilitary     Occupation = "military"
	OccupationCivilServant Occupation = "civil_servant"
	OccupationTeacher      Occupation = "teacher"
	OccupationOfficeWorker Occupation = "office_worker"
	OccupationSelfEmployed Occupation = "self_employed"
	OccupationOther        Occupation = "other"
)

// Occupations lists every accepted occupation value.
var Occupations = []Occupation{
	OccupationMilitary,
	OccupationCivilServant,
	OccupationTeacher,
	OccupationOfficeWorker,
	OccupationSelfEmployed,
	OccupationOther,
}

// PublicSector reports whether the occupation earns the public-sector bonus.
func (o Occupation) PublicSector() bool {
	return o == OccupationMilitary || o == OccupationCivilServant || o == OccupationTeacher
}

// Purpose is the declared use of a secured loan.
type Purpose string

const (
	PurposePurchase  Purpose = "purchase"
	PurposeRefinance Purpose = "refinance"
	PurposeOther     Purpose = "other"
)

// Applicant is the normalized borrower profile. Annual income figures are
// annual amounts; debt service figures are monthly amounts. Pointer fields are
// tri-state: nil means "not provided", which is distinct from zero or false.
type Applicant struct {
	Name            string     `json:"name"`
	Age             int        `json:"age"`
	Occupation      Occupation `json:"occupation"`
	IsPublicServant bool       `json:"is_public_servant"`
	YearsEmployed   float64    `json:"years_employed"`
	HasMyData       bool       `json:"has_my_data"`

	MonthlyIncome        float64  `json:"monthly_income"`
	LaborInsuranceGrade  *int     `json:"labor_insurance_grade,omitempty"`
	IncomeRaisedRecently *bool    `json:"income_raised_recently,omitempty"`
	SalaryIncome         *float64 `json:"salary_income,omitempty"`
	BusinessIncome       float64  `json:"business_income,omitempty"`
	RentalIncome         float64  `json:"rental_income,omitempty"`
	DividendIncome       float64  `json:"dividend_income,omitempty"`
	OtherIncome          float64  `json:"other_income,omitempty"`
	NonRecurringIncome   float64  `json:"non_recurring_income,omitempty"`

	BankDepositHere         float64 `json:"bank_deposit_here,omitempty"`
	BankDepositOther        float64 `json:"bank_deposit_other,omitempty"`
	Stocks                  float64 `json:"stocks,omitempty"`
	UnlistedStocks          float64 `json:"unlisted_stocks,omitempty"`
	Bonds                   float64 `json:"bonds,omitempty"`
	Funds                   float64 `json:"funds,omitempty"`
	InsuranceSurrenderValue float64 `json:"insurance_surrender_value,omitempty"`
	Vehicles                float64 `json:"vehicles,omitempty"`
	ExistingRealEstate      float64 `json:"existing_real_estate,omitempty"`
	OtherAssets             float64 `json:"other_assets,omitempty"`

	ExistingMortgageMonthly     float64 `json:"existing_mortgage_monthly,omitempty"`
	ExistingPersonalLoanMonthly float64 `json:"existing_personal_loan_monthly,omitempty"`
	OtherLoanMonthly            float64 `json:"other_loan_monthly,omitempty"`
	TotalUnsecuredDebt          float64 `json:"total_unsecured_debt,omitempty"`

	CreditInquiriesLast2Months int   `json:"credit_inquiries_last_2_months,omitempty"`
	DocumentMatchesMyData      *bool `json:"document_matches_my_data,omitempty"`
	LivesInBranchCounty        *bool `json:"lives_in_branch_county,omitempty"`
	HasSalaryTransferHere      *bool `json:"has_salary_transfer_here,omitempty"`
	HasExistingBankLoan        *bool `json:"has_existing_bank_loan,omitempty"`
	HasPropertyOwnership       *bool `json:"has_property_ownership,omitempty"`
}

// NoTaxRecord reports whether income cannot be verified from MyData or a
// declared salary.
func (a Applicant) NoTaxRecord() bool {
	return !a.HasMyData && (a.SalaryIncome == nil || *a.SalaryIncome == 0)
}

// Guarantor is an optional co-obligor whose figures add to the applicant's.
type Guarantor struct {
	Name                        string     `json:"name"`
	Age                         int        `json:"age"`
	Occupation                  Occupation `json:"occupation"`
	IsPublicServant             bool       `json:"is_public_servant"`
	YearsEmployed               float64    `json:"years_employed"`
	MonthlyIncome               float64    `json:"monthly_income"`
	LaborInsuranceGrade         *int       `json:"labor_insurance_grade,omitempty"`
	BankDepositHere             float64    `json:"bank_deposit_here,omitempty"`
	ExistingRealEstate          float64    `json:"existing_real_estate,omitempty"`
	ExistingMortgageMonthly     float64    `json:"existing_mortgage_monthly,omitempty"`
	ExistingPersonalLoanMonthly float64    `json:"existing_personal_loan_monthly,omitempty"`
	TotalUnsecuredDebt          float64    `json:"total_unsecured_debt,omitempty"`
}

// Property describes the collateral of a secured loan.
type Property struct {
	Region              string  `json:"region"`
	Purpose             Purpose `json:"purpose"`
	IsFirstHome         bool    `json:"is_first_home"`
	IsOwnerOccupied     bool    `json:"is_owner_occupied"`
	IsInvestor          bool    `json:"is_investor,omitempty"`
	IsBuilderBackground bool    `json:"is_builder_background,omitempty"`
}

// ValuationInput carries the physical attributes the valuation service needs.
type ValuationInput struct {
	AreaPing     float64 `json:"area_ping"`
	PropertyAge  float64 `json:"property_age"`
	BuildingType string  `json:"building_type"`
	Floor        int     `json:"floor"`
	HasParking   bool    `json:"has_parking"`
	Layout       string  `json:"layout"`
}

// LoanRequest is the credit-scoring entry point input.
type LoanRequest struct {
	LoanType         LoanType   `json:"loan_type"`
	LoanAmount       float64    `json:"loan_amount"`
	TermYears        int        `json:"term_years"`
	GracePeriodYears int        `json:"grace_period_years,omitempty"`
	Applicant        Applicant  `json:"applicant"`
	Guarantor        *Guarantor `json:"guarantor,omitempty"`
	Property         *Property  `json:"property,omitempty"`
	Valuation        *Valuation `json:"valuation,omitempty"`
}

// WorkflowRequest is the full-pipeline entry point input.
type WorkflowRequest struct {
	ApplicationID    string          `json:"application_id,omitempty"`
	LoanType         LoanType        `json:"loan_type"`
	LoanAmount       float64         `json:"loan_amount"`
	TermYears        int             `json:"term_years"`
	GracePeriodYears int             `json:"grace_period_years,omitempty"`
	Applicant        Applicant       `json:"applicant"`
	Guarantor        *Guarantor      `json:"guarantor,omitempty"`
	Property         *Property       `json:"property,omitempty"`
	ValuationInput   *ValuationInput `json:"valuation_input,omitempty"`
}

// LoanRequest projects the workflow request onto the scoring input.
func (r WorkflowRequest) LoanRequest(v *Valuation) LoanRequest {
	return LoanRequest{
		LoanType:         r.LoanType,
		LoanAmount:       r.LoanAmount,
		TermYears:        r.TermYears,
		GracePeriodYears: r.GracePeriodYears,
		Applicant:        r.Applicant,
		Guarantor:        r.Guarantor,
		Property:         r.Property,
		Valuation:        v,
	}
}

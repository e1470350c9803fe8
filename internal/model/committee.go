package model

// Recommendation is a committee member's five-point stance.
type Recommendation string

const (
	RecommendStrongApprove      Recommendation = "strong_approve"
	RecommendApprove            Recommendation = "approve"
	RecommendConditionalApprove Recommendation = "conditional_approve"
	RecommendNeedsMoreInfo      Recommendation = "needs_more_info"
	RecommendDecline            Recommendation = "decline"
)

// Recommendations lists the five accepted values in descending order of
// favorability.
var Recommendations = []Recommendation{
	RecommendStrongApprove,
	RecommendApprove,
	RecommendConditionalApprove,
	RecommendNeedsMoreInfo,
	RecommendDecline,
}

// Valid reports whether r is one of the five accepted values.
func (r Recommendation) Valid() bool {
	for _, v := range Recommendations {
		if r == v {
			return true
		}
	}
	return false
}

// Outcome is the chair's final ruling.
type Outcome string

const (
	OutcomeApprove            Outcome = "approve"
	OutcomeConditionalApprove Outcome = "conditional_approve"
	OutcomeDecline            Outcome = "decline"
)

// Valid reports whether o is an accepted ruling.
func (o Outcome) Valid() bool {
	return o == OutcomeApprove || o == OutcomeConditionalApprove || o == OutcomeDecline
}

// Opinion is one committee member's output for one round.
type Opinion struct {
	Role           string         `json:"role"`
	Narrative      string         `json:"narrative"`
	Recommendation Recommendation `json:"recommendation"`
	KeyPoints      []string       `json:"key_points"`
	Fallback       bool           `json:"fallback,omitempty"`
}

// CommitteeRound is one synchronized cycle of opinions.
type CommitteeRound struct {
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	Opinions []Opinion `json:"opinions"`
}

// Vote is a member's final-round recommendation.
type Vote struct {
	Role           string         `json:"role"`
	Recommendation Recommendation `json:"recommendation"`
}

// FinalDecision is the chair's synthesized ruling.
type FinalDecision struct {
	Outcome           Outcome  `json:"outcome"`
	ApprovedAmount    int64    `json:"approved_amount"`
	ApprovedTermYears int      `json:"approved_term_years"`
	RateHint          string   `json:"rate_hint"`
	Conditions        []string `json:"conditions"`
	Summary           string   `json:"summary"`
	Votes             []Vote   `json:"votes"`
	Fallback          bool     `json:"fallback,omitempty"`
}

// CreditSummary is the condensed scoring output the committee reads.
type CreditSummary struct {
	RiskScore          int           `json:"risk_score"`
	FraudLevel         FraudSeverity `json:"fraud_level"`
	ThresholdPass      bool          `json:"threshold_pass"`
	PrimaryMetricName  string        `json:"primary_metric_name"`
	PrimaryMetricValue float64       `json:"primary_metric_value"`
	FraudPassCount     int           `json:"fraud_pass_count"`
	OverallAssessment  string        `json:"overall_assessment"`
	AdjustedLoanAmount *int64        `json:"adjusted_loan_amount,omitempty"`
}

// ValuationSummary is the condensed valuation the committee reads.
type ValuationSummary struct {
	EstimatedValue float64   `json:"estimated_value"`
	LTVRatio       float64   `json:"ltv_ratio"`
	RiskLevel      RiskLevel `json:"risk_level"`
	SentimentScore float64   `json:"sentiment_score"`
}

// CommitteeRequest is the committee entry point input.
type CommitteeRequest struct {
	ApplicationID    string            `json:"application_id,omitempty"`
	LoanType         LoanType          `json:"loan_type"`
	LoanAmount       float64           `json:"loan_amount"`
	TermYears        int               `json:"term_years"`
	GracePeriodYears int               `json:"grace_period_years,omitempty"`
	BorrowerName     string            `json:"borrower_name"`
	BorrowerAge      int               `json:"borrower_age"`
	Occupation       string            `json:"occupation"`
	Purpose          string            `json:"purpose"`
	Credit           CreditSummary     `json:"credit_summary"`
	Valuation        *ValuationSummary `json:"valuation_summary,omitempty"`
}

// CommitteeResult is the committee engine's output.
type CommitteeResult struct {
	ApplicationID string           `json:"application_id"`
	Rounds        []CommitteeRound `json:"rounds"`
	Decision      FinalDecision    `json:"decision"`
	TokenUsage    TokenUsage       `json:"token_usage"`
	CostUSD       float64          `json:"cost_usd"`
	DurationMs    int64            `json:"duration_ms"`
}

// TokenUsage tracks generative-call token consumption.
type TokenUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}

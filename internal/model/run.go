package model

import "time"

// RunStatus represents the current state of a review run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusValuating  RunStatus = "valuating"
	RunStatusScoring    RunStatus = "scoring"
	RunStatusDeliberate RunStatus = "deliberating"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run is a persisted workflow invocation.
type Run struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	LoanType      LoanType        `json:"loan_type"`
	Request       WorkflowRequest `json:"request"`
	Status        RunStatus       `json:"status"`
	Result        *RunResult      `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
	ErrorType     string          `json:"error_type,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RunResult holds the persisted outcome of a run.
type RunResult struct {
	Summary         FinalSummary  `json:"summary"`
	Phases          []PhaseResult `json:"phases"`
	TotalDurationMs int64         `json:"total_duration_ms"`
	TotalTokens     int           `json:"total_tokens"`
	TotalCost       float64       `json:"total_cost"`
}

// RunPhase represents a phase within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseStatus represents the current state of a workflow phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a workflow phase.
type PhaseResult struct {
	Name       string         `json:"name"`
	Status     PhaseStatus    `json:"status"`
	Duration   int64          `json:"duration_ms"`
	TokenUsage TokenUsage     `json:"token_usage"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ValuationPhase is the optional first phase of the workflow.
type ValuationPhase struct {
	Mode       ValuationMode `json:"mode"`
	Result     Valuation     `json:"result"`
	DurationMs int64         `json:"duration_ms"`
}

// CreditPhase wraps the scoring engine's output.
type CreditPhase struct {
	Result     Assessment `json:"result"`
	DurationMs int64      `json:"duration_ms"`
}

// CommitteePhase wraps the committee engine's output.
type CommitteePhase struct {
	Result     CommitteeResult `json:"result"`
	DurationMs int64           `json:"duration_ms"`
}

// FinalSummary merges the committee ruling with the headline scoring figures.
type FinalSummary struct {
	Outcome           Outcome       `json:"outcome"`
	ApprovedAmount    int64         `json:"approved_amount"`
	ApprovedTermYears int           `json:"approved_term_years"`
	RateHint          string        `json:"rate_hint"`
	Conditions        []string      `json:"conditions"`
	EstimatedValue    *float64      `json:"estimated_value,omitempty"`
	LTVRatio          *float64      `json:"ltv_ratio,omitempty"`
	RiskScore         int           `json:"risk_score"`
	FraudLevel        FraudSeverity `json:"fraud_level"`
}

// WorkflowResult is the full-pipeline output.
type WorkflowResult struct {
	RunID           string          `json:"run_id,omitempty"`
	ApplicationID   string          `json:"application_id"`
	LoanType        LoanType        `json:"loan_type"`
	Valuation       *ValuationPhase `json:"valuation,omitempty"`
	Credit          CreditPhase     `json:"credit"`
	Committee       CommitteePhase  `json:"committee"`
	Summary         FinalSummary    `json:"summary"`
	Phases          []PhaseResult   `json:"phases"`
	TotalDurationMs int64           `json:"total_duration_ms"`
}

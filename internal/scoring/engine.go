package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/underwriter/internal/model"
)

// Overall verdicts.
const (
	VerdictHighCaution = "requires manual review, high caution: a risk factor scored 1 or the fraud check raised an alert"
	VerdictEvaluate    = "requires manual review, evaluate: several risk factors are low or a compliance threshold failed"
	VerdictNormal      = "normal, standard processing"
)

// lowBandMax is the top of the "low" factor band (levels 2-3).
const lowBandMax = 3

// Engine composes the scoring primitives into a full assessment.
type Engine struct {
	policy  Policy
	nowFunc func() time.Time
	printer *message.Printer
}

// NewEngine creates a scoring engine for the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{
		policy:  policy,
		nowFunc: time.Now,
		printer: message.NewPrinter(language.English),
	}
}

// Assess runs every scoring primitive over req and derives the overall
// verdict. It performs no I/O; the context is only checked for cancellation.
func (e *Engine) Assess(ctx context.Context, req model.LoanRequest) (*model.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scoring: assess")
	}
	if !req.LoanType.Valid() {
		return nil, eris.Errorf("scoring: unknown loan type %q", req.LoanType)
	}

	ledger := BuildRepaymentLedger(req, e.policy)
	bs := BuildBalanceSheet(req)
	factors := ScoreRiskFactors(req, ledger, bs)
	thresholds, adjusted := CheckThresholds(req, ledger, e.policy)

	a := &model.Assessment{
		LoanType:           req.LoanType,
		Profile:            EvaluateProfile(req.Applicant, req.Property),
		Purpose:            CheckPurpose(req),
		Repayment:          ledger,
		BalanceSheet:       bs,
		RiskFactors:        factors,
		Thresholds:         thresholds,
		Fraud:              DetectFraud(req.Applicant, factors),
		AdjustedLoanAmount: adjusted,
		AssessedAt:         e.nowFunc().UTC(),
	}
	e.conclude(a)

	zap.L().Debug("scoring: assessment complete",
		zap.String("loan_type", string(req.LoanType)),
		zap.Int("risk_score", factors.RiskScore()),
		zap.String("fraud_severity", string(a.Fraud.Severity)),
		zap.Bool("threshold_pass", thresholds.Pass()),
		zap.Bool("manual_review", a.RequiresManualReview),
	)
	return a, nil
}

// conclude derives the verdict, manual-review flag and suggested actions.
func (e *Engine) conclude(a *model.Assessment) {
	hasLevel1 := false
	lowCount := 0
	for _, l := range a.RiskFactors.Levels() {
		switch {
		case l == minLevel:
			hasLevel1 = true
		case l <= lowBandMax:
			lowCount++
		}
	}
	alert := a.Fraud.Severity == model.FraudAlert
	thresholdFail := !a.Thresholds.Pass() || !a.Purpose.TermCheck.Pass

	actions := []string{}
	switch {
	case hasLevel1 || alert:
		a.OverallAssessment = VerdictHighCaution
		a.RequiresManualReview = true
		if hasLevel1 {
			actions = append(actions, "at least one risk factor scored 1; route to special review")
		}
		if alert {
			actions = append(actions, "fraud check raised an alert; decline or escalate to a supervisor")
		}
	case lowCount >= 2 || thresholdFail:
		a.OverallAssessment = VerdictEvaluate
		a.RequiresManualReview = true
		if lowCount >= 2 {
			actions = append(actions, fmt.Sprintf("%d risk factors scored 2-3; evaluate carefully", lowCount))
		}
		if !a.Thresholds.Pass() {
			actions = append(actions, "compliance ratios exceed their limits; adjust the amount")
		}
		if !a.Purpose.TermCheck.Pass {
			actions = append(actions, fmt.Sprintf("requested term of %d years exceeds the %d year maximum",
				a.Purpose.TermCheck.Requested, a.Purpose.TermCheck.MaxAllowed))
		}
	default:
		a.OverallAssessment = VerdictNormal
		if a.Fraud.Severity == model.FraudCaution {
			actions = append(actions, "fraud check raised a caution; confirm the flagged details")
		}
	}

	if a.AdjustedLoanAmount != nil && !a.Thresholds.Pass() {
		actions = append(actions, e.printer.Sprintf("adjust the loan amount to %d to meet the compliance ratios", *a.AdjustedLoanAmount))
	}
	a.SuggestedActions = actions
}

package durable

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/valuation"
	pipeline "github.com/sells-group/underwriter/internal/workflow"
)

// WorkflowName is the registered name of UnderwritingWorkflow.
const WorkflowName = "UnderwritingWorkflow"

// Options tunes activity timeouts and retries.
type Options struct {
	ValuationTimeout time.Duration
	ScoringTimeout   time.Duration
	CommitteeTimeout time.Duration
	CommitteeRetries int32
}

// DefaultOptions returns the timeouts used when the worker is not configured
// otherwise.
func DefaultOptions() Options {
	return Options{
		ValuationTimeout: 30 * time.Second,
		ScoringTimeout:   10 * time.Second,
		CommitteeTimeout: 5 * time.Minute,
		CommitteeRetries: 3,
	}
}

// UnderwritingWorkflow runs valuation, scoring, and committee with
// DefaultOptions.
func UnderwritingWorkflow(ctx workflow.Context, req model.WorkflowRequest) (*model.WorkflowResult, error) {
	return run(ctx, req, DefaultOptions())
}

// NewWorkflow returns an UnderwritingWorkflow bound to opts.
func NewWorkflow(opts Options) func(workflow.Context, model.WorkflowRequest) (*model.WorkflowResult, error) {
	return func(ctx workflow.Context, req model.WorkflowRequest) (*model.WorkflowResult, error) {
		return run(ctx, req, opts)
	}
}

func run(ctx workflow.Context, req model.WorkflowRequest, opts Options) (*model.WorkflowResult, error) {
	log := workflow.GetLogger(ctx)
	start := workflow.Now(ctx)
	if req.ApplicationID == "" {
		req.ApplicationID = fmt.Sprintf("WF-%d", start.UnixMilli())
	}
	log.Info("durable: starting review", "application_id", req.ApplicationID, "loan_type", string(req.LoanType))

	var acts *Activities
	result := &model.WorkflowResult{ApplicationID: req.ApplicationID, LoanType: req.LoanType}

	// Phase 1: valuation.
	var val *model.Valuation
	if req.LoanType.Secured() {
		phaseStart := workflow.Now(ctx)
		actx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: opts.ValuationTimeout,
			RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 2},
		})
		var v model.Valuation
		err := workflow.ExecuteActivity(actx, acts.Valuate, ValuateInput{
			LoanAmount: req.LoanAmount,
			Property:   req.Property,
			Input:      req.ValuationInput,
		}).Get(ctx, &v)
		if err != nil {
			// The activity itself never fails; this is a timeout or worker loss.
			log.Warn("durable: valuation activity failed, synthesizing", "error", err)
			v = synthesize(req)
		}
		val = &v
		d := since(ctx, phaseStart)
		result.Valuation = &model.ValuationPhase{Mode: v.Mode, Result: v, DurationMs: d}
		result.Phases = append(result.Phases, model.PhaseResult{
			Name:     pipeline.PhaseValuation,
			Status:   model.PhaseStatusComplete,
			Duration: d,
			Metadata: map[string]any{"mode": string(v.Mode)},
		})
	} else {
		result.Phases = append(result.Phases, model.PhaseResult{
			Name:     pipeline.PhaseValuation,
			Status:   model.PhaseStatusSkipped,
			Metadata: map[string]any{"reason": "unsecured loan"},
		})
	}

	// Phase 2: scoring. Pure computation, so a failure is not retried.
	phaseStart := workflow.Now(ctx)
	sctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: opts.ScoringTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var assessment model.Assessment
	if err := workflow.ExecuteActivity(sctx, acts.Score, req.LoanRequest(val)).Get(ctx, &assessment); err != nil {
		return nil, &pipeline.PhaseError{Phase: pipeline.PhaseScoring, Err: err}
	}
	d := since(ctx, phaseStart)
	result.Credit = model.CreditPhase{Result: assessment, DurationMs: d}
	result.Phases = append(result.Phases, model.PhaseResult{
		Name:     pipeline.PhaseScoring,
		Status:   model.PhaseStatusComplete,
		Duration: d,
		Metadata: map[string]any{"risk_score": assessment.RiskFactors.RiskScore()},
	})

	// Phase 3: committee.
	phaseStart = workflow.Now(ctx)
	cctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: opts.CommitteeTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    opts.CommitteeRetries,
		},
	})
	var committee model.CommitteeResult
	creq := pipeline.CommitteeRequestFor(req.ApplicationID, req, &assessment, val)
	if err := workflow.ExecuteActivity(cctx, acts.Deliberate, creq).Get(ctx, &committee); err != nil {
		return nil, &pipeline.PhaseError{Phase: pipeline.PhaseCommittee, Err: err}
	}
	d = since(ctx, phaseStart)
	result.Committee = model.CommitteePhase{Result: committee, DurationMs: d}
	result.Phases = append(result.Phases, model.PhaseResult{
		Name:       pipeline.PhaseCommittee,
		Status:     model.PhaseStatusComplete,
		Duration:   d,
		TokenUsage: committee.TokenUsage,
		Metadata:   map[string]any{"outcome": string(committee.Decision.Outcome)},
	})

	result.Summary = pipeline.FinalSummaryFor(committee.Decision, &assessment, val)
	result.TotalDurationMs = since(ctx, start)

	log.Info("durable: review complete",
		"application_id", req.ApplicationID,
		"outcome", string(result.Summary.Outcome),
		"duration_ms", result.TotalDurationMs,
	)
	return result, nil
}

func since(ctx workflow.Context, t time.Time) int64 {
	return workflow.Now(ctx).Sub(t).Milliseconds()
}

func synthesize(req model.WorkflowRequest) model.Valuation {
	var region, buildingType string
	if req.Property != nil {
		region = req.Property.Region
	}
	if req.ValuationInput != nil {
		buildingType = req.ValuationInput.BuildingType
	}
	return valuation.Synthesize(req.LoanAmount, region, buildingType)
}

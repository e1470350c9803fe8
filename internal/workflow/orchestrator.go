// Package workflow runs valuation, credit scoring, and committee deliberation
// as one tracked pipeline.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/monitoring"
	"github.com/sells-group/underwriter/internal/resilience"
	"github.com/sells-group/underwriter/internal/store"
	"github.com/sells-group/underwriter/internal/valuation"
)

// Phase names.
const (
	PhaseValuation = "valuation"
	PhaseScoring   = "scoring"
	PhaseCommittee = "committee"
)

// Scorer assesses a loan request.
type Scorer interface {
	Assess(ctx context.Context, req model.LoanRequest) (*model.Assessment, error)
}

// Deliberator runs the credit committee.
type Deliberator interface {
	Deliberate(ctx context.Context, req model.CommitteeRequest) (*model.CommitteeResult, error)
}

// Orchestrator wires the three phases together.
type Orchestrator struct {
	scorer    Scorer
	committee Deliberator
	valuation valuation.Client
	store     store.Store
	metrics   *monitoring.Metrics
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithValuation sets the valuation service client. Without one every
// mortgage gets a synthesized valuation.
func WithValuation(c valuation.Client) Option {
	return func(o *Orchestrator) { o.valuation = c }
}

// WithStore persists each run and its phases.
func WithStore(st store.Store) Option {
	return func(o *Orchestrator) { o.store = st }
}

// WithMetrics records phase metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator.
func New(scorer Scorer, committee Deliberator, opts ...Option) *Orchestrator {
	o := &Orchestrator{scorer: scorer, committee: committee, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline. Valuation problems degrade to a synthesized
// estimate; a scoring or committee failure aborts with a *PhaseError.
func (o *Orchestrator) Run(ctx context.Context, req model.WorkflowRequest) (*model.WorkflowResult, error) {
	start := o.now()
	if req.ApplicationID == "" {
		req.ApplicationID = fmt.Sprintf("WF-%d", start.UnixMilli())
	}
	log := zap.L().With(
		zap.String("application_id", req.ApplicationID),
		zap.String("loan_type", string(req.LoanType)),
	)
	log.Info("workflow: starting review")

	result := &model.WorkflowResult{
		ApplicationID: req.ApplicationID,
		LoanType:      req.LoanType,
	}
	rec := o.newRecorder(ctx, req, log)
	result.RunID = rec.runID

	// Phase 1: valuation.
	var val *model.Valuation
	if req.LoanType.Secured() {
		rec.setStatus(model.RunStatusValuating)
		pr := rec.track(PhaseValuation, func() (*model.PhaseResult, error) {
			v := valuation.Resolve(ctx, o.valuation, req.LoanAmount, req.Property, req.ValuationInput)
			val = &v
			if v.Mode == model.ValuationModeSynthesized {
				o.metrics.ObserveFallback("valuation")
			}
			return &model.PhaseResult{Metadata: map[string]any{
				"mode":            string(v.Mode),
				"estimated_value": v.EstimatedValue,
				"ltv_ratio":       v.LTVRatio,
			}}, nil
		})
		result.Valuation = &model.ValuationPhase{Mode: val.Mode, Result: *val, DurationMs: pr.Duration}
	} else {
		rec.skip(PhaseValuation, "unsecured loan")
	}

	// Phase 2: scoring.
	rec.setStatus(model.RunStatusScoring)
	var assessment *model.Assessment
	pr := rec.track(PhaseScoring, func() (*model.PhaseResult, error) {
		a, err := o.scorer.Assess(ctx, req.LoanRequest(val))
		if err != nil {
			return nil, err
		}
		assessment = a
		o.metrics.ObserveAssessment(string(req.LoanType), string(a.Fraud.Severity))
		return &model.PhaseResult{Metadata: map[string]any{
			"risk_score":    a.RiskFactors.RiskScore(),
			"fraud_level":   string(a.Fraud.Severity),
			"manual_review": a.RequiresManualReview,
		}}, nil
	})
	if pr.Status == model.PhaseStatusFailed {
		return nil, rec.fail(PhaseScoring, rec.errs[PhaseScoring])
	}
	result.Credit = model.CreditPhase{Result: *assessment, DurationMs: pr.Duration}

	// Phase 3: committee.
	rec.setStatus(model.RunStatusDeliberate)
	var committee *model.CommitteeResult
	pr = rec.track(PhaseCommittee, func() (*model.PhaseResult, error) {
		c, err := o.committee.Deliberate(ctx, CommitteeRequestFor(req.ApplicationID, req, assessment, val))
		if err != nil {
			return nil, err
		}
		committee = c
		return &model.PhaseResult{
			TokenUsage: c.TokenUsage,
			Metadata: map[string]any{
				"outcome":  string(c.Decision.Outcome),
				"fallback": c.Decision.Fallback,
				"cost_usd": c.CostUSD,
			},
		}, nil
	})
	if pr.Status == model.PhaseStatusFailed {
		return nil, rec.fail(PhaseCommittee, rec.errs[PhaseCommittee])
	}
	result.Committee = model.CommitteePhase{Result: *committee, DurationMs: pr.Duration}

	result.Summary = FinalSummaryFor(committee.Decision, assessment, val)
	result.Phases = rec.phases
	result.TotalDurationMs = o.now().Sub(start).Milliseconds()

	rec.complete(&model.RunResult{
		Summary:         result.Summary,
		Phases:          result.Phases,
		TotalDurationMs: result.TotalDurationMs,
		TotalTokens:     committee.TokenUsage.InputTokens + committee.TokenUsage.OutputTokens,
		TotalCost:       committee.CostUSD,
	})

	log.Info("workflow: review complete",
		zap.String("outcome", string(result.Summary.Outcome)),
		zap.Int64("approved_amount", result.Summary.ApprovedAmount),
		zap.Int("risk_score", result.Summary.RiskScore),
		zap.Int64("duration_ms", result.TotalDurationMs),
	)
	return result, nil
}

// recorder tracks phases and mirrors them into the store when one is set.
// Store failures are logged and never fail the review.
type recorder struct {
	ctx    context.Context
	o      *Orchestrator
	log    *zap.Logger
	runID  string
	phases []model.PhaseResult
	errs   map[string]error
}

func (o *Orchestrator) newRecorder(ctx context.Context, req model.WorkflowRequest, log *zap.Logger) *recorder {
	r := &recorder{ctx: ctx, o: o, log: log, errs: make(map[string]error)}
	if o.store == nil {
		return r
	}
	run, err := o.store.CreateRun(ctx, req)
	if err != nil {
		log.Warn("workflow: failed to create run", zap.Error(err))
		return r
	}
	r.runID = run.ID
	return r
}

func (r *recorder) persisting() bool { return r.o.store != nil && r.runID != "" }

func (r *recorder) setStatus(status model.RunStatus) {
	if !r.persisting() {
		return
	}
	if err := r.o.store.UpdateRunStatus(r.ctx, r.runID, status); err != nil {
		r.log.Warn("workflow: failed to update status", zap.Error(err))
	}
}

func (r *recorder) track(name string, fn func() (*model.PhaseResult, error)) *model.PhaseResult {
	var phase *model.RunPhase
	if r.persisting() {
		var err error
		if phase, err = r.o.store.CreatePhase(r.ctx, r.runID, name); err != nil {
			r.log.Warn("workflow: failed to create phase", zap.String("phase", name), zap.Error(err))
		}
	}

	start := r.o.now()
	pr, fnErr := fn()
	duration := r.o.now().Sub(start)

	if pr == nil {
		pr = &model.PhaseResult{}
	}
	pr.Name = name
	pr.Duration = duration.Milliseconds()

	if fnErr != nil {
		pr.Status = model.PhaseStatusFailed
		pr.Error = fnErr.Error()
		r.errs[name] = fnErr
		r.log.Error("workflow: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", pr.Duration),
			zap.Error(fnErr),
		)
	} else {
		pr.Status = model.PhaseStatusComplete
		r.log.Info("workflow: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", pr.Duration),
		)
	}
	r.o.metrics.ObservePhase(name, string(pr.Status), duration)

	if phase != nil {
		if err := r.o.store.CompletePhase(r.ctx, phase.ID, pr); err != nil {
			r.log.Warn("workflow: failed to complete phase", zap.String("phase", name), zap.Error(err))
		}
	}
	r.phases = append(r.phases, *pr)
	return pr
}

func (r *recorder) skip(name, reason string) {
	r.phases = append(r.phases, model.PhaseResult{
		Name:     name,
		Status:   model.PhaseStatusSkipped,
		Metadata: map[string]any{"reason": reason},
	})
	r.o.metrics.ObservePhase(name, string(model.PhaseStatusSkipped), 0)
}

func (r *recorder) fail(phase string, err error) error {
	if err == nil {
		err = eris.New("unknown failure")
	}
	perr := &PhaseError{Phase: phase, Err: err}
	if r.persisting() {
		// The review context may already be cancelled.
		ctx := context.WithoutCancel(r.ctx)
		if ferr := r.o.store.FailRun(ctx, r.runID, resilience.ClassifyError(err), perr.Error()); ferr != nil {
			r.log.Warn("workflow: failed to record run failure", zap.Error(ferr))
		}
	}
	return perr
}

func (r *recorder) complete(result *model.RunResult) {
	if !r.persisting() {
		return
	}
	if err := r.o.store.UpdateRunResult(r.ctx, r.runID, result); err != nil {
		r.log.Warn("workflow: failed to save run result", zap.Error(err))
	}
}

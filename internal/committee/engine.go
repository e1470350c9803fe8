// Package committee simulates a three-member credit review committee that
// deliberates over three rounds before a chair issues the ruling.
package committee

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/underwriter/internal/cost"
	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/monitoring"
	"github.com/sells-group/underwriter/internal/resilience"
)

const (
	defaultOpinionMaxTokens = 400
	defaultChairMaxTokens   = 500
)

// Engine runs committee deliberations. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	reasoner         Reasoner
	charter          *Charter
	opinionMaxTokens int64
	chairMaxTokens   int64
	calc             *cost.Calculator
	metrics          *monitoring.Metrics
	now              func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxTokens sets the reply budgets for member opinions and the chair.
func WithMaxTokens(opinion, chair int64) Option {
	return func(e *Engine) {
		if opinion > 0 {
			e.opinionMaxTokens = opinion
		}
		if chair > 0 {
			e.chairMaxTokens = chair
		}
	}
}

// WithCostCalculator attributes USD cost to each deliberation.
func WithCostCalculator(c *cost.Calculator) Option {
	return func(e *Engine) { e.calc = c }
}

// WithMetrics records call and decision metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine for the given reasoner and charter.
func NewEngine(r Reasoner, charter *Charter, opts ...Option) *Engine {
	e := &Engine{
		reasoner:         r,
		charter:          charter,
		opinionMaxTokens: defaultOpinionMaxTokens,
		chairMaxTokens:   defaultChairMaxTokens,
		now:              time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// tally accumulates usage and cost across concurrent calls.
type tally struct {
	mu    sync.Mutex
	usage model.TokenUsage
	cost  float64
}

func (t *tally) add(calc *cost.Calculator, c Completion) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.Add(c.Usage)
	t.cost += calc.Claude(c.Model, c.Usage)
}

// Deliberate runs three rounds of member opinions and the chair's synthesis.
// Failed or malformed member and chair replies are replaced with safe
// defaults, so the only error is cancellation of ctx.
func (e *Engine) Deliberate(ctx context.Context, req model.CommitteeRequest) (*model.CommitteeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "committee: deliberate")
	}

	start := e.now()
	appID := req.ApplicationID
	if appID == "" {
		appID = fmt.Sprintf("CR-%d", start.UnixMilli())
	}
	log := zap.L().With(
		zap.String("application_id", appID),
		zap.String("loan_type", string(req.LoanType)),
	)

	caseSummary := BuildCaseSummary(req)
	t := &tally{}

	rounds := make([]model.CommitteeRound, 0, len(e.charter.Rounds))
	var prior []model.Opinion
	for _, spec := range e.charter.Rounds {
		opinions, err := e.runRound(ctx, spec, caseSummary, prior, t)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, model.CommitteeRound{
			Number:   spec.Number,
			Title:    spec.Title,
			Opinions: opinions,
		})
		log.Debug("committee: round complete", zap.Int("round", spec.Number))
		prior = opinions
	}

	votes := finalVotes(rounds[len(rounds)-1])
	decision := e.synthesize(ctx, req, caseSummary, votes, t)
	decision.Votes = votes

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "committee: deliberate")
	}

	result := &model.CommitteeResult{
		ApplicationID: appID,
		Rounds:        rounds,
		Decision:      decision,
		TokenUsage:    t.usage,
		CostUSD:       t.cost,
		DurationMs:    e.now().Sub(start).Milliseconds(),
	}

	e.metrics.ObserveDecision(string(decision.Outcome), string(req.LoanType))
	e.metrics.ObserveTokens(t.usage.InputTokens, t.usage.OutputTokens, t.usage.CacheCreationTokens, t.usage.CacheReadTokens)
	log.Info("committee: deliberation complete",
		zap.String("outcome", string(decision.Outcome)),
		zap.Int64("approved_amount", decision.ApprovedAmount),
		zap.Bool("chair_fallback", decision.Fallback),
		zap.Float64("cost_usd", result.CostUSD),
		zap.Int64("duration_ms", result.DurationMs),
	)
	return result, nil
}

// runRound fans out one call per member and joins before returning. Opinions
// keep the charter's member order regardless of completion order.
func (e *Engine) runRound(ctx context.Context, spec RoundSpec, caseSummary string, prior []model.Opinion, t *tally) ([]model.Opinion, error) {
	opinions := make([]model.Opinion, len(e.charter.Members))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range e.charter.Members {
		g.Go(func() error {
			opinions[i] = e.opinion(gctx, m, spec, caseSummary, prior, t)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "committee: round %d", spec.Number)
	}
	return opinions, nil
}

func (e *Engine) opinion(ctx context.Context, m Member, spec RoundSpec, caseSummary string, prior []model.Opinion, t *tally) model.Opinion {
	p := Prompt{
		Purpose:   "opinion",
		Role:      string(m.Role),
		System:    e.charter.SystemPrompt(m),
		User:      opinionPrompt(caseSummary, spec, prior),
		MaxTokens: e.opinionMaxTokens,
	}

	start := time.Now()
	c, err := e.reasoner.Complete(ctx, p)
	if err != nil {
		e.metrics.ObserveReasonerCall(p.Purpose, resilience.ClassifyError(err), time.Since(start))
		e.metrics.ObserveFallback("opinion")
		zap.L().Warn("committee: member call failed, using default opinion",
			zap.String("role", p.Role),
			zap.Int("round", spec.Number),
			zap.Error(err),
		)
		return FallbackOpinion(m.Role)
	}
	e.metrics.ObserveReasonerCall(p.Purpose, "ok", time.Since(start))
	t.add(e.calc, c)

	op, ok := ParseOpinion(m.Role, c.Text)
	if !ok {
		e.metrics.ObserveFallback("opinion")
		zap.L().Warn("committee: unparseable member reply, using default opinion",
			zap.String("role", p.Role),
			zap.Int("round", spec.Number),
		)
	}
	return op
}

func (e *Engine) synthesize(ctx context.Context, req model.CommitteeRequest, caseSummary string, votes []model.Vote, t *tally) model.FinalDecision {
	p := Prompt{
		Purpose:   "chair",
		Role:      "chair",
		System:    e.charter.Chair,
		User:      chairPrompt(req, caseSummary, votes),
		MaxTokens: e.chairMaxTokens,
	}

	start := time.Now()
	c, err := e.reasoner.Complete(ctx, p)
	if err != nil {
		e.metrics.ObserveReasonerCall(p.Purpose, resilience.ClassifyError(err), time.Since(start))
		e.metrics.ObserveFallback("chair")
		zap.L().Warn("committee: chair call failed, using fallback decision", zap.Error(err))
		return FallbackDecision(req)
	}
	e.metrics.ObserveReasonerCall(p.Purpose, "ok", time.Since(start))
	t.add(e.calc, c)

	d, ok := ParseDecision(req, c.Text)
	if !ok {
		e.metrics.ObserveFallback("chair")
		zap.L().Warn("committee: unparseable chair reply, using fallback decision")
	}
	return d
}

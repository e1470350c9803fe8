package main

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/cache"
	"github.com/sells-group/underwriter/internal/committee"
	"github.com/sells-group/underwriter/internal/config"
	"github.com/sells-group/underwriter/internal/cost"
	"github.com/sells-group/underwriter/internal/monitoring"
	"github.com/sells-group/underwriter/internal/resilience"
	"github.com/sells-group/underwriter/internal/scoring"
	"github.com/sells-group/underwriter/internal/store"
	"github.com/sells-group/underwriter/internal/valuation"
	"github.com/sells-group/underwriter/internal/workflow"
	anthropicpkg "github.com/sells-group/underwriter/pkg/anthropic"
)

// appEnv holds the initialized collaborators shared by the serve, review,
// workflow, committee, and worker commands.
type appEnv struct {
	Store     store.Store // may be nil
	Cache     cache.Store // may be nil
	Scorer    *scoring.Engine
	Committee *committee.Engine
	Valuation valuation.Client // nil when no service is configured
	Workflow  *workflow.Orchestrator
	Metrics   *monitoring.Metrics
	Registry  *prometheus.Registry
	Breakers  *resilience.Breakers
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Cache != nil {
		_ = e.Cache.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

type envOptions struct {
	// store opens the run store; without it workflows are not persisted.
	store bool
	// cache opens the TTL store behind review caching and session tokens.
	cache bool
}

// initEnv validates config for mode and builds the pipeline. Callers should
// defer env.Close().
func initEnv(ctx context.Context, mode string, opts envOptions) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &appEnv{
		Registry: prometheus.NewRegistry(),
		Breakers: resilience.NewBreakers(resilience.BreakerFromConfig(cfg.Valuation.Circuit)),
	}
	env.Metrics = monitoring.NewMetrics(env.Registry)
	env.Scorer = scoring.NewEngine(scoringPolicy(cfg.Scoring))

	charter, err := committee.DefaultCharter()
	if err != nil {
		return nil, eris.Wrap(err, "load committee charter")
	}
	env.Committee = committee.NewEngine(newReasoner(env.Breakers), charter,
		committee.WithMaxTokens(cfg.Committee.OpinionMaxTokens, cfg.Committee.ChairMaxTokens),
		committee.WithCostCalculator(cost.FromConfig(cfg.Pricing)),
		committee.WithMetrics(env.Metrics),
	)

	if cfg.Valuation.BaseURL != "" {
		env.Valuation = valuation.NewHTTPClient(cfg.Valuation, env.Breakers.For("valuation"))
	} else {
		zap.L().Debug("UNDERWRITER_VALUATION_BASE_URL not set, valuations will be synthesized")
	}

	if opts.store {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}
	if opts.cache {
		cs, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "open cache")
		}
		env.Cache = cs
	}

	wfOpts := []workflow.Option{workflow.WithMetrics(env.Metrics)}
	if env.Valuation != nil {
		wfOpts = append(wfOpts, workflow.WithValuation(env.Valuation))
	}
	if env.Store != nil {
		wfOpts = append(wfOpts, workflow.WithStore(env.Store))
	}
	env.Workflow = workflow.New(env.Scorer, env.Committee, wfOpts...)

	return env, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s store", cfg.Store.Driver)
	}
	return st, nil
}

func newReasoner(breakers *resilience.Breakers) committee.Reasoner {
	var opts []option.RequestOption
	if cfg.Anthropic.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.Anthropic.BaseURL))
	}
	client := anthropicpkg.NewClient(cfg.Anthropic.Key, opts...)
	return committee.NewAnthropicReasoner(client, cfg.Anthropic, cfg.Committee, breakers.For("anthropic"))
}

// scoringPolicy converts config into a scoring policy, keeping the built-in
// values for anything left unset.
func scoringPolicy(c config.ScoringConfig) scoring.Policy {
	p := scoring.DefaultPolicy()
	if len(c.CapitalRegions) > 0 {
		p.CapitalRegions = c.CapitalRegions
	}
	if c.CapitalLivingExpense > 0 {
		p.CapitalLivingExpense = c.CapitalLivingExpense
	}
	if c.OtherLivingExpense > 0 {
		p.OtherLivingExpense = c.OtherLivingExpense
	}
	return p
}

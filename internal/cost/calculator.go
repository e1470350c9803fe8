// Package cost attributes USD cost to generative token usage.
package cost

import (
	"github.com/sells-group/underwriter/internal/config"
	"github.com/sells-group/underwriter/internal/model"
)

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input         float64
	Output        float64
	CacheWriteMul float64
	CacheReadMul  float64
}

// Calculator prices token usage per model.
type Calculator struct {
	rates map[string]ModelRate
}

// NewCalculator creates a Calculator with the given per-model rates.
func NewCalculator(rates map[string]ModelRate) *Calculator {
	return &Calculator{rates: rates}
}

// FromConfig starts from DefaultRates and applies configured overrides.
// Overrides without cache multipliers inherit the usual 1.25 / 0.1.
func FromConfig(cfg config.PricingConfig) *Calculator {
	rates := DefaultRates()
	for name, p := range cfg.Anthropic {
		r := ModelRate{Input: p.Input, Output: p.Output, CacheWriteMul: p.CacheWriteMul, CacheReadMul: p.CacheReadMul}
		if r.CacheWriteMul == 0 {
			r.CacheWriteMul = 1.25
		}
		if r.CacheReadMul == 0 {
			r.CacheReadMul = 0.1
		}
		rates[name] = r
	}
	return NewCalculator(rates)
}

// Claude computes the cost of usage billed against model. Unknown models
// cost nothing.
func (c *Calculator) Claude(modelName string, usage model.TokenUsage) float64 {
	if c == nil {
		return 0
	}
	rate, ok := c.rates[modelName]
	if !ok {
		return 0
	}

	in := float64(usage.InputTokens) / 1e6 * rate.Input
	out := float64(usage.OutputTokens) / 1e6 * rate.Output
	cw := float64(usage.CacheCreationTokens) / 1e6 * rate.Input * rate.CacheWriteMul
	cr := float64(usage.CacheReadTokens) / 1e6 * rate.Input * rate.CacheReadMul

	return in + out + cw + cr
}

// DefaultRates returns the built-in pricing table.
func DefaultRates() map[string]ModelRate {
	return map[string]ModelRate{
		"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		"claude-sonnet-4-6":          {Input: 3.00, Output: 15.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		"claude-opus-4-1-20250805":   {Input: 15.00, Output: 75.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
	}
}

package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/underwriter/internal/config"
	"github.com/sells-group/underwriter/internal/model"
)

func TestClaude(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(map[string]ModelRate{
		"haiku":  {Input: 0.80, Output: 4.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		"sonnet": {Input: 3.00, Output: 15.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
	})

	tests := []struct {
		name  string
		model string
		usage model.TokenUsage
		want  float64
	}{
		{
			name:  "haiku simple",
			model: "haiku",
			usage: model.TokenUsage{InputTokens: 1_000_000, OutputTokens: 100_000},
			want:  0.80 + 0.40,
		},
		{
			name:  "haiku with cache",
			model: "haiku",
			usage: model.TokenUsage{InputTokens: 500_000, OutputTokens: 50_000, CacheCreationTokens: 200_000, CacheReadTokens: 300_000},
			// in 0.40, out 0.20, cw 0.2*0.8*1.25 = 0.20, cr 0.3*0.8*0.1 = 0.024
			want: 0.824,
		},
		{
			name:  "sonnet committee run",
			model: "sonnet",
			usage: model.TokenUsage{InputTokens: 12_000, OutputTokens: 2_400},
			want:  0.036 + 0.036,
		},
		{
			name:  "unknown model",
			model: "gpt-x",
			usage: model.TokenUsage{InputTokens: 1_000_000},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.Claude(tt.model, tt.usage), 1e-9)
		})
	}
}

func TestClaude_NilCalculator(t *testing.T) {
	var calc *Calculator
	assert.Equal(t, 0.0, calc.Claude("sonnet", model.TokenUsage{InputTokens: 10}))
}

func TestFromConfig_OverridesAndDefaults(t *testing.T) {
	calc := FromConfig(config.PricingConfig{
		Anthropic: map[string]config.ModelPricing{
			"claude-sonnet-4-5-20250929": {Input: 2, Output: 10},
			"custom-model":               {Input: 1, Output: 1, CacheWriteMul: 2, CacheReadMul: 0.5},
		},
	})

	usage := model.TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000, CacheCreationTokens: 1_000_000}
	// Override inherits 1.25 cache write multiplier.
	assert.InDelta(t, 2+10+2.5, calc.Claude("claude-sonnet-4-5-20250929", usage), 1e-9)
	assert.InDelta(t, 1+1+2, calc.Claude("custom-model", usage), 1e-9)
	// Defaults survive for models not overridden.
	assert.InDelta(t, 1+5+1.25, calc.Claude("claude-haiku-4-5-20251001", usage), 1e-9)
}

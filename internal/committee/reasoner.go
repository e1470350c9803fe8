package committee

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/underwriter/internal/config"
	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/resilience"
	"github.com/sells-group/underwriter/pkg/anthropic"
)

// statusOverloaded is returned by the Messages API under load.
const statusOverloaded = 529

// Prompt is one request to the reasoner.
type Prompt struct {
	// Purpose tags the call for logs and metrics, e.g. "opinion" or "chair".
	Purpose   string
	Role      string
	System    string
	User      string
	MaxTokens int64
}

// Completion is the reasoner's raw reply.
type Completion struct {
	Text  string
	Model string
	Usage model.TokenUsage
}

// Reasoner produces a free-text completion for a prompt.
type Reasoner interface {
	Complete(ctx context.Context, p Prompt) (Completion, error)
}

// AnthropicReasoner is a Reasoner backed by the Anthropic Messages API. It is
// safe for concurrent use; every goroutine shares one rate limiter.
type AnthropicReasoner struct {
	client      anthropic.Client
	model       string
	temperature float64
	cacheTTL    string
	callTimeout time.Duration
	limiter     *rate.Limiter
	retry       resilience.RetryPolicy
	breaker     *resilience.Breaker
}

// NewAnthropicReasoner wires client with the configured model, limiter,
// retry policy and breaker. breaker may be nil.
func NewAnthropicReasoner(client anthropic.Client, ac config.AnthropicConfig, cc config.CommitteeConfig, breaker *resilience.Breaker) *AnthropicReasoner {
	rps := cc.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cc.Burst
	if burst <= 0 {
		burst = 3
	}
	timeout := time.Duration(cc.CallTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	retry := resilience.PolicyFromConfig(cc.Retry)
	retry.OnRetry = resilience.LogRetries("anthropic", "create_message")

	return &AnthropicReasoner{
		client:      client,
		model:       ac.Model,
		temperature: cc.Temperature,
		cacheTTL:    cc.PromptCacheTTL,
		callTimeout: timeout,
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		retry:       retry,
		breaker:     breaker,
	}
}

// Complete sends p as a single user turn with a cached system prompt.
func (r *AnthropicReasoner) Complete(ctx context.Context, p Prompt) (Completion, error) {
	temp := r.temperature
	req := anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   p.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(p.System, r.cacheTTL),
		Messages:    []anthropic.Message{{Role: "user", Content: p.User}},
		Temperature: &temp,
	}

	resp, err := resilience.Retry(ctx, r.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "committee: rate limit wait")
		}
		if r.breaker == nil {
			return r.send(ctx, req)
		}
		return resilience.Call(ctx, r.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return r.send(ctx, req)
		})
	})
	if err != nil {
		return Completion{}, eris.Wrapf(err, "committee: %s call for %s", p.Purpose, p.Role)
	}

	usage := model.TokenUsage{
		InputTokens:         int(resp.Usage.InputTokens),
		OutputTokens:        int(resp.Usage.OutputTokens),
		CacheCreationTokens: int(resp.Usage.CacheCreationInputTokens),
		CacheReadTokens:     int(resp.Usage.CacheReadInputTokens),
	}
	resp.Usage.LogCost(r.model, p.Purpose)

	modelName := resp.Model
	if modelName == "" {
		modelName = r.model
	}
	return Completion{Text: resp.Text(), Model: modelName, Usage: usage}, nil
}

func (r *AnthropicReasoner) send(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	resp, err := r.client.CreateMessage(callCtx, req)
	if err != nil {
		if code := anthropic.StatusCode(err); resilience.IsTransientHTTPStatus(code) || code == statusOverloaded {
			return nil, resilience.NewTransientError(err, code)
		}
		return nil, err
	}
	if resp.StopReason == "max_tokens" {
		zap.L().Debug("committee: reply truncated at max tokens",
			zap.String("model", req.Model),
			zap.Int64("max_tokens", req.MaxTokens),
		)
	}
	return resp, nil
}

package committee

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriter/internal/config"
	"github.com/sells-group/underwriter/internal/resilience"
	"github.com/sells-group/underwriter/pkg/anthropic"
)

// mockClient implements anthropic.Client for testing.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func testReasonerConfig() (config.AnthropicConfig, config.CommitteeConfig) {
	return config.AnthropicConfig{Model: "claude-sonnet-4-5-20250929"},
		config.CommitteeConfig{
			Temperature:    0.3,
			RatePerSecond:  100,
			Burst:          10,
			PromptCacheTTL: "5m",
			Retry:          config.RetryConfig{MaxAttempts: 3, InitialBackoffMs: 1, MaxBackoffMs: 2},
		}
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:         "msg_1",
		Model:      "claude-sonnet-4-5-20250929",
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
		Usage:      anthropic.TokenUsage{InputTokens: 120, OutputTokens: 40, CacheReadInputTokens: 900},
	}
}

func TestAnthropicReasoner_Complete(t *testing.T) {
	mc := new(mockClient)
	ac, cc := testReasonerConfig()
	r := NewAnthropicReasoner(mc, ac, cc, nil)

	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-sonnet-4-5-20250929" &&
			req.MaxTokens == 400 &&
			len(req.System) == 1 &&
			req.System[0].Text == "system brief" &&
			req.System[0].CacheControl != nil && req.System[0].CacheControl.TTL == "5m" &&
			len(req.Messages) == 1 && req.Messages[0].Role == "user" && req.Messages[0].Content == "case" &&
			req.Temperature != nil && *req.Temperature == 0.3
	})).Return(textResponse(approveReply), nil).Once()

	c, err := r.Complete(context.Background(), Prompt{
		Purpose: "opinion", Role: "compliance", System: "system brief", User: "case", MaxTokens: 400,
	})
	require.NoError(t, err)
	assert.Equal(t, approveReply, c.Text)
	assert.Equal(t, "claude-sonnet-4-5-20250929", c.Model)
	assert.Equal(t, 120, c.Usage.InputTokens)
	assert.Equal(t, 40, c.Usage.OutputTokens)
	assert.Equal(t, 900, c.Usage.CacheReadTokens)
	mc.AssertExpectations(t)
}

func TestAnthropicReasoner_RetriesTransient(t *testing.T) {
	mc := new(mockClient)
	ac, cc := testReasonerConfig()
	r := NewAnthropicReasoner(mc, ac, cc, nil)

	mc.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(errors.New("503"), 503)).Once()
	mc.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("{}"), nil).Once()

	c, err := r.Complete(context.Background(), Prompt{Purpose: "chair", Role: "chair", MaxTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, "{}", c.Text)
	mc.AssertNumberOfCalls(t, "CreateMessage", 2)
}

func TestAnthropicReasoner_PermanentErrorNotRetried(t *testing.T) {
	mc := new(mockClient)
	ac, cc := testReasonerConfig()
	r := NewAnthropicReasoner(mc, ac, cc, nil)

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("invalid api key"))

	_, err := r.Complete(context.Background(), Prompt{Purpose: "opinion", Role: "collateral", MaxTokens: 400})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committee: opinion call for collateral")
	mc.AssertNumberOfCalls(t, "CreateMessage", 1)
}

func TestAnthropicReasoner_BreakerOpens(t *testing.T) {
	mc := new(mockClient)
	ac, cc := testReasonerConfig()
	cc.Retry.MaxAttempts = 1
	breaker := resilience.NewBreaker("reasoning", resilience.BreakerSettings{FailureThreshold: 2})
	r := NewAnthropicReasoner(mc, ac, cc, breaker)

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	p := Prompt{Purpose: "opinion", Role: "compliance", MaxTokens: 400}
	_, _ = r.Complete(context.Background(), p)
	_, _ = r.Complete(context.Background(), p)
	_, err := r.Complete(context.Background(), p)

	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	mc.AssertNumberOfCalls(t, "CreateMessage", 2)
}

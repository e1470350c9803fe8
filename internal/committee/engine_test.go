package committee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriter/internal/cost"
	"github.com/sells-group/underwriter/internal/model"
)

// MockReasoner implements Reasoner for testing.
type MockReasoner struct {
	mock.Mock
}

func (m *MockReasoner) Complete(ctx context.Context, p Prompt) (Completion, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(Completion), args.Error(1)
}

func purpose(name string) any {
	return mock.MatchedBy(func(p Prompt) bool { return p.Purpose == name })
}

const approveReply = `{"opinion":"Within policy.","recommendation":"approve","keyPoints":["ratios pass"]}`

const chairReply = `{"decision":"approve","approvedAmount":8000000,"approvedTermYears":30,"interestRateHint":"floating 2.185% and up","conditions":[],"summary":"Approved."}`

func testCharter(t *testing.T) *Charter {
	t.Helper()
	c, err := DefaultCharter()
	require.NoError(t, err)
	return c
}

func TestDeliberate_HappyPath(t *testing.T) {
	r := new(MockReasoner)
	usage := model.TokenUsage{InputTokens: 1000, OutputTokens: 100}
	r.On("Complete", mock.Anything, purpose("opinion")).
		Return(Completion{Text: approveReply, Model: "claude-sonnet-4-5-20250929", Usage: usage}, nil).Times(9)
	r.On("Complete", mock.Anything, purpose("chair")).
		Return(Completion{Text: chairReply, Model: "claude-sonnet-4-5-20250929", Usage: usage}, nil).Once()

	e := NewEngine(r, testCharter(t), WithCostCalculator(cost.NewCalculator(cost.DefaultRates())))
	req := mortgageCommitteeRequest()
	req.ApplicationID = "APP-1"

	res, err := e.Deliberate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "APP-1", res.ApplicationID)
	require.Len(t, res.Rounds, 3)
	for i, round := range res.Rounds {
		assert.Equal(t, i+1, round.Number)
		require.Len(t, round.Opinions, 3)
		assert.Equal(t, "compliance", round.Opinions[0].Role)
		assert.Equal(t, "credit_risk", round.Opinions[1].Role)
		assert.Equal(t, "collateral", round.Opinions[2].Role)
	}
	assert.Equal(t, "Round 3: final vote", res.Rounds[2].Title)

	assert.Equal(t, model.OutcomeApprove, res.Decision.Outcome)
	assert.Equal(t, int64(8_000_000), res.Decision.ApprovedAmount)
	require.Len(t, res.Decision.Votes, 3)
	assert.Equal(t, model.Vote{Role: "compliance", Recommendation: model.RecommendApprove}, res.Decision.Votes[0])

	assert.Equal(t, 10_000, res.TokenUsage.InputTokens)
	assert.Equal(t, 1_000, res.TokenUsage.OutputTokens)
	// 10k input at $3/M plus 1k output at $15/M.
	assert.InDelta(t, 0.03+0.015, res.CostUSD, 1e-9)

	r.AssertExpectations(t)
}

func TestDeliberate_DefaultApplicationID(t *testing.T) {
	r := new(MockReasoner)
	r.On("Complete", mock.Anything, purpose("opinion")).Return(Completion{Text: approveReply}, nil)
	r.On("Complete", mock.Anything, purpose("chair")).Return(Completion{Text: chairReply}, nil)

	fixed := time.UnixMilli(1_760_000_000_000)
	e := NewEngine(r, testCharter(t), WithClock(func() time.Time { return fixed }))

	res, err := e.Deliberate(context.Background(), mortgageCommitteeRequest())
	require.NoError(t, err)
	assert.Equal(t, "CR-1760000000000", res.ApplicationID)
	assert.Equal(t, int64(0), res.DurationMs)
}

func TestDeliberate_MemberFailuresFallBack(t *testing.T) {
	r := new(MockReasoner)
	r.On("Complete", mock.Anything, mock.MatchedBy(func(p Prompt) bool {
		return p.Purpose == "opinion" && p.Role == "collateral"
	})).Return(Completion{}, errors.New("upstream 500"))
	r.On("Complete", mock.Anything, mock.MatchedBy(func(p Prompt) bool {
		return p.Purpose == "opinion" && p.Role == "credit_risk"
	})).Return(Completion{Text: "not json at all"}, nil)
	r.On("Complete", mock.Anything, purpose("opinion")).Return(Completion{Text: approveReply}, nil)
	r.On("Complete", mock.Anything, purpose("chair")).Return(Completion{Text: chairReply}, nil)

	res, err := NewEngine(r, testCharter(t)).Deliberate(context.Background(), mortgageCommitteeRequest())
	require.NoError(t, err)

	for _, round := range res.Rounds {
		assert.False(t, round.Opinions[0].Fallback)
		assert.True(t, round.Opinions[1].Fallback)
		assert.True(t, round.Opinions[2].Fallback)
		assert.Equal(t, "Case data received; evaluation in progress.", round.Opinions[2].Narrative)
		assert.Equal(t, model.RecommendConditionalApprove, round.Opinions[2].Recommendation)
		assert.Equal(t, []string{"Needs further confirmation"}, round.Opinions[2].KeyPoints)
	}
	assert.Equal(t, model.RecommendConditionalApprove, res.Decision.Votes[2].Recommendation)
}

func TestDeliberate_ChairFailureFallsBack(t *testing.T) {
	r := new(MockReasoner)
	r.On("Complete", mock.Anything, purpose("opinion")).Return(Completion{Text: approveReply}, nil)
	r.On("Complete", mock.Anything, purpose("chair")).Return(Completion{}, errors.New("overloaded"))

	req := mortgageCommitteeRequest()
	req.LoanType = model.LoanTypePersonal
	req.Valuation = nil
	req.Credit.ThresholdPass = false
	req.Credit.AdjustedLoanAmount = int64Ptr(320_000)

	res, err := NewEngine(r, testCharter(t)).Deliberate(context.Background(), req)
	require.NoError(t, err)

	d := res.Decision
	assert.True(t, d.Fallback)
	assert.Equal(t, model.OutcomeConditionalApprove, d.Outcome)
	assert.Equal(t, int64(320_000), d.ApprovedAmount)
	assert.Equal(t, "floating 5.5% and up", d.RateHint)
	assert.Equal(t, []string{"Proceed with the adjusted amount"}, d.Conditions)
	require.Len(t, d.Votes, 3)
}

func TestDeliberate_CancelledContext(t *testing.T) {
	r := new(MockReasoner)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(r, testCharter(t)).Deliberate(ctx, mortgageCommitteeRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	r.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestDeliberate_CancelledMidRound(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := new(MockReasoner)
	r.On("Complete", mock.Anything, purpose("opinion")).
		Run(func(args mock.Arguments) { cancel() }).
		Return(Completion{}, context.Canceled)

	_, err := NewEngine(r, testCharter(t)).Deliberate(ctx, mortgageCommitteeRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committee: round 1")
	r.AssertNotCalled(t, "Complete", mock.Anything, purpose("chair"))
}

// recordingReasoner logs call start/end events to verify round ordering.
type recordingReasoner struct {
	charter *Charter

	mu      sync.Mutex
	events  []string
	prompts map[int][]string
}

func (r *recordingReasoner) roundOf(p Prompt) int {
	for _, spec := range r.charter.Rounds {
		if strings.Contains(p.User, spec.Instruction) {
			return spec.Number
		}
	}
	return 0
}

func (r *recordingReasoner) Complete(ctx context.Context, p Prompt) (Completion, error) {
	n := r.roundOf(p)
	r.mu.Lock()
	r.events = append(r.events, fmt.Sprintf("start:%d", n))
	r.prompts[n] = append(r.prompts[n], p.User)
	r.mu.Unlock()

	// Stagger members so a missing join would interleave rounds.
	switch p.Role {
	case "compliance":
		time.Sleep(15 * time.Millisecond)
	case "credit_risk":
		time.Sleep(5 * time.Millisecond)
	}

	r.mu.Lock()
	r.events = append(r.events, fmt.Sprintf("end:%d", n))
	r.mu.Unlock()

	if p.Purpose == "chair" {
		return Completion{Text: chairReply}, nil
	}
	return Completion{Text: fmt.Sprintf(`{"opinion":"%s view in round %d","recommendation":"approve","keyPoints":[]}`, p.Role, n)}, nil
}

func TestDeliberate_RoundsJoinBeforeNextRound(t *testing.T) {
	charter := testCharter(t)
	r := &recordingReasoner{charter: charter, prompts: map[int][]string{}}

	_, err := NewEngine(r, charter).Deliberate(context.Background(), mortgageCommitteeRequest())
	require.NoError(t, err)

	// 9 member calls plus the chair, each with a start and an end.
	require.Len(t, r.events, 20)

	ended := map[int]int{}
	for _, ev := range r.events {
		var kind string
		var n int
		_, err := fmt.Sscanf(strings.Replace(ev, ":", " ", 1), "%s %d", &kind, &n)
		require.NoError(t, err)
		switch kind {
		case "start":
			if n >= 2 {
				assert.Equal(t, 3, ended[n-1], "round %d started before round %d finished", n, n-1)
			}
			if n == 0 { // chair
				assert.Equal(t, 3, ended[3], "chair started before round 3 finished")
			}
		case "end":
			ended[n]++
		}
	}

	// Round 1 prompts carry no prior opinions; later rounds carry the
	// previous round's.
	for _, p := range r.prompts[1] {
		assert.NotContains(t, p, "[Other members' opinions]")
	}
	for _, p := range r.prompts[2] {
		assert.Contains(t, p, "compliance: compliance view in round 1 (approve)")
		assert.Contains(t, p, "collateral: collateral view in round 1 (approve)")
	}
	for _, p := range r.prompts[3] {
		assert.Contains(t, p, "credit_risk: credit_risk view in round 2 (approve)")
		assert.NotContains(t, p, "view in round 1")
	}
}

func TestChairPrompt_IncludesVotesAndAmounts(t *testing.T) {
	req := mortgageCommitteeRequest()
	req.Credit.AdjustedLoanAmount = int64Ptr(7_200_000)
	votes := []model.Vote{
		{Role: "compliance", Recommendation: model.RecommendApprove},
		{Role: "credit_risk", Recommendation: model.RecommendDecline},
	}

	p := chairPrompt(req, "SUMMARY", votes)
	assert.True(t, strings.HasPrefix(p, "SUMMARY"))
	assert.Contains(t, p, "compliance: approve, credit_risk: decline")
	assert.Contains(t, p, "Requested amount: NT$ 8,000,000, term: 30 years.")
	assert.Contains(t, p, "Suggested adjusted amount: NT$ 7,200,000")
	assert.Contains(t, p, `"approvedAmount"`)
}

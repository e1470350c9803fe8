package committee

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/underwriter/internal/model"
)

func TestParseOpinion(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantOK  bool
		wantRec model.Recommendation
		wantNar string
		wantKP  []string
	}{
		{
			name:    "plain json",
			text:    `{"opinion":"Ratios are within limits.","recommendation":"approve","keyPoints":["DTI 46%","stable job"]}`,
			wantOK:  true,
			wantRec: model.RecommendApprove,
			wantNar: "Ratios are within limits.",
			wantKP:  []string{"DTI 46%", "stable job"},
		},
		{
			name:    "fenced json",
			text:    "```json\n{\"opinion\":\"Fine.\",\"recommendation\":\"strong_approve\",\"keyPoints\":[]}\n```",
			wantOK:  true,
			wantRec: model.RecommendStrongApprove,
			wantNar: "Fine.",
			wantKP:  []string{},
		},
		{
			name:    "invalid recommendation",
			text:    `{"opinion":"Hmm.","recommendation":"maybe","keyPoints":["a"]}`,
			wantOK:  true,
			wantRec: model.RecommendConditionalApprove,
			wantNar: "Hmm.",
			wantKP:  []string{"a"},
		},
		{
			name:    "key points truncated",
			text:    `{"opinion":"x","recommendation":"decline","keyPoints":["1","2","3","4","5"]}`,
			wantOK:  true,
			wantRec: model.RecommendDecline,
			wantNar: "x",
			wantKP:  []string{"1", "2", "3"},
		},
		{
			name:    "key points not an array",
			text:    `{"opinion":"x","recommendation":"needs_more_info","keyPoints":"one"}`,
			wantOK:  true,
			wantRec: model.RecommendNeedsMoreInfo,
			wantNar: "x",
			wantKP:  []string{},
		},
		{
			name:    "missing opinion",
			text:    `{"recommendation":"approve"}`,
			wantOK:  true,
			wantRec: model.RecommendApprove,
			wantNar: "Evaluation in progress.",
			wantKP:  []string{},
		},
		{
			name:    "null reply",
			text:    "null",
			wantOK:  false,
			wantRec: model.RecommendConditionalApprove,
			wantNar: "Case data received; evaluation in progress.",
			wantKP:  []string{"Needs further confirmation"},
		},
		{
			name:    "not json",
			text:    "I think we should approve.",
			wantOK:  false,
			wantRec: model.RecommendConditionalApprove,
			wantNar: "Case data received; evaluation in progress.",
			wantKP:  []string{"Needs further confirmation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := ParseOpinion(RoleCompliance, tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, "compliance", op.Role)
			assert.Equal(t, tt.wantRec, op.Recommendation)
			assert.Equal(t, tt.wantNar, op.Narrative)
			assert.Equal(t, tt.wantKP, op.KeyPoints)
			assert.Equal(t, !tt.wantOK, op.Fallback)
		})
	}
}

func TestFallbackDecision(t *testing.T) {
	req := mortgageCommitteeRequest()

	d := FallbackDecision(req)
	assert.Equal(t, model.OutcomeApprove, d.Outcome)
	assert.Equal(t, int64(8_000_000), d.ApprovedAmount)
	assert.Equal(t, 30, d.ApprovedTermYears)
	assert.Equal(t, "floating 2.185% and up", d.RateHint)
	assert.Empty(t, d.Conditions)
	assert.NotNil(t, d.Conditions)
	assert.True(t, d.Fallback)

	req.LoanType = model.LoanTypePersonal
	req.LoanAmount = 500_000
	req.TermYears = 7
	req.Credit.ThresholdPass = false
	req.Credit.AdjustedLoanAmount = int64Ptr(320_000)

	d = FallbackDecision(req)
	assert.Equal(t, model.OutcomeConditionalApprove, d.Outcome)
	assert.Equal(t, int64(320_000), d.ApprovedAmount)
	assert.Equal(t, 7, d.ApprovedTermYears)
	assert.Equal(t, "floating 5.5% and up", d.RateHint)
	assert.Equal(t, []string{"Proceed with the adjusted amount"}, d.Conditions)
}

func TestParseDecision(t *testing.T) {
	req := mortgageCommitteeRequest()

	d, ok := ParseDecision(req, "```json\n"+`{"decision":"approve","approvedAmount":7500000.4,"approvedTermYears":25,"interestRateHint":"floating 2.3% and up","conditions":["fire insurance"],"summary":"Approved with a reduced amount."}`+"\n```")
	assert.True(t, ok)
	assert.Equal(t, model.OutcomeApprove, d.Outcome)
	assert.Equal(t, int64(7_500_000), d.ApprovedAmount)
	assert.Equal(t, 25, d.ApprovedTermYears)
	assert.Equal(t, "floating 2.3% and up", d.RateHint)
	assert.Equal(t, []string{"fire insurance"}, d.Conditions)
	assert.Equal(t, "Approved with a reduced amount.", d.Summary)
	assert.False(t, d.Fallback)
}

func TestParseDecision_MissingFieldsAndInvalidOutcome(t *testing.T) {
	req := mortgageCommitteeRequest()
	req.LoanAmount = 1_234_567.6

	d, ok := ParseDecision(req, `{"decision":"rubber stamp"}`)
	assert.True(t, ok)
	assert.Equal(t, model.OutcomeConditionalApprove, d.Outcome)
	assert.Equal(t, int64(1_234_568), d.ApprovedAmount)
	assert.Equal(t, 30, d.ApprovedTermYears)
	assert.Equal(t, "rate to be negotiated", d.RateHint)
	assert.Equal(t, []string{}, d.Conditions)
	assert.Equal(t, "Deliberation complete.", d.Summary)
}

func TestParseDecision_Unparseable(t *testing.T) {
	req := mortgageCommitteeRequest()
	req.Credit.ThresholdPass = false

	d, ok := ParseDecision(req, "decision: approve")
	assert.False(t, ok)
	assert.Equal(t, FallbackDecision(req), d)
}

func TestParseDecision_NullReplyFallsBack(t *testing.T) {
	req := mortgageCommitteeRequest()

	for _, text := range []string{"null", "```json\nnull\n```"} {
		d, ok := ParseDecision(req, text)
		assert.False(t, ok, text)
		assert.Equal(t, FallbackDecision(req), d, text)
		assert.True(t, d.Fallback, text)
		assert.Equal(t, "floating 2.185% and up", d.RateHint, text)
	}
}

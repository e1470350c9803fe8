package committee

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/sells-group/underwriter/internal/model"
)

const (
	maxKeyPoints = 3

	fallbackNarrative = "Case data received; evaluation in progress."
	fallbackKeyPoint  = "Needs further confirmation"
	missingNarrative  = "Evaluation in progress."

	mortgageRateHint    = "floating 2.185% and up"
	personalRateHint    = "floating 5.5% and up"
	unknownRateHint     = "rate to be negotiated"
	adjustedCondition   = "Proceed with the adjusted amount"
	fallbackChairResult = "The committee approved the case; proceed under the approved terms."
	missingChairSummary = "Deliberation complete."
)

// stripFences removes markdown code fences a model sometimes wraps JSON in.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// stringList decodes raw as a JSON array of strings, or nil when it is
// anything else.
func stringList(raw json.RawMessage) []string {
	var out []string
	if len(raw) == 0 || json.Unmarshal(raw, &out) != nil {
		return nil
	}
	return out
}

// FallbackOpinion is substituted when a member's call fails or its reply
// cannot be parsed.
func FallbackOpinion(role Role) model.Opinion {
	return model.Opinion{
		Role:           string(role),
		Narrative:      fallbackNarrative,
		Recommendation: model.RecommendConditionalApprove,
		KeyPoints:      []string{fallbackKeyPoint},
		Fallback:       true,
	}
}

type opinionReply struct {
	Opinion        *string         `json:"opinion"`
	Recommendation string          `json:"recommendation"`
	KeyPoints      json.RawMessage `json:"keyPoints"`
}

// ParseOpinion decodes a member reply. It reports false, with the fallback
// opinion, when text is not a JSON object (a bare null included). Out-of-range recommendations
// become conditional_approve and key points are capped at three.
func ParseOpinion(role Role, text string) (model.Opinion, bool) {
	var r *opinionReply
	if err := json.Unmarshal([]byte(stripFences(text)), &r); err != nil || r == nil {
		return FallbackOpinion(role), false
	}

	op := model.Opinion{
		Role:           string(role),
		Narrative:      missingNarrative,
		Recommendation: model.Recommendation(strings.TrimSpace(r.Recommendation)),
		KeyPoints:      []string{},
	}
	if r.Opinion != nil {
		op.Narrative = *r.Opinion
	}
	if !op.Recommendation.Valid() {
		op.Recommendation = model.RecommendConditionalApprove
	}
	if kp := stringList(r.KeyPoints); kp != nil {
		if len(kp) > maxKeyPoints {
			kp = kp[:maxKeyPoints]
		}
		op.KeyPoints = kp
	}
	return op, true
}

func rateHint(t model.LoanType) string {
	if t == model.LoanTypeMortgage {
		return mortgageRateHint
	}
	return personalRateHint
}

// FallbackDecision is the chair ruling used when the chair call fails or its
// reply cannot be parsed.
func FallbackDecision(req model.CommitteeRequest) model.FinalDecision {
	pass := req.Credit.ThresholdPass

	d := model.FinalDecision{
		Outcome:           model.OutcomeConditionalApprove,
		ApprovedAmount:    int64(math.Round(req.LoanAmount)),
		ApprovedTermYears: req.TermYears,
		RateHint:          rateHint(req.LoanType),
		Conditions:        []string{adjustedCondition},
		Summary:           fallbackChairResult,
		Fallback:          true,
	}
	if pass {
		d.Outcome = model.OutcomeApprove
		d.Conditions = []string{}
	}
	if req.Credit.AdjustedLoanAmount != nil {
		d.ApprovedAmount = *req.Credit.AdjustedLoanAmount
	}
	return d
}

type decisionReply struct {
	Decision          string          `json:"decision"`
	ApprovedAmount    *float64        `json:"approvedAmount"`
	ApprovedTermYears *float64        `json:"approvedTermYears"`
	InterestRateHint  *string         `json:"interestRateHint"`
	Conditions        json.RawMessage `json:"conditions"`
	Summary           *string         `json:"summary"`
}

// ParseDecision decodes the chair's reply, filling missing fields from the
// request. It reports false, with FallbackDecision, when text is not a JSON
// object (a bare null included). An unknown decision becomes conditional_approve.
func ParseDecision(req model.CommitteeRequest, text string) (model.FinalDecision, bool) {
	var r *decisionReply
	if err := json.Unmarshal([]byte(stripFences(text)), &r); err != nil || r == nil {
		return FallbackDecision(req), false
	}

	d := model.FinalDecision{
		Outcome:           model.Outcome(strings.TrimSpace(r.Decision)),
		ApprovedAmount:    int64(math.Round(req.LoanAmount)),
		ApprovedTermYears: req.TermYears,
		RateHint:          unknownRateHint,
		Conditions:        []string{},
		Summary:           missingChairSummary,
	}
	if !d.Outcome.Valid() {
		d.Outcome = model.OutcomeConditionalApprove
	}
	if r.ApprovedAmount != nil {
		d.ApprovedAmount = int64(math.Round(*r.ApprovedAmount))
	}
	if r.ApprovedTermYears != nil {
		d.ApprovedTermYears = int(math.Round(*r.ApprovedTermYears))
	}
	if r.InterestRateHint != nil {
		d.RateHint = *r.InterestRateHint
	}
	if c := stringList(r.Conditions); c != nil {
		d.Conditions = c
	}
	if r.Summary != nil {
		d.Summary = *r.Summary
	}
	return d, true
}

// finalVotes returns the recommendations of the last round.
func finalVotes(last model.CommitteeRound) []model.Vote {
	votes := make([]model.Vote, 0, len(last.Opinions))
	for _, op := range last.Opinions {
		votes = append(votes, model.Vote{Role: op.Role, Recommendation: op.Recommendation})
	}
	return votes
}

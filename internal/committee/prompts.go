package committee

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/underwriter/internal/model"
)

const opinionFormat = `Reply with this JSON object and nothing else:
{
  "opinion": "your opinion in two or three sentences",
  "recommendation": "one of strong_approve, approve, conditional_approve, needs_more_info, decline",
  "keyPoints": ["key point 1", "key point 2"]
}`

const decisionFormat = `Reply with this JSON object:
{
  "decision": "approve, conditional_approve or decline",
  "approvedAmount": approved amount as an integer,
  "approvedTermYears": approved term in years as an integer,
  "interestRateHint": "for example: floating 2.185% and up",
  "conditions": ["condition 1", "condition 2"],
  "summary": "one or two sentence summary of the ruling"
}`

// opinionPrompt builds the user message for one member in one round. prior
// holds the previous round's opinions and is empty in round 1.
func opinionPrompt(caseSummary string, round RoundSpec, prior []model.Opinion) string {
	var b strings.Builder
	b.WriteString(caseSummary)
	if len(prior) > 0 {
		b.WriteString("\n\n[Other members' opinions]\n")
		for _, op := range prior {
			fmt.Fprintf(&b, "%s: %s (%s)\n", op.Role, op.Narrative, op.Recommendation)
		}
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(round.Instruction)
	b.WriteString("\n\n")
	b.WriteString(opinionFormat)
	return b.String()
}

// chairPrompt builds the chair's user message from the final votes.
func chairPrompt(req model.CommitteeRequest, caseSummary string, votes []model.Vote) string {
	p := message.NewPrinter(language.English)

	parts := make([]string, 0, len(votes))
	for _, v := range votes {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Role, v.Recommendation))
	}

	var b strings.Builder
	b.WriteString(caseSummary)
	b.WriteString("\n\n[Final votes]\n")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString("\n\nAs chair, issue the committee's final ruling based on the case data and the members' votes.\n")
	b.WriteString(p.Sprintf("Requested amount: NT$ %d, term: %d years.\n", int64(math.Round(req.LoanAmount)), req.TermYears))
	if adj := req.Credit.AdjustedLoanAmount; adj != nil && *adj > 0 {
		b.WriteString(p.Sprintf("Suggested adjusted amount: NT$ %d\n", *adj))
	}
	b.WriteString("\n")
	b.WriteString(decisionFormat)
	return b.String()
}

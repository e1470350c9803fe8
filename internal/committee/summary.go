package committee

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/underwriter/internal/model"
)

const (
	bearishBelow = -0.1
	bullishAbove = 0.1
)

// SentimentLabel buckets a market sentiment score.
func SentimentLabel(score float64) string {
	switch {
	case score < bearishBelow:
		return "bearish"
	case score > bullishAbove:
		return "bullish"
	default:
		return "neutral"
	}
}

func loanTypeLabel(t model.LoanType) string {
	if t == model.LoanTypeMortgage {
		return "Mortgage"
	}
	return "Personal loan"
}

// MetricLabel renders the primary compliance metric for display. DBR is a
// multiple of monthly income; DTI is a percentage.
func MetricLabel(name string, value float64) string {
	if name == "DBR" {
		return fmt.Sprintf("DBR %.2fx monthly income", value)
	}
	return fmt.Sprintf("%s %.1f%%", name, value)
}

// BuildCaseSummary renders the shared context every member and the chair
// read. The valuation block appears only for secured loans.
func BuildCaseSummary(req model.CommitteeRequest) string {
	p := message.NewPrinter(language.English)
	money := func(v float64) string { return p.Sprintf("NT$ %d", int64(math.Round(v))) }
	cs := req.Credit

	var b strings.Builder
	b.WriteString("[Case]\n")
	fmt.Fprintf(&b, "- Loan type: %s\n", loanTypeLabel(req.LoanType))
	fmt.Fprintf(&b, "- Requested amount: %s\n", money(req.LoanAmount))
	fmt.Fprintf(&b, "- Term: %d years\n", req.TermYears)
	fmt.Fprintf(&b, "- Borrower: %s (%d, %s)\n", req.BorrowerName, req.BorrowerAge, req.Occupation)
	fmt.Fprintf(&b, "- Purpose: %s\n", req.Purpose)

	threshold := "threshold passed"
	if !cs.ThresholdPass {
		threshold = "threshold exceeded"
	}
	b.WriteString("\n[Credit review]\n")
	fmt.Fprintf(&b, "- Risk score: %d/100\n", cs.RiskScore)
	fmt.Fprintf(&b, "- %s (%s)\n", MetricLabel(cs.PrimaryMetricName, cs.PrimaryMetricValue), threshold)
	fmt.Fprintf(&b, "- Fraud screening: %d/8 items passed (%s)\n", cs.FraudPassCount, cs.FraudLevel)
	fmt.Fprintf(&b, "- Overall: %s\n", cs.OverallAssessment)
	if cs.AdjustedLoanAmount != nil && !cs.ThresholdPass {
		fmt.Fprintf(&b, "- Suggested adjusted amount: %s\n", money(float64(*cs.AdjustedLoanAmount)))
	}

	if req.LoanType.Secured() && req.Valuation != nil {
		vs := req.Valuation
		b.WriteString("\n[Valuation]\n")
		fmt.Fprintf(&b, "- Estimated value: %s\n", money(vs.EstimatedValue))
		fmt.Fprintf(&b, "- LTV: %.1f%%\n", vs.LTVRatio*100)
		fmt.Fprintf(&b, "- Market sentiment: %s (%.2f)\n", SentimentLabel(vs.SentimentScore), vs.SentimentScore)
		fmt.Fprintf(&b, "- Risk level: %s\n", vs.RiskLevel)
	}

	return strings.TrimSpace(b.String())
}

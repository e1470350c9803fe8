package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/monitoring"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(22)

	approveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	conditionalStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F59E0B")).
				Bold(true)

	declineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)
)

var amounts = message.NewPrinter(language.English)

func outcomeStyle(o model.Outcome) lipgloss.Style {
	switch o {
	case model.OutcomeApprove:
		return approveStyle
	case model.OutcomeConditionalApprove:
		return conditionalStyle
	default:
		return declineStyle
	}
}

func severityStyle(s model.FraudSeverity) lipgloss.Style {
	switch s {
	case model.FraudNormal:
		return approveStyle
	case model.FraudCaution:
		return conditionalStyle
	default:
		return declineStyle
	}
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func panel(title string, rows ...string) string {
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		append([]string{titleStyle.Render(title)}, rows...)...))
}

func money(v int64) string {
	return amounts.Sprintf("NT$%d", v)
}

// renderAssessment formats a credit assessment for the terminal.
func renderAssessment(a *model.Assessment) string {
	rows := []string{
		row("Loan type", string(a.LoanType)),
		row("Risk score", fmt.Sprintf("%d / 100", a.RiskFactors.RiskScore())),
		row("Debt-to-income", ratio(a.Thresholds.DebtIncome)),
	}
	if a.Thresholds.DBR != nil {
		rows = append(rows, row("DBR", ratio(*a.Thresholds.DBR)))
	}
	if a.Thresholds.MonthlyPayment != nil {
		rows = append(rows, row("Payment ratio", ratio(*a.Thresholds.MonthlyPayment)))
	}
	rows = append(rows,
		row("Monthly balance", money(a.Repayment.MonthlyBalance)),
		row("Fraud check", severityStyle(a.Fraud.Severity).Render(string(a.Fraud.Severity))),
	)
	if a.AdjustedLoanAmount != nil {
		rows = append(rows, row("Adjusted amount", money(*a.AdjustedLoanAmount)))
	}
	rows = append(rows, row("Manual review", yesNo(a.RequiresManualReview)), "", a.OverallAssessment)
	for _, s := range a.SuggestedActions {
		rows = append(rows, "  - "+s)
	}
	return panel("Credit assessment", rows...)
}

// renderCommittee formats the rounds and the chair's ruling.
func renderCommittee(c *model.CommitteeResult) string {
	var blocks []string
	for _, r := range c.Rounds {
		rows := make([]string, 0, len(r.Opinions))
		for _, o := range r.Opinions {
			rows = append(rows, row(o.Role, fmt.Sprintf("%s  %s", o.Recommendation, o.Narrative)))
		}
		blocks = append(blocks, panel(fmt.Sprintf("Round %d: %s", r.Number, r.Title), rows...))
	}
	d := c.Decision
	blocks = append(blocks, panel("Chair ruling",
		row("Outcome", outcomeStyle(d.Outcome).Render(string(d.Outcome))),
		row("Approved amount", money(d.ApprovedAmount)),
		row("Term", fmt.Sprintf("%d years", d.ApprovedTermYears)),
		row("Rate", d.RateHint),
		row("Conditions", strings.Join(d.Conditions, "; ")),
		row("Tokens", amounts.Sprintf("%d in / %d out", c.TokenUsage.InputTokens, c.TokenUsage.OutputTokens)),
		row("Cost", fmt.Sprintf("$%.4f", c.CostUSD)),
		"",
		d.Summary,
	))
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// renderWorkflow formats the final summary and phase timings.
func renderWorkflow(w *model.WorkflowResult) string {
	s := w.Summary
	rows := []string{
		row("Application", w.ApplicationID),
		row("Outcome", outcomeStyle(s.Outcome).Render(string(s.Outcome))),
		row("Approved amount", money(s.ApprovedAmount)),
		row("Term", fmt.Sprintf("%d years", s.ApprovedTermYears)),
		row("Rate", s.RateHint),
		row("Risk score", fmt.Sprintf("%d / 100", s.RiskScore)),
		row("Fraud level", severityStyle(s.FraudLevel).Render(string(s.FraudLevel))),
	}
	if s.EstimatedValue != nil {
		rows = append(rows, row("Estimated value", money(int64(*s.EstimatedValue))))
	}
	if s.LTVRatio != nil {
		rows = append(rows, row("LTV", fmt.Sprintf("%.1f%%", *s.LTVRatio*100)))
	}
	if len(s.Conditions) > 0 {
		rows = append(rows, row("Conditions", strings.Join(s.Conditions, "; ")))
	}

	phases := make([]string, 0, len(w.Phases))
	for _, p := range w.Phases {
		phases = append(phases, row(p.Name, fmt.Sprintf("%s  %dms", p.Status, p.Duration)))
	}
	phases = append(phases, row("total", fmt.Sprintf("%dms", w.TotalDurationMs)))

	return lipgloss.JoinVertical(lipgloss.Left, panel("Underwriting decision", rows...), panel("Phases", phases...))
}

// renderSnapshot formats a monitoring snapshot.
func renderSnapshot(s *monitoring.Snapshot) string {
	rows := []string{
		row("Window", fmt.Sprintf("%dh", s.LookbackHours)),
		row("Runs", fmt.Sprintf("%d total, %d complete, %d failed, %d in flight", s.RunsTotal, s.RunsComplete, s.RunsFailed, s.RunsInFlight)),
		row("Failure rate", fmt.Sprintf("%.1f%%", s.FailRate*100)),
		row("Decline rate", fmt.Sprintf("%.1f%%", s.DeclineRate*100)),
		row("Avg risk score", fmt.Sprintf("%.1f", s.AvgRiskScore)),
		row("Spend", fmt.Sprintf("$%.4f total, $%.4f avg", s.TotalCostUSD, s.AvgCostUSD)),
	}
	for _, o := range []model.Outcome{model.OutcomeApprove, model.OutcomeConditionalApprove, model.OutcomeDecline} {
		rows = append(rows, row("  "+string(o), fmt.Sprintf("%d", s.DecisionMix[o])))
	}
	types := make([]string, 0, len(s.ErrorTypes))
	for t := range s.ErrorTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		rows = append(rows, row("  error "+t, fmt.Sprintf("%d", s.ErrorTypes[t])))
	}
	return panel("Review health", rows...)
}

func ratio(r model.Ratio) string {
	mark := approveStyle.Render("pass")
	if !r.Pass {
		mark = declineStyle.Render("fail")
	}
	return fmt.Sprintf("%.2f%% (limit %.0f%%) %s", r.Value, r.Limit, mark)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// emit writes v as indented JSON when asJSON is set, otherwise the rendered
// view.
func emit(out io.Writer, asJSON bool, v any, rendered func() string) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, rendered())
	return err
}

// readPayload reads a JSON request from path, or stdin when path is "-".
func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

package workflow

import (
	"github.com/sells-group/underwriter/internal/model"
)

const defaultPurposeLabel = "personal credit loan"

func purposeLabel(p *model.Property) string {
	if p == nil || p.Purpose == "" {
		return defaultPurposeLabel
	}
	switch p.Purpose {
	case model.PurposePurchase:
		return "home purchase"
	case model.PurposeRefinance:
		return "refinance"
	default:
		return string(p.Purpose)
	}
}

// primaryMetric picks the headline ratio: DBR for unsecured loans when it
// was computed, the debt-to-income ratio otherwise.
func primaryMetric(t model.LoanType, th model.Thresholds) (string, model.Ratio) {
	if !t.Secured() && th.DBR != nil {
		return "DBR", *th.DBR
	}
	return "DTI", th.DebtIncome
}

// CreditSummaryFor condenses an assessment for the committee.
func CreditSummaryFor(t model.LoanType, a *model.Assessment) model.CreditSummary {
	name, ratio := primaryMetric(t, a.Thresholds)
	return model.CreditSummary{
		RiskScore:          a.RiskFactors.RiskScore(),
		FraudLevel:         a.Fraud.Severity,
		ThresholdPass:      ratio.Pass,
		PrimaryMetricName:  name,
		PrimaryMetricValue: ratio.Value,
		FraudPassCount:     a.Fraud.PassCount(),
		OverallAssessment:  a.OverallAssessment,
		AdjustedLoanAmount: a.AdjustedLoanAmount,
	}
}

// CommitteeRequestFor builds the committee input from the workflow request,
// the assessment, and the valuation when one was produced.
func CommitteeRequestFor(appID string, req model.WorkflowRequest, a *model.Assessment, v *model.Valuation) model.CommitteeRequest {
	cr := model.CommitteeRequest{
		ApplicationID:    appID,
		LoanType:         req.LoanType,
		LoanAmount:       req.LoanAmount,
		TermYears:        req.TermYears,
		GracePeriodYears: req.GracePeriodYears,
		BorrowerName:     req.Applicant.Name,
		BorrowerAge:      req.Applicant.Age,
		Occupation:       string(req.Applicant.Occupation),
		Purpose:          purposeLabel(req.Property),
		Credit:           CreditSummaryFor(req.LoanType, a),
	}
	if v != nil {
		cr.Valuation = &model.ValuationSummary{
			EstimatedValue: v.EstimatedValue,
			LTVRatio:       v.LTVRatio,
			RiskLevel:      v.RiskLevel,
			SentimentScore: v.SentimentScore,
		}
	}
	return cr
}

// FinalSummaryFor merges the committee ruling with the headline scoring and
// valuation figures.
func FinalSummaryFor(d model.FinalDecision, a *model.Assessment, v *model.Valuation) model.FinalSummary {
	s := model.FinalSummary{
		Outcome:           d.Outcome,
		ApprovedAmount:    d.ApprovedAmount,
		ApprovedTermYears: d.ApprovedTermYears,
		RateHint:          d.RateHint,
		Conditions:        d.Conditions,
		RiskScore:         a.RiskFactors.RiskScore(),
		FraudLevel:        a.Fraud.Severity,
	}
	if v != nil {
		value, ltv := v.EstimatedValue, v.LTVRatio
		s.EstimatedValue = &value
		s.LTVRatio = &ltv
	}
	return s
}

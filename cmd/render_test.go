package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/monitoring"
)

func TestRenderAssessment(t *testing.T) {
	adjusted := int64(3_200_000)
	out := renderAssessment(&model.Assessment{
		LoanType: model.LoanTypePersonal,
		Thresholds: model.Thresholds{
			DebtIncome: model.Ratio{Value: 12.5, Limit: 22, Pass: true},
			DBR:        &model.Ratio{Value: 24, Limit: 22, Pass: false},
		},
		Repayment:            model.RepaymentLedger{MonthlyBalance: 18_500},
		Fraud:                model.FraudCheck{Severity: model.FraudCaution},
		AdjustedLoanAmount:   &adjusted,
		OverallAssessment:    "DBR exceeds the unsecured limit",
		RequiresManualReview: true,
		SuggestedActions:     []string{"reduce the requested amount"},
	})

	assert.Contains(t, out, "Credit assessment")
	assert.Contains(t, out, "DBR")
	assert.Contains(t, out, "NT$18,500")
	assert.Contains(t, out, "NT$3,200,000")
	assert.Contains(t, out, "caution")
	assert.Contains(t, out, "reduce the requested amount")
}

func TestRenderCommittee(t *testing.T) {
	out := renderCommittee(&model.CommitteeResult{
		Rounds: []model.CommitteeRound{{
			Number: 1,
			Title:  "Independent review",
			Opinions: []model.Opinion{
				{Role: "risk_officer", Recommendation: model.Recommendation("approve"), Narrative: "serviceable"},
			},
		}},
		Decision: model.FinalDecision{
			Outcome:           model.OutcomeConditionalApprove,
			ApprovedAmount:    7_500_000,
			ApprovedTermYears: 30,
			RateHint:          "base + 0.35%",
			Conditions:        []string{"guarantor required"},
			Summary:           "approved with a guarantor",
		},
		TokenUsage: model.TokenUsage{InputTokens: 6000, OutputTokens: 1500},
		CostUSD:    0.045,
	})

	assert.Contains(t, out, "Round 1: Independent review")
	assert.Contains(t, out, "risk_officer")
	assert.Contains(t, out, "conditional_approve")
	assert.Contains(t, out, "NT$7,500,000")
	assert.Contains(t, out, "6,000 in / 1,500 out")
	assert.Contains(t, out, "guarantor required")
}

func TestRenderWorkflow(t *testing.T) {
	value, ltv := 10_000_000.0, 0.8
	out := renderWorkflow(&model.WorkflowResult{
		ApplicationID: "WF-1",
		Summary: model.FinalSummary{
			Outcome:        model.OutcomeDecline,
			RiskScore:      70,
			FraudLevel:     model.FraudAlert,
			EstimatedValue: &value,
			LTVRatio:       &ltv,
		},
		Phases: []model.PhaseResult{
			{Name: "valuation", Status: model.PhaseStatusComplete, Duration: 12},
			{Name: "scoring", Status: model.PhaseStatusComplete, Duration: 3},
		},
		TotalDurationMs: 15,
	})

	assert.Contains(t, out, "WF-1")
	assert.Contains(t, out, "decline")
	assert.Contains(t, out, "70 / 100")
	assert.Contains(t, out, "NT$10,000,000")
	assert.Contains(t, out, "80.0%")
	assert.Contains(t, out, "12ms")
	assert.Contains(t, out, "15ms")
}

func TestRenderSnapshot(t *testing.T) {
	out := renderSnapshot(&monitoring.Snapshot{
		RunsTotal:     10,
		RunsComplete:  8,
		RunsFailed:    2,
		FailRate:      0.2,
		DecisionMix:   map[model.Outcome]int{model.OutcomeApprove: 5, model.OutcomeDecline: 3},
		ErrorTypes:    map[string]int{"transient": 2},
		AvgRiskScore:  41.5,
		LookbackHours: 24,
		CollectedAt:   time.Now(),
	})

	assert.Contains(t, out, "Review health")
	assert.Contains(t, out, "10 total, 8 complete, 2 failed")
	assert.Contains(t, out, "20.0%")
	assert.Contains(t, out, "error transient")
	assert.Contains(t, out, "41.5")
}

func TestEmit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, emit(&buf, true, map[string]int{"a": 1}, func() string { return "rendered" }))
	assert.JSONEq(t, `{"a": 1}`, buf.String())

	buf.Reset()
	require.NoError(t, emit(&buf, false, nil, func() string { return "rendered" }))
	assert.Equal(t, "rendered\n", buf.String())
}

func TestReadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"loan_type":"personal"}`), 0o644))

	raw, err := readPayload(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"loan_type":"personal"}`, string(raw))

	_, err = readPayload(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

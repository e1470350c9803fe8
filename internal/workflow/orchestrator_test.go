package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriter/internal/config"
	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/monitoring"
	"github.com/sells-group/underwriter/internal/scoring"
	"github.com/sells-group/underwriter/internal/store"
	"github.com/sells-group/underwriter/internal/valuation"
)

// MockScorer implements Scorer for testing.
type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Assess(ctx context.Context, req model.LoanRequest) (*model.Assessment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

// MockDeliberator implements Deliberator for testing.
type MockDeliberator struct {
	mock.Mock
}

func (m *MockDeliberator) Deliberate(ctx context.Context, req model.CommitteeRequest) (*model.CommitteeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CommitteeResult), args.Error(1)
}

// MockValuationClient implements valuation.Client for testing.
type MockValuationClient struct {
	mock.Mock
}

func (m *MockValuationClient) Valuate(ctx context.Context, req valuation.Request) (*model.Valuation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Valuation), args.Error(1)
}

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func mortgageRequest() model.WorkflowRequest {
	return model.WorkflowRequest{
		ApplicationID: "WF-TEST",
		LoanType:      model.LoanTypeMortgage,
		LoanAmount:    8_000_000,
		TermYears:     20,
		Applicant: model.Applicant{
			Name:          "Chen Wei",
			Age:           40,
			Occupation:    model.OccupationOfficeWorker,
			MonthlyIncome: 120_000,
		},
		Property: &model.Property{Region: "Taipei City", Purpose: model.PurposePurchase, IsFirstHome: true},
		ValuationInput: &model.ValuationInput{
			AreaPing:     35,
			PropertyAge:  12,
			BuildingType: "building",
			Floor:        8,
		},
	}
}

func personalRequest() model.WorkflowRequest {
	return model.WorkflowRequest{
		LoanType:   model.LoanTypePersonal,
		LoanAmount: 500_000,
		TermYears:  5,
		Applicant: model.Applicant{
			Name:          "Lin Mei",
			Age:           32,
			Occupation:    model.OccupationTeacher,
			MonthlyIncome: 65_000,
		},
	}
}

func sampleAssessment() *model.Assessment {
	return &model.Assessment{
		LoanType: model.LoanTypeMortgage,
		RiskFactors: model.RiskFactors{
			EmploymentStability: model.FactorScore{Level: 2},
			IncomeGrowth:        model.FactorScore{Level: 3},
			NetWorthLevel:       model.FactorScore{Level: 3},
			NetWorthRatio:       model.FactorScore{Level: 2},
			LiquidityRatio:      model.FactorScore{Level: 3},
			DebtRatio:           model.FactorScore{Level: 5},
		},
		Thresholds: model.Thresholds{
			DebtIncome: model.Ratio{Value: 42.5, Limit: 80, Pass: true},
		},
		Fraud: model.FraudCheck{
			Items:    make([]model.FraudItem, 8),
			Severity: model.FraudNormal,
		},
		OverallAssessment: "Repayment capacity is sound.",
	}
}

func sampleCommittee() *model.CommitteeResult {
	return &model.CommitteeResult{
		ApplicationID: "WF-TEST",
		Rounds:        make([]model.CommitteeRound, 3),
		Decision: model.FinalDecision{
			Outcome:           model.OutcomeApprove,
			ApprovedAmount:    8_000_000,
			ApprovedTermYears: 20,
			RateHint:          "2.1% floating",
			Conditions:        []string{"fire insurance"},
		},
		TokenUsage: model.TokenUsage{InputTokens: 6000, OutputTokens: 1500},
		CostUSD:    0.045,
	}
}

func TestOrchestrator_Mortgage_LiveValuation(t *testing.T) {
	scorer := new(MockScorer)
	committee := new(MockDeliberator)
	vc := new(MockValuationClient)

	live := &model.Valuation{
		EstimatedValue: 10_000_000,
		LTVRatio:       0.8,
		RiskLevel:      model.RiskLevelHigh,
		SentimentScore: 0.2,
		Mode:           model.ValuationModeLive,
	}
	vc.On("Valuate", mock.Anything, mock.MatchedBy(func(r valuation.Request) bool {
		return r.Region == "Taipei City" && r.LoanAmount == 8_000_000 && r.AreaPing == 35
	})).Return(live, nil)
	scorer.On("Assess", mock.Anything, mock.MatchedBy(func(r model.LoanRequest) bool {
		return r.Valuation != nil && r.Valuation.EstimatedValue == 10_000_000
	})).Return(sampleAssessment(), nil)
	committee.On("Deliberate", mock.Anything, mock.MatchedBy(func(r model.CommitteeRequest) bool {
		return r.ApplicationID == "WF-TEST" &&
			r.Purpose == "home purchase" &&
			r.Credit.PrimaryMetricName == "DTI" &&
			r.Credit.RiskScore == 30 &&
			r.Credit.FraudPassCount == 8 &&
			r.Valuation != nil && r.Valuation.LTVRatio == 0.8
	})).Return(sampleCommittee(), nil)

	o := New(scorer, committee, WithValuation(vc), WithClock(func() time.Time { return fixedNow }))
	res, err := o.Run(context.Background(), mortgageRequest())
	require.NoError(t, err)

	require.NotNil(t, res.Valuation)
	assert.Equal(t, model.ValuationModeLive, res.Valuation.Mode)
	assert.Equal(t, model.OutcomeApprove, res.Summary.Outcome)
	assert.Equal(t, int64(8_000_000), res.Summary.ApprovedAmount)
	assert.Equal(t, 30, res.Summary.RiskScore)
	require.NotNil(t, res.Summary.EstimatedValue)
	assert.InDelta(t, 10_000_000, *res.Summary.EstimatedValue, 1e-6)
	require.NotNil(t, res.Summary.LTVRatio)
	assert.InDelta(t, 0.8, *res.Summary.LTVRatio, 1e-9)

	require.Len(t, res.Phases, 3)
	assert.Equal(t, PhaseValuation, res.Phases[0].Name)
	assert.Equal(t, PhaseScoring, res.Phases[1].Name)
	assert.Equal(t, PhaseCommittee, res.Phases[2].Name)
	for _, p := range res.Phases {
		assert.Equal(t, model.PhaseStatusComplete, p.Status)
	}
	assert.Empty(t, res.RunID)

	scorer.AssertExpectations(t)
	committee.AssertExpectations(t)
	vc.AssertExpectations(t)
}

func TestOrchestrator_Mortgage_ValuationFailureFallsBack(t *testing.T) {
	scorer := new(MockScorer)
	committee := new(MockDeliberator)
	vc := new(MockValuationClient)

	vc.On("Valuate", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	scorer.On("Assess", mock.Anything, mock.Anything).Return(sampleAssessment(), nil)
	committee.On("Deliberate", mock.Anything, mock.Anything).Return(sampleCommittee(), nil)

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	o := New(scorer, committee, WithValuation(vc), WithMetrics(metrics))
	res, err := o.Run(context.Background(), mortgageRequest())
	require.NoError(t, err)

	require.NotNil(t, res.Valuation)
	assert.Equal(t, model.ValuationModeSynthesized, res.Valuation.Mode)
	assert.InDelta(t, 10_000_000, res.Valuation.Result.EstimatedValue, 1e-6)
	assert.InDelta(t, 0.8, res.Valuation.Result.LTVRatio, 1e-9)
	assert.Equal(t, model.PhaseStatusComplete, res.Phases[0].Status)

	n, err := testutil.GatherAndCount(reg, "underwriter_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOrchestrator_Personal_SkipsValuation(t *testing.T) {
	scorer := new(MockScorer)
	committee := new(MockDeliberator)

	a := sampleAssessment()
	a.LoanType = model.LoanTypePersonal
	a.Thresholds.DBR = &model.Ratio{Value: 8.5, Limit: 22, Pass: true}
	scorer.On("Assess", mock.Anything, mock.MatchedBy(func(r model.LoanRequest) bool {
		return r.Valuation == nil
	})).Return(a, nil)
	committee.On("Deliberate", mock.Anything, mock.MatchedBy(func(r model.CommitteeRequest) bool {
		return r.ApplicationID == "WF-1772445600000" &&
			r.Purpose == "personal credit loan" &&
			r.Credit.PrimaryMetricName == "DBR" &&
			r.Credit.PrimaryMetricValue == 8.5 &&
			r.Valuation == nil
	})).Return(sampleCommittee(), nil)

	o := New(scorer, committee, WithClock(func() time.Time { return fixedNow }))
	res, err := o.Run(context.Background(), personalRequest())
	require.NoError(t, err)

	assert.Equal(t, "WF-1772445600000", res.ApplicationID)
	assert.Nil(t, res.Valuation)
	assert.Nil(t, res.Summary.EstimatedValue)
	require.Len(t, res.Phases, 3)
	assert.Equal(t, model.PhaseStatusSkipped, res.Phases[0].Status)
	committee.AssertExpectations(t)
}

func TestOrchestrator_ScoringFailureIsFatal(t *testing.T) {
	scorer := new(MockScorer)
	committee := new(MockDeliberator)
	scorer.On("Assess", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	o := New(scorer, committee)
	_, err := o.Run(context.Background(), personalRequest())
	require.Error(t, err)

	var perr *PhaseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, PhaseScoring, perr.Phase)
	assert.Contains(t, err.Error(), "boom")
	committee.AssertNotCalled(t, "Deliberate", mock.Anything, mock.Anything)
}

func TestOrchestrator_CommitteeFailureIsFatal(t *testing.T) {
	scorer := new(MockScorer)
	committee := new(MockDeliberator)
	scorer.On("Assess", mock.Anything, mock.Anything).Return(sampleAssessment(), nil)
	committee.On("Deliberate", mock.Anything, mock.Anything).Return(nil, context.Canceled)

	o := New(scorer, committee)
	_, err := o.Run(context.Background(), personalRequest())

	var perr *PhaseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, PhaseCommittee, perr.Phase)
	assert.ErrorIs(t, err, context.Canceled)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "wf.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func TestOrchestrator_PersistsRun(t *testing.T) {
	st := newTestStore(t)
	scorer := new(MockScorer)
	committee := new(MockDeliberator)
	scorer.On("Assess", mock.Anything, mock.Anything).Return(sampleAssessment(), nil)
	committee.On("Deliberate", mock.Anything, mock.Anything).Return(sampleCommittee(), nil)

	o := New(scorer, committee, WithStore(st))
	res, err := o.Run(context.Background(), mortgageRequest())
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, "WF-TEST", run.ApplicationID)
	require.NotNil(t, run.Result)
	assert.Equal(t, model.OutcomeApprove, run.Result.Summary.Outcome)
	assert.Equal(t, 7500, run.Result.TotalTokens)
	assert.InDelta(t, 0.045, run.Result.TotalCost, 1e-9)

	phases, err := st.ListPhases(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, phases, 3)
}

func TestOrchestrator_PersistsFailure(t *testing.T) {
	st := newTestStore(t)
	scorer := new(MockScorer)
	committee := new(MockDeliberator)
	scorer.On("Assess", mock.Anything, mock.Anything).Return(nil, errors.New("ledger overflow"))

	o := New(scorer, committee, WithStore(st))
	_, err := o.Run(context.Background(), personalRequest())
	require.Error(t, err)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "permanent", runs[0].ErrorType)
	assert.Contains(t, runs[0].Error, "scoring phase failed")
}

func TestOrchestrator_RealScoringEngine(t *testing.T) {
	committee := new(MockDeliberator)
	committee.On("Deliberate", mock.Anything, mock.Anything).Return(sampleCommittee(), nil)

	o := New(scoring.NewEngine(scoring.DefaultPolicy()), committee)
	res, err := o.Run(context.Background(), mortgageRequest())
	require.NoError(t, err)

	assert.Equal(t, model.LoanTypeMortgage, res.Credit.Result.LoanType)
	assert.GreaterOrEqual(t, res.Summary.RiskScore, 10)
	assert.LessOrEqual(t, res.Summary.RiskScore, 100)
	assert.Equal(t, model.ValuationModeSynthesized, res.Valuation.Mode)
}

package valuation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sells-group/underwriter/internal/model"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Valuate(ctx context.Context, req Request) (*model.Valuation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Valuation), args.Error(1)
}

func TestSynthesize(t *testing.T) {
	v := Synthesize(8_000_000, "Taichung City", "apartment")

	assert.Equal(t, 10_000_000.0, v.EstimatedValue)
	assert.Equal(t, 8_500_000.0, v.ConfidenceInterval.P5)
	assert.Equal(t, 10_000_000.0, v.ConfidenceInterval.P50)
	assert.Equal(t, 11_500_000.0, v.ConfidenceInterval.P95)
	assert.InDelta(t, 0.8, v.LTVRatio, 1e-9)
	assert.Equal(t, model.RiskLevelHigh, v.RiskLevel)
	assert.Equal(t, 1.02, v.LSTMIndex)
	assert.Equal(t, 0.05, v.SentimentScore)
	assert.Equal(t, 9_803_922.0, v.BaseValue)
	assert.Equal(t, map[string]float64{"area": 0.5, "floor": 0.1, "age": 0.2, "location": 0.2}, v.Breakdown)
	assert.Equal(t, "Taichung City", v.Region)
	assert.Equal(t, model.ValuationModeSynthesized, v.Mode)
}

func TestSynthesize_RoundsToTenThousand(t *testing.T) {
	v := Synthesize(1_234_567, "", "")
	assert.Equal(t, 1_540_000.0, v.EstimatedValue)
	assert.Equal(t, "Taipei City", v.Region)
	assert.Equal(t, "building", v.BuildingType)
	assert.InDelta(t, 1_234_567.0/1_540_000.0, v.LTVRatio, 1e-12)
}

func TestSynthesize_ZeroLoan(t *testing.T) {
	v := Synthesize(0, "", "")
	assert.Equal(t, 0.0, v.EstimatedValue)
	assert.Equal(t, 0.0, v.LTVRatio)
	assert.Equal(t, model.RiskLevelLow, v.RiskLevel)
}

func TestResolve(t *testing.T) {
	prop := &model.Property{Region: "Taipei City", Purpose: model.PurposePurchase}
	input := &model.ValuationInput{AreaPing: 30, BuildingType: "apartment"}

	t.Run("live", func(t *testing.T) {
		mc := new(MockClient)
		live := &model.Valuation{EstimatedValue: 12_000_000, Mode: model.ValuationModeLive}
		mc.On("Valuate", mock.Anything, Request{ValuationInput: *input, Region: "Taipei City", LoanAmount: 8_000_000}).
			Return(live, nil)

		v := Resolve(context.Background(), mc, 8_000_000, prop, input)
		assert.Equal(t, model.ValuationModeLive, v.Mode)
		assert.Equal(t, 12_000_000.0, v.EstimatedValue)
		mc.AssertExpectations(t)
	})

	t.Run("service error falls back", func(t *testing.T) {
		mc := new(MockClient)
		mc.On("Valuate", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

		v := Resolve(context.Background(), mc, 8_000_000, prop, input)
		assert.Equal(t, model.ValuationModeSynthesized, v.Mode)
		assert.Equal(t, 10_000_000.0, v.EstimatedValue)
		assert.Equal(t, "apartment", v.BuildingType)
	})

	t.Run("missing input skips the service", func(t *testing.T) {
		mc := new(MockClient)
		v := Resolve(context.Background(), mc, 8_000_000, prop, nil)
		assert.Equal(t, model.ValuationModeSynthesized, v.Mode)
		mc.AssertNotCalled(t, "Valuate", mock.Anything, mock.Anything)
	})

	t.Run("nil client", func(t *testing.T) {
		v := Resolve(context.Background(), nil, 8_000_000, prop, input)
		assert.Equal(t, model.ValuationModeSynthesized, v.Mode)
	})
}

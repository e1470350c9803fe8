package valuation

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/model"
)

const (
	synthValueMultiple = 1.25
	synthLowBand       = 0.85
	synthHighBand      = 1.15
	synthLSTMIndex     = 1.02
	synthSentiment     = 0.05

	defaultRegion       = "Taipei City"
	defaultBuildingType = "building"
)

var roundingUnit = decimal.NewFromInt(10_000)

// Synthesize builds a placeholder valuation from the loan amount alone. The
// estimate assumes an 80% LTV, rounded to the nearest 10,000.
func Synthesize(loanAmount float64, region, buildingType string) model.Valuation {
	if region == "" {
		region = defaultRegion
	}
	if buildingType == "" {
		buildingType = defaultBuildingType
	}

	est := decimal.NewFromFloat(loanAmount).
		Mul(decimal.NewFromFloat(synthValueMultiple)).
		Div(roundingUnit).Round(0).Mul(roundingUnit)
	estimated := est.InexactFloat64()

	var ltv float64
	if estimated > 0 {
		ltv = loanAmount / estimated
	}

	return model.Valuation{
		EstimatedValue: estimated,
		ConfidenceInterval: model.ConfidenceInterval{
			P5:  est.Mul(decimal.NewFromFloat(synthLowBand)).Round(0).InexactFloat64(),
			P50: estimated,
			P95: est.Mul(decimal.NewFromFloat(synthHighBand)).Round(0).InexactFloat64(),
		},
		LTVRatio:       ltv,
		RiskLevel:      model.RiskLevelForLTV(ltv),
		LSTMIndex:      synthLSTMIndex,
		SentimentScore: synthSentiment,
		BaseValue:      est.Div(decimal.NewFromFloat(synthLSTMIndex)).Round(0).InexactFloat64(),
		Breakdown:      map[string]float64{"area": 0.5, "floor": 0.1, "age": 0.2, "location": 0.2},
		Region:         region,
		BuildingType:   buildingType,
		Mode:           model.ValuationModeSynthesized,
	}
}

// Resolve returns a live valuation when input and property are present and
// the service answers, otherwise a synthesized one. It never fails. client
// may be nil.
func Resolve(ctx context.Context, client Client, loanAmount float64, property *model.Property, input *model.ValuationInput) model.Valuation {
	var region, buildingType string
	if property != nil {
		region = property.Region
	}
	if input != nil {
		buildingType = input.BuildingType
	}

	if client == nil || property == nil || input == nil {
		return Synthesize(loanAmount, region, buildingType)
	}

	v, err := client.Valuate(ctx, Request{ValuationInput: *input, Region: region, LoanAmount: loanAmount})
	if err != nil {
		zap.L().Warn("valuation: service unavailable, using synthesized estimate",
			zap.String("region", region),
			zap.Error(err),
		)
		return Synthesize(loanAmount, region, buildingType)
	}
	return *v
}

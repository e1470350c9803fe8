package model

// ValuationMode records whether a valuation came from the live service or was
// synthesized locally.
type ValuationMode string

const (
	ValuationModeLive        ValuationMode = "live"
	ValuationModeSynthesized ValuationMode = "synthesized"
)

// RiskLevel is the qualitative collateral risk band.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// ConfidenceInterval is the valuation's p5/p50/p95 band.
type ConfidenceInterval struct {
	P5  float64 `json:"p5"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
}

// Valuation is an estimate of the collateral property's value.
type Valuation struct {
	EstimatedValue     float64            `json:"estimated_value"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	LTVRatio           float64            `json:"ltv_ratio"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	LSTMIndex          float64            `json:"lstm_index"`
	SentimentScore     float64            `json:"sentiment_score"`
	BaseValue          float64            `json:"base_value"`
	Breakdown          map[string]float64 `json:"breakdown,omitempty"`
	Region             string             `json:"region,omitempty"`
	BuildingType       string             `json:"building_type,omitempty"`
	Mode               ValuationMode      `json:"mode"`
}

// RiskLevelForLTV bands an LTV ratio at the 60% and 75% cuts.
func RiskLevelForLTV(ltv float64) RiskLevel {
	switch {
	case ltv <= 0.6:
		return RiskLevelLow
	case ltv <= 0.75:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

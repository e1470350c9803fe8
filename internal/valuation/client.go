// Package valuation estimates collateral value through the external
// valuation service, falling back to a synthesized estimate.
package valuation

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/config"
	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/resilience"
)

// Request is the valuation service input.
type Request struct {
	model.ValuationInput
	Region     string  `json:"region"`
	LoanAmount float64 `json:"loan_amount"`
}

// Client estimates a property's value.
type Client interface {
	Valuate(ctx context.Context, req Request) (*model.Valuation, error)
}

type wireRequest struct {
	AreaPing     float64 `json:"area_ping"`
	PropertyAge  float64 `json:"property_age"`
	BuildingType string  `json:"building_type"`
	Floor        int     `json:"floor"`
	HasParking   bool    `json:"has_parking"`
	Layout       string  `json:"layout"`
	Region       string  `json:"region"`
	LoanAmount   float64 `json:"loan_amount"`
}

type wireResponse struct {
	EstimatedValue     float64 `json:"estimated_value"`
	ConfidenceInterval struct {
		P5  float64 `json:"p5"`
		P50 float64 `json:"p50"`
		P95 float64 `json:"p95"`
	} `json:"confidence_interval"`
	LTVRatio       float64            `json:"ltv_ratio"`
	RiskLevel      string             `json:"risk_level"`
	LSTMIndex      float64            `json:"lstm_index"`
	SentimentScore float64            `json:"sentiment_score"`
	BaseValue      float64            `json:"base_value"`
	Breakdown      map[string]float64 `json:"breakdown"`
	Region         string             `json:"region"`
	BuildingType   string             `json:"building_type"`
}

func (w wireResponse) toModel() *model.Valuation {
	v := &model.Valuation{
		EstimatedValue: w.EstimatedValue,
		ConfidenceInterval: model.ConfidenceInterval{
			P5:  w.ConfidenceInterval.P5,
			P50: w.ConfidenceInterval.P50,
			P95: w.ConfidenceInterval.P95,
		},
		LTVRatio:       w.LTVRatio,
		RiskLevel:      model.RiskLevel(w.RiskLevel),
		LSTMIndex:      w.LSTMIndex,
		SentimentScore: w.SentimentScore,
		BaseValue:      w.BaseValue,
		Breakdown:      w.Breakdown,
		Region:         w.Region,
		BuildingType:   w.BuildingType,
		Mode:           model.ValuationModeLive,
	}
	switch v.RiskLevel {
	case model.RiskLevelLow, model.RiskLevelMedium, model.RiskLevelHigh:
	default:
		v.RiskLevel = model.RiskLevelForLTV(v.LTVRatio)
	}
	return v
}

// HTTPClient calls POST {base}/valuate with retry and a circuit breaker.
type HTTPClient struct {
	http    *resty.Client
	retry   resilience.RetryPolicy
	breaker *resilience.Breaker
}

// NewHTTPClient creates a client for the configured base URL. breaker may be
// nil.
func NewHTTPClient(cfg config.ValuationConfig, breaker *resilience.Breaker) *HTTPClient {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	retry := resilience.PolicyFromConfig(cfg.Retry)
	retry.OnRetry = resilience.LogRetries("valuation", "valuate")

	return &HTTPClient{http: c, retry: retry, breaker: breaker}
}

// Valuate requests a live estimate.
func (c *HTTPClient) Valuate(ctx context.Context, req Request) (*model.Valuation, error) {
	body := wireRequest{
		AreaPing:     req.AreaPing,
		PropertyAge:  req.PropertyAge,
		BuildingType: req.BuildingType,
		Floor:        req.Floor,
		HasParking:   req.HasParking,
		Layout:       req.Layout,
		Region:       req.Region,
		LoanAmount:   req.LoanAmount,
	}

	call := func(ctx context.Context) (*model.Valuation, error) {
		if c.breaker == nil {
			return c.post(ctx, body)
		}
		return resilience.Call(ctx, c.breaker, func(ctx context.Context) (*model.Valuation, error) {
			return c.post(ctx, body)
		})
	}

	v, err := resilience.Retry(ctx, c.retry, call)
	if err != nil {
		return nil, eris.Wrap(err, "valuation: valuate")
	}
	return v, nil
}

func (c *HTTPClient) post(ctx context.Context, body wireRequest) (*model.Valuation, error) {
	var out wireResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/valuate")
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "valuation: post")
		}
		return nil, resilience.NewTransientError(eris.Wrap(err, "valuation: post"), 0)
	}

	if resp.IsError() {
		err := eris.Errorf("valuation: service returned %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
		if resilience.IsTransientHTTPStatus(resp.StatusCode()) {
			return nil, resilience.NewTransientError(err, resp.StatusCode())
		}
		return nil, err
	}
	if out.EstimatedValue <= 0 {
		return nil, eris.New("valuation: response has no estimated value")
	}

	zap.L().Debug("valuation: live estimate",
		zap.Float64("estimated_value", out.EstimatedValue),
		zap.Float64("ltv_ratio", out.LTVRatio),
		zap.Duration("elapsed", resp.Time()),
	)
	return out.toModel(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

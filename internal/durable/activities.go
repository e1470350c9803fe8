// Package durable runs the underwriting pipeline as a Temporal workflow, with
// each phase executed as a retryable activity.
package durable

import (
	"context"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/activity"

	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/monitoring"
	"github.com/sells-group/underwriter/internal/valuation"
	pipeline "github.com/sells-group/underwriter/internal/workflow"
)

// ValuateInput carries what the valuation activity needs.
type ValuateInput struct {
	LoanAmount float64               `json:"loan_amount"`
	Property   *model.Property       `json:"property,omitempty"`
	Input      *model.ValuationInput `json:"input,omitempty"`
}

// Activities holds the collaborators behind each phase.
type Activities struct {
	Scorer    pipeline.Scorer
	Committee pipeline.Deliberator
	Valuation valuation.Client
	Metrics   *monitoring.Metrics
}

// Valuate resolves a property valuation. It never fails.
func (a *Activities) Valuate(ctx context.Context, in ValuateInput) (model.Valuation, error) {
	v := valuation.Resolve(ctx, a.Valuation, in.LoanAmount, in.Property, in.Input)
	if v.Mode == model.ValuationModeSynthesized {
		a.Metrics.ObserveFallback("valuation")
	}
	return v, nil
}

// Score runs the credit scoring engine.
func (a *Activities) Score(ctx context.Context, req model.LoanRequest) (*model.Assessment, error) {
	out, err := a.Scorer.Assess(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "durable: score")
	}
	a.Metrics.ObserveAssessment(string(req.LoanType), string(out.Fraud.Severity))
	return out, nil
}

// Deliberate runs the credit committee.
func (a *Activities) Deliberate(ctx context.Context, req model.CommitteeRequest) (*model.CommitteeResult, error) {
	activity.GetLogger(ctx).Info("durable: convening committee", "application_id", req.ApplicationID)
	out, err := a.Committee.Deliberate(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "durable: deliberate")
	}
	return out, nil
}

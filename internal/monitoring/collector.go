package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/store"
)

const maxSnapshotRuns = 10000

// Snapshot holds a point-in-time view of review health.
type Snapshot struct {
	// Runs within the lookback window.
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsInFlight int     `json:"runs_in_flight"`
	FailRate     float64 `json:"fail_rate"`

	// Outcomes of completed runs.
	DecisionMix  map[model.Outcome]int `json:"decision_mix"`
	DeclineRate  float64               `json:"decline_rate"`
	AvgRiskScore float64               `json:"avg_risk_score"`
	ErrorTypes   map[string]int        `json:"error_types,omitempty"`

	// Spend.
	TotalCostUSD float64 `json:"total_cost_usd"`
	AvgCostUSD   float64 `json:"avg_cost_usd"`
	AvgTokens    int     `json:"avg_tokens"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the store subset the collector needs.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers snapshots from persisted runs.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a new snapshot collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	now := c.now().UTC()
	snap := &Snapshot{
		DecisionMix:   make(map[model.Outcome]int),
		ErrorTypes:    make(map[string]int),
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        maxSnapshotRuns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	var totalScore, totalTokens, withResult int
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
			if r.ErrorType != "" {
				snap.ErrorTypes[r.ErrorType]++
			}
		default:
			snap.RunsInFlight++
		}
		if r.Result == nil {
			continue
		}
		withResult++
		snap.DecisionMix[r.Result.Summary.Outcome]++
		totalScore += r.Result.Summary.RiskScore
		totalTokens += r.Result.TotalTokens
		snap.TotalCostUSD += r.Result.TotalCost
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if withResult > 0 {
		snap.AvgRiskScore = float64(totalScore) / float64(withResult)
		snap.AvgCostUSD = snap.TotalCostUSD / float64(withResult)
		snap.AvgTokens = totalTokens / withResult
		snap.DeclineRate = float64(snap.DecisionMix[model.OutcomeDecline]) / float64(withResult)
	}
	return snap, nil
}

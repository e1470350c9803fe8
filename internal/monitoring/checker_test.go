package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sells-group/underwriter/internal/config"
	"github.com/sells-group/underwriter/internal/model"
)

func TestChecker_RunStopsOnCancel(t *testing.T) {
	lister := &mockRunLister{}
	lister.On("ListRuns", mock.Anything, mock.Anything).Return([]model.Run{}, nil).Maybe()
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1, LookbackWindowHours: 24}
	checker := NewChecker(NewCollector(lister), NewAlerter(cfg), nil, cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_CheckPublishesSnapshot(t *testing.T) {
	lister := &mockRunLister{}
	lister.On("ListRuns", mock.Anything, mock.Anything).Return([]model.Run{
		completedRun(model.OutcomeApprove, 40, 0.04),
		{Status: model.RunStatusFailed},
	}, nil)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	cfg := config.MonitoringConfig{LookbackWindowHours: 24}
	NewChecker(NewCollector(lister), NewAlerter(cfg), metrics, cfg).Check(context.Background())

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.snapshotGauges.WithLabelValues("runs_total")), 1e-9)
	assert.InDelta(t, 0.5, testutil.ToFloat64(metrics.snapshotGauges.WithLabelValues("fail_rate")), 1e-9)
	assert.InDelta(t, 40, testutil.ToFloat64(metrics.snapshotGauges.WithLabelValues("avg_risk_score")), 1e-9)
	lister.AssertExpectations(t)
}

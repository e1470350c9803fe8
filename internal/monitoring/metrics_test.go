package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObservePhase("scoring", "complete", 20*time.Millisecond)
	m.ObservePhase("scoring", "complete", 30*time.Millisecond)
	m.ObserveReasonerCall("opinion", "ok", time.Second)
	m.ObserveFallback("chair")
	m.ObserveDecision("approve", "mortgage")
	m.ObserveAssessment("personal", "low")
	m.ObserveTokens(100, 50, 10, 5)

	assert.InDelta(t, 2, testutil.ToFloat64(m.phaseTotal.WithLabelValues("scoring", "complete")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.reasonerCalls.WithLabelValues("opinion", "ok")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.fallbacks.WithLabelValues("chair")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.decisions.WithLabelValues("approve", "mortgage")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.assessments.WithLabelValues("personal", "low")), 1e-9)
	assert.InDelta(t, 100, testutil.ToFloat64(m.tokens.WithLabelValues("input")), 1e-9)
	assert.InDelta(t, 5, testutil.ToFloat64(m.tokens.WithLabelValues("cache_read")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.phaseDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePhase("scoring", "complete", time.Millisecond)
		m.ObserveReasonerCall("chair", "ok", time.Millisecond)
		m.ObserveFallback("valuation")
		m.ObserveDecision("decline", "personal")
		m.ObserveAssessment("personal", "high")
		m.ObserveTokens(1, 1, 1, 1)
		m.SetSnapshot(&Snapshot{RunsTotal: 1})
	})
}

func TestMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}

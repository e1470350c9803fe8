package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the underwriting pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	phaseDuration   *prometheus.HistogramVec
	phaseTotal      *prometheus.CounterVec
	reasonerCalls   *prometheus.CounterVec
	reasonerLatency *prometheus.HistogramVec
	fallbacks       *prometheus.CounterVec
	decisions       *prometheus.CounterVec
	assessments     *prometheus.CounterVec
	tokens          *prometheus.CounterVec
	snapshotGauges  *prometheus.GaugeVec
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "underwriter_phase_duration_seconds",
			Help:    "Duration of workflow phases in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"phase"}),
		phaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underwriter_phase_total",
			Help: "Workflow phases by final status",
		}, []string{"phase", "status"}),
		reasonerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underwriter_reasoner_calls_total",
			Help: "Generative reasoner calls by purpose and outcome",
		}, []string{"purpose", "outcome"}),
		reasonerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "underwriter_reasoner_call_seconds",
			Help:    "Latency of generative reasoner calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"purpose"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underwriter_fallbacks_total",
			Help: "Safe-default substitutions by source",
		}, []string{"source"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underwriter_committee_decisions_total",
			Help: "Committee rulings by outcome and loan type",
		}, []string{"outcome", "loan_type"}),
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underwriter_assessments_total",
			Help: "Credit assessments by loan type and fraud level",
		}, []string{"loan_type", "fraud_level"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underwriter_tokens_total",
			Help: "Generative tokens consumed by kind",
		}, []string{"kind"}),
		snapshotGauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "underwriter_snapshot",
			Help: "Latest monitoring snapshot values over the lookback window",
		}, []string{"metric"}),
	}
	reg.MustRegister(
		m.phaseDuration, m.phaseTotal,
		m.reasonerCalls, m.reasonerLatency,
		m.fallbacks, m.decisions, m.assessments,
		m.tokens, m.snapshotGauges,
	)
	return m
}

// ObservePhase records one finished workflow phase.
func (m *Metrics) ObservePhase(phase, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	m.phaseTotal.WithLabelValues(phase, status).Inc()
}

// ObserveReasonerCall records one generative call. outcome is "ok" or an
// error class.
func (m *Metrics) ObserveReasonerCall(purpose, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.reasonerCalls.WithLabelValues(purpose, outcome).Inc()
	m.reasonerLatency.WithLabelValues(purpose).Observe(d.Seconds())
}

// ObserveFallback counts a default substituted for a failed collaborator.
func (m *Metrics) ObserveFallback(source string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(source).Inc()
}

// ObserveDecision counts a committee ruling.
func (m *Metrics) ObserveDecision(outcome, loanType string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome, loanType).Inc()
}

// ObserveAssessment counts a completed credit assessment.
func (m *Metrics) ObserveAssessment(loanType, fraudLevel string) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(loanType, fraudLevel).Inc()
}

// ObserveTokens adds token counts by kind.
func (m *Metrics) ObserveTokens(input, output, cacheWrite, cacheRead int) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues("input").Add(float64(input))
	m.tokens.WithLabelValues("output").Add(float64(output))
	m.tokens.WithLabelValues("cache_write").Add(float64(cacheWrite))
	m.tokens.WithLabelValues("cache_read").Add(float64(cacheRead))
}

// SetSnapshot publishes the headline values of snap as gauges.
func (m *Metrics) SetSnapshot(snap *Snapshot) {
	if m == nil || snap == nil {
		return
	}
	m.snapshotGauges.WithLabelValues("runs_total").Set(float64(snap.RunsTotal))
	m.snapshotGauges.WithLabelValues("runs_failed").Set(float64(snap.RunsFailed))
	m.snapshotGauges.WithLabelValues("fail_rate").Set(snap.FailRate)
	m.snapshotGauges.WithLabelValues("avg_risk_score").Set(snap.AvgRiskScore)
	m.snapshotGauges.WithLabelValues("avg_cost_usd").Set(snap.AvgCostUSD)
}

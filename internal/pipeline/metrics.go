package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the run counters exported on /metrics. A nil *Metrics
// records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	messages    *prometheus.CounterVec
	lookups     *prometheus.CounterVec
	runDuration prometheus.Histogram
	lastRun     prometheus.Gauge
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bark_runs_total",
			Help: "Pipeline runs by result",
		}, []string{"result"}),
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bark_messages_total",
			Help: "Messages by final state",
		}, []string{"state"}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bark_enrichment_lookups_total",
			Help: "People-search lookups by result",
		}, []string{"result"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bark_run_duration_seconds",
			Help:    "Pipeline run duration",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "bark_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run",
		}),
	}
}

func (m *Metrics) observeRun(st Stats, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(st.Duration.Seconds())
	m.lastRun.SetToCurrentTime()
}

func (m *Metrics) observeMessage(s State) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(s.String()).Inc()
}

// ObserveLookup counts one enrichment lookup; it matches the
// enrich.Enricher OnLookup hook.
func (m *Metrics) ObserveLookup(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.lookups.WithLabelValues("error").Inc()
		return
	}
	m.lookups.WithLabelValues("ok").Inc()
}

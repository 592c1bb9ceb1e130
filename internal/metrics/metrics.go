// Package metrics exposes Prometheus counters for import runs
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the import pipeline instruments. A nil *Metrics records
// nothing, so callers never need to check whether metrics are enabled.
type Metrics struct {
	Outcomes       *prometheus.CounterVec
	RemoteCalls    *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	RateLimited    *prometheus.CounterVec
	CacheHits      prometheus.Counter
	PersistedItems *prometheus.CounterVec
	RunsInProgress prometheus.Gauge
}

// New creates and registers import metrics with the given registry
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtrack",
			Subsystem: "import",
			Name:      "outcomes_total",
			Help:      "Import entry outcomes by media kind and status.",
		}, []string{"kind", "status"}),
		RemoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtrack",
			Subsystem: "catalog",
			Name:      "calls_total",
			Help:      "Remote catalog calls by search tier and result.",
		}, []string{"kind", "tier", "result"}),
		RemoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mtrack",
			Subsystem: "catalog",
			Name:      "call_duration_seconds",
			Help:      "Duration of remote catalog calls, retries included.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"kind"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtrack",
			Subsystem: "catalog",
			Name:      "rate_limited_total",
			Help:      "HTTP 429 answers received from a catalog.",
		}, []string{"catalog"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mtrack",
			Subsystem: "import",
			Name:      "cache_hits_total",
			Help:      "Entries answered from the per-run search cache.",
		}),
		PersistedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtrack",
			Subsystem: "store",
			Name:      "persisted_items_total",
			Help:      "Accepted candidates by persistence result.",
		}, []string{"result"}),
		RunsInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mtrack",
			Subsystem: "import",
			Name:      "runs_in_progress",
			Help:      "Import runs currently executing.",
		}),
	}

	reg.MustRegister(
		m.Outcomes,
		m.RemoteCalls,
		m.RemoteDuration,
		m.RateLimited,
		m.CacheHits,
		m.PersistedItems,
		m.RunsInProgress,
	)
	return m
}

// Outcome counts one entry outcome
func (m *Metrics) Outcome(kind, status string, cached bool) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(kind, status).Inc()
	if cached {
		m.CacheHits.Inc()
	}
}

// RemoteCall counts one catalog call
func (m *Metrics) RemoteCall(kind, tier string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RemoteCalls.WithLabelValues(kind, tier, result).Inc()
	m.RemoteDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RateLimit counts one 429 answer from catalog
func (m *Metrics) RateLimit(catalog string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(catalog).Inc()
}

// Persisted counts one persistence result: "added", "skipped" or "failed"
func (m *Metrics) Persisted(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PersistedItems.WithLabelValues(result).Add(float64(n))
}

// RunStarted marks the start of a run
func (m *Metrics) RunStarted() {
	if m != nil {
		m.RunsInProgress.Inc()
	}
}

// RunFinished marks the end of a run
func (m *Metrics) RunFinished() {
	if m != nil {
		m.RunsInProgress.Dec()
	}
}

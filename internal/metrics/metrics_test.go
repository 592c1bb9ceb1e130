package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Outcome("Anime", "success", false)
	m.Outcome("Anime", "success", true)
	m.Outcome("Anime", "no_match", false)
	m.RemoteCall("Anime", "english", 200*time.Millisecond, nil)
	m.RemoteCall("Anime", "english", time.Second, errors.New("boom"))
	m.RateLimit("anilist")
	m.Persisted("added", 3)
	m.Persisted("failed", 0)
	m.RunStarted()

	if got := testutil.ToFloat64(m.Outcomes.WithLabelValues("Anime", "success")); got != 2 {
		t.Errorf("success outcomes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheHits); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RemoteCalls.WithLabelValues("Anime", "english", "error")); got != 1 {
		t.Errorf("failed remote calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RateLimited.WithLabelValues("anilist")); got != 1 {
		t.Errorf("rate limited = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PersistedItems.WithLabelValues("added")); got != 3 {
		t.Errorf("persisted = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.RunsInProgress); got != 1 {
		t.Errorf("runs in progress = %v, want 1", got)
	}
	m.RunFinished()
	if got := testutil.ToFloat64(m.RunsInProgress); got != 0 {
		t.Errorf("runs in progress = %v, want 0", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Outcome("TV", "error", true)
	m.RemoteCall("TV", "title", time.Second, nil)
	m.RateLimit("tmdb")
	m.Persisted("added", 1)
	m.RunStarted()
	m.RunFinished()
}

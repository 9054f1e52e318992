package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineMetricsCountsFallbacks(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPipelineMetrics("worker", registry)

	m.StageFallback("structure")
	m.StageFallback("structure")
	m.StageFallback("entities")
	m.EmergencyFallback()
	m.ExtractionCompleted(0.8, true, 1500*time.Millisecond)
	m.BreakerStateChanged("documentai.entities", "closed", "open")

	if got := testutil.ToFloat64(m.stageFallbackTotal.WithLabelValues("worker", "structure")); got != 2 {
		t.Fatalf("structure fallbacks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.emergencyTotal.WithLabelValues("worker")); got != 1 {
		t.Fatalf("emergency fallbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.breakerChanges.WithLabelValues("worker", "documentai.entities", "open")); got != 1 {
		t.Fatalf("breaker changes = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.confidence); n != 1 {
		t.Fatalf("expected one confidence series, got %d", n)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/dockets/abc":            "/v1/dockets/{docket_id}",
		"/v1/dockets/abc/extraction": "/v1/dockets/{docket_id}/extraction",
		"/v1/dockets":                "/v1/dockets",
		"/healthz":                   "/healthz",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

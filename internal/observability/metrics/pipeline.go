package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics observes extraction pipeline outcomes.
type PipelineMetrics struct {
	service string

	stageFallbackTotal *prometheus.CounterVec
	emergencyTotal     *prometheus.CounterVec
	confidence         *prometheus.HistogramVec
	duration           *prometheus.HistogramVec
	breakerChanges     *prometheus.CounterVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	stageFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docket",
			Subsystem: "pipeline",
			Name:      "stage_fallback_total",
			Help:      "Total stage failures answered by the stage fallback.",
		},
		[]string{"service", "stage"},
	)
	emergencyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docket",
			Subsystem: "pipeline",
			Name:      "emergency_fallback_total",
			Help:      "Total extractions that ended in the emergency record.",
		},
		[]string{"service"},
	)
	confidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docket",
			Subsystem: "pipeline",
			Name:      "overall_confidence",
			Help:      "Distribution of overall extraction confidence.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
		[]string{"service", "fallback"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docket",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Extraction pipeline duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service", "fallback"},
	)
	breakerChanges := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docket",
			Subsystem: "resilience",
			Name:      "breaker_state_changes_total",
			Help:      "Circuit breaker transitions by operation and target state.",
		},
		[]string{"service", "operation", "to"},
	)

	registerer.MustRegister(stageFallbackTotal, emergencyTotal, confidence, duration, breakerChanges)

	return &PipelineMetrics{
		service:            service,
		stageFallbackTotal: stageFallbackTotal,
		emergencyTotal:     emergencyTotal,
		confidence:         confidence,
		duration:           duration,
		breakerChanges:     breakerChanges,
	}
}

func (m *PipelineMetrics) StageFallback(stage string) {
	m.stageFallbackTotal.WithLabelValues(m.service, stage).Inc()
}

func (m *PipelineMetrics) EmergencyFallback() {
	m.emergencyTotal.WithLabelValues(m.service).Inc()
}

func (m *PipelineMetrics) ExtractionCompleted(overallConfidence float64, fallbackMode bool, elapsed time.Duration) {
	fallback := strconv.FormatBool(fallbackMode)
	m.confidence.WithLabelValues(m.service, fallback).Observe(overallConfidence)
	m.duration.WithLabelValues(m.service, fallback).Observe(elapsed.Seconds())
}

// BreakerStateChanged matches resilience.StateChangeFunc.
func (m *PipelineMetrics) BreakerStateChanged(operation, _, to string) {
	m.breakerChanges.WithLabelValues(m.service, operation, to).Inc()
}

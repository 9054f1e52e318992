package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

// WorkerMetrics tracks docket jobs consumed from the upload subject.
type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	failures  *prometheus.CounterVec
	inFlight  prometheus.Gauge
	queueLag  prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	serviceLabel := prometheus.Labels{"service": service}

	m := &WorkerMetrics{
		service:  service,
		registry: registry,
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "docket",
			Subsystem:   "worker",
			Name:        "process_total",
			Help:        "Processed dockets by stored status.",
			ConstLabels: serviceLabel,
		}, []string{"status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "docket",
			Subsystem:   "worker",
			Name:        "process_duration_seconds",
			Help:        "Wall time from job pickup to stored status.",
			ConstLabels: serviceLabel,
			Buckets:     []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90, 180, 300},
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "docket",
			Subsystem:   "worker",
			Name:        "handler_errors_total",
			Help:        "Jobs that returned an error, by error kind.",
			ConstLabels: serviceLabel,
		}, []string{"kind"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "docket",
			Subsystem:   "worker",
			Name:        "process_in_flight",
			Help:        "Dockets currently being processed.",
			ConstLabels: serviceLabel,
		}),
		queueLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "docket",
			Subsystem:   "worker",
			Name:        "queue_lag_seconds",
			Help:        "Delay between docket upload and processing start.",
			ConstLabels: serviceLabel,
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
	registry.MustRegister(m.processed, m.duration, m.failures, m.inFlight, m.queueLag)
	return m
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Track marks a docket job as started. The returned func records the stored
// status, or "error" when processing failed before one was written.
func (m *WorkerMetrics) Track() func(status domain.DocketStatus, err error) {
	m.inFlight.Inc()
	started := time.Now()
	return func(status domain.DocketStatus, err error) {
		m.inFlight.Dec()
		label := string(status)
		if label == "" {
			label = "error"
		}
		m.processed.WithLabelValues(label).Inc()
		m.duration.WithLabelValues(label).Observe(time.Since(started).Seconds())
		if err != nil {
			m.failures.WithLabelValues(errorKind(err)).Inc()
		}
	}
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}

func errorKind(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrDocketNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	case domain.IsKind(err, domain.ErrProviderUnavailable):
		return "provider_unavailable"
	case domain.IsKind(err, domain.ErrMalformedResponse):
		return "malformed_response"
	default:
		return "internal"
	}
}

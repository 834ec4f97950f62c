package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeBackendError    = "backend_error"
	OutcomeUnavailable     = "unavailable"
	OutcomeInFlight        = "in_flight"
)

// BookingMetrics exposes counters/histograms for booking submissions.
type BookingMetrics struct {
	submissionsTotal *prometheus.CounterVec
	backendLatency   *prometheus.HistogramVec
	formEditsTotal   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailer",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Total booking submissions by category and outcome",
		}, []string{"category", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trailer",
			Subsystem: "booking",
			Name:      "backend_latency_seconds",
			Help:      "Latency of booking backend calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend"}),
		formEditsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailer",
			Subsystem: "booking",
			Name:      "form_edits_total",
			Help:      "Total form edits by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.backendLatency, m.formEditsTotal)
	return m
}

func (m *BookingMetrics) ObserveSubmission(category, outcome string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "none"
	}
	m.submissionsTotal.WithLabelValues(category, outcome).Inc()
}

func (m *BookingMetrics) ObserveBackendLatency(backend string, d time.Duration) {
	if m == nil {
		return
	}
	m.backendLatency.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *BookingMetrics) ObserveEdit(ok bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !ok {
		result = "rejected"
	}
	m.formEditsTotal.WithLabelValues(result).Inc()
}

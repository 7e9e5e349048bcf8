// Package metrics exposes Prometheus collectors for analysis runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "botspectra"

// Metrics holds the collectors updated by the analysis manager. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	records       prometheus.Counter
	results       *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Analysis runs by outcome.",
		}, []string{"outcome"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Traffic records read from uploaded files.",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_total",
			Help:      "Results kept after confidence filtering, by status.",
		}, []string{"status"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each pipeline phase, simulated latency included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"phase"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Analysis runs currently executing.",
		}),
	}
	reg.MustRegister(m.runs, m.records, m.results, m.phaseDuration, m.inFlight)
	return m
}

// RunStarted marks a run as in flight.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// RunFinished records the outcome of a run: "success", "failure" or "canceled".
func (m *Metrics) RunFinished(outcome string) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.runs.WithLabelValues(outcome).Inc()
}

// RecordsParsed adds n parsed records.
func (m *Metrics) RecordsParsed(n int) {
	if m == nil {
		return
	}
	m.records.Add(float64(n))
}

// ResultKept counts one filtered result of the given status.
func (m *Metrics) ResultKept(status string) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(status).Inc()
}

// ObservePhase records how long a phase took.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// Package metrics exposes Prometheus instrumentation for integration runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for integration_runs_total.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	globalRecorder *Recorder
	recorderOnce   sync.Once
)

// Recorder holds the run metrics.
//
// Metrics:
//   - integration_runs_total{method,outcome} - completed runs
//   - integration_evaluations_total{method} - integrand evaluations
//   - integration_duration_seconds{method} - solver wall time
type Recorder struct {
	RunsTotal        *prometheus.CounterVec
	EvaluationsTotal *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
}

// NewRecorder registers the metrics on reg. Registering twice on the same
// registerer panics, as with any Prometheus collector.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "integration_runs_total",
				Help: "Total number of integration runs by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		EvaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "integration_evaluations_total",
				Help: "Total number of integrand evaluations by method",
			},
			[]string{"method"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "integration_duration_seconds",
				Help:    "Wall-clock duration of integration runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~262s
			},
			[]string{"method"},
		),
	}
}

// Default returns the process-wide recorder on the default registerer,
// creating it on first use.
func Default() *Recorder {
	recorderOnce.Do(func() {
		globalRecorder = NewRecorder(prometheus.DefaultRegisterer)
	})
	return globalRecorder
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format read by the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// ObserveRun records one finished run. A nil recorder is a no-op.
func (r *Recorder) ObserveRun(method string, evaluations int, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.RunsTotal.WithLabelValues(method, outcome).Inc()
	if evaluations > 0 {
		r.EvaluationsTotal.WithLabelValues(method).Add(float64(evaluations))
	}
	r.Duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

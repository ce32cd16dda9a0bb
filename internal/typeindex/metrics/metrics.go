package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names used as the "op" label.
const (
	OpInitialize = "initialize"
	OpLoad       = "load"
	OpRegister   = "register"
	OpUnregister = "unregister"
	OpQuery      = "query"
)

// Metrics provides observability for the registry engine.
// Tracks operation outcomes, remote step failures and query result sizes.
type Metrics struct {
	Operations         *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	StepFailures       *prometheus.CounterVec
	IndexFetchFailures prometheus.Counter
	RegistrationsFound prometheus.Histogram
}

// New registers the registry metrics with reg. A nil reg uses the default
// Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "typeindex_operations_total",
			Help: "Registry operations by operation and outcome",
		}, []string{"op", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "typeindex_operation_duration_seconds",
			Help:    "Duration of registry operations including remote calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op"}),
		StepFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "typeindex_remote_step_failures_total",
			Help: "Remote step failures by step",
		}, []string{"step"}),
		IndexFetchFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "typeindex_index_fetch_failures_total",
			Help: "Type index documents that could not be fetched during a load",
		}),
		RegistrationsFound: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "typeindex_registrations_found",
			Help:    "Registrations returned per query",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
	}
}

// ObserveOperation records the outcome and duration of op.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementStepFailure(step string) {
	m.StepFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) IncrementIndexFetchFailure() {
	m.IndexFetchFailures.Inc()
}

func (m *Metrics) ObserveRegistrationsFound(n int) {
	m.RegistrationsFound.Observe(float64(n))
}

package solidpod

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache results used as the "result" label.
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheStale = "stale"
)

// Metrics covers pod traffic: requests, conditional-request cache results
// and per-host circuit state.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheResults    *prometheus.CounterVec
	CircuitOpen     *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "typeindex_pod_requests_total",
			Help: "Requests sent to pods by operation and status",
		}, []string{"op", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "typeindex_pod_request_duration_seconds",
			Help:    "Pod request latency by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		CacheResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "typeindex_pod_cache_results_total",
			Help: "Document cache outcomes for fetches",
		}, []string{"result"}),
		CircuitOpen: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "typeindex_pod_circuit_open",
			Help: "1 while the circuit for a pod host is open",
		}, []string{"host"}),
	}
}

func (m *Metrics) observeRequest(op string, status int, start time.Time) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(op, label).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeCache(result string) {
	if m == nil {
		return
	}
	m.CacheResults.WithLabelValues(result).Inc()
}

func (m *Metrics) setCircuit(host string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.CircuitOpen.WithLabelValues(host).Set(v)
}

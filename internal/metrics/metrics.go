// Package metrics provides application-level metrics collection.
// Counters live on a private Prometheus registry so they can be gathered
// or exported without touching the default global registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "alphscan"

// Metrics holds application metrics.
type Metrics struct {
	registry *prometheus.Registry

	explorerRequests *prometheus.CounterVec
	explorerErrors   *prometheus.CounterVec
	explorerLatency  prometheus.Histogram

	addressesProbed prometheus.Counter
	activeFound     prometheus.Counter

	discoveryRuns     prometheus.Counter
	discoveryFailures prometheus.Counter
}

// Global is the global metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = New()

// New creates a metrics set registered on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		explorerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "explorer",
			Name:      "requests_total",
			Help:      "Explorer HTTP requests issued.",
		}, []string{"endpoint"}),
		explorerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "explorer",
			Name:      "request_errors_total",
			Help:      "Explorer HTTP requests that failed.",
		}, []string{"endpoint"}),
		explorerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "explorer",
			Name:      "request_duration_seconds",
			Help:      "Explorer HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		addressesProbed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "addresses_probed_total",
			Help:      "Addresses checked for on-chain activity.",
		}),
		activeFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "active_addresses_total",
			Help:      "Addresses found with on-chain activity.",
		}),
		discoveryRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "runs_total",
			Help:      "Discovery runs started.",
		}),
		discoveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "failures_total",
			Help:      "Discovery runs that returned an error.",
		}),
	}

	m.registry.MustRegister(
		m.explorerRequests,
		m.explorerErrors,
		m.explorerLatency,
		m.addressesProbed,
		m.activeFound,
		m.discoveryRuns,
		m.discoveryFailures,
	)

	return m
}

// Registry returns the registry holding all metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordExplorerCall records an explorer request with its duration and outcome.
func (m *Metrics) RecordExplorerCall(endpoint string, duration time.Duration, err error) {
	m.explorerRequests.WithLabelValues(endpoint).Inc()
	m.explorerLatency.Observe(duration.Seconds())
	if err != nil {
		m.explorerErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordProbe records a batch of addresses checked for activity.
func (m *Metrics) RecordProbe(probed, active int) {
	m.addressesProbed.Add(float64(probed))
	m.activeFound.Add(float64(active))
}

// RecordDiscoveryRun records a completed discovery run.
func (m *Metrics) RecordDiscoveryRun(err error) {
	m.discoveryRuns.Inc()
	if err != nil {
		m.discoveryFailures.Inc()
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	ExplorerRequests  int64   `json:"explorer_requests"`
	ExplorerErrors    int64   `json:"explorer_errors"`
	ExplorerLatencyMs float64 `json:"explorer_latency_avg_ms"`
	AddressesProbed   int64   `json:"addresses_probed"`
	ActiveFound       int64   `json:"active_found"`
	DiscoveryRuns     int64   `json:"discovery_runs"`
	DiscoveryFailures int64   `json:"discovery_failures"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ExplorerRequests:  int64(sumCounterVec(m.explorerRequests)),
		ExplorerErrors:    int64(sumCounterVec(m.explorerErrors)),
		ExplorerLatencyMs: m.ExplorerLatencyAvgMs(),
		AddressesProbed:   int64(counterValue(m.addressesProbed)),
		ActiveFound:       int64(counterValue(m.activeFound)),
		DiscoveryRuns:     int64(counterValue(m.discoveryRuns)),
		DiscoveryFailures: int64(counterValue(m.discoveryFailures)),
	}
}

// ExplorerLatencyAvgMs returns the average explorer latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) ExplorerLatencyAvgMs() float64 {
	var metric dto.Metric
	if err := m.explorerLatency.Write(&metric); err != nil {
		return 0
	}
	h := metric.GetHistogram()
	if h.GetSampleCount() == 0 {
		return 0
	}
	return h.GetSampleSum() / float64(h.GetSampleCount()) * 1e3
}

func counterValue(c prometheus.Counter) float64 {
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

func sumCounterVec(vec *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		vec.Collect(ch)
		close(ch)
	}()

	var total float64
	for m := range ch {
		var metric dto.Metric
		if err := m.Write(&metric); err == nil {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

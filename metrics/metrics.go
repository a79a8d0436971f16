// Package metrics exposes dashboard activity as Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spektr-org/pengdash/reactive"
)

const namespace = "pengdash"

// Metrics owns a registry and the collectors registered on it. A fresh
// registry per instance keeps tests independent of the global one.
type Metrics struct {
	reg *prometheus.Registry

	Recomputations *prometheus.CounterVec
	Suspensions    *prometheus.CounterVec
	FlushDuration  prometheus.Histogram
	Sessions       prometheus.Gauge
	Requests       *prometheus.CounterVec
	RecordsLoaded  prometheus.Gauge
}

// New creates the collectors. Go runtime and process collectors are
// registered too.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Recomputations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_recomputations_total",
			Help:      "Successful recomputations per graph node",
		}, []string{"node"}),
		Suspensions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_suspensions_total",
			Help:      "Recomputations withheld because a required input was missing",
		}, []string{"node"}),
		FlushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Duration of one recomputation cycle",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		Sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Dashboards currently held in the session cache",
		}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RecordsLoaded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Records in the loaded dataset",
		}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.Requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Hooks adapts m to the reactive graph's event sink.
func (m *Metrics) Hooks() reactive.Hooks { return graphHooks{m} }

type graphHooks struct{ m *Metrics }

func (h graphHooks) Recomputed(node string, _ time.Duration) {
	h.m.Recomputations.WithLabelValues(node).Inc()
}

func (h graphHooks) Suspended(node string) {
	h.m.Suspensions.WithLabelValues(node).Inc()
}

func (h graphHooks) Flushed(stats reactive.FlushStats) {
	h.m.FlushDuration.Observe(stats.Duration.Seconds())
}

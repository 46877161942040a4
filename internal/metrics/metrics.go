// Package metrics exposes Prometheus collectors for HTTP traffic, backend
// calls and ledger exports.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spendly"

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight   prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	backendCalls   *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	exports        *prometheus.CounterVec
}

// New creates collectors on a fresh registry. Process and Go runtime
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "path"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Total number of backend API calls.",
		}, []string{"method", "route", "status"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "Duration of backend API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"method", "route"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "messages_total",
			Help:      "Transaction events handled by the export worker.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(m.httpInFlight, m.httpRequests, m.httpDuration, m.backendCalls, m.backendLatency, m.exports)
	if withRuntime {
		m.Registry.MustRegister(
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			prometheus.NewGoCollector(),
		)
	}
	return m
}

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveBackendCall records one backend call. Status 0 means no response.
func (m *Metrics) ObserveBackendCall(method, route string, status int, d time.Duration) {
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.backendCalls.WithLabelValues(method, route, label).Inc()
	m.backendLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordExport counts one export outcome (acked, requeued, rejected).
func (m *Metrics) RecordExport(outcome string) {
	m.exports.WithLabelValues(outcome).Inc()
}

// InstrumentHandler wraps next with HTTP metrics collection.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// canonicalPath keeps label cardinality bounded: only the first segment is
// kept, and goal ids under /goals are collapsed.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch {
	case parts[0] == "goals" && len(parts) > 1:
		return "/goals/:id/" + parts[len(parts)-1]
	case parts[0] == "ui" && len(parts) > 1:
		return "/ui/" + parts[1]
	default:
		return "/" + parts[0]
	}
}

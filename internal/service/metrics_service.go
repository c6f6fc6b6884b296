package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "miqaat_rms"

// MetricsService owns the Prometheus registry of the API. A nil
// *MetricsService is valid and records nothing.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	httpInFlight prometheus.Gauge

	cacheLookups  *prometheus.CounterVec
	cacheLatency  *prometheus.HistogramVec
	cacheHitRatio prometheus.Gauge
	hits, misses  atomic.Uint64

	requestMutations *prometheus.CounterVec
	batchTransitions *prometheus.CounterVec
	auditJobs        *prometheus.CounterVec
}

// NewMetricsService registers the API collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving HTTP requests.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route", "code"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "code"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache reads by result.",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "operation_seconds",
			Help:      "Latency of cache reads and writes.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"op"}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "hit_ratio",
			Help:      "Share of cache reads served from Redis since start.",
		}),
		requestMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "request_mutations_total",
			Help:      "Request create, update and delete operations.",
		}, []string{"action"}),
		batchTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batch_transitions_total",
			Help:      "Batch lifecycle changes by resulting status.",
		}, []string{"status"}),
		auditJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "audit_jobs_total",
			Help:      "Audit log writes by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration, m.httpTotal, m.httpInFlight,
		m.cacheLookups, m.cacheLatency, m.cacheHitRatio,
		m.requestMutations, m.batchTransitions, m.auditJobs,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Registry is exposed for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format, or 503 when
// metrics are disabled.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// TrackInFlight marks a request as started and returns the func that marks
// it done.
func (m *MetricsService) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

// ObserveHTTPRequest records one served request under its route template.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, route, code).Inc()
}

// RecordCacheOperation counts a cache read and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	m.cacheLookups.WithLabelValues(result).Inc()

	hits, misses := m.hits.Load(), m.misses.Load()
	m.cacheHitRatio.Set(float64(hits) / float64(hits+misses))
}

// ObserveCacheWrite records the latency of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// RecordRequestMutation counts a request create, update or delete.
func (m *MetricsService) RecordRequestMutation(action string) {
	if m == nil {
		return
	}
	m.requestMutations.WithLabelValues(action).Inc()
}

// RecordBatchTransition counts a batch moving to status.
func (m *MetricsService) RecordBatchTransition(status string) {
	if m == nil {
		return
	}
	m.batchTransitions.WithLabelValues(status).Inc()
}

// RecordAuditJob counts a finished audit job by outcome.
func (m *MetricsService) RecordAuditJob(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.auditJobs.WithLabelValues(result).Inc()
}

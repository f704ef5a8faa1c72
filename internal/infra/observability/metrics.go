package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the budget API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	balanceRejections *prometheus.CounterVec
	writeConflicts    *prometheus.CounterVec
	requestsTotal     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "budget_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		balanceRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_balance_rejections_total",
				Help: "Total tracker mutations rejected because a balance would go negative.",
			},
			[]string{"tracker"},
		),
		writeConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_write_conflicts_total",
				Help: "Total tracker writes refused due to a concurrent update.",
			},
			[]string{"tracker"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrBalanceRejection counts a refused tracker mutation.
func (m *Metrics) IncrBalanceRejection(tracker string) {
	m.balanceRejections.WithLabelValues(tracker).Inc()
}

// IncrWriteConflict counts a stale-version tracker write.
func (m *Metrics) IncrWriteConflict(tracker string) {
	m.writeConflicts.WithLabelValues(tracker).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// CounterValue extracts the current float64 value from a CounterVec for a
// given label. Used by tests.
func CounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// BalanceRejections exposes the rejection counter for tests.
func (m *Metrics) BalanceRejections() *prometheus.CounterVec { return m.balanceRejections }

// WriteConflicts exposes the stale-write counter for tests.
func (m *Metrics) WriteConflicts() *prometheus.CounterVec { return m.writeConflicts }

// ExternalErrors exposes the external error counter for tests.
func (m *Metrics) ExternalErrors() *prometheus.CounterVec { return m.externalErrors }

// RequestsTotal exposes the request counter for tests.
func (m *Metrics) RequestsTotal() *prometheus.CounterVec { return m.requestsTotal }

// HTTPMetricsMiddleware counts every finished request by status code.
func HTTPMetricsMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			m.IncrRequest(strconv.Itoa(ww.Status()))
		})
	}
}

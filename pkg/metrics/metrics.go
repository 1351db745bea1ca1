package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated prometheus registry so its lifecycle is tied to
// the application instance rather than process-global state. All helpers are
// nil-safe, which lets tests run components without a registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	WebhookRequestsTotal *prometheus.CounterVec
	RequestLatency       prometheus.Histogram

	DatabaseQueriesTotal  *prometheus.CounterVec
	DatabaseQueryDuration *prometheus.HistogramVec

	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerRequests *prometheus.CounterVec
	CircuitBreakerFailures *prometheus.CounterVec

	RateLimitRequestsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests (count)",
			},
			[]string{"path", "status"},
		),
		WebhookRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_requests_total",
				Help: "Webhook processing outcomes (count)",
			},
			[]string{"result"},
		),
		RequestLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "request_latency_ms",
				Help:    "Request latency in milliseconds",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
		),
		DatabaseQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_queries_total",
				Help: "Total number of database queries (count)",
			},
			[]string{"operation", "status"},
		),
		DatabaseQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "database_query_duration_ms",
				Help:    "Duration of database queries in milliseconds",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
			[]string{"operation"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
			},
			[]string{"name"},
		),
		CircuitBreakerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_breaker_requests_total",
				Help: "Total number of requests through circuit breaker (count)",
			},
			[]string{"name", "state"},
		),
		CircuitBreakerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_breaker_failures_total",
				Help: "Total number of failures through circuit breaker (count)",
			},
			[]string{"name"},
		),
		RateLimitRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_requests_total",
				Help: "Total number of requests checked against rate limit (count)",
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.WebhookRequestsTotal,
		m.RequestLatency,
		m.DatabaseQueriesTotal,
		m.DatabaseQueryDuration,
		m.CircuitBreakerState,
		m.CircuitBreakerRequests,
		m.CircuitBreakerFailures,
		m.RateLimitRequestsTotal,
	)

	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTPRequest(path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(path, status).Inc()
	m.RequestLatency.Observe(float64(duration.Milliseconds()))
}

func (m *Metrics) IncWebhookResult(result string) {
	if m == nil {
		return
	}
	m.WebhookRequestsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncDatabaseQuery(operation, status string) {
	if m == nil {
		return
	}
	m.DatabaseQueriesTotal.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) ObserveDatabaseQueryDuration(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DatabaseQueryDuration.WithLabelValues(operation).Observe(float64(duration.Milliseconds()))
}

func (m *Metrics) SetCircuitBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) IncCircuitBreakerRequest(name, state string, success bool) {
	if m == nil {
		return
	}
	m.CircuitBreakerRequests.WithLabelValues(name, state).Inc()
	if !success {
		m.CircuitBreakerFailures.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) IncRateLimit(status string) {
	if m == nil {
		return
	}
	m.RateLimitRequestsTotal.WithLabelValues(status).Inc()
}

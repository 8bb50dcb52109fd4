// FILE: logvault/src/internal/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const namespace = "logvault"

// Metrics holds the service collectors on a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ingestedTotal   *prometheus.CounterVec
	authEvents      *prometheus.CounterVec
	queryResults    *prometheus.HistogramVec
}

// New registers all collectors, including Go runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ingestedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logs_ingested_total",
				Help:      "Log records stored, by level",
			},
			[]string{"level"},
		),
		authEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Registration, login and token verification outcomes",
			},
			[]string{"event", "result"},
		),
		queryResults: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_results",
				Help:      "Number of records returned per query",
				Buckets:   []float64{0, 1, 10, 100, 1000, 10000},
			},
			[]string{"endpoint"},
		),
	}
}

// ObserveRequest records one served request. path must be a route, not the raw URI.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// IncIngested counts a stored record
func (m *Metrics) IncIngested(level string) {
	if m == nil {
		return
	}
	if level == "" {
		level = "none"
	}
	m.ingestedTotal.WithLabelValues(level).Inc()
}

// AuthEvent counts an authentication outcome, e.g. ("login", "success")
func (m *Metrics) AuthEvent(event, result string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, result).Inc()
}

// ObserveQuery records the result size of a query endpoint
func (m *Metrics) ObserveQuery(endpoint string, results int) {
	if m == nil {
		return
	}
	m.queryResults.WithLabelValues(endpoint).Observe(float64(results))
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}),
	)
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

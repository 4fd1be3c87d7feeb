// Package metrics exposes Prometheus metrics for the catalogue service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Registry owns the collectors of one process. Tests create their own so
// metrics never collide across packages.
type Registry struct {
	registry *prometheus.Registry

	Catalogue *CatalogueMetrics
	HTTP      *HTTPMetrics
}

// NewRegistry creates a registry with the Go runtime and process collectors
// plus the service metrics
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		registry:  reg,
		Catalogue: NewCatalogueMetrics(reg),
		HTTP:      NewHTTPMetrics(reg),
	}
}

// Gatherer returns the underlying gatherer
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// CatalogueMetrics tracks document generation and delivery. A nil
// *CatalogueMetrics records nothing.
type CatalogueMetrics struct {
	documentsTotal     *prometheus.CounterVec
	renderDuration     *prometheus.HistogramVec
	documentBytes      *prometheus.HistogramVec
	itemsPerDocument   prometheus.Histogram
	emailsTotal        *prometheus.CounterVec
	recipientsRejected prometheus.Counter
	errorsTotal        *prometheus.CounterVec
}

// NewCatalogueMetrics registers the catalogue metrics on reg
func NewCatalogueMetrics(reg prometheus.Registerer) *CatalogueMetrics {
	factory := promauto.With(reg)
	return &CatalogueMetrics{
		documentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogue_documents_total",
				Help: "Total number of catalogue documents generated",
			},
			[]string{"kind", "outcome"},
		),
		renderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalogue_render_duration_seconds",
				Help:    "Duration of catalogue generation in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"kind"},
		),
		documentBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalogue_document_bytes",
				Help:    "Size of generated catalogue documents in bytes",
				Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
			},
			[]string{"kind"},
		),
		itemsPerDocument: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalogue_items_per_document",
				Help:    "Number of product blocks per generated document",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		emailsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogue_emails_total",
				Help: "Total number of catalogue share emails",
			},
			[]string{"outcome"},
		),
		recipientsRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "catalogue_recipients_rejected_total",
				Help: "Total number of syntactically invalid recipient addresses skipped",
			},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalogue_errors_total",
				Help: "Total number of failed catalogue requests by error kind",
			},
			[]string{"kind", "code"},
		),
	}
}

// ObserveDocument records a successful generation
func (m *CatalogueMetrics) ObserveDocument(kind string, items, size int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.documentsTotal.WithLabelValues(kind, OutcomeSuccess).Inc()
	m.renderDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	m.documentBytes.WithLabelValues(kind).Observe(float64(size))
	m.itemsPerDocument.Observe(float64(items))
}

// ObserveFailure records a failed request with its error code
func (m *CatalogueMetrics) ObserveFailure(kind, code string) {
	if m == nil {
		return
	}
	m.documentsTotal.WithLabelValues(kind, OutcomeFailure).Inc()
	m.errorsTotal.WithLabelValues(kind, code).Inc()
}

// ObserveEmail records a share attempt
func (m *CatalogueMetrics) ObserveEmail(outcome string, rejected int) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(outcome).Inc()
	if rejected > 0 {
		m.recipientsRejected.Add(float64(rejected))
	}
}

// HTTPMetrics tracks inbound HTTP requests
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP metrics on reg
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
	}
}

// Start marks a request as in flight
func (m *HTTPMetrics) Start() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// Observe records a finished request
func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.requestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

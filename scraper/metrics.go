package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the collector run.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	PagesTotal      prometheus.Counter
	RowsTotal       prometheus.Counter
	KeysTotal       *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hyrox_requests_total",
			Help: "Total HTTP requests issued, by endpoint kind.",
		},
		[]string{"kind"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hyrox_request_duration_seconds",
			Help:    "HTTP request latency, pacing delay excluded.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hyrox_result_pages_total",
			Help: "Total results pages parsed.",
		},
	)
	rows := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hyrox_rows_written_total",
			Help: "Total athlete rows appended to the results store.",
		},
	)
	keys := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hyrox_collection_keys_total",
			Help: "Collection keys by outcome (done, skipped, empty, failed).",
		},
		[]string{"outcome"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hyrox_errors_total",
			Help: "Total number of request errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, pages, rows, keys, errorsTotal)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		PagesTotal:      pages,
		RowsTotal:       rows,
		KeysTotal:       keys,
		ErrorsTotal:     errorsTotal,
	}
}

// IncRequest increments the requests counter for an endpoint kind.
func (m *Metrics) IncRequest(kind string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(kind).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPages increments the parsed pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// AddRows adds n written rows.
func (m *Metrics) AddRows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsTotal.Add(float64(n))
}

// IncKey counts a collection key outcome.
func (m *Metrics) IncKey(outcome string) {
	if m == nil {
		return
	}
	m.KeysTotal.WithLabelValues(outcome).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

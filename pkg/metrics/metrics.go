// Package metrics provides Prometheus metrics for export runs.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("orders")
//	timer := metrics.NewTimer("export")
//	err := runExport()
//	collector.RecordExport(err, timer.Stop(), writtenBytes)
//
// Metrics are registered on the default Prometheus registry and exposed
// through Handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// ExportsTotal counts finished exports.
	// Labels: export (export name), status (success/failure)
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongoextract_exports_total",
			Help: "Total number of finished exports",
		},
		[]string{"export", "status"},
	)

	// ExportDuration tracks how long a single mongoexport run takes
	ExportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mongoextract_export_duration_seconds",
			Help:    "Duration of export runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s .. ~17m
		},
		[]string{"export"},
	)

	// ExportedBytes tracks the size of the produced file
	ExportedBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mongoextract_exported_bytes",
			Help: "Size of the last exported file in bytes",
		},
		[]string{"export"},
	)

	// URIBuildFailures counts rejected connection configurations.
	// Labels: protocol (mongodb, mongodb+srv, custom_uri)
	URIBuildFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongoextract_uri_build_failures_total",
			Help: "Total number of connection configurations rejected while building the URI",
		},
		[]string{"protocol"},
	)

	// ConnectionChecks counts connection tests
	ConnectionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongoextract_connection_checks_total",
			Help: "Total number of connection tests",
		},
		[]string{"status"},
	)
)

// Collector records metrics for one export
type Collector struct {
	name string
}

// NewCollector creates a new metrics collector for an export
func NewCollector(name string) *Collector {
	return &Collector{name: name}
}

// RecordExport records the outcome of an export run
func (c *Collector) RecordExport(err error, duration time.Duration, bytes int64) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	ExportsTotal.WithLabelValues(c.name, status).Inc()
	ExportDuration.WithLabelValues(c.name).Observe(duration.Seconds())
	if err == nil {
		ExportedBytes.WithLabelValues(c.name).Set(float64(bytes))
	}
}

// RecordURIFailure counts a rejected connection configuration
func RecordURIFailure(protocol string) {
	URIBuildFailures.WithLabelValues(protocol).Inc()
}

// RecordConnectionCheck counts a connection test outcome
func RecordConnectionCheck(err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	ConnectionChecks.WithLabelValues(status).Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	name  string
	start time.Time
}

// NewTimer creates a new timer
func NewTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop returns the elapsed time
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Pipeline metrics
	NotificationsProcessed *prometheus.CounterVec
	DuplicatesSuppressed   prometheus.Counter
	ResolutionFailures     prometheus.Counter
	EnrichmentMisses       prometheus.Counter

	// Order metrics
	OrdersSubmitted *prometheus.CounterVec

	// Fan-out metrics
	WebhookDeliveries *prometheus.CounterVec

	// Latency metrics
	ExternalCallLatency *prometheus.HistogramVec
	PipelineDuration    prometheus.Histogram

	// Scan metrics
	ScanRunsTotal   *prometheus.CounterVec
	ListingsScanned prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "listing_radar"
	}

	return &Metrics{
		NotificationsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "notifications_processed_total",
			Help:      "Total number of notifications processed by exchange and status",
		}, []string{"exchange", "status"}),
		DuplicatesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duplicates_suppressed_total",
			Help:      "Total number of notifications suppressed by the dedup window",
		}),
		ResolutionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "resolution_failures_total",
			Help:      "Total number of token address resolution failures",
		}),
		EnrichmentMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "enrichment_misses_total",
			Help:      "Total number of runs with no market data available",
		}),
		OrdersSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "submitted_total",
			Help:      "Total number of open-position orders submitted by status",
		}, []string{"status"}),
		WebhookDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "webhook_deliveries_total",
			Help:      "Total number of webhook delivery attempts by status",
		}, []string{"status"}),
		ExternalCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_latency_seconds",
			Help:      "External service call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End-to-end pipeline run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ScanRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of exchange scan runs by source and status",
		}, []string{"source", "status"}),
		ListingsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "listings_total",
			Help:      "Total number of listings seen by scans",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordNotification records a processed notification outcome.
func RecordNotification(exchange, status string) {
	DefaultMetrics.NotificationsProcessed.WithLabelValues(exchange, status).Inc()
}

// RecordDuplicateSuppressed increments the dedup suppression counter.
func RecordDuplicateSuppressed() {
	DefaultMetrics.DuplicatesSuppressed.Inc()
}

// RecordResolutionFailure increments the resolution failure counter.
func RecordResolutionFailure() {
	DefaultMetrics.ResolutionFailures.Inc()
}

// RecordEnrichmentMiss increments the enrichment miss counter.
func RecordEnrichmentMiss() {
	DefaultMetrics.EnrichmentMisses.Inc()
}

// RecordOrderSubmitted records an order submission outcome.
func RecordOrderSubmitted(status string) {
	DefaultMetrics.OrdersSubmitted.WithLabelValues(status).Inc()
}

// RecordWebhookDelivery records one webhook delivery attempt outcome.
func RecordWebhookDelivery(status string) {
	DefaultMetrics.WebhookDeliveries.WithLabelValues(status).Inc()
}

// RecordExternalCall records external service call latency.
func RecordExternalCall(service string, seconds float64) {
	DefaultMetrics.ExternalCallLatency.WithLabelValues(service).Observe(seconds)
}

// RecordPipelineDuration records one pipeline run duration.
func RecordPipelineDuration(seconds float64) {
	DefaultMetrics.PipelineDuration.Observe(seconds)
}

// RecordScanRun records an exchange scan run outcome.
func RecordScanRun(source, status string) {
	DefaultMetrics.ScanRunsTotal.WithLabelValues(source, status).Inc()
}

// RecordListingsScanned adds to the scanned listings counter.
func RecordListingsScanned(n int) {
	DefaultMetrics.ListingsScanned.Add(float64(n))
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the author analytics service.
// Metrics are organized by subsystem: report builds, remote source requests,
// the fetch cache, network expansion, and the HTTP surface. All counters and
// histograms are registered via promauto for automatic registration with the
// default Prometheus registry.
type Metrics struct {
	// ReportsStarted counts the total number of report builds initiated.
	ReportsStarted prometheus.Counter

	// ReportsCompleted counts the total number of report builds that finished successfully.
	ReportsCompleted prometheus.Counter

	// ReportsFailed counts the total number of report builds that ended in failure.
	ReportsFailed prometheus.Counter

	// ReportDuration observes the end-to-end duration of report builds in seconds.
	ReportDuration prometheus.Histogram

	// SourceRequestsTotal counts HTTP requests to the record source, labeled by endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed requests to the record source, labeled by endpoint and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes record source request duration in seconds, labeled by endpoint.
	SourceRequestDuration *prometheus.HistogramVec

	// FetchTruncations counts paginated fetches that terminated early on a failed page, labeled by endpoint.
	FetchTruncations *prometheus.CounterVec

	// WorksFetched counts works returned by the record source, labeled by endpoint.
	WorksFetched *prometheus.CounterVec

	// CacheHits counts fetch-cache hits, labeled by operation.
	CacheHits *prometheus.CounterVec

	// CacheMisses counts fetch-cache misses, labeled by operation.
	CacheMisses *prometheus.CounterVec

	// CacheInvalidations counts explicit fetch-cache invalidations.
	CacheInvalidations prometheus.Counter

	// NetworkBuildDuration observes collaboration network build duration in seconds.
	NetworkBuildDuration prometheus.Histogram

	// NetworkNodes observes the node count of finalized collaboration networks.
	NetworkNodes prometheus.Histogram

	// NetworkEdges observes the edge count of finalized collaboration networks.
	NetworkEdges prometheus.Histogram

	// HTTPRequestsTotal counts HTTP API requests, labeled by method, route, and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP API request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Reports
		ReportsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_started_total",
			Help:      "Total number of report builds started",
		}),
		ReportsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_completed_total",
			Help:      "Total number of report builds completed successfully",
		}),
		ReportsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_failed_total",
			Help:      "Total number of report builds that failed",
		}),
		ReportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Duration of report builds in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		}),

		// Record source
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to the record source",
		}, []string{"endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to the record source",
		}, []string{"endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to the record source in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		FetchTruncations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_truncations_total",
			Help:      "Total number of paginated fetches truncated by a failed page",
		}, []string{"endpoint"}),
		WorksFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "works_fetched_total",
			Help:      "Total number of works returned by the record source",
		}, []string{"endpoint"}),

		// Fetch cache
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of fetch cache hits",
		}, []string{"operation"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of fetch cache misses",
		}, []string{"operation"}),
		CacheInvalidations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Total number of explicit fetch cache invalidations",
		}),

		// Network expansion
		NetworkBuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "network_build_duration_seconds",
			Help:      "Duration of collaboration network builds in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		NetworkNodes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "network_nodes",
			Help:      "Node count of finalized collaboration networks",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		NetworkEdges: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "network_edges",
			Help:      "Edge count of finalized collaboration networks",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),

		// HTTP surface
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP API requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"method", "route"}),
	}
}

// RecordReportStarted records that a report build has started.
func (m *Metrics) RecordReportStarted() {
	m.ReportsStarted.Inc()
}

// RecordReportCompleted records that a report build has completed.
func (m *Metrics) RecordReportCompleted(durationSeconds float64) {
	m.ReportsCompleted.Inc()
	m.ReportDuration.Observe(durationSeconds)
}

// RecordReportFailed records that a report build has failed.
func (m *Metrics) RecordReportFailed(durationSeconds float64) {
	m.ReportsFailed.Inc()
	m.ReportDuration.Observe(durationSeconds)
}

// RecordSourceRequest records a request to the record source.
func (m *Metrics) RecordSourceRequest(endpoint string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to the record source.
func (m *Metrics) RecordSourceRequestFailed(endpoint, errorType string) {
	m.SourceRequestsFailed.WithLabelValues(endpoint, errorType).Inc()
}

// RecordFetchTruncation records a paginated fetch cut short by a failed page.
func (m *Metrics) RecordFetchTruncation(endpoint string) {
	m.FetchTruncations.WithLabelValues(endpoint).Inc()
}

// RecordWorksFetched records works returned by the record source.
func (m *Metrics) RecordWorksFetched(endpoint string, count int) {
	m.WorksFetched.WithLabelValues(endpoint).Add(float64(count))
}

// RecordCacheHit records a fetch cache hit.
func (m *Metrics) RecordCacheHit(operation string) {
	m.CacheHits.WithLabelValues(operation).Inc()
}

// RecordCacheMiss records a fetch cache miss.
func (m *Metrics) RecordCacheMiss(operation string) {
	m.CacheMisses.WithLabelValues(operation).Inc()
}

// RecordCacheInvalidation records explicit cache invalidations.
func (m *Metrics) RecordCacheInvalidation(count int) {
	m.CacheInvalidations.Add(float64(count))
}

// RecordNetworkBuild records the size and duration of a finalized network build.
func (m *Metrics) RecordNetworkBuild(nodes, edges int, durationSeconds float64) {
	m.NetworkBuildDuration.Observe(durationSeconds)
	m.NetworkNodes.Observe(float64(nodes))
	m.NetworkEdges.Observe(float64(edges))
}

// RecordHTTPRequest records an HTTP API request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

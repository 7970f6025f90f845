// Package metrics provides Prometheus metrics for the ranking service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scan pipeline
	recordsScanned     prometheus.Counter
	recordsSkipped     *prometheus.CounterVec
	dateConflicts      prometheus.Counter
	collectionsScanned prometheus.Counter
	collectionFailures prometheus.Counter
	scanDuration       prometheus.Histogram

	// Aggregation
	aggregationDuration prometheus.Histogram
	rankingSize         prometheus.Gauge

	// Ranking cache
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheBypasses  prometheus.Counter
	inflightCompts prometheus.Gauge

	// Identity registry
	registryLookupErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Skip reasons recorded on records_skipped_total.
const (
	SkipReasonNoDate      = "no_date"
	SkipReasonNoScore     = "no_score"
	SkipReasonOutOfWindow = "out_of_window"
)

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry avoids the default Go runtime collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ranking",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		}
	}

	m.recordsScanned = prometheus.NewCounter(factory(
		"records_scanned_total", "Sale records fetched across all collections."))
	m.recordsSkipped = prometheus.NewCounterVec(factory(
		"records_skipped_total", "Sale records excluded from aggregation, by reason."),
		[]string{"reason"})
	m.dateConflicts = prometheus.NewCounter(factory(
		"date_conflicts_total", "Records whose lower-priority date fields disagree with the winning field."))
	m.collectionsScanned = prometheus.NewCounter(factory(
		"collections_scanned_total", "Collections queried during scans."))
	m.collectionFailures = prometheus.NewCounter(factory(
		"collection_failures_total", "Collections that failed to respond during scans."))
	m.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scan_duration_ms",
		Help:      "End-to-end collection scan latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.aggregationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_duration_ms",
		Help:      "Aggregation (accumulate plus merge plus sort) latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
	m.rankingSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_entries",
		Help:      "Entry count of the most recently computed ranking.",
	})
	m.cacheHits = prometheus.NewCounter(factory(
		"cache_hits_total", "Ranking cache hits."))
	m.cacheMisses = prometheus.NewCounter(factory(
		"cache_misses_total", "Ranking cache misses."))
	m.cacheBypasses = prometheus.NewCounter(factory(
		"cache_bypass_total", "Ranking cache bypasses from debug requests."))
	m.inflightCompts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inflight_computations",
		Help:      "Ranking computations currently running.",
	})
	m.registryLookupErrors = prometheus.NewCounter(factory(
		"registry_lookup_failures_total", "Identity registry lookups that errored."))
	m.httpRequests = prometheus.NewCounterVec(factory(
		"http_requests_total", "HTTP requests by endpoint, method and status."),
		[]string{"endpoint", "method", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})

	m.registry.MustRegister(
		m.recordsScanned, m.recordsSkipped, m.dateConflicts,
		m.collectionsScanned, m.collectionFailures, m.scanDuration,
		m.aggregationDuration, m.rankingSize,
		m.cacheHits, m.cacheMisses, m.cacheBypasses, m.inflightCompts,
		m.registryLookupErrors,
		m.httpRequests, m.httpRequestDuration,
	)

	return m
}

// Handler exposes the custom registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// Package-level helpers delegating to the global manager.

func RecordRecordsScanned(n int) { globalManager.recordsScanned.Add(float64(n)) }

func RecordRecordSkipped(reason string, n int) {
	globalManager.recordsSkipped.WithLabelValues(reason).Add(float64(n))
}

func RecordDateConflicts(n int) { globalManager.dateConflicts.Add(float64(n)) }

func RecordCollectionScanned() { globalManager.collectionsScanned.Inc() }

func RecordCollectionFailure() { globalManager.collectionFailures.Inc() }

func ObserveScanDuration(ms float64) { globalManager.scanDuration.Observe(ms) }

func ObserveAggregationDuration(ms float64) { globalManager.aggregationDuration.Observe(ms) }

func UpdateRankingSize(n int) { globalManager.rankingSize.Set(float64(n)) }

func RecordCacheHit() { globalManager.cacheHits.Inc() }

func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

func RecordCacheBypass() { globalManager.cacheBypasses.Inc() }

func IncInflightComputations() { globalManager.inflightCompts.Inc() }

func DecInflightComputations() { globalManager.inflightCompts.Dec() }

func RecordRegistryLookupFailure() { globalManager.registryLookupErrors.Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func ObserveHTTPRequestDuration(endpoint, method string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(ms)
}

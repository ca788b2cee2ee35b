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
	// Scanner metrics
	ScansTotal         *prometheus.CounterVec
	ScanDuration       prometheus.Histogram
	CandidatesSurfaced *prometheus.CounterVec
	SeenMints          prometheus.Gauge

	// Feed metrics
	FeedRequests *prometheus.CounterVec
	CacheLookups *prometheus.CounterVec

	// Enrichment metrics
	EnrichmentFailures *prometheus.CounterVec
	RPCCallLatency     *prometheus.HistogramVec

	// Delivery metrics
	StreamClients    prometheus.Gauge
	CandidatesPushed prometheus.Counter
	SubscriberPanics prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "graduation_scanner"
	}

	return &Metrics{
		// Scanner metrics
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "scans_total",
			Help:      "Total number of scans by outcome",
		}, []string{"status"}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "scan_duration_seconds",
			Help:      "Scan duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CandidatesSurfaced: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "candidates_total",
			Help:      "Total number of candidates surfaced by filter outcome",
		}, []string{"outcome"}),
		SeenMints: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "seen_mints",
			Help:      "Number of mints in the seen set",
		}),

		// Feed metrics
		FeedRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "requests_total",
			Help:      "Total number of pair feed requests by operation and status",
		}, []string{"op", "status"}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "cache_lookups_total",
			Help:      "Total number of pair cache lookups by result",
		}, []string{"result"}),

		// Enrichment metrics
		EnrichmentFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "failures_total",
			Help:      "Total number of failed holder lookups by lookup",
		}, []string{"lookup"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Delivery metrics
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Number of connected WebSocket clients",
		}),
		CandidatesPushed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "candidates_pushed_total",
			Help:      "Total number of candidates broadcast to WebSocket clients",
		}),
		SubscriberPanics: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "subscriber_panics_total",
			Help:      "Total number of recovered subscriber panics",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last scan that reached the feed",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScan records a finished scan.
func RecordScan(status string, durationSeconds float64) {
	DefaultMetrics.ScansTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
}

// RecordCandidate increments the surfaced candidates counter.
func RecordCandidate(passes bool) {
	outcome := "failed"
	if passes {
		outcome = "passed"
	}
	DefaultMetrics.CandidatesSurfaced.WithLabelValues(outcome).Inc()
}

// UpdateSeenMints updates the seen set size gauge.
func UpdateSeenMints(n int) {
	DefaultMetrics.SeenMints.Set(float64(n))
}

// RecordFeedRequest records one pair feed request.
func RecordFeedRequest(op, status string) {
	DefaultMetrics.FeedRequests.WithLabelValues(op, status).Inc()
}

// RecordCacheLookup records a pair cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(result).Inc()
}

// RecordEnrichmentFailure records a failed holder lookup.
func RecordEnrichmentFailure(lookup string) {
	DefaultMetrics.EnrichmentFailures.WithLabelValues(lookup).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// UpdateStreamClients updates the connected WebSocket clients gauge.
func UpdateStreamClients(n int) {
	DefaultMetrics.StreamClients.Set(float64(n))
}

// RecordCandidatePushed increments the broadcast counter.
func RecordCandidatePushed() {
	DefaultMetrics.CandidatesPushed.Inc()
}

// RecordSubscriberPanic increments the recovered subscriber panic counter.
func RecordSubscriberPanic() {
	DefaultMetrics.SubscriberPanics.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// MarkScanSuccess records the time of the last scan that reached the feed.
func MarkScanSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulScan.Set(float64(unixSeconds))
}

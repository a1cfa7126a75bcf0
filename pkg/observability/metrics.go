package observability

import (
	"net/http"
	"strconv"
	"time"

	pkgerrors "twinklepod/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the stores, the library handler and the HTTP layer report to.
// Collector serves it for scraping; CloudWatchMetrics pushes it.
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordStoreOperation(operation string, duration time.Duration, err error)
	RecordLibrary(candidates, entries int, partial bool)
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = (*CloudWatchMetrics)(nil)
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Library metrics
	LibraryRequests   *prometheus.CounterVec
	LibraryCandidates prometheus.Histogram
}

// NewCollector creates a collector with its own registry, so tests can
// build as many as they need
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Store operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LibraryRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "library_requests_total",
				Help:      "Library assemblies, by whether the result was partial",
			},
			[]string{"partial"},
		),
		LibraryCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "library_candidates",
				Help:      "Stories considered per library assembly",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreOperations,
		c.StoreDuration,
		c.LibraryRequests,
		c.LibraryCandidates,
	)
	return c
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordStoreOperation records one store call
func (c *Collector) RecordStoreOperation(operation string, duration time.Duration, err error) {
	c.StoreOperations.WithLabelValues(operation, storeStatus(err)).Inc()
	c.StoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLibrary records one library assembly
func (c *Collector) RecordLibrary(candidates, entries int, partial bool) {
	c.LibraryRequests.WithLabelValues(strconv.FormatBool(partial)).Inc()
	c.LibraryCandidates.Observe(float64(candidates))
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func storeStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case pkgerrors.IsDeadline(err):
		return "deadline"
	default:
		return "error"
	}
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPCollector exposes Prometheus metrics for inbound HTTP requests and
// indexing runs.
type HTTPCollector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	itemsIndexed *prometheus.CounterVec
	itemsSkipped *prometheus.CounterVec
	itemsErrored *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runFailures  *prometheus.CounterVec
}

// NewHTTPCollector constructs a collector with default histograms/counters.
func NewHTTPCollector() (*HTTPCollector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agentverse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentverse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	itemsIndexed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentverse",
		Subsystem: "indexer",
		Name:      "items_indexed_total",
		Help:      "Content items written to the catalog, by platform.",
	}, []string{"platform"})

	itemsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentverse",
		Subsystem: "indexer",
		Name:      "items_skipped_total",
		Help:      "Duplicate content items skipped, by platform.",
	}, []string{"platform"})

	itemsErrored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentverse",
		Subsystem: "indexer",
		Name:      "items_errored_total",
		Help:      "Content items that failed to normalize or persist, by platform.",
	}, []string{"platform"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agentverse",
		Subsystem: "indexer",
		Name:      "run_duration_seconds",
		Help:      "Duration of indexing runs, by platform.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"platform"})

	runFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentverse",
		Subsystem: "indexer",
		Name:      "run_failures_total",
		Help:      "Indexing runs that failed atomically, by platform.",
	}, []string{"platform"})

	collectors := []prometheus.Collector{
		requestDuration, requestTotal,
		itemsIndexed, itemsSkipped, itemsErrored,
		runDuration, runFailures,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &HTTPCollector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		itemsIndexed:    itemsIndexed,
		itemsSkipped:    itemsSkipped,
		itemsErrored:    itemsErrored,
		runDuration:     runDuration,
		runFailures:     runFailures,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *HTTPCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRun records the outcome of one indexing run.
func (c *HTTPCollector) ObserveRun(platform string, indexed, skipped, errored int, duration time.Duration, failed bool) {
	c.itemsIndexed.WithLabelValues(platform).Add(float64(indexed))
	c.itemsSkipped.WithLabelValues(platform).Add(float64(skipped))
	c.itemsErrored.WithLabelValues(platform).Add(float64(errored))
	c.runDuration.WithLabelValues(platform).Observe(duration.Seconds())
	if failed {
		c.runFailures.WithLabelValues(platform).Inc()
	}
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *HTTPCollector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

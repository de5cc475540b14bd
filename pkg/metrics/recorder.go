// Package metrics provides the Prometheus-backed implementation of the
// observability hooks the rest of the service depends on: HTTP request
// instrumentation for the gin middleware chain and the engine.Recorder
// hook the solver calls on every backtrack.
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder registers the core Prometheus collectors for the service and
// satisfies engine.Recorder so a solve run can report backtracks without
// the engine importing anything beyond its own package.
type Recorder struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	solveDuration  prometheus.Histogram
	solveTotal     *prometheus.CounterVec
	backtrackTotal prometheus.Counter
	assignmentRate prometheus.Gauge

	cacheLatency  prometheus.Observer
	cacheWrite    prometheus.Observer
	cacheHitRatio prometheus.Gauge
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewRecorder builds and registers every collector.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_solve_duration_seconds",
		Help:    "Duration of a timetable solve run",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_solve_total",
		Help: "Total solve runs by outcome status",
	}, []string{"status"})

	backtrackTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_solve_backtracks_total",
		Help: "Total backtrack steps taken across every solve run",
	})

	assignmentRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_last_assignment_rate",
		Help: "Fraction of grid slots filled by the most recent solve run",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache read operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache write operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	registry.MustRegister(requestDuration, requestTotal, solveDuration, solveTotal, backtrackTotal, assignmentRate,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses)

	return &Recorder{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		solveTotal:      solveTotal,
		backtrackTotal:  backtrackTotal,
		assignmentRate:  assignmentRate,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// ObserveHTTPRequest records one completed HTTP request.
func (r *Recorder) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	r.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	r.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveBacktrack implements engine.Recorder: called once per backtrack
// step by the solver.
func (r *Recorder) ObserveBacktrack() {
	if r == nil {
		return
	}
	r.backtrackTotal.Inc()
}

// RecordCacheOperation records a cache hit/miss and updates the rolling hit ratio.
func (r *Recorder) RecordCacheOperation(hit bool, duration time.Duration) {
	if r == nil {
		return
	}
	r.cacheLatency.Observe(duration.Seconds())
	if hit {
		r.cacheHits.Inc()
		atomic.AddUint64(&r.cacheHitCount, 1)
	} else {
		r.cacheMisses.Inc()
		atomic.AddUint64(&r.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&r.cacheHitCount)
	misses := atomic.LoadUint64(&r.cacheMissCount)
	if total := hits + misses; total > 0 {
		r.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of a cache write.
func (r *Recorder) ObserveCacheWrite(duration time.Duration) {
	if r == nil {
		return
	}
	r.cacheWrite.Observe(duration.Seconds())
}

// ObserveSolve records the outcome of one completed Solve call.
func (r *Recorder) ObserveSolve(status string, duration time.Duration, assignmentRate float64) {
	if r == nil {
		return
	}
	r.solveDuration.Observe(duration.Seconds())
	r.solveTotal.WithLabelValues(status).Inc()
	r.assignmentRate.Set(assignmentRate)
}

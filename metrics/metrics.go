// Package metrics exposes Prometheus metrics for the request pool, the cache
// slots, the guestbook limiter and the HTTP handlers.
//
// A Collector owns its registry so several can coexist in one process (tests,
// multiple servers). It implements the observer interfaces of pool, cache and
// ratelimit, so wiring is a matter of passing it as an option.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teranos/homepage/cache"
	"github.com/teranos/homepage/pool"
	"github.com/teranos/homepage/ratelimit"
)

const namespace = "homepage"

// Collector holds every homepage metric
type Collector struct {
	registry *prometheus.Registry

	// Pool
	jobsQueued   prometheus.Counter
	jobsFinished *prometheus.CounterVec // outcome: ok, panic
	jobLatency   prometheus.Histogram
	jobsPending  prometheus.Gauge
	jobsInFlight prometheus.Gauge

	// Cache
	cacheResults *prometheus.CounterVec // slot, result

	// Rate limiter
	rateDecisions *prometheus.CounterVec // decision: allowed, denied

	// HTTP
	requests        *prometheus.CounterVec   // method, route, status
	requestDuration *prometheus.HistogramVec // method, route
}

// NewCollector creates a collector with its own registry, including the Go
// runtime and process collectors
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_jobs_queued_total",
			Help:      "Total number of request jobs submitted to the worker pool",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_jobs_finished_total",
			Help:      "Total number of request jobs run to completion, by outcome",
		}, []string{"outcome"}),
		jobLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pool_job_duration_seconds",
			Help:      "Time a worker spent executing a job",
			Buckets:   prometheus.DefBuckets,
		}),
		jobsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_jobs_pending",
			Help:      "Current number of jobs waiting for a worker",
		}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_jobs_in_flight",
			Help:      "Current number of jobs being executed",
		}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache slot lookups by slot and result (hit, refresh, stale, miss)",
		}, []string{"slot", "result"}),
		rateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Guestbook rate limiter decisions",
		}, []string{"decision"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency including time queued for a worker",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.jobsQueued,
		c.jobsFinished,
		c.jobLatency,
		c.jobsPending,
		c.jobsInFlight,
		c.cacheResults,
		c.rateDecisions,
		c.requests,
		c.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

var (
	_ pool.Observer      = (*Collector)(nil)
	_ cache.Observer     = (*Collector)(nil)
	_ ratelimit.Observer = (*Collector)(nil)
)

// JobQueued implements pool.Observer
func (c *Collector) JobQueued(pending int) {
	c.jobsQueued.Inc()
	c.jobsPending.Set(float64(pending))
}

// JobStarted implements pool.Observer
func (c *Collector) JobStarted(pending int) {
	c.jobsPending.Set(float64(pending))
	c.jobsInFlight.Inc()
}

// JobFinished implements pool.Observer
func (c *Collector) JobFinished(duration time.Duration, panicked bool) {
	c.jobsInFlight.Dec()
	c.jobLatency.Observe(duration.Seconds())
	outcome := "ok"
	if panicked {
		outcome = "panic"
	}
	c.jobsFinished.WithLabelValues(outcome).Inc()
}

// CacheResult implements cache.Observer
func (c *Collector) CacheResult(slot string, result cache.Result) {
	c.cacheResults.WithLabelValues(slot, string(result)).Inc()
}

// RateLimitDecision implements ratelimit.Observer
func (c *Collector) RateLimitDecision(allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	c.rateDecisions.WithLabelValues(decision).Inc()
}

// ObserveRequest records one served HTTP request. route is the matched
// pattern, never the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackIdentities exports the number of identities the in-memory limiter
// remembers. The map never shrinks, so this is the place to watch its growth.
func (c *Collector) TrackIdentities(count func() int) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ratelimit_identities",
		Help:      "Identities tracked by the in-memory guestbook rate limiter",
	}, func() float64 { return float64(count()) }))
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

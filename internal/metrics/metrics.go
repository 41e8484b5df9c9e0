// Package metrics exports Prometheus collectors for agent invocations, ticker
// outcomes and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aristath/hedgefund/internal/events"
)

const namespace = "hedgefund"

// Collector owns a private registry so tests can build as many as they like
type Collector struct {
	registry *prometheus.Registry

	agentInvocations *prometheus.CounterVec
	agentLatency     *prometheus.HistogramVec
	tickers          *prometheus.CounterVec
	decisions        *prometheus.CounterVec
	batches          prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// New creates a collector with Go runtime and process collectors registered
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		agentInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_invocations_total",
				Help:      "Total number of agent invocations",
			},
			[]string{"agent", "status"}, // status: success|kind of failure
		),
		agentLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "agent_latency_seconds",
				Help:      "Agent invocation latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"agent"},
		),
		tickers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tickers_total",
				Help:      "Tickers processed by outcome",
			},
			[]string{"outcome"}, // outcome: analyzed|skipped
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "portfolio_decisions_total",
				Help:      "Portfolio decisions by action",
			},
			[]string{"action"},
		),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_batches_total",
			Help:      "Completed multi-ticker analysis requests",
		}),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.agentInvocations,
		c.agentLatency,
		c.tickers,
		c.decisions,
		c.batches,
		c.httpRequests,
		c.httpDuration,
		c.httpInFlight,
	)

	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Subscribe feeds pipeline events into the collectors
func (c *Collector) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.AgentSucceeded, func(e events.Event) {
		if d, ok := e.Data.(*events.AgentSucceededData); ok {
			c.RecordAgent(d.AgentID, "success", d.Duration)
		}
	})
	bus.Subscribe(events.AgentFailed, func(e events.Event) {
		if d, ok := e.Data.(*events.AgentFailedData); ok {
			c.RecordAgent(d.AgentID, d.Kind, d.Duration)
		}
	})
	bus.Subscribe(events.TickerAnalyzed, func(events.Event) {
		c.tickers.WithLabelValues("analyzed").Inc()
	})
	bus.Subscribe(events.TickerSkipped, func(events.Event) {
		c.tickers.WithLabelValues("skipped").Inc()
	})
	bus.Subscribe(events.PortfolioDecisionMade, func(e events.Event) {
		if d, ok := e.Data.(*events.PortfolioDecisionData); ok {
			c.decisions.WithLabelValues(d.Action).Inc()
		}
	})
	bus.Subscribe(events.PortfolioDecisionFailed, func(events.Event) {
		c.decisions.WithLabelValues("failed").Inc()
	})
	bus.Subscribe(events.BatchCompleted, func(events.Event) {
		c.batches.Inc()
	})
}

// RecordAgent records one agent invocation
func (c *Collector) RecordAgent(agentID, status string, d time.Duration) {
	c.agentInvocations.WithLabelValues(agentID, status).Inc()
	c.agentLatency.WithLabelValues(agentID).Observe(d.Seconds())
}

// Middleware records request counts and latency labelled by the chi route
// pattern, keeping label cardinality bounded
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		c.httpInFlight.Inc()
		defer c.httpInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

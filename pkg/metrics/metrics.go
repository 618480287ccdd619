// Package metrics exposes Prometheus metrics for the HTTP server and pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry and every collector. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Counters
	requests    *prometheus.CounterVec
	compiles    *prometheus.CounterVec
	renders     *prometheus.CounterVec
	shares      *prometheus.CounterVec
	diagnostics *prometheus.CounterVec

	// Gauges
	renderCache prometheus.GaugeFunc

	// Latency histograms
	requestLatency *prometheus.HistogramVec
	compileLatency prometheus.Histogram
	renderLatency  *prometheus.HistogramVec
}

// New creates a Metrics with its own registry. cacheLen, when not nil,
// reports the number of cached renders.
func New(cacheLen func() int) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decviz_http_requests_total",
				Help: "number of HTTP requests by route and status code",
			},
			[]string{"route", "method", "code"},
		),
		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decviz_compiles_total",
				Help: "number of programs compiled to DOT, by whether any node was produced",
			},
			[]string{"result"},
		),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decviz_renders_total",
				Help: "number of Graphviz renders by engine and outcome",
			},
			[]string{"engine", "result"},
		),
		shares: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decviz_shares_total",
				Help: "number of share store operations by kind and outcome",
			},
			[]string{"op", "result"},
		),
		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decviz_diagnostics_total",
				Help: "number of diagnostics reported by code",
			},
			[]string{"code"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "decviz_http_request_duration_seconds",
				Help:    "latency of HTTP requests by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		compileLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "decviz_compile_duration_seconds",
				Help:    "latency to parse, evaluate and compile a program",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		renderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "decviz_render_duration_seconds",
				Help:    "latency of Graphviz renders by engine",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"engine"},
		),
	}

	m.registry = prometheus.NewPedanticRegistry()
	reg := m.registry

	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	reg.MustRegister(m.requests)
	reg.MustRegister(m.compiles)
	reg.MustRegister(m.renders)
	reg.MustRegister(m.shares)
	reg.MustRegister(m.diagnostics)
	reg.MustRegister(m.requestLatency)
	reg.MustRegister(m.compileLatency)
	reg.MustRegister(m.renderLatency)

	if cacheLen != nil {
		m.renderCache = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "decviz_render_cache_entries",
				Help: "number of SVG renders currently cached",
			},
			func() float64 {
				return float64(cacheLen())
			},
		)
		reg.MustRegister(m.renderCache)
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, statusLabel(code)).Inc()
	m.requestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveCompile records one compilation and the codes of its diagnostics.
func (m *Metrics) ObserveCompile(hasNodes bool, codes []string, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "empty"
	if hasNodes {
		result = "graph"
	}
	m.compiles.WithLabelValues(result).Inc()
	m.compileLatency.Observe(elapsed.Seconds())
	for _, code := range codes {
		m.diagnostics.WithLabelValues(code).Inc()
	}
}

// ObserveRender records one render attempt.
func (m *Metrics) ObserveRender(engine string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	if engine == "" {
		engine = "default"
	}
	m.renders.WithLabelValues(engine, outcome(err)).Inc()
	m.renderLatency.WithLabelValues(engine).Observe(elapsed.Seconds())
}

// ObserveShare records one share store operation, "save" or "load".
func (m *Metrics) ObserveShare(op string, err error) {
	if m == nil {
		return
	}
	m.shares.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

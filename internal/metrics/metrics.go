// Package metrics exposes prometheus collectors for calculator calls and
// the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/njchilds90/latexcalc"
)

// Metrics holds all prometheus collectors. It implements
// latexcalc.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// Calculator metrics
	Calls        *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
	RateLimited     prometheus.Counter
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latexcalc_calls_total",
				Help: "Calculator calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		CallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latexcalc_call_duration_seconds",
				Help:    "Calculator call duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latexcalc_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latexcalc_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		InFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "latexcalc_http_requests_in_flight",
				Help: "HTTP requests currently being served",
			},
		),
		RateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Name: "latexcalc_http_rate_limited_total",
				Help: "HTTP requests rejected by the rate limiter",
			},
		),
	}
}

// Observe records one calculator call. The outcome is "ok" or the error
// kind, e.g. "parse_error".
func (m *Metrics) Observe(op string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = latexcalc.KindOf(err).String()
	}
	m.Calls.WithLabelValues(op, outcome).Inc()
	m.CallDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveHTTP records one HTTP request. route is the chi route pattern, not
// the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

var _ latexcalc.Observer = (*Metrics)(nil)

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "pibench"

	// RequestCounter counts handled requests by status code and method.
	RequestCounter = "requests_total"

	// RequestDuration is the handler latency histogram.
	RequestDuration = "request_duration_seconds"

	// InFlight is the number of requests currently being served.
	InFlight = "requests_in_flight"

	// Iterations is the histogram of series terms requested per computation.
	Iterations = "iterations"
)

// Measures groups the collectors used to instrument the pi endpoint.
type Measures struct {
	registry        *prometheus.Registry
	InFlight        prometheus.Gauge
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Iterations      prometheus.Histogram
}

// NewMeasures creates the measures and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func NewMeasures() *Measures {
	m := &Measures{
		registry: prometheus.NewRegistry(),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      InFlight,
			Help:      "The number of in-flight pi requests",
		}),
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      RequestCounter,
			Help:      "The count of pi requests by response code and method",
		}, []string{"code", "method"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      RequestDuration,
			Help:      "The durations of pi requests",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"method"}),
		Iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      Iterations,
			Help:      "The number of series terms requested per computation",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 9),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.InFlight,
		m.RequestCounter,
		m.RequestDuration,
		m.Iterations,
	)
	return m
}

// Instrument decorates next with the in-flight gauge, request counter and
// duration histogram.
func (m *Measures) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(m.InFlight,
		promhttp.InstrumentHandlerCounter(m.RequestCounter,
			promhttp.InstrumentHandlerDuration(m.RequestDuration, next)))
}

// ObserveIterations records the iteration count of one computation.
func (m *Measures) ObserveIterations(n int) {
	m.Iterations.Observe(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Measures) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry backing these measures.
func (m *Measures) Registry() *prometheus.Registry {
	return m.registry
}

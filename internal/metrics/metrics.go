// Package metrics owns the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector groups every metric the service exports on a private registry,
// so tests can build as many collectors as they like without clashing.
type Collector struct {
	reg *prometheus.Registry

	HTTPRequests *prometheus.CounterVec   // method, route, status
	HTTPDuration *prometheus.HistogramVec // method, route

	Imports            *prometheus.CounterVec // result: ok|error
	ImportedDepartures prometheus.Counter

	EventsPublished *prometheus.CounterVec // result: ok|error
	NATSConnected   prometheus.Gauge
}

// NewCollector builds and registers all collectors, plus the Go runtime and
// process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busboard_http_requests_total",
			Help: "HTTP requests served, by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "busboard_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}, []string{"method", "route"}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busboard_imports_total",
			Help: "Timetable imports by result.",
		}, []string{"result"}),
		ImportedDepartures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busboard_imported_departures_total",
			Help: "Departures inserted by committed imports.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "busboard_events_published_total",
			Help: "Schedule change events published, by result.",
		}, []string{"result"}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busboard_nats_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.Imports, c.ImportedDepartures,
		c.EventsPublished, c.NATSConnected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ImportObserved records the outcome of one timetable import.
func (c *Collector) ImportObserved(ok bool, inserted int64) {
	if !ok {
		c.Imports.WithLabelValues("error").Inc()
		return
	}
	c.Imports.WithLabelValues("ok").Inc()
	c.ImportedDepartures.Add(float64(inserted))
}

// EventPublished records one publish attempt.
func (c *Collector) EventPublished(err error) {
	if err != nil {
		c.EventsPublished.WithLabelValues("error").Inc()
		return
	}
	c.EventsPublished.WithLabelValues("ok").Inc()
}

// NATSSetConnected tracks the publisher's connection state.
func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
		return
	}
	c.NATSConnected.Set(0)
}

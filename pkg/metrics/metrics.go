// Package metrics exposes the Prometheus instruments of the shipping service.
// Every method is safe on a nil *Metrics so callers can run without metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Circuit breaker state values reported by SetCircuitBreakerState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

var (
	httpBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	carrierBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30}
	outboxBuckets  = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
)

type Config struct {
	ServiceName string
	Namespace   string
}

func DefaultConfig(serviceName string) *Config {
	return &Config{ServiceName: serviceName, Namespace: "shop"}
}

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	carrierCalls   *prometheus.CounterVec
	carrierLatency *prometheus.HistogramVec

	rateQuotes       *prometheus.CounterVec
	shipmentsCreated *prometheus.CounterVec
	shipmentsCancel  *prometheus.CounterVec
	webhooks         *prometheus.CounterVec
	divergences      *prometheus.CounterVec

	outboxPublished *prometheus.CounterVec
	outboxLatency   *prometheus.HistogramVec
	outboxPending   prometheus.Gauge

	breakerState *prometheus.GaugeVec
	breakerTrips *prometheus.CounterVec
}

// New builds every instrument on a private registry. The service name is
// attached to all series as a constant label.
func New(config *Config) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"service": config.ServiceName}, reg))
	ns := config.Namespace

	counter := func(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Subsystem: subsystem, Name: name, Help: help}, labels)
	}
	histogram := func(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return f.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets}, labels)
	}
	gauge := func(subsystem, name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: ns, Subsystem: subsystem, Name: name, Help: help})
	}

	return &Metrics{
		registry: reg,

		httpRequests: counter("http", "requests_total", "HTTP requests by route and status", "method", "path", "status"),
		httpLatency:  histogram("http", "request_duration_seconds", "HTTP request latency", httpBuckets, "method", "path"),
		httpInFlight: gauge("http", "requests_in_flight", "HTTP requests being served"),

		carrierCalls:   counter("carrier", "calls_total", "Carrier API calls by operation and outcome", "carrier", "operation", "outcome"),
		carrierLatency: histogram("carrier", "call_duration_seconds", "Carrier API call latency", carrierBuckets, "carrier", "operation"),

		rateQuotes:       counter("shipping", "rate_quotes_total", "Rate requests by outcome", "outcome"),
		shipmentsCreated: counter("shipping", "shipments_created_total", "Shipment creation attempts by outcome", "outcome", "rate_source"),
		shipmentsCancel:  counter("shipping", "shipments_cancelled_total", "Shipment cancellation attempts by outcome", "outcome"),
		webhooks:         counter("shipping", "webhooks_total", "Carrier webhooks by result", "result"),
		divergences:      counter("shipping", "state_divergences_total", "Carrier side effects the store failed to persist", "operation"),

		outboxPublished: counter("outbox", "events_published_total", "Outbox events relayed to Kafka", "topic", "event_type", "status"),
		outboxLatency:   histogram("outbox", "publish_duration_seconds", "Outbox publish latency", outboxBuckets, "topic"),
		outboxPending:   gauge("outbox", "pending_events", "Unpublished outbox events seen in the last poll"),

		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Subsystem: "circuit_breaker", Name: "state", Help: "Breaker state (0=closed, 1=half-open, 2=open)"}, []string{"name"}),
		breakerTrips: counter("circuit_breaker", "trips_total", "Transitions into the open state", "name"),
	}
}

// Handler serves the private registry in OpenMetrics format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m != nil {
		m.httpInFlight.Inc()
	}
}

func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m != nil {
		m.httpInFlight.Dec()
	}
}

func (m *Metrics) RecordCarrierCall(carrier, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.carrierCalls.WithLabelValues(carrier, operation, outcome).Inc()
	m.carrierLatency.WithLabelValues(carrier, operation).Observe(duration.Seconds())
}

// RecordRateQuote counts a rate request as quoted, free or failed.
func (m *Metrics) RecordRateQuote(outcome string) {
	if m != nil {
		m.rateQuotes.WithLabelValues(outcome).Inc()
	}
}

// RecordShipmentCreated counts a createShipment attempt. rateSource is
// "stored" when the quoted rate was reused and "requoted" otherwise.
func (m *Metrics) RecordShipmentCreated(outcome, rateSource string) {
	if m != nil {
		m.shipmentsCreated.WithLabelValues(outcome, rateSource).Inc()
	}
}

func (m *Metrics) RecordShipmentCancelled(outcome string) {
	if m != nil {
		m.shipmentsCancel.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) RecordWebhook(result string) {
	if m != nil {
		m.webhooks.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) RecordStateDivergence(operation string) {
	if m != nil {
		m.divergences.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) RecordOutboxPublish(topic, eventType string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.outboxPublished.WithLabelValues(topic, eventType, status).Inc()
	m.outboxLatency.WithLabelValues(topic).Observe(duration.Seconds())
}

func (m *Metrics) SetOutboxPending(count int) {
	if m != nil {
		m.outboxPending.Set(float64(count))
	}
}

// SetCircuitBreakerState takes one of the Breaker* constants.
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m != nil {
		m.breakerState.WithLabelValues(name).Set(float64(state))
	}
}

func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	if m != nil {
		m.breakerTrips.WithLabelValues(name).Inc()
	}
}

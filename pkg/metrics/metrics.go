// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RelayStreamDuration tracks how long a relayed chat stream stays open.
	RelayStreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_stream_duration_seconds",
			Help:    "Relayed chat stream duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"outcome"},
	)

	// RelayStreamsTotal counts relayed streams by how they ended.
	RelayStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_streams_total",
			Help: "Relayed chat streams by outcome",
		},
		[]string{"outcome"},
	)

	// RelayDeltasTotal counts content deltas forwarded to clients.
	RelayDeltasTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_deltas_total",
			Help: "Content deltas forwarded to clients",
		},
	)

	// RelayMalformedEventsTotal counts upstream event lines that failed to parse.
	RelayMalformedEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_malformed_events_total",
			Help: "Upstream event lines dropped because they failed to parse",
		},
	)

	// UpstreamErrorsTotal counts requests the provider rejected before streaming.
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_errors_total",
			Help: "Upstream provider failures before streaming",
		},
		[]string{"provider", "status"},
	)

	// StreamsActive tracks open relay streams.
	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_streams_active",
			Help: "Number of open relay streams",
		},
	)

	// InventoryOperationsTotal counts inventory mutations and reads.
	InventoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_operations_total",
			Help: "Inventory operations by kind and result",
		},
		[]string{"operation", "result"},
	)

	// LoginAttemptsTotal counts login attempts.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRelayStream records metrics for a finished relay stream.
func RecordRelayStream(outcome string, duration float64) {
	RelayStreamDuration.WithLabelValues(outcome).Observe(duration)
	RelayStreamsTotal.WithLabelValues(outcome).Inc()
}

// RecordUpstreamError records a provider failure. status is 0 for transport errors.
func RecordUpstreamError(provider string, status int) {
	label := "transport"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamErrorsTotal.WithLabelValues(provider, label).Inc()
}

// RecordInventoryOperation records one inventory operation.
func RecordInventoryOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	InventoryOperationsTotal.WithLabelValues(operation, result).Inc()
}

// IncrementStreams increments the open stream count.
func IncrementStreams() {
	StreamsActive.Inc()
}

// DecrementStreams decrements the open stream count.
func DecrementStreams() {
	StreamsActive.Dec()
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of the stock service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	GRPCRequestsTotal   *prometheus.CounterVec
	GRPCRequestDuration *prometheus.HistogramVec

	StockMovements      *prometheus.CounterVec
	StockRejections     *prometheus.CounterVec
	TransferTransitions *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.GRPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC requests",
		},
		[]string{"method", "code"},
	)
	m.GRPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	m.StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Ledger changes applied, by movement type",
		},
		[]string{"movement_type"},
	)
	m.StockRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Operations refused by a stock invariant, by error code",
		},
		[]string{"code"},
	)
	m.TransferTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_transitions_total",
			Help:      "Transfer status transitions",
		},
		[]string{"status"},
	)
	m.EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker, by type and result",
		},
		[]string{"event_type", "result"},
	)

	registry.MustRegister(
		m.GRPCRequestsTotal,
		m.GRPCRequestDuration,
		m.StockMovements,
		m.StockRejections,
		m.TransferTransitions,
		m.EventsPublished,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordMovement(movementType string) {
	if m == nil {
		return
	}
	m.StockMovements.WithLabelValues(movementType).Inc()
}

func (m *Metrics) RecordRejection(code string) {
	if m == nil {
		return
	}
	m.StockRejections.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.TransferTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, result).Inc()
}

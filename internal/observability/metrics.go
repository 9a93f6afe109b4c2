// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trading core.
type Metrics struct {
	// Session metrics
	SessionsStarted *prometheus.CounterVec
	SessionsStopped prometheus.Counter
	SessionsFailed  prometheus.Counter
	SessionsRunning prometheus.Gauge

	// Execution metrics
	OrdersExecuted   prometheus.Counter
	OrdersRejected   prometheus.Counter
	ExecutionLatency prometheus.Histogram

	// Safety metrics
	RiskChecks       *prometheus.CounterVec
	GatingRejections *prometheus.CounterVec

	// Event metrics
	RunEventsAppended prometheus.Counter
}

// NewMetrics registers all metrics with reg. Passing nil registers with the
// default registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "trading_core"
	}
	factory := promauto.With(reg)

	return &Metrics{
		SessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "started_total",
			Help:      "Total number of sessions started by mode",
		}, []string{"mode"}),
		SessionsStopped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "stopped_total",
			Help:      "Total number of sessions stopped cleanly",
		}),
		SessionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "failed_total",
			Help:      "Total number of sessions that terminated with an error",
		}),
		SessionsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "running",
			Help:      "Number of sessions currently running",
		}),

		OrdersExecuted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "orders_executed_total",
			Help:      "Total number of orders that reached the executor and filled",
		}),
		OrdersRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "orders_rejected_total",
			Help:      "Total number of orders rejected at any stage",
		}),
		ExecutionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency of one gated dispatch cycle in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		RiskChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "checks_total",
			Help:      "Total number of risk checks by outcome",
		}, []string{"severity"}),
		GatingRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "safety",
			Name:      "gating_rejections_total",
			Help:      "Total number of batches rejected by a safety gate",
		}, []string{"gate"}),

		RunEventsAppended: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runlog",
			Name:      "events_appended_total",
			Help:      "Total number of run events appended",
		}),
	}
}

// ObserveBatch records the per-batch execution counters.
func (m *Metrics) ObserveBatch(filled, rejected int) {
	if m == nil {
		return
	}
	m.OrdersExecuted.Add(float64(filled))
	m.OrdersRejected.Add(float64(rejected))
}

// ObserveRiskCheck records one risk check outcome.
func (m *Metrics) ObserveRiskCheck(severity string) {
	if m == nil {
		return
	}
	m.RiskChecks.WithLabelValues(severity).Inc()
}

// ObserveGatingRejection records one safety-gate rejection.
func (m *Metrics) ObserveGatingRejection(gate string) {
	if m == nil {
		return
	}
	m.GatingRejections.WithLabelValues(gate).Inc()
}

// ObserveRunEventAppended records one successfully appended run event.
func (m *Metrics) ObserveRunEventAppended() {
	if m == nil {
		return
	}
	m.RunEventsAppended.Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

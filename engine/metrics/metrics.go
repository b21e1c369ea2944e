// Package metrics exposes Prometheus instrumentation for the engine's
// bar loop, grounded on the teacher's MetricsRegistry
// (internal/interfaces/http/metrics.go): a single struct of pre-built
// vectors, registered once, with small Record*/Observe* helper methods.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the engine records. A nil *Registry is
// valid everywhere its methods are called (backtest runs without a
// metrics server do not need a live registry).
type Registry struct {
	BarProcessed   *prometheus.CounterVec
	BarLatency     *prometheus.HistogramVec
	ActionEvals    *prometheus.CounterVec
	OrdersSent     *prometheus.CounterVec
	OrderErrors    *prometheus.CounterVec
	OpenPositions  prometheus.Gauge
	Equity         prometheus.Gauge
	CircuitTripped prometheus.Counter
}

// New builds and registers all engine metrics against reg.
func New(reg *prometheus.Registry) *Registry {
	m := &Registry{
		BarProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_bars_processed_total",
				Help: "Total number of bars processed by role",
			},
			[]string{"role"},
		),
		BarLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engine_bar_process_seconds",
				Help:    "Wall-clock time to process one bar through the engine",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"role"},
		),
		ActionEvals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_action_evals_total",
				Help: "Total number of action evaluations by action name and outcome",
			},
			[]string{"action", "triggered"},
		),
		OrdersSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_orders_sent_total",
				Help: "Total number of order intents submitted by side and reduce_only",
			},
			[]string{"side", "reduce_only"},
		),
		OrderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_order_errors_total",
				Help: "Total number of order submission errors by reason",
			},
			[]string{"reason"},
		),
		OpenPositions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_open_positions",
				Help: "Number of currently open positions across tracked symbols",
			},
		),
		Equity: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_account_equity",
				Help: "Current account equity as reported by the exec adapter",
			},
		),
		CircuitTripped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_exec_circuit_tripped_total",
				Help: "Total number of times the exec adapter circuit breaker tripped open",
			},
		),
	}

	reg.MustRegister(
		m.BarProcessed, m.BarLatency, m.ActionEvals, m.OrdersSent,
		m.OrderErrors, m.OpenPositions, m.Equity, m.CircuitTripped,
	)
	return m
}

// Handler exposes the registry at /metrics; callers mount it on their
// own router (engine/httpapi uses this).
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Registry) RecordBar(role string, dur time.Duration) {
	if m == nil {
		return
	}
	m.BarProcessed.WithLabelValues(role).Inc()
	m.BarLatency.WithLabelValues(role).Observe(dur.Seconds())
}

func (m *Registry) RecordActionEval(action string, triggered bool) {
	if m == nil {
		return
	}
	m.ActionEvals.WithLabelValues(action, boolLabel(triggered)).Inc()
}

func (m *Registry) RecordOrderSent(side string, reduceOnly bool) {
	if m == nil {
		return
	}
	m.OrdersSent.WithLabelValues(side, boolLabel(reduceOnly)).Inc()
}

func (m *Registry) RecordOrderError(reason string) {
	if m == nil {
		return
	}
	m.OrderErrors.WithLabelValues(reason).Inc()
}

func (m *Registry) SetOpenPositions(n int) {
	if m == nil {
		return
	}
	m.OpenPositions.Set(float64(n))
}

func (m *Registry) SetEquity(equity float64) {
	if m == nil {
		return
	}
	m.Equity.Set(equity)
}

func (m *Registry) RecordCircuitTripped() {
	if m == nil {
		return
	}
	m.CircuitTripped.Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

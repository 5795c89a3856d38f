package walletserver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the callback pipeline.
type Metrics struct {
	callbacksTotal    *prometheus.CounterVec
	callbackDuration  *prometheus.HistogramVec
	replaysTotal      prometheus.Counter
	rejectedAuthTotal prometheus.Counter
	balanceGauge      *prometheus.GaugeVec
}

// NewMetrics registers the wallet server metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		callbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wallet",
				Subsystem: "callbacks",
				Name:      "total",
				Help:      "Total provider callbacks partitioned by command and result.",
			},
			[]string{"command", "result"},
		),
		callbackDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wallet",
				Subsystem: "callbacks",
				Name:      "duration_seconds",
				Help:      "Callback handling latency by command.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		replaysTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wallet",
				Subsystem: "callbacks",
				Name:      "replays_total",
				Help:      "Callbacks answered from an existing ledger entry.",
			},
		),
		rejectedAuthTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wallet",
				Subsystem: "callbacks",
				Name:      "rejected_auth_total",
				Help:      "Callbacks rejected before dispatch for failed signature checks.",
			},
		),
		balanceGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "wallet",
				Subsystem: "ledger",
				Name:      "last_balance",
				Help:      "Most recently observed balance per currency, minor units.",
			},
			[]string{"currency"},
		),
	}
}

// ObserveCallback records one handled callback.
func (m *Metrics) ObserveCallback(command, result string, started time.Time) {
	if m == nil {
		return
	}
	m.callbacksTotal.WithLabelValues(command, result).Inc()
	m.callbackDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

// ObserveReplay counts an idempotent replay answer.
func (m *Metrics) ObserveReplay() {
	if m == nil {
		return
	}
	m.replaysTotal.Inc()
}

// ObserveAuthRejection counts a failed signature verification.
func (m *Metrics) ObserveAuthRejection() {
	if m == nil {
		return
	}
	m.rejectedAuthTotal.Inc()
}

// ObserveBalance tracks the last seen balance for a currency.
func (m *Metrics) ObserveBalance(currency string, balance int64) {
	if m == nil {
		return
	}
	m.balanceGauge.WithLabelValues(currency).Set(float64(balance))
}

package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveChargingSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chargechain_active_charging_sessions",
		Help: "Number of charging sessions currently active",
	})

	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chargechain_sessions_started_total",
		Help: "Total charging sessions started",
	})

	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chargechain_payments_total",
		Help: "Total payment attempts by outcome",
	}, []string{"outcome"})

	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chargechain_reservations_total",
		Help: "Total reservation operations by action",
	}, []string{"action"})

	LedgerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chargechain_ledger_latency_seconds",
		Help:    "Latency of chain gateway calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	DatabaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chargechain_database_latency_seconds",
		Help:    "Latency of secondary index queries",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveLedgerLatency is the callback shape the gateway expects.
func ObserveLedgerLatency(operation string, d time.Duration) {
	LedgerLatency.WithLabelValues(operation).Observe(d.Seconds())
}

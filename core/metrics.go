package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons reported on valreg_ledger_tx_rejected_total.
const (
	rejectSignature    = "signature"
	rejectNonceTooLow  = "nonce_too_low"
	rejectNonceTooHigh = "nonce_too_high"
	rejectExecution    = "execution"
)

type ledgerMetrics struct {
	applied          prometheus.Counter
	rejected         *prometheus.CounterVec
	events           prometheus.Counter
	activeValidators prometheus.Gauge
}

func newLedgerMetrics(registry prometheus.Registerer) *ledgerMetrics {
	factory := promauto.With(registry)
	return &ledgerMetrics{
		applied: factory.NewCounter(prometheus.CounterOpts{
			Name: "valreg_ledger_tx_applied_total",
			Help: "Total number of transactions applied successfully",
		}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "valreg_ledger_tx_rejected_total",
			Help: "Total number of rejected transactions by reason",
		}, []string{"reason"}),
		events: factory.NewCounter(prometheus.CounterOpts{
			Name: "valreg_ledger_change_events_total",
			Help: "Total number of change events published",
		}),
		activeValidators: factory.NewGauge(prometheus.GaugeOpts{
			Name: "valreg_ledger_validators_active",
			Help: "Number of validators in the active set",
		}),
	}
}

func (m *ledgerMetrics) reject(reason string) {
	if m != nil {
		m.rejected.WithLabelValues(reason).Inc()
	}
}

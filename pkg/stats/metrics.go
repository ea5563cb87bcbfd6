package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tdex-network/escrowd/internal/core/domain"
)

const (
	OutcomeSuccess = "success"

	OperationDeposit  = "deposit"
	OperationClaim    = "claim"
	OperationRecover  = "recover"
	OperationEstimate = "estimate"
	OperationAdmin    = "admin"
)

// Operations counts the vault operations by outcome. The outcome is either
// success or the kind of the returned error.
var Operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "escrow",
	Name:      "operations_total",
	Help:      "Vault operations by outcome.",
}, []string{"operation", "outcome"})

// StreamListeners is the number of connected event stream clients.
var StreamListeners = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "escrow",
	Name:      "stream_listeners",
	Help:      "Connected event stream clients.",
})

// Observe records the outcome of the given operation.
func Observe(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = domain.ErrorKind(err)
	}
	Operations.WithLabelValues(operation, outcome).Inc()
}

package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeAllowed = "allowed"
	outcomeDenied  = "denied"
	outcomeCeiling = "ceiling"
	outcomeError   = "error"
)

var (
	// DecisionsTotal counts gate decisions by feature, outcome and plan tier.
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotekit",
		Subsystem: "gate",
		Name:      "decisions_total",
		Help:      "Entitlement decisions by feature, outcome and plan tier.",
	}, []string{"feature", "outcome", "tier"})

	// UsageIncrementFailures counts background usage increments that failed.
	UsageIncrementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quotekit",
		Subsystem: "usage",
		Name:      "increment_failures_total",
		Help:      "Usage counter increments that failed after the gated operation succeeded.",
	}, []string{"usage_type"})
)

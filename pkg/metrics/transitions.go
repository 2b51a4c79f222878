package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transitions counts every workflow transition attempt by entity family,
// event and outcome. Dashboards read these instead of polling the tables.
var Transitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "personnel",
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Workflow transition attempts by entity, event and outcome.",
	},
	[]string{"entity", "event", "outcome"},
)

const (
	OutcomeOK       = "ok"
	OutcomeDenied   = "denied"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

func ObserveTransition(entity, event, outcome string) {
	Transitions.WithLabelValues(entity, event, outcome).Inc()
}

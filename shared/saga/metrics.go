package saga

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_transitions_total",
		Help: "Committed saga transitions by definition and edge.",
	}, []string{"saga", "from", "to"})

	discardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_messages_discarded_total",
		Help: "Messages acknowledged without a transition (duplicates, stale retries).",
	}, []string{"saga", "reason"})

	conflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_version_conflicts_total",
		Help: "Optimistic concurrency conflicts; the message is requeued.",
	}, []string{"saga"})
)

package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkjohn_reconcile_total",
		Help: "Reconciliation outcomes by action and reason",
	}, []string{"action", "reason"})

	mergeAttachFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkjohn_merge_attach_failures_total",
		Help: "Provider attachments that failed after the losing account was deleted",
	}, []string{"provider"})
)

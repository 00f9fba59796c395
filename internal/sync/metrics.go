package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackline",
		Subsystem: "sync",
		Name:      "passes_total",
		Help:      "Completed sync passes by result.",
	}, []string{"result"})

	pendingDrained = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trackline",
		Subsystem: "sync",
		Name:      "pending_drained_total",
		Help:      "Pending-queue entries successfully uploaded.",
	}, []string{"kind"})

	pendingDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "trackline",
		Subsystem: "sync",
		Name:      "pending_depth",
		Help:      "Entries currently waiting in the pending queue.",
	}, []string{"kind"})
)

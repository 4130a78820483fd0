package interact

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DragEventsTotal counts pointer gestures by phase
	DragEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forcegraph_drag_events_total",
			Help: "Total number of drag gesture events",
		},
		[]string{"phase"},
	)

	// NavigationsTotal counts click navigations by outcome
	NavigationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forcegraph_navigations_total",
			Help: "Total number of click navigations",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(DragEventsTotal)
	prometheus.MustRegister(NavigationsTotal)
}

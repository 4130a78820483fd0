package physics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TicksTotal counts simulation ticks across all simulations
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forcegraph_simulation_ticks_total",
			Help: "Total number of simulation ticks",
		},
	)

	// AlphaGauge reports the energy after the most recent tick
	AlphaGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "forcegraph_simulation_alpha",
			Help: "Simulation energy after the most recent tick",
		},
	)

	// DegenerateRecoveries counts coincident body pairs separated by a jiggle
	DegenerateRecoveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forcegraph_degenerate_geometry_recoveries_total",
			Help: "Coincident body pairs recovered during force accumulation",
		},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal)
	prometheus.MustRegister(AlphaGauge)
	prometheus.MustRegister(DegenerateRecoveries)
}

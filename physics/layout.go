package physics

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/forcegraph/models"
)

// Options selects the standard force laws and their parameters
type Options struct {
	Config         Config
	LinkDistance   float64
	ChargeStrength float64
	CenterStrength float64
	NoiseIntensity float64
	NoiseSeed      int64
}

// DefaultOptions returns the standard layout parameters
func DefaultOptions() Options {
	return Options{
		Config:         DefaultConfig(),
		LinkDistance:   150,
		ChargeStrength: -500,
		CenterStrength: 0.1,
	}
}

// StandardForces builds the ordered force list for a graph: link, charge,
// center, and noise when NoiseIntensity is positive.
func StandardForces(graph *models.Graph, center r2.Vec, opts Options) []Force {
	edges := graph.Edges()
	links := make([]Link, len(edges))
	for i, e := range edges {
		links[i] = Link{Source: e.Source, Target: e.Target}
	}

	forces := []Force{
		NewLinkForce(links, opts.LinkDistance),
		NewChargeForce(opts.ChargeStrength),
		NewCenterForce(center, opts.CenterStrength),
	}
	if opts.NoiseIntensity > 0 {
		forces = append(forces, NewNoiseForce(opts.NoiseIntensity, opts.NoiseSeed))
	}
	return forces
}

// NewForGraph creates a simulation of graph centered in a viewport of the
// given size
func NewForGraph(graph *models.Graph, width, height float64, opts Options, logger *zap.Logger) *Simulation {
	center := r2.Vec{X: width / 2, Y: height / 2}
	return New(graph.NodeIDs(), center, opts.Config, logger, StandardForces(graph, center, opts)...)
}

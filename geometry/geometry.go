// Package geometry derives drawable shapes from node positions. Everything
// here is a pure function of the positions passed in; nothing is cached
// between ticks.
package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/forcegraph/models"
)

// Arc is a circular arc from From to To drawn with a fixed sweep direction
type Arc struct {
	From   r2.Vec
	To     r2.Vec
	Radius float64
	Sweep  int
}

// EdgeArc returns the arc for an edge whose endpoints sit at s and t. The
// radius equals the distance between them and the sweep is clockwise, so
// the curvature alone shows the edge direction.
func EdgeArc(s, t r2.Vec) Arc {
	return Arc{
		From:   s,
		To:     t,
		Radius: r2.Norm(r2.Sub(t, s)),
		Sweep:  1,
	}
}

// Path formats the arc as an SVG path command
func (a Arc) Path() string {
	var b strings.Builder
	b.WriteString("M")
	b.WriteString(num(a.From.X))
	b.WriteString(",")
	b.WriteString(num(a.From.Y))
	b.WriteString(" A")
	b.WriteString(num(a.Radius))
	b.WriteString(",")
	b.WriteString(num(a.Radius))
	b.WriteString(" 0 0,")
	b.WriteString(strconv.Itoa(a.Sweep))
	b.WriteString(" ")
	b.WriteString(num(a.To.X))
	b.WriteString(",")
	b.WriteString(num(a.To.Y))
	return b.String()
}

// ParseArc reads a path produced by Arc.Path
func ParseArc(path string) (Arc, error) {
	var a Arc
	var large int
	_, err := fmt.Sscanf(path, "M%g,%g A%g,%g 0 %d,%d %g,%g",
		&a.From.X, &a.From.Y, &a.Radius, &a.Radius, &large, &a.Sweep, &a.To.X, &a.To.Y)
	if err != nil {
		return Arc{}, fmt.Errorf("parse arc %q: %w", path, err)
	}
	return a, nil
}

// LabelAnchor returns where an edge label is placed: the midpoint of the
// straight segment between the endpoints, not the midpoint of the arc.
func LabelAnchor(s, t r2.Vec) r2.Vec {
	return r2.Scale(0.5, r2.Add(s, t))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Positions resolves a node id to its current coordinates
type Positions interface {
	Position(id string) (r2.Vec, bool)
}

// EdgeGeometry is the drawable shape of one edge for one tick
type EdgeGeometry struct {
	EdgeID string
	Source string
	Target string
	Label  string
	Arc    Arc
	Anchor r2.Vec
}

// Layout computes the geometry of every edge in graph order. Edges whose
// endpoints have no position are skipped.
func Layout(graph *models.Graph, positions Positions) []EdgeGeometry {
	edges := graph.Edges()
	out := make([]EdgeGeometry, 0, len(edges))
	for _, e := range edges {
		s, ok := positions.Position(e.Source)
		if !ok {
			continue
		}
		t, ok := positions.Position(e.Target)
		if !ok {
			continue
		}
		out = append(out, EdgeGeometry{
			EdgeID: e.ID,
			Source: e.Source,
			Target: e.Target,
			Label:  e.Label,
			Arc:    EdgeArc(s, t),
			Anchor: LabelAnchor(s, t),
		})
	}
	return out
}

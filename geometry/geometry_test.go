package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/forcegraph/models"
)

type positionMap map[string]r2.Vec

func (m positionMap) Position(id string) (r2.Vec, bool) {
	p, ok := m[id]
	return p, ok
}

func TestEdgeArc_RadiusIsEndpointDistance(t *testing.T) {
	arc := EdgeArc(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 30, Y: 40})
	assert.Equal(t, 50.0, arc.Radius)
	assert.Equal(t, 1, arc.Sweep)
	assert.Equal(t, "M0,0 A50,50 0 0,1 30,40", arc.Path())
}

func TestArcPath_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		s, t r2.Vec
	}{
		{"axis", r2.Vec{X: 10, Y: 10}, r2.Vec{X: 160, Y: 10}},
		{"fractional", r2.Vec{X: 412.25, Y: -3.5}, r2.Vec{X: 388.125, Y: 297.75}},
		{"coincident", r2.Vec{X: 5, Y: 5}, r2.Vec{X: 5, Y: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first := EdgeArc(tc.s, tc.t).Path()
			assert.Equal(t, first, EdgeArc(tc.s, tc.t).Path(), "same positions give the same path")

			parsed, err := ParseArc(first)
			require.NoError(t, err)
			assert.Equal(t, tc.s, parsed.From)
			assert.Equal(t, tc.t, parsed.To)
			assert.InDelta(t, r2.Norm(r2.Sub(tc.t, tc.s)), parsed.Radius, 1e-9)
			assert.Equal(t, 1, parsed.Sweep)
		})
	}
}

func TestParseArc_Invalid(t *testing.T) {
	_, err := ParseArc("L0,0")
	assert.Error(t, err)
}

func TestLabelAnchor_StraightMidpoint(t *testing.T) {
	got := LabelAnchor(r2.Vec{X: 100, Y: 100}, r2.Vec{X: 300, Y: 200})
	assert.Equal(t, r2.Vec{X: 200, Y: 150}, got)
}

func TestArrowMarker(t *testing.T) {
	m := ArrowMarker(0, 0)
	assert.Equal(t, "arrow", m.ID)
	assert.Equal(t, "0 -5 10 10", m.ViewBox)
	assert.Equal(t, 15.0, m.RefX)
	assert.Equal(t, -0.5, m.RefY)
	assert.Equal(t, 6.0, m.Width)
	assert.Equal(t, 6.0, m.Height)
	assert.Equal(t, "auto", m.Orient)
	assert.Equal(t, "M0,-5L10,0L0,5", m.Path)
	assert.Equal(t, "url(#arrow)", m.URL())

	big := ArrowMarker(12, 9)
	assert.Equal(t, 12.0, big.Width)
	assert.Equal(t, 9.0, big.Height)
}

func TestLayout(t *testing.T) {
	g := models.SampleGraph()
	pos := positionMap{
		"Apple":   {X: 0, Y: 0},
		"Samsung": {X: 100, Y: 0},
		"Vite":    {X: 100, Y: 100},
	}

	edges := Layout(g, pos)
	// apple-next is skipped: Next has no position.
	require.Len(t, edges, 3)

	first := edges[0]
	assert.Equal(t, "Apple", first.Source)
	assert.Equal(t, "Samsung", first.Target)
	assert.Equal(t, 100.0, first.Arc.Radius)
	assert.Equal(t, r2.Vec{X: 50, Y: 0}, first.Anchor)
	assert.NotEmpty(t, first.Label)

	last := edges[2]
	assert.Equal(t, "Vite", last.Source)
	assert.Equal(t, "Apple", last.Target)
	assert.InDelta(t, 141.42135623730951, last.Arc.Radius, 1e-9)
}

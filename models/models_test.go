package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph_Valid(t *testing.T) {
	g, err := NewGraph("test",
		[]Node{{ID: "a", Label: "A"}, {ID: "b"}},
		[]Edge{{ID: "ab", Source: "a", Target: "b", Label: "knows"}},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []string{"a", "b"}, g.NodeIDs())

	b, err := g.FindNodeByID("b")
	require.NoError(t, err)
	assert.Equal(t, "b", b.Label, "empty label falls back to id")

	for _, e := range g.Edges() {
		assert.True(t, g.HasNode(e.Source))
		assert.True(t, g.HasNode(e.Target))
	}
}

func TestNewGraph_UnknownEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		edge   Edge
		nodeID string
	}{
		{"unknown source", Edge{ID: "e1", Source: "x", Target: "a"}, "x"},
		{"unknown target", Edge{ID: "e2", Source: "a", Target: "y"}, "y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph("bad", []Node{{ID: "a"}}, []Edge{tt.edge})
			require.Error(t, err)

			var invalid *InvalidGraphError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.edge.ID, invalid.EdgeID)
			assert.Equal(t, tt.nodeID, invalid.NodeID)
		})
	}
}

func TestNewGraph_DuplicateIDs(t *testing.T) {
	_, err := NewGraph("dup", []Node{{ID: "a"}, {ID: "a"}}, nil)
	var invalid *InvalidGraphError
	assert.True(t, errors.As(err, &invalid))

	_, err = NewGraph("dup",
		[]Node{{ID: "a"}, {ID: "b"}},
		[]Edge{{ID: "e", Source: "a", Target: "b"}, {ID: "e", Source: "b", Target: "a"}},
	)
	assert.True(t, errors.As(err, &invalid))
}

func TestNewGraph_GeneratesEdgeIDs(t *testing.T) {
	g, err := NewGraph("ids",
		[]Node{{ID: "a"}, {ID: "b"}},
		[]Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
	)
	require.NoError(t, err)

	edges := g.Edges()
	assert.NotEmpty(t, edges[0].ID)
	assert.NotEqual(t, edges[0].ID, edges[1].ID)
}

func TestGraph_AccessorsReturnCopies(t *testing.T) {
	g := SampleGraph()

	nodes := g.Nodes()
	nodes[0].Label = "mutated"
	edges := g.Edges()
	edges[0].Source = "mutated"

	assert.NotEqual(t, "mutated", g.Nodes()[0].Label)
	assert.NotEqual(t, "mutated", g.Edges()[0].Source)
}

func TestGraph_Queries(t *testing.T) {
	g := SampleGraph()

	assert.Len(t, g.FindOutgoingEdges("Apple"), 2)
	assert.Len(t, g.FindIncomingEdges("Apple"), 1)
	assert.Equal(t, 3, g.Degree("Apple"))
	assert.Equal(t, 1, g.Degree("Next"))

	_, err := g.FindNodeByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	e, err := g.FindEdgeByID("vite-apple")
	require.NoError(t, err)
	assert.Equal(t, "Vite", e.Source)
}

func TestGraph_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(SampleGraph())
	require.NoError(t, err)

	var decoded struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Nodes, 4)
	assert.Len(t, decoded.Edges, 4)
	assert.Equal(t, "https://www.apple.com", decoded.Nodes[0].URL)
}

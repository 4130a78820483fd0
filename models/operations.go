package models

import (
	"time"

	"github.com/google/uuid"
)

// NewGraph validates nodes and edges and returns an immutable graph.
// Edges without an ID receive a generated one. Every violation of the
// referential invariant is reported as *InvalidGraphError.
func NewGraph(name string, nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		id:        uuid.New().String(),
		name:      name,
		nodes:     make([]Node, 0, len(nodes)),
		edges:     make([]Edge, 0, len(edges)),
		nodeIndex: make(map[string]int, len(nodes)),
		edgeIndex: make(map[string]int, len(edges)),
		createdAt: time.Now(),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, &InvalidGraphError{Reason: "node with empty id"}
		}
		if _, exists := g.nodeIndex[n.ID]; exists {
			return nil, &InvalidGraphError{NodeID: n.ID, Reason: "duplicate node id"}
		}
		if n.Label == "" {
			n.Label = n.ID
		}
		g.nodeIndex[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}

	for _, e := range edges {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if _, exists := g.edgeIndex[e.ID]; exists {
			return nil, &InvalidGraphError{EdgeID: e.ID, Reason: "duplicate edge id"}
		}
		if _, ok := g.nodeIndex[e.Source]; !ok {
			return nil, &InvalidGraphError{EdgeID: e.ID, NodeID: e.Source, Reason: "source references unknown node"}
		}
		if _, ok := g.nodeIndex[e.Target]; !ok {
			return nil, &InvalidGraphError{EdgeID: e.ID, NodeID: e.Target, Reason: "target references unknown node"}
		}
		g.edgeIndex[e.ID] = len(g.edges)
		g.edges = append(g.edges, e)
	}

	return g, nil
}

// MustGraph is like NewGraph but panics on invalid input. It is meant for
// literal graphs compiled into the binary.
func MustGraph(name string, nodes []Node, edges []Edge) *Graph {
	g, err := NewGraph(name, nodes, edges)
	if err != nil {
		panic(err)
	}
	return g
}

// SampleGraph returns the built-in demonstration graph
func SampleGraph() *Graph {
	return MustGraph("Sample", []Node{
		{ID: "Apple", Label: "اپل", URL: "https://www.apple.com", ImageURL: "https://upload.wikimedia.org/wikipedia/commons/thumb/f/fa/Apple_logo_black.svg/732px-Apple_logo_black.svg.png"},
		{ID: "Samsung", Label: "سامسونگ", URL: "https://www.samsung.com", ImageURL: "https://upload.wikimedia.org/wikipedia/commons/thumb/2/24/Samsung_Logo.svg/1200px-Samsung_Logo.svg.png"},
		{ID: "Next", Label: "نکست", URL: "https://nextjs.org", ImageURL: "https://cdn.worldvectorlogo.com/logos/next-js.svg"},
		{ID: "Vite", Label: "ویت", URL: "https://vitejs.dev", ImageURL: "https://upload.wikimedia.org/wikipedia/commons/thumb/f/f1/Vitejs-logo.svg/1039px-Vitejs-logo.svg.png"},
	}, []Edge{
		{ID: "apple-samsung", Source: "Apple", Target: "Samsung", Label: "رقیب"},
		{ID: "apple-next", Source: "Apple", Target: "Next", Label: "بدون ارتباط"},
		{ID: "samsung-vite", Source: "Samsung", Target: "Vite", Label: "بدون ارتباط"},
		{ID: "vite-apple", Source: "Vite", Target: "Apple", Label: "جدید"},
	})
}

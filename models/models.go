// Package models provides data structures for the forcegraph application.
// It defines the immutable graph description that the simulation lays out.
package models

import (
	"encoding/json"
	"time"
)

// Node represents a node in the graph
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	URL      string `json:"url,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Edge represents a directed, labeled edge between two nodes
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"` // ID of the source node
	Target string `json:"target"` // ID of the target node
	Label  string `json:"label"`
}

// Graph is an immutable, ordered collection of nodes and edges.
// Construct it with NewGraph; read it through the accessor methods.
type Graph struct {
	id        string
	name      string
	nodes     []Node
	edges     []Edge
	nodeIndex map[string]int
	edgeIndex map[string]int
	createdAt time.Time
}

// ID returns the graph's unique identifier
func (g *Graph) ID() string { return g.id }

// Name returns the graph's display name
func (g *Graph) Name() string { return g.name }

// CreatedAt returns the construction time
func (g *Graph) CreatedAt() time.Time { return g.createdAt }

// Nodes returns a copy of the node sequence in input order
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of the edge sequence in input order
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }

// NodeIDs returns node identifiers in input order
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// MarshalJSON encodes the graph in the same shape the JSON processor reads
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}{
		ID:    g.id,
		Name:  g.name,
		Nodes: g.nodes,
		Edges: g.edges,
	})
}

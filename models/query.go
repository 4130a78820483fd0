package models

import (
	"fmt"
)

// FindNodeByID returns a node by its ID
func (g *Graph) FindNodeByID(id string) (Node, error) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return Node{}, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return g.nodes[i], nil
}

// FindEdgeByID returns an edge by its ID
func (g *Graph) FindEdgeByID(id string) (Edge, error) {
	i, ok := g.edgeIndex[id]
	if !ok {
		return Edge{}, fmt.Errorf("edge %s: %w", id, ErrNotFound)
	}
	return g.edges[i], nil
}

// HasNode reports whether id names a node in the graph
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// FindOutgoingEdges returns all edges originating from a node
func (g *Graph) FindOutgoingEdges(nodeID string) []Edge {
	var result []Edge
	for _, edge := range g.edges {
		if edge.Source == nodeID {
			result = append(result, edge)
		}
	}
	return result
}

// FindIncomingEdges returns all edges targeting a node
func (g *Graph) FindIncomingEdges(nodeID string) []Edge {
	var result []Edge
	for _, edge := range g.edges {
		if edge.Target == nodeID {
			result = append(result, edge)
		}
	}
	return result
}

// Degree counts edges touching a node in either direction.
// A self-loop counts twice.
func (g *Graph) Degree(nodeID string) int {
	return len(g.FindOutgoingEdges(nodeID)) + len(g.FindIncomingEdges(nodeID))
}

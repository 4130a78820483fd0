package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups for ids that are not in the graph
var ErrNotFound = errors.New("not found")

// InvalidGraphError reports a graph that violates the data model invariants:
// an edge endpoint that names no node, or a duplicated node or edge id.
type InvalidGraphError struct {
	EdgeID string // empty for node-level violations
	NodeID string
	Reason string
}

func (e *InvalidGraphError) Error() string {
	if e.EdgeID != "" && e.NodeID == "" {
		return fmt.Sprintf("invalid graph: edge %q: %s", e.EdgeID, e.Reason)
	}
	if e.EdgeID != "" {
		return fmt.Sprintf("invalid graph: edge %q: %s %q", e.EdgeID, e.Reason, e.NodeID)
	}
	return fmt.Sprintf("invalid graph: %s %q", e.Reason, e.NodeID)
}

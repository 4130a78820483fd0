package physics

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// NodeState is either Free or Pinned. The integrator switches on it, so a
// pinned body can never also be driven by its velocity.
type NodeState interface {
	nodeState()
}

// Free bodies are moved by the integrated net force
type Free struct {
	Velocity r2.Vec
}

// Pinned bodies are held at fixed coordinates each tick
type Pinned struct {
	At r2.Vec
}

func (Free) nodeState()   {}
func (Pinned) nodeState() {}

// Body is the simulation-owned state of one graph node
type Body struct {
	ID       string
	Index    int
	Position r2.Vec
	State    NodeState
}

// Velocity returns the body's velocity; pinned bodies are at rest
func (b *Body) Velocity() r2.Vec {
	if f, ok := b.State.(Free); ok {
		return f.Velocity
	}
	return r2.Vec{}
}

// IsPinned reports whether the body is held by a pin
func (b *Body) IsPinned() bool {
	_, ok := b.State.(Pinned)
	return ok
}

// BodyState is a read-only copy of a body taken after a tick commits
type BodyState struct {
	ID       string
	Position r2.Vec
	Velocity r2.Vec
	Pinned   bool
}

// Frame is an immutable snapshot of the simulation handed to tick listeners
type Frame struct {
	Tick   uint64
	Alpha  float64
	Bodies []BodyState
	index  map[string]int
}

// Position returns the position of the body with the given id
func (f Frame) Position(id string) (r2.Vec, bool) {
	i, ok := f.index[id]
	if !ok {
		return r2.Vec{}, false
	}
	return f.Bodies[i].Position, true
}

// Body returns the full body snapshot for id
func (f Frame) Body(id string) (BodyState, bool) {
	i, ok := f.index[id]
	if !ok {
		return BodyState{}, false
	}
	return f.Bodies[i], true
}

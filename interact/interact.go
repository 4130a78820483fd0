// Package interact turns pointer gestures into simulation pins and energy
// changes, and clicks into navigation.
package interact

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/forcegraph/models"
)

var (
	// ErrUnknownNode is returned for gestures on ids that are not in the graph
	ErrUnknownNode = errors.New("unknown node")

	// ErrNotDragging is returned by DragMove and DragEnd without a DragStart
	ErrNotDragging = errors.New("node is not being dragged")
)

// DefaultDragAlphaTarget is the energy the simulation is held at while any
// node is being dragged
const DefaultDragAlphaTarget = 0.3

// DefaultClickWindow is how long after a moving drag ends a click on the
// same node is still treated as the drag's own pointer-up click
const DefaultClickWindow = 500 * time.Millisecond

// Engine is the part of the simulation the controller drives
type Engine interface {
	Reheat(target float64)
	SetAlphaTarget(target float64)
	Pin(id string, at r2.Vec) error
	Unpin(id string) error
}

// Navigator performs the external side effect of following a node's url
type Navigator interface {
	Navigate(url string) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(url string) error

// Navigate calls f(url)
func (f NavigatorFunc) Navigate(url string) error { return f(url) }

// Phase is the gesture state of one node
type Phase int

const (
	Free Phase = iota
	Dragging
)

func (p Phase) String() string {
	switch p {
	case Free:
		return "free"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type gesture struct {
	phase Phase
	moved bool
	// suppressUntil is set when a drag that moved the node ends, so the
	// click the browser fires on pointer-up does not navigate. A later tap
	// past the deadline navigates normally.
	suppressUntil time.Time
}

// Options configures a Controller
type Options struct {
	DragAlphaTarget float64
	// ClickWindow bounds click suppression after a moving drag
	ClickWindow time.Duration
	// Now is the clock; time.Now when nil
	Now    func() time.Time
	Logger *zap.Logger
}

// Controller owns the per-node gesture state machines and the render order
type Controller struct {
	mu sync.Mutex

	graph     *models.Graph
	engine    Engine
	navigator Navigator
	target    float64
	window    time.Duration
	now       func() time.Time
	logger    *zap.Logger

	gestures map[string]*gesture
	active   int
	order    []string
}

// NewController creates a controller for graph. navigator may be nil, in
// which case clicks never navigate.
func NewController(graph *models.Graph, engine Engine, navigator Navigator, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DragAlphaTarget <= 0 {
		opts.DragAlphaTarget = DefaultDragAlphaTarget
	}
	if opts.ClickWindow <= 0 {
		opts.ClickWindow = DefaultClickWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ids := graph.NodeIDs()
	gestures := make(map[string]*gesture, len(ids))
	for _, id := range ids {
		gestures[id] = &gesture{}
	}

	return &Controller{
		graph:     graph,
		engine:    engine,
		navigator: navigator,
		target:    opts.DragAlphaTarget,
		window:    opts.ClickWindow,
		now:       opts.Now,
		logger:    opts.Logger,
		gestures:  gestures,
		order:     ids,
	}
}

// DragStart begins a drag on id: the node is raised to the top of the
// render order and the simulation is reheated to the drag target.
func (c *Controller) DragStart(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.gestures[id]
	if !ok {
		return fmt.Errorf("drag start %s: %w", id, ErrUnknownNode)
	}
	if g.phase == Dragging {
		return nil
	}

	g.phase = Dragging
	g.moved = false
	g.suppressUntil = time.Time{}
	c.active++
	c.raiseLocked(id)
	c.engine.Reheat(c.target)

	DragEventsTotal.WithLabelValues("start").Inc()
	c.logger.Debug("drag start", zap.String("node", id), zap.Int("active", c.active))
	return nil
}

// DragMove pins id at the pointer position
func (c *Controller) DragMove(id string, at r2.Vec) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.gestures[id]
	if !ok {
		return fmt.Errorf("drag move %s: %w", id, ErrUnknownNode)
	}
	if g.phase != Dragging {
		return fmt.Errorf("drag move %s: %w", id, ErrNotDragging)
	}
	if err := c.engine.Pin(id, at); err != nil {
		return fmt.Errorf("drag move %s: %w", id, err)
	}
	g.moved = true

	DragEventsTotal.WithLabelValues("move").Inc()
	return nil
}

// DragEnd releases id. The energy target returns to zero once no other drag
// is active.
func (c *Controller) DragEnd(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.gestures[id]
	if !ok {
		return fmt.Errorf("drag end %s: %w", id, ErrUnknownNode)
	}
	if g.phase != Dragging {
		return fmt.Errorf("drag end %s: %w", id, ErrNotDragging)
	}

	c.active--
	if c.active == 0 {
		c.engine.SetAlphaTarget(0)
	}
	if err := c.engine.Unpin(id); err != nil {
		c.logger.Warn("unpin failed", zap.String("node", id), zap.Error(err))
	}
	g.phase = Free
	if g.moved {
		g.suppressUntil = c.now().Add(c.window)
	}
	g.moved = false

	DragEventsTotal.WithLabelValues("end").Inc()
	c.logger.Debug("drag end", zap.String("node", id), zap.Int("active", c.active))
	return nil
}

// Click follows the url of id. It reports whether a navigation happened: a
// node without url, or a click ending a drag that moved the node, does
// nothing. A click that arrives while a moving drag is still open, or within
// the click window after it ended, belongs to that drag. Navigation failures
// are logged and not retried.
func (c *Controller) Click(id string) (bool, error) {
	c.mu.Lock()
	g, ok := c.gestures[id]
	if !ok {
		c.mu.Unlock()
		return false, fmt.Errorf("click %s: %w", id, ErrUnknownNode)
	}
	suppressed := c.now().Before(g.suppressUntil)
	if g.phase == Dragging && g.moved {
		// The drag's own click overtook its drag end; the end must not
		// suppress a later tap.
		suppressed = true
		g.moved = false
	}
	g.suppressUntil = time.Time{}
	c.mu.Unlock()

	if suppressed {
		NavigationsTotal.WithLabelValues("suppressed").Inc()
		return false, nil
	}

	node, err := c.graph.FindNodeByID(id)
	if err != nil {
		return false, fmt.Errorf("click %s: %w", id, err)
	}
	if node.URL == "" || c.navigator == nil {
		return false, nil
	}

	c.logger.Info("node clicked", zap.String("node", id), zap.String("label", node.Label), zap.String("url", node.URL))
	if err := c.navigator.Navigate(node.URL); err != nil {
		NavigationsTotal.WithLabelValues("failed").Inc()
		c.logger.Warn("navigation failed", zap.String("url", node.URL), zap.Error(err))
		return false, nil
	}
	NavigationsTotal.WithLabelValues("ok").Inc()
	return true, nil
}

// Phase returns the gesture state of id
func (c *Controller) Phase(id string) (Phase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.gestures[id]
	if !ok {
		return Free, fmt.Errorf("phase %s: %w", id, ErrUnknownNode)
	}
	return g.phase, nil
}

// ActiveDrags returns the number of drags in progress
func (c *Controller) ActiveDrags() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Order returns node ids bottom to top
func (c *Controller) Order() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Controller) raiseLocked(id string) {
	for i, v := range c.order {
		if v == id {
			copy(c.order[i:], c.order[i+1:])
			c.order[len(c.order)-1] = id
			return
		}
	}
}

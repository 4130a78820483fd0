// Package viewer ties one graph to a simulation, an interaction controller
// and a render surface for the lifetime of a mount.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TFMV/forcegraph/interact"
	"github.com/TFMV/forcegraph/models"
	"github.com/TFMV/forcegraph/physics"
	"github.com/TFMV/forcegraph/render"
)

var (
	// ErrMounted is returned by Mount on a viewer that is already mounted
	ErrMounted = errors.New("viewer already mounted")

	// ErrNotMounted is returned by operations that need a mounted viewer
	ErrNotMounted = errors.New("viewer not mounted")
)

// ResizeAlpha is the energy a resize gives the simulation so the layout
// settles around the new center
const ResizeAlpha = 0.3

// Options configures a Viewer
type Options struct {
	Layout          physics.Options
	Output          *render.OutputOptions
	DragAlphaTarget float64
	TickInterval    time.Duration
	Navigator       interact.Navigator
}

// DefaultOptions returns a JSON-rendering viewer ticking at roughly 60 Hz
func DefaultOptions() Options {
	return Options{
		Layout:          physics.DefaultOptions(),
		Output:          render.NewDefaultOptions("json"),
		DragAlphaTarget: interact.DefaultDragAlphaTarget,
		TickInterval:    16 * time.Millisecond,
	}
}

// mount is the state that exists only between Mount and Unmount
type mount struct {
	sim     *physics.Simulation
	ctrl    *interact.Controller
	surface *render.Surface
	remove  []func()
	cancel  context.CancelFunc
	done    chan error
}

// Viewer hosts a single in-memory graph view
type Viewer struct {
	graph  *models.Graph
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	current *mount

	sinkMu   sync.RWMutex
	sinks    map[int]func([]byte)
	nextSink int
}

// New creates an unmounted viewer for graph
func New(graph *models.Graph, opts Options, logger *zap.Logger) *Viewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Output == nil {
		opts.Output = render.NewDefaultOptions("json")
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 16 * time.Millisecond
	}
	return &Viewer{
		graph:  graph,
		opts:   opts,
		logger: logger.With(zap.String("graph", graph.Name())),
		sinks:  make(map[int]func([]byte)),
	}
}

// Mount creates the simulation and starts its tick loop. The loop runs
// until ctx is done or Unmount is called.
func (v *Viewer) Mount(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current != nil {
		return ErrMounted
	}

	renderer, err := render.GetRenderer(v.opts.Output.Format)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	sim := physics.NewForGraph(v.graph, v.opts.Output.Width, v.opts.Output.Height, v.opts.Layout, v.logger)
	ctrl := interact.NewController(v.graph, sim, v.opts.Navigator, interact.Options{
		DragAlphaTarget: v.opts.DragAlphaTarget,
		Logger:          v.logger,
	})
	surface := render.NewSurface(v.graph, sim, ctrl, renderer, v.opts.Output, v.logger)

	m := &mount{
		sim:     sim,
		ctrl:    ctrl,
		surface: surface,
		done:    make(chan error, 1),
	}
	m.remove = append(m.remove,
		surface.Subscribe(v.broadcast),
		sim.OnTick(surface.Draw),
	)
	surface.Draw(sim.Frame())

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go func() {
		m.done <- sim.Run(runCtx, v.opts.TickInterval)
	}()

	v.current = m
	v.logger.Info("viewer mounted",
		zap.Int("nodes", v.graph.NodeCount()),
		zap.Int("edges", v.graph.EdgeCount()),
		zap.Strings("forces", sim.ForceNames()),
	)
	return nil
}

// Unmount stops the tick loop and discards the simulation state
func (v *Viewer) Unmount() error {
	v.mu.Lock()
	m := v.current
	v.current = nil
	v.mu.Unlock()

	if m == nil {
		return ErrNotMounted
	}

	m.cancel()
	err := <-m.done
	for _, remove := range m.remove {
		remove()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("unmount: %w", err)
	}
	v.logger.Info("viewer unmounted", zap.Uint64("ticks", m.sim.Ticks()))
	return nil
}

func (v *Viewer) mounted() (*mount, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return nil, ErrNotMounted
	}
	return v.current, nil
}

// Resize changes the viewport size and restarts the simulation so the
// layout moves to the new center
func (v *Viewer) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize: invalid size %vx%v", width, height)
	}
	m, err := v.mounted()
	if err != nil {
		return err
	}
	m.surface.Resize(width, height)
	m.sim.Kick(ResizeAlpha)
	return nil
}

// Graph returns the viewed graph
func (v *Viewer) Graph() *models.Graph { return v.graph }

// Simulation returns the mounted simulation
func (v *Viewer) Simulation() (*physics.Simulation, error) {
	m, err := v.mounted()
	if err != nil {
		return nil, err
	}
	return m.sim, nil
}

// Controller returns the mounted interaction controller
func (v *Viewer) Controller() (*interact.Controller, error) {
	m, err := v.mounted()
	if err != nil {
		return nil, err
	}
	return m.ctrl, nil
}

// Surface returns the mounted render surface
func (v *Viewer) Surface() (*render.Surface, error) {
	m, err := v.mounted()
	if err != nil {
		return nil, err
	}
	return m.surface, nil
}

// Subscribe registers fn to receive every rendered frame across mounts.
// The returned function removes the subscription.
func (v *Viewer) Subscribe(fn func([]byte)) (remove func()) {
	v.sinkMu.Lock()
	defer v.sinkMu.Unlock()
	id := v.nextSink
	v.nextSink++
	v.sinks[id] = fn
	return func() {
		v.sinkMu.Lock()
		defer v.sinkMu.Unlock()
		delete(v.sinks, id)
	}
}

func (v *Viewer) broadcast(frame []byte) {
	v.sinkMu.RLock()
	defer v.sinkMu.RUnlock()
	for _, fn := range v.sinks {
		fn(frame)
	}
}

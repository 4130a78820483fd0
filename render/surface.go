package render

import (
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/forcegraph/models"
	"github.com/TFMV/forcegraph/physics"
)

// Centerer moves the target of the centering force
type Centerer interface {
	Recenter(c r2.Vec)
}

// OrderSource supplies the bottom-to-top node drawing order
type OrderSource interface {
	Order() []string
}

// Surface is the tick listener that keeps the latest rendered frame. It
// owns nothing but the viewport size; everything it draws comes from the
// frame it is handed.
type Surface struct {
	mu sync.RWMutex

	graph    *models.Graph
	centerer Centerer
	order    OrderSource
	renderer Renderer
	options  OutputOptions
	logger   *zap.Logger

	scene  Scene
	latest []byte

	sinks    map[int]func([]byte)
	nextSink int
}

// NewSurface creates a surface sized by options. order may be nil.
func NewSurface(graph *models.Graph, centerer Centerer, order OrderSource, renderer Renderer, options *OutputOptions, logger *zap.Logger) *Surface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Surface{
		graph:    graph,
		centerer: centerer,
		order:    order,
		renderer: renderer,
		options:  *options,
		logger:   logger,
		sinks:    make(map[int]func([]byte)),
	}
}

// Draw renders frame and hands the bytes to every subscriber. It has the
// physics.TickFunc signature.
func (s *Surface) Draw(frame physics.Frame) {
	var order []string
	if s.order != nil {
		order = s.order.Order()
	}

	s.mu.RLock()
	opts := s.options
	s.mu.RUnlock()

	scene := NewScene(s.graph, frame, order, opts.Width, opts.Height)
	out, err := s.renderer.Render(scene, &opts)
	if err != nil {
		s.logger.Error("render failed", zap.Uint64("tick", frame.Tick), zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.latest != nil && frame.Tick < s.scene.Frame.Tick {
		// A newer frame was stored while this one rendered.
		s.mu.Unlock()
		return
	}
	s.scene = scene
	s.latest = out
	sinks := make([]func([]byte), 0, len(s.sinks))
	for _, fn := range s.sinks {
		sinks = append(sinks, fn)
	}
	s.mu.Unlock()

	for _, fn := range sinks {
		fn(out)
	}
}

// Resize updates the surface size, recenters the simulation and redraws the
// last frame at the new size. Node positions are not touched.
func (s *Surface) Resize(width, height float64) {
	s.mu.Lock()
	s.options.Width = width
	s.options.Height = height
	frame := s.scene.Frame
	drawn := s.latest != nil
	s.mu.Unlock()

	if s.centerer != nil {
		s.centerer.Recenter(r2.Vec{X: width / 2, Y: height / 2})
	}
	if drawn {
		s.Draw(frame)
	}
	s.logger.Debug("surface resized", zap.Float64("width", width), zap.Float64("height", height))
}

// Size returns the current surface size
func (s *Surface) Size() (width, height float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options.Width, s.options.Height
}

// Options returns a copy of the current output options
func (s *Surface) Options() OutputOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

// Latest returns the most recently rendered bytes, nil before the first tick
func (s *Surface) Latest() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Scene returns the most recently drawn scene
func (s *Surface) Scene() Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene
}

// Subscribe registers fn to receive every rendered frame. The returned
// function removes the subscription.
func (s *Surface) Subscribe(fn func([]byte)) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSink
	s.nextSink++
	s.sinks[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.sinks, id)
	}
}

// Package physics implements the force-directed simulation that positions
// graph nodes. A Simulation owns the mutable body state; force laws are
// composed as an ordered list and summed per body on every tick.
package physics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrUnknownBody is returned when an id does not name a simulated body
var ErrUnknownBody = errors.New("unknown body")

// Config holds the cooling schedule and integration parameters
type Config struct {
	Alpha         float64
	AlphaMin      float64
	AlphaDecay    float64
	AlphaTarget   float64
	VelocityDecay float64
	Seed          uint32
}

// DefaultAlphaDecay cools alpha from 1 to DefaultConfig().AlphaMin in 300 ticks
var DefaultAlphaDecay = 1 - math.Pow(0.001, 1.0/300)

// AlphaDecayFor returns the decay that cools alpha from 1 to alphaMin in
// the given number of ticks
func AlphaDecayFor(alphaMin float64, ticks int) float64 {
	if alphaMin <= 0 || alphaMin >= 1 || ticks <= 0 {
		return DefaultAlphaDecay
	}
	return 1 - math.Pow(alphaMin, 1/float64(ticks))
}

// DefaultConfig returns the standard cooling schedule
func DefaultConfig() Config {
	return Config{
		Alpha:         1,
		AlphaMin:      0.001,
		AlphaDecay:    DefaultAlphaDecay,
		AlphaTarget:   0,
		VelocityDecay: 0.4,
	}
}

// TickFunc is called after every tick with the committed state
type TickFunc func(Frame)

type listener struct {
	id int
	fn TickFunc
}

// Simulation integrates body positions under a list of forces
type Simulation struct {
	// tickMu serializes ticks: a tick and its listeners complete before the
	// next tick starts.
	tickMu sync.Mutex
	mu     sync.Mutex

	cfg    Config
	bodies []*Body
	index  map[string]int
	forces []Force
	rng    *Random

	alpha       float64
	alphaTarget float64
	running     bool
	ticks       uint64

	listeners    []listener
	nextListener int
	wake         chan struct{}

	logger *zap.Logger
}

const (
	initialRadius = 10.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// New creates a simulation for the given node ids. Bodies start on a
// phyllotaxis spiral around center so no two bodies coincide; forces are
// initialized in order.
func New(ids []string, center r2.Vec, cfg Config, logger *zap.Logger, forces ...Force) *Simulation {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Simulation{
		cfg:         cfg,
		bodies:      make([]*Body, len(ids)),
		index:       make(map[string]int, len(ids)),
		forces:      forces,
		rng:         NewRandom(cfg.Seed),
		alpha:       cfg.Alpha,
		alphaTarget: cfg.AlphaTarget,
		running:     true,
		wake:        make(chan struct{}, 1),
		logger:      logger,
	}

	for i, id := range ids {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		s.bodies[i] = &Body{
			ID:       id,
			Index:    i,
			Position: r2.Add(center, r2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}),
			State:    Free{},
		}
		s.index[id] = i
	}

	for _, f := range forces {
		if c, ok := f.(*ChargeForce); ok {
			c.onDegenerate = s.recordDegenerate
		}
		f.Initialize(s.bodies, s.rng)
	}

	return s
}

func (s *Simulation) recordDegenerate(err error) {
	DegenerateRecoveries.Inc()
	s.logger.Debug("recovered degenerate geometry", zap.Error(err))
}

// OnTick registers fn to run after every tick. The returned function
// removes the registration.
func (s *Simulation) OnTick(fn TickFunc) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Tick advances the simulation by one step regardless of whether it is
// running, then notifies listeners.
func (s *Simulation) Tick() Frame {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	s.alpha += (s.alphaTarget - s.alpha) * s.cfg.AlphaDecay

	acc := make([]r2.Vec, len(s.bodies))
	for _, f := range s.forces {
		f.Accumulate(s.bodies, s.alpha, acc)
	}

	for i, b := range s.bodies {
		switch st := b.State.(type) {
		case Pinned:
			b.Position = st.At
		case Free:
			v := r2.Scale(1-s.cfg.VelocityDecay, r2.Add(st.Velocity, acc[i]))
			if !finite(v) {
				v = r2.Vec{}
			}
			b.Position = r2.Add(b.Position, v)
			b.State = Free{Velocity: v}
		}
	}

	s.ticks++
	if s.alpha < s.cfg.AlphaMin {
		s.running = false
	}
	frame := s.snapshotLocked()
	listeners := make([]listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	TicksTotal.Inc()
	AlphaGauge.Set(frame.Alpha)

	for _, l := range listeners {
		l.fn(frame)
	}
	return frame
}

// Step ticks once if the simulation is running. It reports whether a tick
// happened.
func (s *Simulation) Step() bool {
	if !s.Running() {
		return false
	}
	s.Tick()
	return true
}

// Run drives Step on a ticker until ctx is done. While the simulation is
// at rest it blocks until Restart or Reheat wakes it.
func (s *Simulation) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.Step() {
				continue
			}
			s.logger.Debug("simulation at rest", zap.Uint64("ticks", s.Ticks()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
			}
		}
	}
}

// RunUntilStable ticks synchronously until alpha drops below AlphaMin or
// maxTicks is reached. It returns the number of ticks performed.
func (s *Simulation) RunUntilStable(maxTicks int) int {
	n := 0
	for n < maxTicks && s.Step() {
		n++
	}
	return n
}

// Restart resumes ticking without touching alpha
func (s *Simulation) Restart() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.signal()
}

// Kick raises alpha to at least alpha and resumes ticking. The alpha
// target and body positions are unchanged.
func (s *Simulation) Kick(alpha float64) {
	s.mu.Lock()
	if s.alpha < alpha {
		s.alpha = alpha
	}
	s.running = true
	s.mu.Unlock()
	s.signal()
}

// Stop halts ticking until the next Restart
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Reheat sets both alpha and the alpha target to target and resumes ticking
func (s *Simulation) Reheat(target float64) {
	s.mu.Lock()
	s.alphaTarget = target
	s.alpha = target
	s.running = true
	s.mu.Unlock()
	s.signal()
}

func (s *Simulation) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// SetAlphaTarget sets the value alpha decays toward
func (s *Simulation) SetAlphaTarget(target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alphaTarget = target
}

// Alpha returns the current energy
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// AlphaTarget returns the value alpha decays toward
func (s *Simulation) AlphaTarget() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alphaTarget
}

// Running reports whether Step will tick
func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Ticks returns the number of ticks performed so far
func (s *Simulation) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Pin holds body id at the given coordinates from the next tick on
func (s *Simulation) Pin(id string, at r2.Vec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("pin %s: %w", id, ErrUnknownBody)
	}
	s.bodies[i].State = Pinned{At: at}
	return nil
}

// Unpin releases body id back to the forces, at rest
func (s *Simulation) Unpin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("unpin %s: %w", id, ErrUnknownBody)
	}
	if s.bodies[i].IsPinned() {
		s.bodies[i].State = Free{}
	}
	return nil
}

// Recenter moves the target of every centering force. It touches only the
// force list, never the bodies.
func (s *Simulation) Recenter(c r2.Vec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forces {
		if r, ok := f.(Recenterer); ok {
			r.SetCenter(c)
		}
	}
}

// Frame returns a snapshot of the current state
func (s *Simulation) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ForceNames lists the registered forces in evaluation order
func (s *Simulation) ForceNames() []string {
	names := make([]string, len(s.forces))
	for i, f := range s.forces {
		names[i] = f.Name()
	}
	return names
}

func (s *Simulation) snapshotLocked() Frame {
	bodies := make([]BodyState, len(s.bodies))
	for i, b := range s.bodies {
		bodies[i] = BodyState{
			ID:       b.ID,
			Position: b.Position,
			Velocity: b.Velocity(),
			Pinned:   b.IsPinned(),
		}
	}
	return Frame{
		Tick:   s.ticks,
		Alpha:  s.alpha,
		Bodies: bodies,
		index:  s.index,
	}
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

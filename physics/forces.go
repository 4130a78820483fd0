package physics

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// Force is one force law of the simulation. Accumulate adds this law's
// contribution for every body into acc (indexed by Body.Index). It must read
// positions only and must not mutate bodies; the simulation commits
// positions after all forces have run.
type Force interface {
	Name() string
	Initialize(bodies []*Body, rng *Random)
	Accumulate(bodies []*Body, alpha float64, acc []r2.Vec)
}

// Recenterer is implemented by forces that track the viewport center
type Recenterer interface {
	SetCenter(c r2.Vec)
}

// DegenerateGeometryError reports two bodies at exactly the same position.
// Forces recover from it locally; it never leaves the package.
type DegenerateGeometryError struct {
	A, B string
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate geometry: bodies %q and %q coincide", e.A, e.B)
}

// Link names the two endpoints of a spring
type Link struct {
	Source string
	Target string
}

type spring struct {
	source, target int
	strength       float64
	bias           float64
}

// LinkForce pulls the endpoints of each link toward Distance
type LinkForce struct {
	Distance float64

	links   []Link
	springs []spring
	rng     *Random
}

// NewLinkForce creates a spring force over links
func NewLinkForce(links []Link, distance float64) *LinkForce {
	return &LinkForce{Distance: distance, links: links}
}

// Name returns the name of the force
func (f *LinkForce) Name() string { return "link" }

// Initialize resolves link endpoints and derives per-link stiffness from
// endpoint degree, so hubs are not torn apart by many springs.
func (f *LinkForce) Initialize(bodies []*Body, rng *Random) {
	f.rng = rng
	index := make(map[string]int, len(bodies))
	for _, b := range bodies {
		index[b.ID] = b.Index
	}

	count := make([]int, len(bodies))
	type pair struct{ s, t int }
	resolved := make([]pair, 0, len(f.links))
	for _, l := range f.links {
		s, okS := index[l.Source]
		t, okT := index[l.Target]
		if !okS || !okT || s == t {
			continue
		}
		count[s]++
		count[t]++
		resolved = append(resolved, pair{s, t})
	}

	f.springs = make([]spring, len(resolved))
	for i, p := range resolved {
		f.springs[i] = spring{
			source:   p.s,
			target:   p.t,
			strength: 1 / float64(min(count[p.s], count[p.t])),
			bias:     float64(count[p.s]) / float64(count[p.s]+count[p.t]),
		}
	}
}

// Accumulate adds spring corrections
func (f *LinkForce) Accumulate(bodies []*Body, alpha float64, acc []r2.Vec) {
	for _, sp := range f.springs {
		d := r2.Sub(bodies[sp.target].Position, bodies[sp.source].Position)
		l := r2.Norm(d)
		if l == 0 {
			d = f.rng.Jiggle()
			l = r2.Norm(d)
		}
		k := (l - f.Distance) / l * alpha * sp.strength
		d = r2.Scale(k, d)
		acc[sp.target] = r2.Sub(acc[sp.target], r2.Scale(sp.bias, d))
		acc[sp.source] = r2.Add(acc[sp.source], r2.Scale(1-sp.bias, d))
	}
}

// ChargeForce makes every pair of bodies repel (negative Strength) or attract
type ChargeForce struct {
	Strength    float64
	DistanceMin float64

	rng          *Random
	onDegenerate func(error)
}

// NewChargeForce creates a pairwise charge force
func NewChargeForce(strength float64) *ChargeForce {
	return &ChargeForce{Strength: strength, DistanceMin: 1}
}

// Name returns the name of the force
func (f *ChargeForce) Name() string { return "charge" }

// Initialize stores the jiggle source
func (f *ChargeForce) Initialize(_ []*Body, rng *Random) {
	f.rng = rng
}

// Accumulate adds pairwise charge contributions
func (f *ChargeForce) Accumulate(bodies []*Body, alpha float64, acc []r2.Vec) {
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			push, err := f.contribution(a, b, r2.Sub(b.Position, a.Position), alpha)
			if err != nil {
				if f.onDegenerate != nil {
					f.onDegenerate(err)
				}
				push, _ = f.contribution(a, b, f.rng.Jiggle(), alpha)
			}
			acc[a.Index] = r2.Add(acc[a.Index], push)
			acc[b.Index] = r2.Sub(acc[b.Index], push)
		}
	}
}

// contribution returns the force on a due to b, where delta points from a
// to b. Its magnitude is |Strength|·alpha/d with d floored at DistanceMin.
func (f *ChargeForce) contribution(a, b *Body, delta r2.Vec, alpha float64) (r2.Vec, error) {
	d := r2.Norm(delta)
	if d == 0 {
		return r2.Vec{}, &DegenerateGeometryError{A: a.ID, B: b.ID}
	}
	m := f.Strength * alpha / math.Max(d, f.DistanceMin)
	return r2.Scale(m/d, delta), nil
}

// CenterForce pulls the centroid of all bodies toward Center
type CenterForce struct {
	Center   r2.Vec
	Strength float64
}

// NewCenterForce creates a centering force
func NewCenterForce(center r2.Vec, strength float64) *CenterForce {
	return &CenterForce{Center: center, Strength: strength}
}

// Name returns the name of the force
func (f *CenterForce) Name() string { return "center" }

// Initialize is a no-op for the centering force
func (f *CenterForce) Initialize([]*Body, *Random) {}

// SetCenter moves the target point
func (f *CenterForce) SetCenter(c r2.Vec) { f.Center = c }

// Accumulate adds the same correction to every body
func (f *CenterForce) Accumulate(bodies []*Body, _ float64, acc []r2.Vec) {
	if len(bodies) == 0 {
		return
	}
	var sum r2.Vec
	for _, b := range bodies {
		sum = r2.Add(sum, b.Position)
	}
	centroid := r2.Scale(1/float64(len(bodies)), sum)
	shift := r2.Scale(f.Strength, r2.Sub(f.Center, centroid))
	for i := range acc {
		acc[i] = r2.Add(acc[i], shift)
	}
}

// NoiseForce adds a slowly evolving OpenSimplex drift, scaled by alpha so it
// fades out as the layout settles.
type NoiseForce struct {
	Intensity float64
	Scale     float64

	noise opensimplex.Noise
	time  float64
}

// NewNoiseForce creates a drift force seeded with seed
func NewNoiseForce(intensity float64, seed int64) *NoiseForce {
	return &NoiseForce{
		Intensity: intensity,
		Scale:     0.03,
		noise:     opensimplex.New(seed),
	}
}

// Name returns the name of the force
func (f *NoiseForce) Name() string { return "noise" }

// Initialize resets the noise clock
func (f *NoiseForce) Initialize([]*Body, *Random) { f.time = 0 }

// Accumulate adds the drift sampled at each body's position
func (f *NoiseForce) Accumulate(bodies []*Body, alpha float64, acc []r2.Vec) {
	for _, b := range bodies {
		p := b.Position
		drift := r2.Vec{
			X: f.noise.Eval3(p.X*f.Scale, p.Y*f.Scale, f.time),
			Y: f.noise.Eval3(p.X*f.Scale+100, p.Y*f.Scale+100, f.time),
		}
		acc[b.Index] = r2.Add(acc[b.Index], r2.Scale(f.Intensity*alpha, drift))
	}
	f.time += 0.01
}

package physics

import (
	"gonum.org/v1/gonum/spatial/r2"
)

const defaultSeed uint32 = 1234567890

// Random is a small xorshift generator. Each simulation owns one so layouts
// are reproducible for a given seed.
type Random struct {
	state uint32
}

// NewRandom creates a generator; a zero seed selects the default seed
func NewRandom(seed uint32) *Random {
	if seed == 0 {
		seed = defaultSeed
	}
	return &Random{state: seed}
}

// Float64 returns a value in [0, 1]
func (r *Random) Float64() float64 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 17
	r.state ^= r.state << 5
	return float64(r.state) / float64(4294967295)
}

// Jiggle returns a tiny nonzero vector used to separate coincident bodies
func (r *Random) Jiggle() r2.Vec {
	v := r2.Vec{X: (r.Float64() - 0.5) * 1e-6, Y: (r.Float64() - 0.5) * 1e-6}
	if v.X == 0 && v.Y == 0 {
		v.X = 1e-6
	}
	return v
}

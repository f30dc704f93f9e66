// Package rng provides the deterministic random source used by the
// simulation. Every consumer (mutation engine, colorizer, test fixtures)
// owns its own instance so reseeding one never perturbs another.
package rng

import (
	"math"
	"time"
)

// Xorshift32 is Marsaglia's 32-bit xorshift generator. It is statistically
// adequate for simulation work and is not cryptographic.
type Xorshift32 struct {
	state uint32

	hasSpare bool
	spare    float64
}

// New returns a generator seeded with the given value.
func New(seed uint32) *Xorshift32 {
	r := &Xorshift32{}
	r.Seed(seed)
	return r
}

// NewFromTime returns a generator seeded from the wall clock.
func NewFromTime() *Xorshift32 {
	return New(uint32(time.Now().UnixNano()))
}

// Seed resets the generator state. The xorshift state must never be zero;
// a zero seed is remapped to a fixed non-zero value.
func (r *Xorshift32) Seed(seed uint32) {
	if seed == 0 {
		seed = 42
	}
	r.state = seed
	r.hasSpare = false
	r.spare = 0
}

// Uint32 returns the next raw 32-bit value.
func (r *Xorshift32) Uint32() uint32 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 17
	r.state ^= r.state << 5
	return r.state
}

// Float returns a uniform value in [0, 1).
func (r *Xorshift32) Float() float64 {
	return float64(r.Uint32()&0x7FFFFFFF) / float64(1<<31)
}

// Intn returns a uniform integer in [0, n). It panics if n <= 0, matching
// the contract that callers bound their draws first.
func (r *Xorshift32) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn bound must be positive")
	}
	return int(r.Uint32() % uint32(n))
}

// Norm returns a standard-normal draw via the polar Box-Muller transform,
// caching the spare value between calls.
func (r *Xorshift32) Norm() float64 {
	if r.hasSpare {
		r.hasSpare = false
		return r.spare
	}

	var u, v, s float64
	for {
		u = 2*r.Float() - 1
		v = 2*r.Float() - 1
		s = u*u + v*v
		if s > 0 && s < 1 {
			break
		}
	}

	mul := math.Sqrt(-2 * math.Log(s) / s)
	r.spare = v * mul
	r.hasSpare = true
	return u * mul
}

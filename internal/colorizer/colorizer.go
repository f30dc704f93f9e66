// Package colorizer maps repeat units to deterministic RGBA colors by
// projecting a one-hot sequence encoding through a random orthogonal basis.
// It is a read-only collaborator of the simulation: it never mutates the
// array and the engine never depends on colors.
package colorizer

import (
	"image/color"
	"math"
	"sort"

	"censim/internal/repeat"
	"censim/internal/rng"
)

const (
	encodingSize  = repeat.UnitSize * 4
	cacheCapacity = 4096
	boundsSamples = 1000
)

// Colorizer holds an orthogonal 712x3 projection with fixed normalization
// bounds and a linear-probe color cache. It owns its random source; seeding
// a colorizer never perturbs a simulation's sequences.
type Colorizer struct {
	rng        *rng.Xorshift32
	projection [encodingSize][3]float64
	minVals    [3]float64
	maxVals    [3]float64

	cacheHashes []uint32
	cacheColors []color.RGBA
	cacheSize   int
}

// New builds a colorizer with the given seed. The same seed always yields
// the same projection, so colors are stable across runs.
func New(seed uint32) *Colorizer {
	c := &Colorizer{
		rng:         rng.New(seed),
		cacheHashes: make([]uint32, cacheCapacity),
		cacheColors: make([]color.RGBA, cacheCapacity),
	}

	for row := 0; row < encodingSize; row++ {
		for col := 0; col < 3; col++ {
			c.projection[row][col] = c.rng.Norm()
		}
	}
	c.orthogonalize()
	c.computeFixedBounds()
	return c
}

// orthogonalize runs Gram-Schmidt over the three projection columns.
func (c *Colorizer) orthogonalize() {
	for col := 0; col < 3; col++ {
		for prev := 0; prev < col; prev++ {
			var dot, normSq float64
			for row := 0; row < encodingSize; row++ {
				dot += c.projection[row][col] * c.projection[row][prev]
				normSq += c.projection[row][prev] * c.projection[row][prev]
			}
			if normSq > 0 {
				scale := dot / normSq
				for row := 0; row < encodingSize; row++ {
					c.projection[row][col] -= scale * c.projection[row][prev]
				}
			}
		}

		var norm float64
		for row := 0; row < encodingSize; row++ {
			norm += c.projection[row][col] * c.projection[row][col]
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for row := 0; row < encodingSize; row++ {
				c.projection[row][col] /= norm
			}
		}
	}
}

// computeFixedBounds estimates per-channel normalization bounds from random
// sequences, taking the 1st/99th percentiles with padding so outliers still
// land inside [0,1] after clamping.
func (c *Colorizer) computeFixedBounds() {
	raw := make([][3]float64, boundsSamples)
	var u repeat.Unit
	for s := 0; s < boundsSamples; s++ {
		for i := 0; i < repeat.UnitSize; i++ {
			u[i] = repeat.Bases[c.rng.Intn(4)]
		}
		raw[s] = c.project(&u)
	}

	for ch := 0; ch < 3; ch++ {
		vals := make([]float64, boundsSamples)
		for s := 0; s < boundsSamples; s++ {
			vals[s] = raw[s][ch]
		}
		sort.Float64s(vals)
		c.minVals[ch] = vals[boundsSamples/100] - 0.5
		c.maxVals[ch] = vals[boundsSamples-boundsSamples/100-1] + 0.5
	}
}

// project computes the 3-channel projection of a unit. The encoding is
// one-hot, so only one projection row per base position contributes.
func (c *Colorizer) project(u *repeat.Unit) [3]float64 {
	var out [3]float64
	for i := 0; i < repeat.UnitSize; i++ {
		var baseIdx int
		switch u[i] {
		case 'A':
			baseIdx = 0
		case 'C':
			baseIdx = 1
		case 'G':
			baseIdx = 2
		case 'T':
			baseIdx = 3
		default:
			continue
		}
		row := i*4 + baseIdx
		out[0] += c.projection[row][0]
		out[1] += c.projection[row][1]
		out[2] += c.projection[row][2]
	}
	return out
}

func hashUnit(u *repeat.Unit) uint32 {
	h := uint32(2166136261)
	for _, b := range u {
		h ^= uint32(b)
		h *= 16777619
	}
	return h
}

// Color returns the RGBA color for a unit, consulting the cache first.
func (c *Colorizer) Color(u *repeat.Unit) color.RGBA {
	h := hashUnit(u)

	idx := int(h % cacheCapacity)
	for probes := 0; c.cacheHashes[idx] != 0 && probes < cacheCapacity; probes++ {
		if c.cacheHashes[idx] == h {
			return c.cacheColors[idx]
		}
		idx = (idx + 1) % cacheCapacity
	}

	col := c.computeColor(u)
	// Cap the load factor so probe chains stay short; past that point
	// colors are recomputed instead of cached.
	if c.cacheHashes[idx] == 0 && c.cacheSize < cacheCapacity/2 {
		c.cacheHashes[idx] = h
		c.cacheColors[idx] = col
		c.cacheSize++
	}
	return col
}

func (c *Colorizer) computeColor(u *repeat.Unit) color.RGBA {
	vals := c.project(u)
	var channels [3]uint8
	for ch := 0; ch < 3; ch++ {
		span := c.maxVals[ch] - c.minVals[ch]
		t := 0.0
		if span > 0 {
			t = (vals[ch] - c.minVals[ch]) / span
		}
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		channels[ch] = uint8(t * 255)
	}
	return color.RGBA{R: channels[0], G: channels[1], B: channels[2], A: 255}
}

// ClearCache drops all cached colors; the projection and bounds are kept.
func (c *Colorizer) ClearCache() {
	for i := range c.cacheHashes {
		c.cacheHashes[i] = 0
	}
	c.cacheSize = 0
}

// CacheSize reports the number of cached entries.
func (c *Colorizer) CacheSize() int { return c.cacheSize }

package dist

import (
	"math"

	"censim/internal/rng"
)

// Sampler draws event counts and sizes from an owned random source.
type Sampler struct {
	rng *rng.Xorshift32
}

// NewSampler wraps the given random source. The sampler does not reseed it.
func NewSampler(r *rng.Xorshift32) *Sampler {
	return &Sampler{rng: r}
}

// Poisson draws from Poisson(lambda) using Knuth's inverse-transform
// algorithm. Non-positive lambda yields 0.
func (s *Sampler) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}

	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= s.rng.Float()
		if p <= limit {
			break
		}
	}
	return k - 1
}

// Gamma draws from Gamma(shape, scale) using the Marsaglia-Tsang rejection
// method. Shapes below 1 are boosted and rescaled by U^(1/shape).
func (s *Sampler) Gamma(shape, scale float64) float64 {
	if shape <= 0 || scale <= 0 {
		return 0
	}

	if shape < 1 {
		u := s.rng.Float()
		for u == 0 {
			u = s.rng.Float()
		}
		return s.Gamma(shape+1, scale) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := s.rng.Norm()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := s.rng.Float()
		if u < 1-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// NegativeBinomial draws an overdispersed count with the given mean and
// dispersion r, realized as a Gamma-Poisson mixture. Variance grows as r
// shrinks; non-positive r falls back to plain Poisson(mean).
func (s *Sampler) NegativeBinomial(mean, r float64) int {
	if mean <= 0 {
		return 0
	}
	if r <= 0 {
		return s.Poisson(mean)
	}
	lambda := s.Gamma(r, mean/r)
	return s.Poisson(lambda)
}

// Geometric draws an event size with the given mean via inverse transform,
// floored at 1 (sizes are never zero).
func (s *Sampler) Geometric(mean float64) int {
	if mean <= 0 {
		return 1
	}

	p := 1 / (1 + mean)
	u := s.rng.Float()
	for u == 0 {
		u = s.rng.Float()
	}
	k := int(math.Floor(math.Log(u) / math.Log(1-p)))
	if k < 1 {
		return 1
	}
	return k
}

// PowerLaw draws a heavy-tailed event size from a Pareto distribution with
// the given mean and shape alpha. Alpha must exceed 1 for the mean to be
// finite; degenerate parameters yield the minimum size.
func (s *Sampler) PowerLaw(mean, alpha float64) int {
	if mean <= 0 || alpha <= 1 {
		return 1
	}

	xMin := mean * (alpha - 1) / alpha
	if xMin < 1 {
		xMin = 1
	}
	u := s.rng.Float()
	x := xMin * math.Pow(1-u, -1/alpha)
	k := int(x)
	if k < 1 {
		return 1
	}
	return k
}

// Count draws an event count under the configured count distribution.
// Dispersion only applies to the negative-binomial model.
func (s *Sampler) Count(d CountDistribution, mean, dispersion float64) int {
	switch d {
	case CountNegativeBinomial:
		return s.NegativeBinomial(mean, dispersion)
	default:
		return s.Poisson(mean)
	}
}

// Size draws an indel size under the configured size distribution; the
// result is always at least 1. Alpha only applies to the power-law model.
func (s *Sampler) Size(d SizeDistribution, mean, alpha float64) int {
	switch d {
	case SizeGeometric:
		return s.Geometric(mean)
	case SizePowerLaw:
		return s.PowerLaw(mean, alpha)
	default:
		k := s.Poisson(mean)
		if k < 1 {
			return 1
		}
		return k
	}
}

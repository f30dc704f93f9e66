// Package sim implements the generation-by-generation mutation engine for a
// tandem repeat array: point substitutions, tandem duplications, and
// deletions under an elastic-bounding control policy, with collapse
// detection and derived diversity statistics.
package sim

import (
	"censim/internal/dist"
	"censim/internal/repeat"
	"censim/internal/rng"
)

// state is the engine lifecycle state. The ApplyingSNPs/ApplyingIndels
// phases are transient within a single Step; only Idle and Collapsed
// persist between calls.
type state int

const (
	stateIdle state = iota
	stateCollapsed
)

// Simulation aggregates the repeat array, the mutation policy, and the
// cumulative statistics. It owns its random source outright: independent
// simulations never perturb each other's sequences. A Simulation is
// single-threaded; callers needing parallelism run independent instances.
type Simulation struct {
	array   *repeat.Array
	params  Params
	stats   Stats
	rng     *rng.Xorshift32
	sampler *dist.Sampler

	initialSize int
	state       state
}

// New builds a simulation of initialSize consensus monomers with default
// parameters, seeded from the wall clock.
func New(initialSize int) *Simulation {
	return newSim(initialSize, rng.NewFromTime())
}

// NewSeeded builds a simulation with a fixed seed for reproducible runs.
func NewSeeded(initialSize int, seed uint32) *Simulation {
	return newSim(initialSize, rng.New(seed))
}

func newSim(initialSize int, r *rng.Xorshift32) *Simulation {
	if initialSize <= 0 {
		initialSize = DefaultInitialSize
	}
	return &Simulation{
		array:       repeat.NewArray(initialSize, repeat.MonomerUnit()),
		params:      DefaultParams(),
		rng:         r,
		sampler:     dist.NewSampler(r),
		initialSize: initialSize,
	}
}

// Array exposes the repeat array for read-only collaborators (export,
// colorization) and for test setup. The engine remains its owner.
func (s *Simulation) Array() *repeat.Array { return s.array }

// Params returns a copy of the current policy.
func (s *Simulation) Params() Params { return s.params }

// SetParams replaces the policy. Safe between steps; the engine never
// validates the new values (see package doc on degenerate configurations).
func (s *Simulation) SetParams(p Params) { s.params = p }

// Stats returns a copy of the cumulative statistics.
func (s *Simulation) Stats() Stats { return s.stats }

// Collapsed reports whether the array has entered the terminal collapsed
// state.
func (s *Simulation) Collapsed() bool { return s.state == stateCollapsed }

// Step advances exactly one generation: the SNP phase, then the indel
// phase. Once collapsed, Step is an idempotent no-op.
func (s *Simulation) Step() {
	if s.state == stateCollapsed {
		return
	}
	s.stats.Generation++
	s.applySNPs()
	s.applyIndels()
}

// Run calls Step up to generations times, stopping early on collapse.
func (s *Simulation) Run(generations int) {
	for i := 0; i < generations; i++ {
		if s.state == stateCollapsed {
			return
		}
		s.Step()
	}
}

// Reset discards the array and statistics and rebuilds the initial
// population at the originally requested size. The current Params are
// preserved.
func (s *Simulation) Reset() {
	s.array = repeat.NewArray(s.initialSize, repeat.MonomerUnit())
	s.stats = Stats{}
	s.state = stateIdle
}

func (s *Simulation) collapse() {
	s.stats.Collapsed = true
	s.state = stateCollapsed
}

func (s *Simulation) applySNPs() {
	n := s.sampler.Count(s.params.CountDist, s.params.SNPRate, s.params.NBDispersion)
	for i := 0; i < n; i++ {
		if s.array.Len() == 0 {
			break
		}
		unit := s.array.At(s.rng.Intn(s.array.Len()))
		pos := s.rng.Intn(repeat.UnitSize)
		old := unit[pos]
		for {
			b := repeat.Bases[s.rng.Intn(4)]
			if b != old {
				unit[pos] = b
				break
			}
		}
		s.stats.SNPCount++
	}
}

func (s *Simulation) applyIndels() {
	n := s.sampler.Count(s.params.CountDist, s.params.IndelRate, s.params.NBDispersion)
	for i := 0; i < n; i++ {
		length := s.array.Len()
		if length == 0 {
			s.collapse()
			return
		}

		isDup := s.rng.Float() < s.dupProbability(length)
		size := s.sampler.Size(s.params.SizeDist, s.params.IndelSizeMean, s.params.PowerLawAlpha)

		start := s.rng.Intn(length)
		end := start + size
		if end > length {
			// Rejected sample, not an error: wrapping or truncating
			// would bias the size statistics.
			continue
		}

		if isDup {
			if s.params.BoundingEnabled && length+size > s.params.MaxSize {
				continue
			}
			s.array.Duplicate(start, end)
			s.stats.DupCount++
		} else {
			if s.params.BoundingEnabled && length-size < s.params.MinSize {
				continue
			}
			s.array.Delete(start, end)
			s.stats.DelCount++
		}
	}

	if s.array.Len() < s.params.MinSize {
		s.collapse()
	}
}

// dupProbability applies the elastic-bounding bias: an oversized array
// reduces duplication probability, an undersized one increases it, pulling
// the length toward TargetSize over many generations without hard clamping.
func (s *Simulation) dupProbability(length int) float64 {
	p := s.params.DupBias
	if s.params.Elasticity > 0 && s.params.TargetSize > 0 {
		deviation := float64(length-s.params.TargetSize) / float64(s.params.TargetSize)
		p -= s.params.Elasticity * deviation
		if p < 0.05 {
			p = 0.05
		}
		if p > 0.95 {
			p = 0.95
		}
	}
	return p
}

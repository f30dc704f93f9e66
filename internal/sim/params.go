package sim

import "censim/internal/dist"

// DefaultInitialSize is the array size used when the caller does not
// request one.
const DefaultInitialSize = 10000

// Params is the policy configuration for a simulation. It is fully owned by
// the Simulation and may be replaced by the driver between steps. No
// invariant ties fields together beyond rates and sizes being non-negative;
// contradictory bounds (MinSize > MaxSize) are tolerated and simply make
// certain branches permanently rejecting.
type Params struct {
	// Mean event counts per generation.
	SNPRate   float64
	IndelRate float64

	// Mean indel size in repeat units.
	IndelSizeMean float64

	// Hard bounds, enforced only when BoundingEnabled is set.
	MinSize         int
	MaxSize         int
	BoundingEnabled bool

	// Elastic bounding: proportional-control bias toward TargetSize.
	// Elasticity 0 disables the adjustment.
	TargetSize int
	Elasticity float64

	// Base duplication probability in [0,1]. 0 = all deletions,
	// 0.5 = balanced, 1 = all duplications.
	DupBias float64

	// Distribution models.
	CountDist     dist.CountDistribution
	SizeDist      dist.SizeDistribution
	NBDispersion  float64
	PowerLawAlpha float64
}

// DefaultParams returns the stock parameter set for a CEN178-like array.
func DefaultParams() Params {
	return Params{
		SNPRate:         0.1,
		IndelRate:       0.5,
		IndelSizeMean:   7.6,
		MinSize:         300,
		MaxSize:         50000,
		BoundingEnabled: true,
		TargetSize:      10000,
		Elasticity:      0.1,
		DupBias:         0.5,
		CountDist:       dist.CountPoisson,
		SizeDist:        dist.SizePoisson,
		NBDispersion:    10,
		PowerLawAlpha:   2.5,
	}
}

// Stats is the engine-owned cumulative record of a simulation. Collapsed is
// sticky: once set it is only cleared by Reset.
type Stats struct {
	Generation int
	SNPCount   int
	DupCount   int
	DelCount   int
	Collapsed  bool
}

// Package dist implements the event-count and event-size samplers used by
// the mutation engine. Dispatch over the distribution kind is a pure function
// of the configured enum plus the owning random source; there is no hidden
// state beyond the generator itself.
package dist

import "fmt"

// CountDistribution selects the model for per-generation event counts.
type CountDistribution int

const (
	CountPoisson CountDistribution = iota
	CountNegativeBinomial
)

func (d CountDistribution) String() string {
	switch d {
	case CountPoisson:
		return "poisson"
	case CountNegativeBinomial:
		return "negative-binomial"
	default:
		return fmt.Sprintf("count-distribution(%d)", int(d))
	}
}

// ParseCountDistribution maps a config string to a count distribution.
func ParseCountDistribution(name string) (CountDistribution, error) {
	switch name {
	case "", "poisson":
		return CountPoisson, nil
	case "negative-binomial", "nb":
		return CountNegativeBinomial, nil
	default:
		return 0, fmt.Errorf("unknown count distribution: %s", name)
	}
}

// SizeDistribution selects the model for indel sizes.
type SizeDistribution int

const (
	SizePoisson SizeDistribution = iota
	SizeGeometric
	SizePowerLaw
)

func (d SizeDistribution) String() string {
	switch d {
	case SizePoisson:
		return "poisson"
	case SizeGeometric:
		return "geometric"
	case SizePowerLaw:
		return "power-law"
	default:
		return fmt.Sprintf("size-distribution(%d)", int(d))
	}
}

// ParseSizeDistribution maps a config string to a size distribution.
func ParseSizeDistribution(name string) (SizeDistribution, error) {
	switch name {
	case "", "poisson":
		return SizePoisson, nil
	case "geometric":
		return SizeGeometric, nil
	case "power-law", "powerlaw", "pareto":
		return SizePowerLaw, nil
	default:
		return 0, fmt.Errorf("unknown size distribution: %s", name)
	}
}

package genotype

import (
	"fmt"
	"math"
	"math/rand"
)

// FloatMutator draws a new value for a float gene. variance is the gene's local
// variance scaled by the incoming float variance.
type FloatMutator interface {
	Name() string
	Parameter() float64
	Mutate(rng *rand.Rand, value, variance, min, max float64) float64
}

// GaussianMutator adds N(0, variance) and is the default.
type GaussianMutator struct{}

func (GaussianMutator) Name() string { return "gaussian" }

func (GaussianMutator) Parameter() float64 { return 0 }

func (GaussianMutator) Mutate(rng *rand.Rand, value, variance, _, _ float64) float64 {
	return value + rng.NormFloat64()*variance
}

// ConstantMutator adds N(0, StdDev) and resamples until the result lies in range.
type ConstantMutator struct {
	StdDev float64
}

func (ConstantMutator) Name() string { return "constant" }

func (m ConstantMutator) Parameter() float64 { return m.StdDev }

func (m ConstantMutator) Mutate(rng *rand.Rand, value, _, min, max float64) float64 {
	for i := 0; i < 100; i++ {
		v := value + rng.NormFloat64()*m.StdDev
		if v >= min && v <= max {
			return v
		}
	}
	return value
}

// LogNormalMutator scales by exp(Tau*N(0,1)) and floors the result at min.
// It drives the self-adaptive rate genes.
type LogNormalMutator struct {
	Tau float64
}

func (LogNormalMutator) Name() string { return "lognormal" }

func (m LogNormalMutator) Parameter() float64 { return m.Tau }

func (m LogNormalMutator) Mutate(rng *rand.Rand, value, _, min, _ float64) float64 {
	v := value * math.Exp(m.Tau*rng.NormFloat64())
	if v < min {
		v = min
	}
	return v
}

// LogisticMutator perturbs a probability in logit space.
type LogisticMutator struct {
	Phi float64
}

func (LogisticMutator) Name() string { return "logistic" }

func (m LogisticMutator) Parameter() float64 { return m.Phi }

func (m LogisticMutator) Mutate(rng *rand.Rand, value, _, _, _ float64) float64 {
	const eps = 1e-9
	p := math.Min(math.Max(value, eps), 1-eps)
	return 1 / (1 + (1-p)/p*math.Exp(-m.Phi*rng.NormFloat64()))
}

func mutatorByName(name string, param float64) (FloatMutator, error) {
	switch name {
	case "":
		return nil, nil
	case "gaussian":
		return GaussianMutator{}, nil
	case "constant":
		return ConstantMutator{StdDev: param}, nil
	case "lognormal":
		return LogNormalMutator{Tau: param}, nil
	case "logistic":
		return LogisticMutator{Phi: param}, nil
	default:
		return nil, fmt.Errorf("unknown float mutator: %s", name)
	}
}

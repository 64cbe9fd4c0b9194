package genotype

import (
	"fmt"
	"math"
)

// Reserved gene ids a container reads its own recombination and mutation parameters from.
const (
	GenePx = "Px"
	GeneNx = "Nx"
	GeneRM = "RM"
	GeneRb = "Rb"
	GeneRf = "Rf"
	GeneVf = "Vf"
	GeneRi = "Ri"
)

// Recombination methods selectable through the RM gene.
const (
	RecombineCrossover = 1
	RecombineUniform   = 2
)

// MutationRate bundles the per-kind mutation probabilities handed down the genome tree.
type MutationRate struct {
	Binary         float64
	Int            float64
	Float          float64
	FloatVariance  float64
	AutoAdaptation bool
}

// DefaultMutationRate mirrors the population defaults.
func DefaultMutationRate() MutationRate {
	return MutationRate{Binary: 0.01, Int: 0.01, Float: 0.1, FloatVariance: 0.1}
}

// Combine multiplies the rates and ORs the adaptation flag.
func (r MutationRate) Combine(other MutationRate) MutationRate {
	return MutationRate{
		Binary:         r.Binary * other.Binary,
		Int:            r.Int * other.Int,
		Float:          r.Float * other.Float,
		FloatVariance:  r.FloatVariance * other.FloatVariance,
		AutoAdaptation: r.AutoAdaptation || other.AutoAdaptation,
	}
}

func (r MutationRate) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{{"binary", r.Binary}, {"int", r.Int}, {"float", r.Float}}
	for _, c := range checks {
		if c.v < 0 || c.v > 1 || math.IsNaN(c.v) {
			return fmt.Errorf("%s mutation rate must be in [0,1]: %v", c.name, c.v)
		}
	}
	if r.FloatVariance < 0 || math.IsNaN(r.FloatVariance) {
		return fmt.Errorf("float variance must be >= 0: %v", r.FloatVariance)
	}
	return nil
}

// RatesFrom reads the self-adaptive rate genes among the container's own children.
// Missing genes count as the neutral factor 1.
func RatesFrom(c Composite) MutationRate {
	return MutationRate{
		Binary:        floatChild(c, GeneRb, 1),
		Int:           floatChild(c, GeneRi, 1),
		Float:         floatChild(c, GeneRf, 1),
		FloatVariance: floatChild(c, GeneVf, 1),
	}
}

// addMutationRateGenes appends the hidden self-adaptive rate genes in [lowBound,1].
func addMutationRateGenes(c *Container, lowBound float64) error {
	if lowBound <= 0 || lowBound > 1 {
		return fmt.Errorf("%w: mutation rate low bound %v", ErrInvalidRange, lowBound)
	}
	for _, id := range []string{GeneRb, GeneRf, GeneVf, GeneRi} {
		g, err := NewFloatGene(id, lowBound, 1)
		if err != nil {
			return err
		}
		g.SetMutability(10)
		g.SetMutator(LogNormalMutator{Tau: 1 / math.Sqrt(30)})
		g.SetHidden(true)
		c.Add(g)
	}
	return nil
}

func childByID(c Composite, id string) Node {
	for _, child := range c.Children() {
		if child.ID() == id {
			return child
		}
	}
	return nil
}

func floatChild(c Composite, id string, fallback float64) float64 {
	if g, ok := childByID(c, id).(AnyFloat); ok {
		return g.Value()
	}
	return fallback
}

func intChild(c Composite, id string, fallback int) int {
	if g, ok := childByID(c, id).(AnyInt); ok {
		return g.Value()
	}
	return fallback
}

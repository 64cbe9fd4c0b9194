package genotype

import "fmt"

// PrivateGeneOptions configures the reserved genes every container carries.
type PrivateGeneOptions struct {
	// RecombFreq pins Px to a fixed value. Nil leaves Px evolvable in [0,1].
	RecombFreq *float64
	// MaxPoints is the upper bound of Nx.
	MaxPoints int
	// Uniform adds the RM gene so uniform crossover can evolve.
	Uniform bool
	// RateLowBound is the lower bound of the self-adaptive rate genes.
	RateLowBound float64
}

func DefaultPrivateGeneOptions() PrivateGeneOptions {
	return PrivateGeneOptions{MaxPoints: 4, RateLowBound: 0.01}
}

// AddPrivateGenes appends the hidden recombination and mutation-rate genes to the
// container and, first, to every unsealed descendant container.
func (c *Container) AddPrivateGenes(opts PrivateGeneOptions) error {
	if opts.MaxPoints < 2 {
		return fmt.Errorf("%w: crossover point bound %d", ErrInvalidRange, opts.MaxPoints)
	}
	for _, child := range c.children {
		if h, ok := child.(containerHolder); ok {
			if err := h.container().AddPrivateGenes(opts); err != nil {
				return err
			}
		}
	}
	if c.sealed {
		return nil
	}

	var px *FloatGene
	var err error
	if opts.RecombFreq != nil {
		px, err = NewFloatGene(GenePx, *opts.RecombFreq, *opts.RecombFreq)
		if err == nil {
			err = px.SetValue(*opts.RecombFreq)
		}
	} else {
		px, err = NewFloatGene(GenePx, 0, 1)
		if px != nil {
			px.SetMutability(0.1)
		}
	}
	if err != nil {
		return err
	}
	if px.Min() < 0 || px.Max() > 1 {
		return fmt.Errorf("%w: recombination frequency %v", ErrInvalidRange, px.Min())
	}
	px.SetHidden(true)
	c.Add(px)

	if opts.Uniform {
		rm, err := NewIntGene(GeneRM, RecombineCrossover, RecombineUniform)
		if err != nil {
			return err
		}
		rm.SetHidden(true)
		c.Add(rm)
	}

	nx, err := NewIntGene(GeneNx, 1, opts.MaxPoints)
	if err != nil {
		return err
	}
	nx.SetHidden(true)
	c.Add(nx)

	return addMutationRateGenes(c, opts.RateLowBound)
}

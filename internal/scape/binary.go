package scape

import (
	"context"
	"fmt"

	"genevo/internal/genotype"
)

// BinaryTargetScape scores the Hamming distance of genes x0..x{Dim-1} to a
// constant bit target.
type BinaryTargetScape struct {
	Dim    int
	Target bool
}

func (BinaryTargetScape) Name() string { return "binary-target" }

func (s BinaryTargetScape) AddFeaturesTo(g *genotype.Genome) error {
	if s.Dim < 1 {
		return fmt.Errorf("binary target dimension must be >= 1: %d", s.Dim)
	}
	for i := 0; i < s.Dim; i++ {
		g.Add(genotype.NewBinaryGene(fmt.Sprintf("x%d", i)))
	}
	return nil
}

func (s BinaryTargetScape) Evaluate(_ context.Context, agent Agent) (Fitness, Trace, error) {
	errs := 0
	for i := 0; i < s.Dim; i++ {
		x, err := BinaryGene(agent, fmt.Sprintf("x%d", i))
		if err != nil {
			return 0, nil, err
		}
		if x != s.Target {
			errs++
		}
	}
	return Fitness(errs), Trace{"mismatches": errs}, nil
}

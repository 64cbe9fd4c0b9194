package evo

import (
	"errors"
	"fmt"
	"math"
	"time"

	"genevo/internal/genotype"
)

// Config drives a population and its generation loop.
type Config struct {
	PopulationSize int
	// Elites are copied unchanged into the next generation.
	Elites       int
	Rates        genotype.MutationRate
	Selection    SelectionParams
	PrivateGenes genotype.PrivateGeneOptions
	// GrayCoding applies to the bit-encoded selection genes.
	GrayCoding bool
	// MinSimilarity > 0 lets an offspring closer than this to a parent inherit
	// the parent's fitness estimate.
	MinSimilarity   float64
	ReevaluateElite bool
	// Workers bounds concurrent evaluations; 0 means one per individual.
	Workers           int
	EvaluationTimeout time.Duration
	Seed              int64
	RecordMutability  bool
	Silent            bool
}

func DefaultConfig() Config {
	return Config{
		PopulationSize:  20,
		Elites:          2,
		Rates:           genotype.DefaultMutationRate(),
		Selection:       DefaultSelectionParams(),
		PrivateGenes:    genotype.DefaultPrivateGeneOptions(),
		GrayCoding:      true,
		ReevaluateElite: true,
		Seed:            1,
	}
}

func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("population size must be > 0: %d", c.PopulationSize)
	}
	if c.Elites < 0 || c.Elites > c.PopulationSize {
		return fmt.Errorf("elites must be in [0, population size]: %d", c.Elites)
	}
	if err := c.Rates.Validate(); err != nil {
		return err
	}
	if err := c.Selection.Validate(); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if c.PrivateGenes.MaxPoints < 2 {
		return fmt.Errorf("crossover point bound must be >= 2: %d", c.PrivateGenes.MaxPoints)
	}
	if lb := c.PrivateGenes.RateLowBound; lb <= 0 || lb > 1 {
		return fmt.Errorf("mutation rate low bound must be in (0,1]: %v", lb)
	}
	if f := c.PrivateGenes.RecombFreq; f != nil && (*f < 0 || *f > 1) {
		return fmt.Errorf("recombination frequency must be in [0,1]: %v", *f)
	}
	if c.MinSimilarity < 0 || math.IsNaN(c.MinSimilarity) {
		return fmt.Errorf("min similarity must be >= 0: %v", c.MinSimilarity)
	}
	if c.Workers < 0 {
		return errors.New("workers must be >= 0")
	}
	if c.EvaluationTimeout < 0 {
		return errors.New("evaluation timeout must be >= 0")
	}
	return nil
}

package scape

import (
	"context"
	"fmt"
	"io"

	"genevo/internal/genotype"
)

// Fitness is an error measure: lower is better.
type Fitness float64

type Trace map[string]any

// Agent is the phenotype view of an individual a scape scores.
type Agent interface {
	ID() string
	Gene(id string) (genotype.Node, error)
	// Decode executes the gene with the given id, storing phenotype features.
	Decode(receiver string) bool
	Feature(key string) (any, bool)
}

type Scape interface {
	Name() string
	Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error)
}

// FeatureProvider scapes add the genes they read to the genome template.
type FeatureProvider interface {
	AddFeaturesTo(g *genotype.Genome) error
}

// CycleHooks scapes are told when a generation starts and asked to report after it is scored.
type CycleHooks interface {
	InitCycle()
	CycleReport(log, out io.Writer) error
}

// FloatGene reads a gene decoding to a float.
func FloatGene(agent Agent, id string) (float64, error) {
	n, err := agent.Gene(id)
	if err != nil {
		return 0, err
	}
	g, ok := n.(genotype.AnyFloat)
	if !ok {
		return 0, fmt.Errorf("gene %q is %s, not a float gene", id, n.Kind())
	}
	return g.Value(), nil
}

// IntGene reads a gene decoding to an integer.
func IntGene(agent Agent, id string) (int, error) {
	n, err := agent.Gene(id)
	if err != nil {
		return 0, err
	}
	g, ok := n.(genotype.AnyInt)
	if !ok {
		return 0, fmt.Errorf("gene %q is %s, not an int gene", id, n.Kind())
	}
	return g.Value(), nil
}

func BinaryGene(agent Agent, id string) (bool, error) {
	n, err := agent.Gene(id)
	if err != nil {
		return false, err
	}
	g, ok := n.(*genotype.BinaryGene)
	if !ok {
		return false, fmt.Errorf("gene %q is %s, not a binary gene", id, n.Kind())
	}
	return g.Value(), nil
}

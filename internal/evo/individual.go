package evo

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"genevo/internal/genotype"
	"genevo/internal/model"
	"genevo/internal/scape"
)

// Environment scores individuals. scape.Environment is the production implementation.
type Environment interface {
	Evaluate(ctx context.Context, agent scape.Agent) (float64, error)
	EvaluationsPerIndividual() int
	AddFeaturesTo(g *genotype.Genome) error
	InitCycle()
	CycleReport(log, out io.Writer) error
	// BestObjective is the lowest noise-free score observed so far.
	BestObjective() float64
}

// Individual owns a genome together with its cached fitness estimate, its
// decoded phenotype features and its selection parameters.
type Individual struct {
	id          string
	genome      *genotype.Genome
	selector    Selector
	fitness     float64
	evaluations int
	age         int
	features    map[string]any
}

// NewIndividual clones template into a fresh, unscored individual.
func NewIndividual(id string, template *genotype.Genome, params SelectionParams) *Individual {
	ind := &Individual{
		id:       id,
		genome:   template.Replicate().(*genotype.Genome),
		selector: Selector{SelectionParams: params},
	}
	ind.reset()
	return ind
}

func (ind *Individual) ID() string { return ind.id }

func (ind *Individual) Genome() *genotype.Genome { return ind.genome }

func (ind *Individual) Selector() Selector { return ind.selector }

func (ind *Individual) Fitness() float64 { return ind.fitness }

// Evaluations is the number of samples the fitness averages over.
func (ind *Individual) Evaluations() int { return ind.evaluations }

func (ind *Individual) Age() int { return ind.age }

func (ind *Individual) EliteWins() int { return ind.genome.EliteWins() }

func (ind *Individual) Gene(id string) (genotype.Node, error) { return ind.genome.Gene(id) }

// Execute routes a message into the genome. Indirection genes call back here.
func (ind *Individual) Execute(msg genotype.Message) bool { return ind.genome.Execute(msg) }

func (ind *Individual) Decode(receiver string) bool {
	return ind.genome.Execute(genotype.NewMessage(receiver, ind))
}

func (ind *Individual) SetFeature(key string, value any) { ind.features[key] = value }

func (ind *Individual) Feature(key string) (any, bool) {
	v, ok := ind.features[key]
	return v, ok
}

func (ind *Individual) reset() {
	ind.fitness = 0
	ind.evaluations = 0
	ind.age = 0
	ind.features = make(map[string]any)
}

// Incarnate forgets the fitness estimate and the phenotype. With doInit it also
// reads the selection parameters from the genome and sends it the init message.
func (ind *Individual) Incarnate(doInit bool) error {
	ind.reset()
	if !doInit {
		return nil
	}
	if err := ind.selector.Read(ind.genome); err != nil {
		return fmt.Errorf("incarnate %s: %w", ind.id, err)
	}
	ind.Decode(genotype.InitMessage)
	return nil
}

// Evaluate samples the environment until the fitness averages over the required
// number of evaluations. force takes at least one fresh sample. Age grows by one
// per call.
func (ind *Individual) Evaluate(ctx context.Context, env Environment, force bool) (float64, error) {
	n := env.EvaluationsPerIndividual()
	for ind.evaluations < n || force {
		f, err := env.Evaluate(ctx, ind)
		if err != nil {
			return ind.fitness, err
		}
		evaluationsTotal.Inc()
		ind.fitness += (f - ind.fitness) / float64(ind.evaluations+1)
		ind.evaluations++
		if force && ind.evaluations >= n {
			break
		}
	}
	ind.age++
	return ind.fitness, nil
}

func (ind *Individual) Recombine(rng *rand.Rand, a, b *Individual) error {
	if err := ind.genome.Recombine(rng, a.genome, b.genome); err != nil {
		return err
	}
	return ind.Incarnate(false)
}

// PointMutate reports whether the genotype changed. A changed individual loses
// its fitness estimate.
func (ind *Individual) PointMutate(rng *rand.Rand, rates genotype.MutationRate, sink genotype.StatsSink) bool {
	if !ind.genome.PointMutate(rng, rates, sink) {
		return false
	}
	ind.Incarnate(false)
	return true
}

// JoinFitness merges the fitness estimate of a phenotypically identical
// individual, weighted by sample counts, and inherits its elite wins.
func (ind *Individual) JoinFitness(other *Individual) {
	if ind.evaluations > 0 || other.evaluations > 0 {
		n, m := float64(ind.evaluations), float64(other.evaluations)
		ind.fitness = (ind.fitness*n + other.fitness*m) / (n + m)
	}
	ind.evaluations += other.evaluations
	ind.genome.AddEliteWins(other.genome.EliteWins())
}

// Less orders by ascending fitness; lower is better.
func (ind *Individual) Less(other *Individual) bool { return ind.fitness < other.fitness }

// CopyFrom overwrites the receiver with other's genome and state. The id is kept.
func (ind *Individual) CopyFrom(other *Individual) error {
	if err := ind.genome.Copy(other.genome); err != nil {
		return err
	}
	ind.selector = other.selector
	ind.fitness = other.fitness
	ind.evaluations = other.evaluations
	ind.age = other.age
	ind.features = make(map[string]any, len(other.features))
	for k, v := range other.features {
		ind.features[k] = v
	}
	return nil
}

func (ind *Individual) Record() model.IndividualRecord {
	return model.IndividualRecord{
		Fitness:     ind.fitness,
		Evaluations: ind.evaluations,
		Age:         ind.age,
		Genome:      genotype.Encode(ind.genome),
	}
}

func (ind *Individual) String() string {
	ftn := "[UNKN]"
	if ind.evaluations > 0 {
		ftn = fmt.Sprintf("%.3f", ind.fitness)
	}
	return fmt.Sprintf("Indv{ftn=%s, age=%03d, %s}", ftn, ind.age, ind.genome)
}

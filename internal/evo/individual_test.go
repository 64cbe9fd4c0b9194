package evo

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/genotype"
	"genevo/internal/scape"
)

// seqEnv returns its values in order, cycling.
type seqEnv struct {
	values []float64
	evals  int
	calls  int
}

func (e *seqEnv) Evaluate(context.Context, scape.Agent) (float64, error) {
	v := e.values[e.calls%len(e.values)]
	e.calls++
	return v, nil
}

func (e *seqEnv) EvaluationsPerIndividual() int { return e.evals }

func (e *seqEnv) AddFeaturesTo(*genotype.Genome) error { return nil }

func (e *seqEnv) InitCycle() {}

func (e *seqEnv) CycleReport(io.Writer, io.Writer) error { return nil }

func (e *seqEnv) BestObjective() float64 { return 0 }

func bitGenome(t *testing.T, n int) *genotype.Genome {
	t.Helper()
	g := genotype.NewGenome()
	for i := 0; i < n; i++ {
		g.Add(genotype.NewBinaryGene(string(rune('a' + i))))
	}
	return g
}

func TestIndividualEvaluateAverages(t *testing.T) {
	env := &seqEnv{values: []float64{1, 2, 3, 4}, evals: 3}
	ind := NewIndividual("i", bitGenome(t, 2), DefaultSelectionParams())

	f, err := ind.Evaluate(context.Background(), env, false)
	require.NoError(t, err)
	assert.InDelta(t, 2, f, 1e-12)
	assert.Equal(t, 3, ind.Evaluations())
	assert.Equal(t, 1, ind.Age())

	_, err = ind.Evaluate(context.Background(), env, false)
	require.NoError(t, err)
	assert.Equal(t, 3, env.calls, "cached fitness is reused")
	assert.Equal(t, 2, ind.Age())

	f, err = ind.Evaluate(context.Background(), env, true)
	require.NoError(t, err)
	assert.Equal(t, 4, env.calls, "force takes one fresh sample")
	assert.InDelta(t, 2.5, f, 1e-12)
	assert.Equal(t, 4, ind.Evaluations())
	assert.Equal(t, 3, ind.Age())
}

func TestIndividualForcedEvaluationKeepsConstantFitness(t *testing.T) {
	const v = 2.9248247188461884e-05
	env := &seqEnv{values: []float64{v}, evals: 1}
	ind := NewIndividual("i", bitGenome(t, 2), DefaultSelectionParams())
	for i := 0; i < 30; i++ {
		f, err := ind.Evaluate(context.Background(), env, true)
		require.NoError(t, err)
		require.Equal(t, v, f, "sample %d", i+1)
	}
	assert.Equal(t, 30, ind.Evaluations())
}

func TestIndividualJoinFitness(t *testing.T) {
	a := NewIndividual("a", bitGenome(t, 1), DefaultSelectionParams())
	b := NewIndividual("b", bitGenome(t, 1), DefaultSelectionParams())
	a.fitness, a.evaluations = 1, 1
	b.fitness, b.evaluations = 3, 3
	b.genome.AddEliteWins(2)

	a.JoinFitness(b)
	assert.InDelta(t, 2.5, a.Fitness(), 1e-12)
	assert.Equal(t, 4, a.Evaluations())
	assert.Equal(t, 2, a.EliteWins())

	c := NewIndividual("c", bitGenome(t, 1), DefaultSelectionParams())
	d := NewIndividual("d", bitGenome(t, 1), DefaultSelectionParams())
	c.JoinFitness(d)
	assert.Zero(t, c.Fitness())
	assert.Zero(t, c.Evaluations())
}

func TestIndividualOrderingAndCopy(t *testing.T) {
	a := NewIndividual("a", bitGenome(t, 4), DefaultSelectionParams())
	b := NewIndividual("b", bitGenome(t, 4), DefaultSelectionParams())
	a.genome.Init(rand.New(rand.NewSource(1)))
	a.fitness, a.evaluations, a.age = 0.5, 2, 7
	a.SetFeature("k", 1)
	b.fitness = 1
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))

	require.NoError(t, b.CopyFrom(a))
	assert.Equal(t, "b", b.ID())
	assert.Equal(t, 0.5, b.Fitness())
	assert.Equal(t, 2, b.Evaluations())
	assert.Equal(t, 7, b.Age())
	v, ok := b.Feature("k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	d, err := a.genome.Equality(b.genome)
	require.NoError(t, err)
	assert.Zero(t, d)

	other := NewIndividual("x", bitGenome(t, 3), DefaultSelectionParams())
	assert.ErrorIs(t, other.CopyFrom(a), genotype.ErrStructureMismatch)
}

func TestIndividualMutationForgetsFitness(t *testing.T) {
	ind := NewIndividual("i", bitGenome(t, 8), DefaultSelectionParams())
	ind.fitness, ind.evaluations = 3, 2
	rng := rand.New(rand.NewSource(1))

	none := genotype.MutationRate{}
	assert.False(t, ind.PointMutate(rng, none, nil))
	assert.Equal(t, 2, ind.Evaluations())

	all := genotype.MutationRate{Binary: 1}
	assert.True(t, ind.PointMutate(rng, all, nil))
	assert.Zero(t, ind.Evaluations())
	assert.Zero(t, ind.Fitness())
}

func TestIndividualDecodeAndIncarnate(t *testing.T) {
	g := bitGenome(t, 2)
	ind := NewIndividual("i", g, DefaultSelectionParams())
	n, err := ind.Gene("a")
	require.NoError(t, err)
	n.(*genotype.BinaryGene).Set(true)

	assert.True(t, ind.Decode("a"))
	v, ok := ind.Feature("a")
	require.True(t, ok)
	assert.Equal(t, true, v)
	assert.False(t, ind.Decode("missing"))

	require.NoError(t, ind.Incarnate(true))
	_, ok = ind.Feature("a")
	assert.False(t, ok)
}

func TestIndividualRecombine(t *testing.T) {
	a := NewIndividual("a", bitGenome(t, 6), DefaultSelectionParams())
	b := NewIndividual("b", bitGenome(t, 6), DefaultSelectionParams())
	for _, c := range a.genome.Children() {
		c.(*genotype.BinaryGene).Set(true)
	}
	child := NewIndividual("c", bitGenome(t, 6), DefaultSelectionParams())
	child.fitness, child.evaluations = 1, 1
	require.NoError(t, child.Recombine(rand.New(rand.NewSource(3)), a, b))
	assert.Zero(t, child.Evaluations())
	first := child.genome.Children()[0].(*genotype.BinaryGene)
	assert.True(t, first.Value(), "crossover starts from the first parent")

	bad := NewIndividual("x", bitGenome(t, 2), DefaultSelectionParams())
	assert.ErrorIs(t, child.Recombine(rand.New(rand.NewSource(3)), a, bad), genotype.ErrStructureMismatch)
}

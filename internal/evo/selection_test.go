package evo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/genotype"
)

func TestTournamentAffinity(t *testing.T) {
	want := math.Pow(10, -3) * (math.Pow(10, 3) - math.Pow(9, 3))
	assert.InDelta(t, want, TournamentAffinity(1, 10, 3), 1e-12)

	sum := 0.0
	for j := 1; j <= 10; j++ {
		sum += TournamentAffinity(j, 10, 3)
	}
	assert.InDelta(t, 1, sum, 1e-12)
}

func TestAffinityFormulas(t *testing.T) {
	assert.Equal(t, 1.0, MuLambdaAffinity(4, 4))
	assert.Equal(t, 0.0, MuLambdaAffinity(5, 4))

	assert.InDelta(t, 1.2, LinearRankingAffinity(1, 10, 1.2), 1e-12)
	assert.InDelta(t, 0.8, LinearRankingAffinity(10, 10, 1.2), 1e-12)
	assert.InDelta(t, 1.2, LinearRankingAffinity(1, 1, 1.2), 1e-12)

	assert.InDelta(t, 0.5, ProportionalAffinity(1, 2), 1e-12)
	assert.Equal(t, 1.0, ProportionalAffinity(3, 0))
}

func TestSelectionParams(t *testing.T) {
	p := DefaultSelectionParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 4, p.MuFor(20))
	assert.Equal(t, [4]float64{1, 0, 0, 0}, p.Weights)

	require.NoError(t, p.SetMu(5))
	assert.Equal(t, 5, p.MuFor(20))
	require.NoError(t, p.SetMuPart(0.5))
	assert.Equal(t, 10, p.MuFor(20))

	assert.Error(t, p.SetMu(0))
	assert.Error(t, p.SetMuPart(1))
	assert.Error(t, p.SetEtaPlus(2.5))
	assert.Error(t, p.SetQ(1))

	p.UseOnly(Tournament)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, p.Weights)

	bad := DefaultSelectionParams()
	bad.Weights = [4]float64{}
	assert.Error(t, bad.Validate())

	bad = DefaultSelectionParams()
	require.NoError(t, bad.SetMu(3))
	bad.AdaptMu = true
	assert.Error(t, bad.Validate())
}

func TestParseSelectionMethod(t *testing.T) {
	for m := MuLambda; m < numSelectionMethods; m++ {
		got, err := ParseSelectionMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseSelectionMethod("roulette")
	assert.Error(t, err)
}

func TestSelectorReadsAdaptedGenes(t *testing.T) {
	g := genotype.NewGenome()
	require.NoError(t, AddSelectionGenes(g, true))
	for _, id := range []string{GeneMuPart, GeneQ, GeneEtaPlus, "s0", "s3"} {
		n, err := g.Gene(id)
		require.NoError(t, err)
		assert.True(t, n.Hidden(), id)
	}

	q, _ := g.Gene(GeneQ)
	require.NoError(t, q.(*genotype.IntGene).SetValue(7))
	eta, _ := g.Gene(GeneEtaPlus)
	require.NoError(t, eta.(*genotype.FloatGene).SetValue(1.5))
	mu, _ := g.Gene(GeneMuPart)
	require.NoError(t, mu.(*genotype.BitFloatGene).SetValue(0.5))
	for i, v := range []float64{0.2, 0.2, 0.4, 0.2} {
		w, _ := g.Gene(weightGeneID(SelectionMethod(i)))
		require.NoError(t, w.(*genotype.FloatGene).SetValue(v))
	}

	s := Selector{SelectionParams: DefaultSelectionParams()}
	require.NoError(t, s.Read(g))
	assert.Equal(t, 3, s.Q, "q is global unless adapted")

	s.AdaptMu, s.AdaptQ, s.AdaptEtaPlus, s.AdaptWeights = true, true, true, true
	require.NoError(t, s.Read(g))
	assert.Equal(t, 7, s.Q)
	assert.Equal(t, 1.5, s.EtaPlus)
	assert.InDelta(t, 0.5, s.MuPart, 0.0001)
	assert.InDeltaSlice(t, []float64{0.2, 0.2, 0.4, 0.2}, s.Weights[:], 1e-12)

	empty := Selector{SelectionParams: DefaultSelectionParams()}
	empty.AdaptQ = true
	assert.ErrorIs(t, empty.Read(genotype.NewGenome()), genotype.ErrUnknownGeneID)
}

func TestSelectorUsesGlobalParameters(t *testing.T) {
	sit := rankedSituation(t, 10, DefaultSelectionParams())
	global := sit.Global
	global.UseOnly(Tournament)
	sit.Global = global
	sit.UseGlobalQ = true

	s := Selector{SelectionParams: global}
	s.Q = 9
	rng := rand.New(rand.NewSource(1))
	assert.InDelta(t, TournamentAffinity(1, 10, 3), s.Affinity(rng, sit, 0), 1e-12)

	sit.UseGlobalQ = false
	assert.InDelta(t, TournamentAffinity(1, 10, 9), s.Affinity(rng, sit, 0), 1e-12)
}

func TestWeightedAffinitySumsMethods(t *testing.T) {
	sit := rankedSituation(t, 10, DefaultSelectionParams())
	s := Selector{SelectionParams: DefaultSelectionParams()}
	s.Weighted = true
	s.Weights = [4]float64{0.5, 0.5, 0, 0}
	got := s.Affinity(rand.New(rand.NewSource(1)), sit, 0)
	assert.InDelta(t, 0.5*1+0.5*1.2, got, 1e-12)
}

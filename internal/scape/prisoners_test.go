package scape

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/genotype"
)

func strategyByName(t *testing.T, all []pdStrategy, name string) pdStrategy {
	t.Helper()
	for _, s := range all {
		if s.name() == name {
			return s
		}
	}
	t.Fatalf("no strategy %q", name)
	return nil
}

func TestPrisonerMatches(t *testing.T) {
	all, err := league(strings.Repeat("0", strategyRules))
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))
	tft := strategyByName(t, all, "Tit4Tat")
	coop := strategyByName(t, all, "Cooperating")
	defect := strategyByName(t, all, "Defecting")

	s0, s1 := playMatch(tft, coop, 10, rng)
	assert.Equal(t, 1.0, s0)
	assert.Equal(t, 1.0, s1)

	s0, s1 = playMatch(tft, defect, 4, rng)
	assert.Equal(t, 3.5, s0)
	assert.Equal(t, 2.25, s1)

	s0, s1 = playMatch(defect, coop, 5, rng)
	assert.Zero(t, s0)
	assert.Equal(t, 5.0, s1)
}

func TestParseRulesRejectsShortStrategy(t *testing.T) {
	_, err := parseRules("x", "0101")
	assert.Error(t, err)
}

func TestStrategyGeneDecodesThroughIndirection(t *testing.T) {
	s, err := NewPrisonersScape(2, 5, 1)
	require.NoError(t, err)
	a := newTestAgent(t, s, 3)

	ps, err := a.genome.Gene(strategyGeneID)
	require.NoError(t, err)
	for i, child := range ps.(*StrategyGene).Children()[:strategyRules] {
		child.(*genotype.BinaryGene).Set(titForTatRules[i] == '1')
	}

	f, trace, err := s.Evaluate(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, titForTatRules, trace["rules"])
	assert.GreaterOrEqual(t, float64(f), 0.0)
	assert.LessOrEqual(t, float64(f), 5.0)

	var log, out bytes.Buffer
	require.NoError(t, s.CycleReport(&log, &out))
	assert.Contains(t, log.String(), titForTatRules)
	assert.Equal(t, 6, strings.Count(out.String(), "\n"))

	s.InitCycle()
	out.Reset()
	require.NoError(t, s.CycleReport(&log, &out))
	assert.Empty(t, out.String())
}

func TestStrategyGeneSurvivesCodecAndCrossover(t *testing.T) {
	s, err := NewPrisonersScape(1, 1, 1)
	require.NoError(t, err)
	a := newTestAgent(t, s, 1)
	b := newTestAgent(t, s, 2)

	decoded, err := genotype.DecodeGenome(genotype.Encode(a.genome))
	require.NoError(t, err)
	ps, err := decoded.Gene(strategyGeneID)
	require.NoError(t, err)
	require.IsType(t, &StrategyGene{}, ps)
	d, err := a.genome.Equality(decoded)
	require.NoError(t, err)
	assert.Zero(t, d)

	child := a.genome.Replicate().(*genotype.Genome)
	require.NoError(t, child.Recombine(rand.New(rand.NewSource(4)), a.genome, b.genome))
	ps, err = child.Gene(strategyGeneID)
	require.NoError(t, err)
	assert.Len(t, ps.(*StrategyGene).Rules(), strategyRules)
}

func TestNewPrisonersScapeValidates(t *testing.T) {
	_, err := NewPrisonersScape(0, 10, 1)
	assert.Error(t, err)
}

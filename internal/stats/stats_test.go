package stats

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/model"
)

func TestFitnessStatsConcurrentAdd(t *testing.T) {
	s := NewFitnessStats()
	assert.Equal(t, FitnessSnapshot{}, s.Snapshot())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			s.Add(v)
		}(float64(i - 50))
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, 100, snap.Count)
	assert.Equal(t, -50.0, snap.Min)
	assert.Equal(t, 49.0, snap.Max)
	assert.InDelta(t, -0.5, snap.Avg, 1e-12)

	s.Reset()
	assert.Zero(t, s.Snapshot().Count)
}

func TestMutabilityRecord(t *testing.T) {
	m := NewMutabilityRecord()
	m.RecordRates(0.01, 0.1, 0.2)
	m.RecordRates(0.03, 0.3, 0.4)
	d := m.Diagnostics()
	assert.Equal(t, 2, m.Samples())
	assert.InDelta(t, 0.02, d.BoolAvg, 1e-12)
	assert.Equal(t, 0.01, d.BoolMin)
	assert.Equal(t, 0.3, d.FloatMax)
	assert.InDelta(t, 0.3, d.VarianceAvg, 1e-12)

	m.Reset()
	assert.Zero(t, m.Samples())
	assert.Equal(t, model.MutabilityDiagnostics{}, m.Diagnostics())
}

func TestEvolutionLogColumns(t *testing.T) {
	var buf bytes.Buffer
	log := NewEvolutionLog(&buf)
	require.NoError(t, log.Write(model.GenerationDiagnostics{Generation: 0, MinFitness: 1, AvgFitness: 2.5, MaxFitness: 4}))
	require.NoError(t, log.Write(model.GenerationDiagnostics{
		Generation: 1, MinFitness: 0.5, AvgFitness: 2, MaxFitness: 3,
		Mutability: &model.MutabilityDiagnostics{BoolMin: 0.01, BoolAvg: 0.02, BoolMax: 0.03},
	}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0 1 2.5 4", lines[0])
	assert.Len(t, strings.Fields(lines[1]), 13)

	parsed, err := ParseEvolutionLine(lines[1])
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.Generation)
	require.NotNil(t, parsed.Mutability)
	assert.Equal(t, 0.02, parsed.Mutability.BoolAvg)

	_, err = ParseEvolutionLine("1 2")
	assert.Error(t, err)
}

func TestSummaries(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	assert.Equal(t, 2.5, s.Mean)
	assert.InDelta(t, 1.2909944, s.StdDev, 1e-6)
	assert.Equal(t, Summary{Mean: 7}, Summarize([]float64{7}))
	assert.Equal(t, Summary{}, Summarize(nil))

	points := []float64{0, 1, 3}
	mean, err := MeanPairwise(len(points), func(i, j int) (float64, error) {
		return points[j] - points[i], nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, mean, 1e-12)

	_, err = MeanPairwise(2, func(int, int) (float64, error) { return 0, errors.New("boom") })
	assert.Error(t, err)
}

package genevo

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/config"
	"genevo/internal/stats"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind: "memory",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func smallParams() config.Params {
	return config.Params{
		"SimplePopulation.size": "10",
		"BinaryTarget.dim":      "6",
		"Evolution.seed":        "7",
	}
}

func TestClientRunPersistsEverything(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	var log bytes.Buffer
	summary, err := client.Run(ctx, RunRequest{
		Scape:       "binary-target",
		Params:      smallParams(),
		Generations: 6,
		Log:         &log,
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)
	assert.Equal(t, 6, summary.Generations)
	assert.Len(t, summary.BestByGeneration, 6)
	assert.NotEmpty(t, summary.BestGenome)
	assert.Empty(t, summary.ArtifactsDir)

	lines := strings.Split(strings.TrimSpace(log.String()), "\n")
	require.Len(t, lines, 6)
	first, err := stats.ParseEvolutionLine(lines[0])
	require.NoError(t, err)
	assert.Equal(t, 1, first.Generation)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)
	assert.Equal(t, "binary-target", runs[0].Scape)
	assert.Equal(t, "10", runs[0].Params["SimplePopulation.size"])
	assert.Equal(t, summary.Evaluations, runs[0].Evaluations)

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunRef: RunRef{Latest: true}})
	require.NoError(t, err)
	assert.Equal(t, summary.BestByGeneration, history)

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunRef: RunRef{RunID: summary.RunID}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, diagnostics, 2)
	assert.Equal(t, 10, diagnostics[0].Evaluations)

	population, err := client.Population(ctx, RunRef{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Len(t, population.Individuals, 10)
	assert.Equal(t, 6, population.Generation)
}

func TestClientRunStopsAtConfiguredTarget(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	params := smallParams()
	params["Evolution.targetFitness"] = "7"
	summary, err := client.Run(ctx, RunRequest{Scape: "binary-target", Params: params, Generations: 50})
	require.NoError(t, err)
	assert.True(t, summary.TargetReached)
	assert.Equal(t, 1, summary.Generations, "every genome has fewer than 7 mismatches")

	override := -1.0
	summary, err = client.Run(ctx, RunRequest{Scape: "binary-target", Params: params, Generations: 3, Target: &override})
	require.NoError(t, err)
	assert.False(t, summary.TargetReached, "request target wins over the config key")
	assert.Equal(t, 3, summary.Generations)

	params["Evolution.targetFitness"] = "soon"
	_, err = client.Run(ctx, RunRequest{Scape: "binary-target", Params: params, Generations: 3})
	assert.ErrorContains(t, err, "Evolution.targetFitness")
}

func TestClientRunContinuesPersistedPopulation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first, err := client.Run(ctx, RunRequest{Scape: "binary-target", Params: smallParams(), Generations: 3})
	require.NoError(t, err)

	second, err := client.Run(ctx, RunRequest{
		Scape:        "binary-target",
		Params:       smallParams(),
		Generations:  2,
		ContinueFrom: first.RunID,
	})
	require.NoError(t, err)

	population, err := client.Population(ctx, RunRef{RunID: second.RunID})
	require.NoError(t, err)
	assert.Equal(t, 5, population.Generation)

	runs, err := client.Runs(ctx, RunsRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		if run.ID == second.RunID {
			assert.Equal(t, first.RunID, run.ContinuedFrom)
		}
	}
}

func TestClientRunRejectsIncompatibleContinuation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first, err := client.Run(ctx, RunRequest{Scape: "binary-target", Params: smallParams(), Generations: 1})
	require.NoError(t, err)

	_, err = client.Run(ctx, RunRequest{
		Scape:        "float-function",
		Params:       smallParams(),
		Generations:  1,
		ContinueFrom: first.RunID,
	})
	require.Error(t, err)

	bigger := smallParams().Merge(config.Params{"SimplePopulation.size": "12"})
	_, err = client.Run(ctx, RunRequest{
		Scape:        "binary-target",
		Params:       bigger,
		Generations:  1,
		ContinueFrom: first.RunID,
	})
	require.Error(t, err)

	_, err = client.Run(ctx, RunRequest{Scape: "binary-target", Params: smallParams(), Generations: 1, ContinueFrom: "missing"})
	require.Error(t, err)
}

func TestClientRunWritesArtifacts(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	dir := filepath.Join(t.TempDir(), "runs")

	target := 0.5
	summary, err := client.Run(ctx, RunRequest{
		Scape:        "binary-target",
		Params:       smallParams(),
		Generations:  4,
		Target:       &target,
		ArtifactsDir: dir,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, summary.RunID), summary.ArtifactsDir)

	for _, name := range []string{"config.json", "fitness_history.json", "generation_diagnostics.json", "population.json", "best_genome.txt"} {
		_, err := os.Stat(filepath.Join(summary.ArtifactsDir, name))
		assert.NoError(t, err, name)
	}

	cfg, ok, err := stats.ReadRunConfig(dir, summary.RunID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, cfg.PopulationSize)
	require.NotNil(t, cfg.TargetFitness)
	assert.Equal(t, 0.5, *cfg.TargetFitness)

	index, err := stats.ListRunIndex(dir)
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Equal(t, summary.RunID, index[0].RunID)
}

func TestClientRunFeedsCycleReports(t *testing.T) {
	client := newTestClient(t)

	var cycleLog, cycleOut bytes.Buffer
	params := config.Params{
		"SimplePopulation.size": "6",
		"Prisoners.trials":      "2",
		"Prisoners.rounds":      "10",
	}
	_, err := client.Run(context.Background(), RunRequest{
		Scape:       "prisoners",
		Params:      params,
		Generations: 2,
		CycleLog:    &cycleLog,
		CycleOut:    &cycleOut,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(cycleLog.String(), "score="))
	assert.Equal(t, 12, strings.Count(cycleOut.String(), "\n"))
}

func TestClientQueriesValidateRunRef(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.FitnessHistory(ctx, FitnessHistoryRequest{})
	require.Error(t, err)
	_, err = client.Diagnostics(ctx, DiagnosticsRequest{RunRef: RunRef{RunID: "a", Latest: true}})
	require.Error(t, err)
	_, err = client.Population(ctx, RunRef{Latest: true})
	require.Error(t, err)
	_, err = client.FitnessHistory(ctx, FitnessHistoryRequest{RunRef: RunRef{RunID: "missing"}})
	require.Error(t, err)
}

func TestClientRunValidatesRequest(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.Run(ctx, RunRequest{})
	require.Error(t, err)
	_, err = client.Run(ctx, RunRequest{Scape: "no-such-scape", Generations: 1})
	require.Error(t, err)
	_, err = client.Run(ctx, RunRequest{Scape: "binary-target", Generations: 1, Params: config.Params{"Environment.evaluations": "0"}})
	require.Error(t, err)
}

func TestClientScapesAndUnsupportedStore(t *testing.T) {
	client := newTestClient(t)
	assert.Contains(t, client.Scapes(), "prisoners")
	assert.Contains(t, client.Scapes(), "binary-target")

	_, err := New(Options{StoreKind: "etcd"})
	require.Error(t, err)
}

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"genevo/internal/model"
)

func sampleRun(id string, created time.Time) model.Run {
	return model.Run{
		VersionedRecord: Versioned(),
		ID:              id,
		Scape:           "binary-target",
		CreatedAt:       created,
		Params:          map[string]string{"Evolution.popSize": "20"},
		Generations:     12,
		BestFitness:     0,
		BestObjective:   0,
		Evaluations:     230,
		TargetReached:   true,
	}
}

func samplePopulation(id string) model.Population {
	return model.Population{
		VersionedRecord: Versioned(),
		ID:              id,
		Scape:           "binary-target",
		Generation:      3,
		Individuals: []model.IndividualRecord{{
			Fitness:     2,
			Evaluations: 1,
			Age:         3,
			Genome: model.NodeRecord{
				Kind: "genome",
				ID:   "genome",
				Children: []model.NodeRecord{
					{Kind: "binary", ID: "B0", Bool: true, Mutability: 0.1},
				},
			},
		}},
	}
}

// exerciseStore runs the same round trips against every backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SaveRun(ctx, sampleRun("run-old", base)); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveRun(ctx, sampleRun("run-new", base.Add(time.Hour))); err != nil {
		t.Fatalf("save run: %v", err)
	}

	run, ok, err := store.GetRun(ctx, "run-old")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if run.Scape != "binary-target" || run.Evaluations != 230 || !run.TargetReached {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Params["Evolution.popSize"] != "20" {
		t.Fatalf("unexpected run params: %+v", run.Params)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-new" || runs[1].ID != "run-old" {
		t.Fatalf("unexpected run order: %+v", runs)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%v err=%v", ok, err)
	}

	if err := store.SavePopulation(ctx, samplePopulation("pop-1")); err != nil {
		t.Fatalf("save population: %v", err)
	}
	population, ok, err := store.GetPopulation(ctx, "pop-1")
	if err != nil {
		t.Fatalf("get population: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted population")
	}
	if len(population.Individuals) != 1 || population.Generation != 3 {
		t.Fatalf("unexpected population: %+v", population)
	}
	genome := population.Individuals[0].Genome
	if len(genome.Children) != 1 || !genome.Children[0].Bool || genome.Children[0].Mutability != 0.1 {
		t.Fatalf("unexpected genome record: %+v", genome)
	}

	history := []float64{3, 2, 2, 0}
	if err := store.SaveFitnessHistory(ctx, "run-old", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	gotHistory, ok, err := store.GetFitnessHistory(ctx, "run-old")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok || len(gotHistory) != len(history) || gotHistory[1] != 2 {
		t.Fatalf("unexpected history: %+v", gotHistory)
	}

	diagnostics := []model.GenerationDiagnostics{
		{Generation: 1, MinFitness: 2, AvgFitness: 3.5, MaxFitness: 6, Evaluations: 20},
		{Generation: 2, MinFitness: 0, AvgFitness: 2.1, MaxFitness: 5, Evaluations: 18,
			Mutability: &model.MutabilityDiagnostics{BoolMin: 0.05, BoolAvg: 0.1, BoolMax: 0.2}},
	}
	if err := store.SaveGenerationDiagnostics(ctx, "run-old", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	gotDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-old")
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok || len(gotDiagnostics) != 2 {
		t.Fatalf("unexpected diagnostics: %+v", gotDiagnostics)
	}
	if gotDiagnostics[1].Mutability == nil || gotDiagnostics[1].Mutability.BoolAvg != 0.1 {
		t.Fatalf("unexpected mutability diagnostics: %+v", gotDiagnostics[1])
	}

	if _, ok, err := store.GetFitnessHistory(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing history, ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseStore(t, store)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	err := store.SaveRun(context.Background(), sampleRun("r", time.Now()))
	if !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestMemoryStoreCopiesHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []float64{1, 2}
	if err := store.SaveFitnessHistory(ctx, "r", input); err != nil {
		t.Fatalf("save history: %v", err)
	}
	input[0] = 99

	output, _, err := store.GetFitnessHistory(ctx, "r")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if output[0] != 1 {
		t.Fatalf("stored history aliased caller slice: %+v", output)
	}
}

func TestBadgerStoreInMemoryRoundTrip(t *testing.T) {
	store := NewBadgerStore(BadgerConfig{InMemory: true})
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := NewBadgerStore(BadgerConfig{Path: dir, SyncWrites: true})
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveRun(ctx, sampleRun("run-1", time.Now().UTC())); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := NewBadgerStore(BadgerConfig{Path: dir})
	if err := reopened.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	if _, ok, err := reopened.GetRun(ctx, "run-1"); err != nil || !ok {
		t.Fatalf("expected persisted run after reopen, ok=%v err=%v", ok, err)
	}
}

func TestBadgerStoreRequiresInit(t *testing.T) {
	store := NewBadgerStore(BadgerConfig{InMemory: true})
	if _, _, err := store.GetRun(context.Background(), "r"); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

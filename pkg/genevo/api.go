package genevo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"genevo/internal/config"
	"genevo/internal/evo"
	"genevo/internal/model"
	"genevo/internal/scape"
	"genevo/internal/stats"
	"genevo/internal/storage"
)

const (
	defaultDBPath        = "genevo.db"
	defaultRunsLimit     = 20
	defaultGenerationKey = "Evolution.generations"
	targetFitnessKey     = "Evolution.targetFitness"
)

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *slog.Logger
	// Scapes overrides the scape registry; nil uses scape.DefaultRegistry().
	Scapes *scape.Registry
}

type Client struct {
	store    storage.Store
	scapes   *scape.Registry
	logger   *slog.Logger
	initOnce sync.Once
	initErr  error
}

type RunRequest struct {
	Scape string
	// Params overlays config.Defaults().
	Params config.Params
	// Generations caps the run; <= 0 reads Evolution.generations.
	Generations int
	// Target stops the run once the best objective drops below it; nil disables it.
	Target *float64
	// Log receives the evolution log, one line per generation.
	Log io.Writer
	// CycleLog and CycleOut receive the scape's per-generation reports.
	CycleLog io.Writer
	CycleOut io.Writer
	// ContinueFrom restores the final population of a persisted run.
	ContinueFrom string
	// ArtifactsDir, when set, also writes the run as JSON files and appends the run index.
	ArtifactsDir string
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	Generations      int
	BestByGeneration []float64
	BestFitness      float64
	BestObjective    float64
	TargetReached    bool
	BestGenome       string
	Evaluations      int
}

type RunsRequest struct {
	Limit int
}

type RunRef struct {
	RunID  string
	Latest bool
}

type FitnessHistoryRequest struct {
	RunRef
	Limit int
}

type DiagnosticsRequest struct {
	RunRef
	Limit int
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" && opts.StoreKind == "sqlite" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scapes := opts.Scapes
	if scapes == nil {
		scapes = scape.DefaultRegistry()
	}
	return &Client{store: store, scapes: scapes, logger: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the backing store. Every other method calls it on first use.
func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Scapes lists the registered scape names.
func (c *Client) Scapes() []string {
	return c.scapes.Names()
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Scape == "" {
		return RunSummary{}, errors.New("scape is required")
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	params := config.Defaults().Merge(req.Params)
	generations := req.Generations
	if generations <= 0 {
		g, err := params.Int(defaultGenerationKey, 100)
		if err != nil {
			return RunSummary{}, err
		}
		generations = g
	}
	target := evo.NoTarget
	switch {
	case req.Target != nil:
		target = *req.Target
	case params.Has(targetFitnessKey):
		t, err := params.Float(targetFitnessKey, evo.NoTarget)
		if err != nil {
			return RunSummary{}, err
		}
		target = t
	}

	sc, err := c.scapes.New(req.Scape, params)
	if err != nil {
		return RunSummary{}, err
	}
	envCfg, err := environmentFromParams(params)
	if err != nil {
		return RunSummary{}, err
	}
	env, err := scape.NewEnvironment(sc, envCfg)
	if err != nil {
		return RunSummary{}, err
	}
	cfg, err := evo.ConfigFromParams(params)
	if err != nil {
		return RunSummary{}, err
	}
	pop, err := evo.NewPopulation(env, cfg,
		evo.WithLogger(c.logger),
		evo.WithCycleOutput(req.CycleLog, req.CycleOut),
	)
	if err != nil {
		return RunSummary{}, err
	}

	if req.ContinueFrom != "" {
		snapshot, ok, err := c.store.GetPopulation(ctx, req.ContinueFrom)
		if err != nil {
			return RunSummary{}, err
		}
		if !ok {
			return RunSummary{}, fmt.Errorf("population not found: %s", req.ContinueFrom)
		}
		if snapshot.Scape != req.Scape {
			return RunSummary{}, fmt.Errorf("population %s was evolved on scape %s, not %s", req.ContinueFrom, snapshot.Scape, req.Scape)
		}
		if err := pop.Restore(snapshot); err != nil {
			return RunSummary{}, fmt.Errorf("restore population %s: %w", req.ContinueFrom, err)
		}
		// The fresh environment has seen no evaluations yet; resample everyone against it.
		pop.ResetFitnesses()
		c.logger.Info("continuing population", "from", req.ContinueFrom, "generation", snapshot.Generation)
	}

	now := time.Now().UTC()
	runID := uuid.NewString()
	c.logger.Info("run starting", "run_id", runID, "scape", req.Scape, "generations", generations)

	result, err := pop.Evolve(ctx, generations, target, req.Log)
	if err != nil {
		return RunSummary{}, err
	}

	bestGenome := ""
	if best := pop.Best(); best != nil {
		bestGenome = best.String()
	}
	evaluations := 0
	for _, d := range result.Diagnostics {
		evaluations += d.Evaluations
	}

	run := model.Run{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		Scape:           req.Scape,
		CreatedAt:       now,
		Params:          map[string]string(params),
		Generations:     result.Generations,
		BestFitness:     result.BestFitness,
		BestObjective:   result.BestObjective,
		Evaluations:     evaluations,
		TargetReached:   result.TargetReached,
		ContinuedFrom:   req.ContinueFrom,
		BestGenomeDump:  bestGenome,
	}
	snapshot := pop.Snapshot(runID, req.Scape)

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return RunSummary{}, fmt.Errorf("save fitness history: %w", err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, result.Diagnostics); err != nil {
		return RunSummary{}, fmt.Errorf("save diagnostics: %w", err)
	}
	if err := c.store.SavePopulation(ctx, snapshot); err != nil {
		return RunSummary{}, fmt.Errorf("save population: %w", err)
	}

	summary := RunSummary{
		RunID:            runID,
		Generations:      result.Generations,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		BestFitness:      result.BestFitness,
		BestObjective:    result.BestObjective,
		TargetReached:    result.TargetReached,
		BestGenome:       bestGenome,
		Evaluations:      evaluations,
	}

	if req.ArtifactsDir != "" {
		runDir, err := writeArtifacts(req.ArtifactsDir, run, cfg, generations, req.Target, result, &snapshot)
		if err != nil {
			return RunSummary{}, err
		}
		summary.ArtifactsDir = filepath.Clean(runDir)
	}

	c.logger.Info("run finished",
		"run_id", runID,
		"generations", result.Generations,
		"best_fitness", result.BestFitness,
		"best_objective", result.BestObjective,
		"target_reached", result.TargetReached,
	)
	return summary, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.Run, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	runID, err := c.resolveRun(ctx, req.RunRef, "fitness history")
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	runID, err := c.resolveRun(ctx, req.RunRef, "diagnostics")
	if err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	return diagnostics, nil
}

// Population returns the final population persisted with a run.
func (c *Client) Population(ctx context.Context, ref RunRef) (model.Population, error) {
	runID, err := c.resolveRun(ctx, ref, "population")
	if err != nil {
		return model.Population{}, err
	}
	population, ok, err := c.store.GetPopulation(ctx, runID)
	if err != nil {
		return model.Population{}, err
	}
	if !ok {
		return model.Population{}, fmt.Errorf("population not found for run %s", runID)
	}
	return population, nil
}

func (c *Client) resolveRun(ctx context.Context, ref RunRef, what string) (string, error) {
	if ref.RunID != "" && ref.Latest {
		return "", errors.New("use either run id or latest")
	}
	if ref.RunID == "" && !ref.Latest {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if ref.RunID != "" {
		return ref.RunID, nil
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].ID, nil
}

func environmentFromParams(p config.Params) (scape.EnvironmentConfig, error) {
	cfg := scape.DefaultEnvironmentConfig()
	var err error
	if cfg.Evaluations, err = p.Int("Environment.evaluations", cfg.Evaluations); err != nil {
		return cfg, err
	}
	if cfg.Noise, err = p.Float("Environment.noise", cfg.Noise); err != nil {
		return cfg, err
	}
	if cfg.Seed, err = p.Int64("Evolution.seed", cfg.Seed); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func writeArtifacts(dir string, run model.Run, cfg evo.Config, generations int, target *float64, result evo.RunResult, snapshot *model.Population) (string, error) {
	runDir, err := stats.WriteRunArtifacts(dir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          run.ID,
			ContinuedFrom:  run.ContinuedFrom,
			Scape:          run.Scape,
			PopulationSize: cfg.PopulationSize,
			Generations:    generations,
			Elites:         cfg.Elites,
			Seed:           cfg.Seed,
			Workers:        cfg.Workers,
			TargetFitness:  target,
			Params:         run.Params,
		},
		BestByGeneration:      result.BestByGeneration,
		GenerationDiagnostics: result.Diagnostics,
		FinalBestFitness:      result.BestFitness,
		BestObjective:         result.BestObjective,
		BestGenome:            run.BestGenomeDump,
		Population:            snapshot,
	})
	if err != nil {
		return "", err
	}
	if err := stats.AppendRunIndex(dir, stats.RunIndexEntry{
		RunID:            run.ID,
		Scape:            run.Scape,
		PopulationSize:   cfg.PopulationSize,
		Generations:      result.Generations,
		Seed:             cfg.Seed,
		FinalBestFitness: result.BestFitness,
		CreatedAtUTC:     run.CreatedAt.Format(time.RFC3339Nano),
	}); err != nil {
		return "", err
	}
	return runDir, nil
}

package evo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"genevo/internal/genotype"
	"genevo/internal/model"
	"genevo/internal/stats"
	"genevo/internal/storage"
)

// NoTarget disables the early stop of Evolve.
var NoTarget = math.Inf(-1)

type RunResult struct {
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	Generations      int
	BestFitness      float64
	BestObjective    float64
	TargetReached    bool
}

type Option func(*Population)

// WithLogger sets the structured logger; nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Population) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCycleOutput receives the environment's per-generation cycle reports.
func WithCycleOutput(log, out io.Writer) Option {
	return func(p *Population) {
		if log != nil {
			p.cycleLog = log
		}
		if out != nil {
			p.cycleOut = out
		}
	}
}

// Population owns the live individuals and evolves them against an environment.
type Population struct {
	env      Environment
	cfg      Config
	rng      *rand.Rand
	logger   *slog.Logger
	cycleLog io.Writer
	cycleOut io.Writer

	template   *genotype.Genome
	live       []*Individual
	strategy   *Strategy
	fitness    *stats.FitnessStats
	mutability *stats.MutabilityRecord
	generation int
	best       *Individual
	hasBest    bool
}

// NewPopulation builds the genome template from the environment's features,
// the private recombination genes and the selection genes, then fills the
// population with randomly initialized clones of it.
func NewPopulation(env Environment, cfg Config, opts ...Option) (*Population, error) {
	if env == nil {
		return nil, errors.New("environment is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = cfg.PopulationSize
	}
	p := &Population{
		env:        env,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		logger:     slog.Default(),
		cycleLog:   io.Discard,
		cycleOut:   io.Discard,
		fitness:    stats.NewFitnessStats(),
		mutability: stats.NewMutabilityRecord(),
	}
	for _, opt := range opts {
		opt(p)
	}

	template := genotype.NewGenome()
	if err := env.AddFeaturesTo(template); err != nil {
		return nil, fmt.Errorf("add environment genes: %w", err)
	}
	if err := template.AddPrivateGenes(cfg.PrivateGenes); err != nil {
		return nil, fmt.Errorf("add private genes: %w", err)
	}
	if err := AddSelectionGenes(template, cfg.GrayCoding); err != nil {
		return nil, fmt.Errorf("add selection genes: %w", err)
	}
	template.SetSelfAdjust(cfg.Rates.AutoAdaptation)
	p.template = template

	p.live = make([]*Individual, cfg.PopulationSize)
	for i := range p.live {
		ind := NewIndividual(slotID(i), template, cfg.Selection)
		ind.genome.Init(p.rng)
		if err := ind.Incarnate(true); err != nil {
			return nil, err
		}
		p.live[i] = ind
	}
	p.best = NewIndividual("best", template, cfg.Selection)
	p.strategy = newStrategy(p)

	if !cfg.Silent {
		p.logger.Info("evolving",
			"strategy", fmt.Sprintf("(e/u+l) = (%d/%d+%d)", cfg.Elites, cfg.Selection.MuFor(cfg.PopulationSize), cfg.PopulationSize),
			"binary_rate", cfg.Rates.Binary,
			"int_rate", cfg.Rates.Int,
			"float_rate", cfg.Rates.Float,
			"float_variance", cfg.Rates.FloatVariance,
			"genes", template.Length(),
		)
	}
	return p, nil
}

func slotID(i int) string { return fmt.Sprintf("ind-%03d", i) }

func (p *Population) Size() int { return len(p.live) }

func (p *Population) Config() Config { return p.cfg }

// Template is the genome every individual was cloned from.
func (p *Population) Template() *genotype.Genome { return p.template }

// Individuals returns the live individuals in slot order.
func (p *Population) Individuals() []*Individual {
	out := make([]*Individual, len(p.live))
	copy(out, p.live)
	return out
}

// Generation is the number of evaluated generations.
func (p *Population) Generation() int { return p.generation }

func (p *Population) FitnessStats() stats.FitnessSnapshot { return p.fitness.Snapshot() }

// Best is a copy of the lowest-fitness individual seen so far, or nil before the
// first evaluation.
func (p *Population) Best() *Individual {
	if !p.hasBest {
		return nil
	}
	return p.best
}

func (p *Population) updateBest(ind *Individual) error {
	if p.hasBest && !ind.Less(p.best) {
		return nil
	}
	if err := p.best.CopyFrom(ind); err != nil {
		return err
	}
	p.hasBest = true
	return nil
}

func (p *Population) evalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.EvaluationTimeout > 0 {
		return context.WithTimeout(ctx, p.cfg.EvaluationTimeout)
	}
	return ctx, func() {}
}

// Evaluate scores every individual concurrently and returns the number of
// environment samples taken. Fitness statistics are rebuilt from scratch.
func (p *Population) Evaluate(ctx context.Context) (int, error) {
	p.fitness.Reset()
	samples := make([]int, len(p.live))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, ind := range p.live {
		i, ind := i, ind
		g.Go(func() error {
			ectx, cancel := p.evalContext(gctx)
			defer cancel()
			before := ind.evaluations
			start := time.Now()
			f, err := ind.Evaluate(ectx, p.env, false)
			evaluationDuration.Observe(time.Since(start).Seconds())
			samples[i] = ind.evaluations - before
			if err != nil {
				return fmt.Errorf("evaluate %s: %w", ind.id, err)
			}
			p.fitness.Add(f)
			return nil
		})
	}
	err := g.Wait()
	total := 0
	for _, n := range samples {
		total += n
	}
	return total, err
}

// Evolve runs up to generations steps, stopping early once the environment's
// best objective drops below target. A non-nil log receives one line per generation.
func (p *Population) Evolve(ctx context.Context, generations int, target float64, log io.Writer) (RunResult, error) {
	if generations <= 0 {
		return RunResult{}, fmt.Errorf("generations must be > 0: %d", generations)
	}
	var evolog *stats.EvolutionLog
	if log != nil {
		evolog = stats.NewEvolutionLog(log)
	}
	res := RunResult{
		BestByGeneration: make([]float64, 0, generations),
		Diagnostics:      make([]model.GenerationDiagnostics, 0, generations),
	}
	for g := 0; g < generations; g++ {
		diag, err := p.strategy.Step(ctx)
		if err != nil {
			return res, fmt.Errorf("generation %d: %w", p.generation, err)
		}
		res.Generations++
		res.BestByGeneration = append(res.BestByGeneration, diag.MinFitness)
		res.Diagnostics = append(res.Diagnostics, diag)
		if evolog != nil {
			if err := evolog.Write(diag); err != nil {
				return res, fmt.Errorf("write evolution log: %w", err)
			}
		}
		if target > NoTarget && p.env.BestObjective() < target {
			res.TargetReached = true
			break
		}
	}
	res.BestObjective = p.env.BestObjective()
	if best := p.Best(); best != nil {
		res.BestFitness = best.fitness
	}
	return res, nil
}

// ResetFitnesses drops every cached fitness so the next generation re-samples all individuals.
func (p *Population) ResetFitnesses() {
	for _, ind := range p.live {
		ind.fitness = 0
		ind.evaluations = 0
	}
}

// Snapshot records the live population.
func (p *Population) Snapshot(id, scapeName string) model.Population {
	rec := model.Population{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:          id,
		Scape:       scapeName,
		Generation:  p.generation,
		Individuals: make([]model.IndividualRecord, len(p.live)),
	}
	for i, ind := range p.live {
		rec.Individuals[i] = ind.Record()
	}
	return rec
}

// Restore replaces the live genomes and fitness estimates with a snapshot. Every
// recorded genome must have the template's structure.
func (p *Population) Restore(rec model.Population) error {
	if len(rec.Individuals) != len(p.live) {
		return fmt.Errorf("%w: snapshot has %d individuals, population %d",
			genotype.ErrStructureMismatch, len(rec.Individuals), len(p.live))
	}
	genomes := make([]*genotype.Genome, len(rec.Individuals))
	for i, ir := range rec.Individuals {
		g, err := genotype.DecodeGenome(ir.Genome)
		if err != nil {
			return fmt.Errorf("individual %d: %w", i, err)
		}
		if _, err := p.template.Equality(g); err != nil {
			return fmt.Errorf("individual %d: %w", i, err)
		}
		genomes[i] = g
	}
	for i, ind := range p.live {
		if err := ind.genome.Copy(genomes[i]); err != nil {
			return err
		}
		if err := ind.Incarnate(true); err != nil {
			return err
		}
		ir := rec.Individuals[i]
		ind.fitness, ind.evaluations, ind.age = ir.Fitness, ir.Evaluations, ir.Age
	}
	p.generation = rec.Generation
	return nil
}

// Report writes a human-readable dump of the live population.
func (p *Population) Report(out io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Population {\nsize=%d,\n", len(p.live))
	for _, ind := range p.live {
		b.WriteString(ind.String())
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	_, err := io.WriteString(out, b.String())
	return err
}

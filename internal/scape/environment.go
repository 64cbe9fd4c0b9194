package scape

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"

	"genevo/internal/genotype"
)

type EnvironmentConfig struct {
	// Evaluations is the number of samples averaged per individual.
	Evaluations int
	// Noise is the standard deviation of Gaussian noise added to every score.
	Noise float64
	Seed  int64
}

func DefaultEnvironmentConfig() EnvironmentConfig {
	return EnvironmentConfig{Evaluations: 1, Seed: 1}
}

// Environment adapts a Scape to the evolution loop. It adds optional noise and
// tracks the best noise-free (objective) and noisy (subjective) scores seen.
// Evaluate is safe for concurrent use.
type Environment struct {
	scape Scape
	cfg   EnvironmentConfig

	mu             sync.Mutex
	rng            *rand.Rand
	bestObjective  float64
	bestSubjective float64
	bestAgent      string
	bestTrace      Trace
	evaluations    int
	cycles         int
}

func NewEnvironment(s Scape, cfg EnvironmentConfig) (*Environment, error) {
	if s == nil {
		return nil, fmt.Errorf("scape is required")
	}
	if cfg.Evaluations < 1 {
		return nil, fmt.Errorf("evaluations per individual must be >= 1: %d", cfg.Evaluations)
	}
	if cfg.Noise < 0 || math.IsNaN(cfg.Noise) {
		return nil, fmt.Errorf("noise must be >= 0: %v", cfg.Noise)
	}
	return &Environment{
		scape:          s,
		cfg:            cfg,
		rng:            rand.New(rand.NewSource(cfg.Seed)),
		bestObjective:  math.Inf(1),
		bestSubjective: math.Inf(1),
	}, nil
}

func (e *Environment) Name() string { return e.scape.Name() }

func (e *Environment) Scape() Scape { return e.scape }

func (e *Environment) EvaluationsPerIndividual() int { return e.cfg.Evaluations }

func (e *Environment) AddFeaturesTo(g *genotype.Genome) error {
	if p, ok := e.scape.(FeatureProvider); ok {
		return p.AddFeaturesTo(g)
	}
	return nil
}

// InitCycle starts a generation. The subjective best is per generation.
func (e *Environment) InitCycle() {
	e.mu.Lock()
	e.bestSubjective = math.Inf(1)
	e.cycles++
	e.mu.Unlock()
	if h, ok := e.scape.(CycleHooks); ok {
		h.InitCycle()
	}
}

func (e *Environment) CycleReport(log, out io.Writer) error {
	if h, ok := e.scape.(CycleHooks); ok {
		return h.CycleReport(log, out)
	}
	return nil
}

func (e *Environment) Evaluate(ctx context.Context, agent Agent) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw, trace, err := e.evaluateScape(ctx, agent)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.evaluations++
	objective := float64(raw)
	if objective < e.bestObjective {
		e.bestObjective = objective
		e.bestAgent = agent.ID()
		e.bestTrace = trace
	}
	subjective := objective
	if e.cfg.Noise > 0 {
		subjective += e.rng.NormFloat64() * e.cfg.Noise
	}
	if subjective < e.bestSubjective {
		e.bestSubjective = subjective
	}
	return subjective, nil
}

type scapeResult struct {
	fitness Fitness
	trace   Trace
	err     error
}

// evaluateScape bounds a scape call by ctx. A scape that ignores ctx keeps
// running in the background after the deadline; its result is dropped.
func (e *Environment) evaluateScape(ctx context.Context, agent Agent) (Fitness, Trace, error) {
	if ctx.Done() == nil {
		raw, trace, err := e.scape.Evaluate(ctx, agent)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: %w", e.scape.Name(), err)
		}
		return raw, trace, nil
	}
	done := make(chan scapeResult, 1)
	go func() {
		raw, trace, err := e.scape.Evaluate(ctx, agent)
		done <- scapeResult{fitness: raw, trace: trace, err: err}
	}()
	select {
	case <-ctx.Done():
		return 0, nil, fmt.Errorf("%s: evaluation of %s: %w", e.scape.Name(), agent.ID(), ctx.Err())
	case res := <-done:
		if res.err != nil {
			return 0, nil, fmt.Errorf("%s: %w", e.scape.Name(), res.err)
		}
		if err := ctx.Err(); err != nil {
			return 0, nil, fmt.Errorf("%s: evaluation of %s: %w", e.scape.Name(), agent.ID(), err)
		}
		return res.fitness, res.trace, nil
	}
}

// BestObjective is the lowest noise-free score seen so far.
func (e *Environment) BestObjective() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bestObjective
}

// BestSubjective is the lowest noisy score seen in the current generation.
func (e *Environment) BestSubjective() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bestSubjective
}

// Best returns the agent id and trace behind the best objective score.
func (e *Environment) Best() (string, Trace) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bestAgent, e.bestTrace
}

func (e *Environment) TotalEvaluations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluations
}

func (e *Environment) Cycles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cycles
}

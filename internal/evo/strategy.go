package evo

import (
	"context"
	"fmt"
	"sort"

	"genevo/internal/genotype"
	"genevo/internal/model"
	"genevo/internal/stats"
)

// Strategy performs generational replacement. It owns the scratch buffer the
// next generation is bred into; the buffers swap at the end of every step.
type Strategy struct {
	pop  *Population
	next []*Individual
}

func newStrategy(p *Population) *Strategy {
	next := make([]*Individual, len(p.live))
	for i := range next {
		next[i] = NewIndividual(slotID(i), p.live[0].genome, p.cfg.Selection)
	}
	return &Strategy{pop: p, next: next}
}

// Step runs one generation: evaluate, rank, build the selection matrix, copy
// the elites, breed the rest and swap the buffers.
func (s *Strategy) Step(ctx context.Context) (model.GenerationDiagnostics, error) {
	p := s.pop
	if p.cfg.RecordMutability {
		p.mutability.Reset()
	}
	p.env.InitCycle()

	samples, err := p.Evaluate(ctx)
	if err != nil {
		return model.GenerationDiagnostics{}, err
	}
	p.generation++

	ordered := make([]*Individual, len(p.live))
	copy(ordered, p.live)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	diag, err := p.diagnostics(ordered, samples)
	if err != nil {
		return diag, err
	}
	if err := p.env.CycleReport(p.cycleLog, p.cycleOut); err != nil {
		return diag, fmt.Errorf("cycle report: %w", err)
	}
	if err := p.updateBest(ordered[0]); err != nil {
		return diag, err
	}

	snap := p.fitness.Snapshot()
	sit := &Situation{
		Ordered:          ordered,
		AvgFitness:       snap.Avg,
		Global:           p.cfg.Selection,
		UseGlobalMu:      !p.cfg.Selection.AdaptMu,
		UseGlobalEtaPlus: !p.cfg.Selection.AdaptEtaPlus,
		UseGlobalQ:       !p.cfg.Selection.AdaptQ,
	}
	matrix := NewSelectionMatrix(p.rng, sit)

	elites := p.cfg.Elites
	for i := 0; i < elites; i++ {
		if err := s.next[i].CopyFrom(ordered[i]); err != nil {
			return diag, fmt.Errorf("copy elite %d: %w", i, err)
		}
	}
	var sink genotype.StatsSink
	if p.cfg.RecordMutability {
		sink = p.mutability
	}
	for i := elites; i < len(s.next); i++ {
		a, b := matrix.SelectPair(p.rng)
		child := s.next[i]
		if err := child.Recombine(p.rng, ordered[a], ordered[b]); err != nil {
			return diag, fmt.Errorf("recombine %s: %w", child.id, err)
		}
		child.PointMutate(p.rng, p.cfg.Rates, sink)
		if err := child.Incarnate(true); err != nil {
			return diag, err
		}
		if p.cfg.MinSimilarity > 0 {
			if err := s.join(child, ordered[a], ordered[b]); err != nil {
				return diag, err
			}
		}
	}

	p.live, s.next = s.next, p.live

	if elites > 0 {
		champion := p.live[0]
		if p.cfg.ReevaluateElite {
			ectx, cancel := p.evalContext(ctx)
			_, err := champion.Evaluate(ectx, p.env, true)
			cancel()
			if err != nil {
				return diag, fmt.Errorf("re-evaluate elite: %w", err)
			}
		}
		champion.genome.AddEliteWins(1)
	}

	if p.cfg.RecordMutability {
		m := p.mutability.Diagnostics()
		diag.Mutability = &m
	}
	generationsTotal.Inc()
	fitnessGauge.WithLabelValues("min").Set(diag.MinFitness)
	fitnessGauge.WithLabelValues("avg").Set(diag.AvgFitness)
	fitnessGauge.WithLabelValues("max").Set(diag.MaxFitness)
	p.logger.Debug("generation",
		"generation", diag.Generation,
		"min", diag.MinFitness,
		"avg", diag.AvgFitness,
		"max", diag.MaxFitness,
		"best_objective", diag.BestObjective,
	)
	return diag, nil
}

// join lets an offspring that is genetically close to one of its parents share
// that parent's fitness estimate.
func (s *Strategy) join(child, a, b *Individual) error {
	for _, parent := range []*Individual{a, b} {
		d, err := child.genome.Equality(parent.genome)
		if err != nil {
			return err
		}
		if d < s.pop.cfg.MinSimilarity {
			child.JoinFitness(parent)
			return nil
		}
	}
	return nil
}

func (p *Population) diagnostics(ordered []*Individual, samples int) (model.GenerationDiagnostics, error) {
	snap := p.fitness.Snapshot()
	fitnesses := make([]float64, len(ordered))
	for i, ind := range ordered {
		fitnesses[i] = ind.fitness
	}
	diversity, err := stats.MeanPairwise(len(ordered), func(i, j int) (float64, error) {
		return ordered[i].genome.Equality(ordered[j].genome)
	})
	if err != nil {
		return model.GenerationDiagnostics{}, fmt.Errorf("diversity: %w", err)
	}
	return model.GenerationDiagnostics{
		Generation:    p.generation,
		MinFitness:    snap.Min,
		AvgFitness:    snap.Avg,
		MaxFitness:    snap.Max,
		StdDev:        stats.Summarize(fitnesses).StdDev,
		Diversity:     diversity,
		BestObjective: p.env.BestObjective(),
		Evaluations:   samples,
	}, nil
}

package scape

import (
	"context"
	"fmt"
	"io"
	"sync"

	"genevo/internal/genotype"
)

// SelectionPressureGene is the self-adapted mu fraction every individual carries.
const SelectionPressureGene = "u%"

// AutoAdaptScape is a float-function scape that also sums the self-adapted
// selection pressure of every individual it scores in a cycle.
type AutoAdaptScape struct {
	Function FloatFunctionScape

	mu  sync.Mutex
	sum float64
}

func NewAutoAdaptScape(fn FloatFunctionScape) *AutoAdaptScape {
	return &AutoAdaptScape{Function: fn}
}

func (*AutoAdaptScape) Name() string { return "autoadapt" }

func (s *AutoAdaptScape) AddFeaturesTo(g *genotype.Genome) error {
	return s.Function.AddFeaturesTo(g)
}

func (s *AutoAdaptScape) Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error) {
	u, err := FloatGene(agent, SelectionPressureGene)
	if err != nil {
		return 0, nil, err
	}
	s.mu.Lock()
	s.sum += u
	s.mu.Unlock()
	return s.Function.Evaluate(ctx, agent)
}

// Sum is the selection pressure accumulated in the current cycle.
func (s *AutoAdaptScape) Sum() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum
}

func (s *AutoAdaptScape) InitCycle() {
	s.mu.Lock()
	s.sum = 0
	s.mu.Unlock()
}

func (s *AutoAdaptScape) CycleReport(log, out io.Writer) error {
	sum := s.Sum()
	if _, err := fmt.Fprintf(log, " %f", sum); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "u%% sum = %f\n", sum)
	return err
}

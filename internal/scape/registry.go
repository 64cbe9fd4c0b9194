package scape

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"genevo/internal/config"
)

var (
	ErrScapeExists   = errors.New("scape already registered")
	ErrScapeNotFound = errors.New("scape not found")
)

// Factory builds a scape from run parameters.
type Factory func(params config.Params) (Scape, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("scape name is required")
	}
	if f == nil {
		return fmt.Errorf("scape %q factory is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrScapeExists, name)
	}
	r.factories[name] = f
	return nil
}

func (r *Registry) New(name string, params config.Params) (Scape, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScapeNotFound, name)
	}
	s, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("build scape %s: %w", name, err)
	}
	return s, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry holding every built-in scape.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name, f := range map[string]Factory{
		"binary-target":  newBinaryTarget,
		"float-function": func(p config.Params) (Scape, error) { return newFloatFunction(p) },
		"multimin":       func(config.Params) (Scape, error) { return MultiMinScape{}, nil },
		"prisoners":      newPrisoners,
		"autoadapt": func(p config.Params) (Scape, error) {
			fn, err := newFloatFunction(p)
			if err != nil {
				return nil, err
			}
			return NewAutoAdaptScape(fn), nil
		},
	} {
		if err := r.Register(name, f); err != nil {
			panic(err)
		}
	}
	return r
}

func newBinaryTarget(p config.Params) (Scape, error) {
	dim, err := p.Int("BinaryTarget.dim", 8)
	if err != nil {
		return nil, err
	}
	target, err := p.Bool("BinaryTarget.value", true)
	if err != nil {
		return nil, err
	}
	if dim < 1 {
		return nil, fmt.Errorf("BinaryTarget.dim must be >= 1: %d", dim)
	}
	return BinaryTargetScape{Dim: dim, Target: target}, nil
}

func newFloatFunction(p config.Params) (FloatFunctionScape, error) {
	s := DefaultFloatFunctionScape()
	s.Function = p.String("FloatFunction.func", s.Function)
	if _, err := LookupTestFunction(s.Function); err != nil {
		return s, err
	}
	var err error
	if s.Dim, err = p.Int("FloatFunction.dim", s.Dim); err != nil {
		return s, err
	}
	if s.Bits, err = p.Int("FloatFunction.bits", s.Bits); err != nil {
		return s, err
	}
	if s.Objective, err = p.Int("FloatFunction.objective", s.Objective); err != nil {
		return s, err
	}
	if s.Min, err = p.Float("FloatFunction.min", s.Min); err != nil {
		return s, err
	}
	if s.Max, err = p.Float("FloatFunction.max", s.Max); err != nil {
		return s, err
	}
	if s.Gray, err = p.Bool("BitFloatGene.graycoding", s.Gray); err != nil {
		return s, err
	}
	switch {
	case s.Dim < 1:
		return s, fmt.Errorf("FloatFunction.dim must be >= 1: %d", s.Dim)
	case s.Min > s.Max:
		return s, fmt.Errorf("FloatFunction.min %v > max %v", s.Min, s.Max)
	case s.Objective != 0 && s.Objective != 1:
		return s, fmt.Errorf("FloatFunction.objective must be 0 or 1: %d", s.Objective)
	}
	return s, nil
}

func newPrisoners(p config.Params) (Scape, error) {
	trials, err := p.Int("Prisoners.trials", 100)
	if err != nil {
		return nil, err
	}
	rounds, err := p.Int("Prisoners.rounds", 100)
	if err != nil {
		return nil, err
	}
	seed, err := p.Int64("Evolution.seed", 1)
	if err != nil {
		return nil, err
	}
	return NewPrisonersScape(trials, rounds, seed)
}

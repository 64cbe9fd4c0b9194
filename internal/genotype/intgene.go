package genotype

import (
	"fmt"
	"math/rand"

	"genevo/internal/model"
)

// IntGene holds an integer in [min,max].
type IntGene struct {
	base
	mutability float64
	min, max   int
	value      int
}

func NewIntGene(id string, min, max int) (*IntGene, error) {
	if min >= max {
		return nil, fmt.Errorf("%w: int gene %q [%d,%d]", ErrInvalidRange, id, min, max)
	}
	return &IntGene{base: base{id: id}, mutability: 1, min: min, max: max, value: min}, nil
}

func (g *IntGene) SetMutability(m float64) { g.mutability = m }

func (g *IntGene) Value() int { return g.value }

func (g *IntGene) Min() int { return g.min }

func (g *IntGene) Max() int { return g.max }

func (g *IntGene) SetValue(v int) error {
	if v < g.min || v > g.max {
		return fmt.Errorf("%w: %d outside [%d,%d] for %q", ErrInvalidRange, v, g.min, g.max, g.id)
	}
	g.value = v
	return nil
}

func (g *IntGene) Kind() string { return KindInt }

func (g *IntGene) Length() int { return 1 }

func (g *IntGene) Init(rng *rand.Rand) {
	g.value = g.min + rng.Intn(g.max-g.min+1)
}

// PointMutate redraws the value uniformly.
func (g *IntGene) PointMutate(rng *rand.Rand, rates MutationRate, _ StatsSink) bool {
	if rng.Float64() >= rates.Int*g.mutability {
		return false
	}
	old := g.value
	g.Init(rng)
	return g.value != old
}

func (g *IntGene) Recombine(_ *rand.Rand, a, b Node) error {
	if _, ok := b.(*IntGene); !ok {
		return mismatch(g, b)
	}
	return g.Copy(a)
}

func (g *IntGene) Equality(other Node) (float64, error) {
	o, ok := other.(*IntGene)
	if !ok {
		return 0, mismatch(g, other)
	}
	d := g.value - o.value
	if d < 0 {
		d = -d
	}
	return float64(d) / float64(g.max-g.min), nil
}

func (g *IntGene) Replicate() Node {
	clone := *g
	return &clone
}

func (g *IntGene) Copy(other Node) error {
	o, ok := other.(*IntGene)
	if !ok {
		return mismatch(g, other)
	}
	*g = *o
	return nil
}

func (g *IntGene) Execute(msg Message) bool {
	if !g.addressed(msg) {
		return false
	}
	setFeature(msg, g.id, g.value)
	return true
}

func (g *IntGene) Record() model.NodeRecord {
	rec := g.record(KindInt)
	rec.Mutability = g.mutability
	rec.Min = float64(g.min)
	rec.Max = float64(g.max)
	rec.Int = g.value
	return rec
}

func (g *IntGene) String() string {
	return fmt.Sprintf("%s=%d", g.id, g.value)
}

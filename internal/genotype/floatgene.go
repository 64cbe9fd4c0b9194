package genotype

import (
	"fmt"
	"math"
	"math/rand"

	"genevo/internal/model"
)

// FloatGene holds a real value in [min,max].
type FloatGene struct {
	base
	mutability float64
	min, max   float64
	value      float64
	variance   float64
	circular   bool
	mutator    FloatMutator
}

// NewFloatGene accepts min == max for genes pinned to one value.
func NewFloatGene(id string, min, max float64) (*FloatGene, error) {
	if min > max || math.IsNaN(min) || math.IsNaN(max) {
		return nil, fmt.Errorf("%w: float gene %q [%v,%v]", ErrInvalidRange, id, min, max)
	}
	return &FloatGene{base: base{id: id}, mutability: 1, min: min, max: max, value: min, variance: 1}, nil
}

func (g *FloatGene) SetMutability(m float64) { g.mutability = m }

func (g *FloatGene) SetVariance(v float64) { g.variance = v }

// SetCircular makes perturbations wrap around [min,max) instead of clamping.
func (g *FloatGene) SetCircular(circular bool) { g.circular = circular }

func (g *FloatGene) SetMutator(m FloatMutator) { g.mutator = m }

func (g *FloatGene) Value() float64 { return g.value }

func (g *FloatGene) Min() float64 { return g.min }

func (g *FloatGene) Max() float64 { return g.max }

func (g *FloatGene) SetValue(v float64) error {
	if v < g.min || v > g.max || math.IsNaN(v) {
		return fmt.Errorf("%w: %v outside [%v,%v] for %q", ErrInvalidRange, v, g.min, g.max, g.id)
	}
	g.value = v
	return nil
}

func (g *FloatGene) Kind() string { return KindFloat }

func (g *FloatGene) Length() int { return 1 }

func (g *FloatGene) Init(rng *rand.Rand) {
	g.value = g.min + rng.Float64()*(g.max-g.min)
}

func (g *FloatGene) PointMutate(rng *rand.Rand, rates MutationRate, _ StatsSink) bool {
	if g.max <= g.min || rng.Float64() >= rates.Float {
		return false
	}
	var mutator FloatMutator = GaussianMutator{}
	if g.mutator != nil {
		mutator = g.mutator
	}
	old := g.value
	g.value = g.bound(mutator.Mutate(rng, g.value, g.variance*rates.FloatVariance, g.min, g.max))
	return g.value != old
}

func (g *FloatGene) bound(v float64) float64 {
	if math.IsNaN(v) {
		return g.value
	}
	if g.circular {
		span := g.max - g.min
		v = math.Mod(v-g.min, span)
		if v < 0 {
			v += span
		}
		return g.min + v
	}
	return math.Min(math.Max(v, g.min), g.max)
}

func (g *FloatGene) Recombine(_ *rand.Rand, a, b Node) error {
	if _, ok := b.(*FloatGene); !ok {
		return mismatch(g, b)
	}
	return g.Copy(a)
}

func (g *FloatGene) Equality(other Node) (float64, error) {
	o, ok := other.(*FloatGene)
	if !ok {
		return 0, mismatch(g, other)
	}
	if g.max <= g.min {
		return 0, nil
	}
	return math.Abs(g.value-o.value) / (g.max - g.min), nil
}

func (g *FloatGene) Replicate() Node {
	clone := *g
	return &clone
}

func (g *FloatGene) Copy(other Node) error {
	o, ok := other.(*FloatGene)
	if !ok {
		return mismatch(g, other)
	}
	*g = *o
	return nil
}

func (g *FloatGene) Execute(msg Message) bool {
	if !g.addressed(msg) {
		return false
	}
	setFeature(msg, g.id, g.value)
	return true
}

func (g *FloatGene) Record() model.NodeRecord {
	rec := g.record(KindFloat)
	rec.Mutability = g.mutability
	rec.Min = g.min
	rec.Max = g.max
	rec.Float = g.value
	rec.Variance = g.variance
	rec.Circular = g.circular
	if g.mutator != nil {
		rec.Mutator = g.mutator.Name()
		rec.MutatorArg = g.mutator.Parameter()
	}
	return rec
}

func (g *FloatGene) String() string {
	return fmt.Sprintf("%s=%.2f", g.id, g.value)
}

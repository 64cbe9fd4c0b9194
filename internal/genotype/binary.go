package genotype

import (
	"fmt"
	"math/rand"

	"genevo/internal/model"
)

// BinaryGene holds one bit.
type BinaryGene struct {
	base
	mutability float64
	initP      float64
	value      bool
}

// NewBinaryGene returns a gene that initializes to true with probability 0.5.
func NewBinaryGene(id string) *BinaryGene {
	return &BinaryGene{base: base{id: id}, mutability: 1, initP: 0.5}
}

func (g *BinaryGene) SetInitProbability(p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%w: init probability %v for %q", ErrInvalidRange, p, g.id)
	}
	g.initP = p
	return nil
}

func (g *BinaryGene) SetMutability(m float64) { g.mutability = m }

func (g *BinaryGene) Mutability() float64 { return g.mutability }

func (g *BinaryGene) Value() bool { return g.value }

func (g *BinaryGene) Set(v bool) { g.value = v }

func (g *BinaryGene) Kind() string { return KindBinary }

func (g *BinaryGene) Length() int { return 1 }

func (g *BinaryGene) Init(rng *rand.Rand) {
	g.value = rng.Float64() < g.initP
}

func (g *BinaryGene) PointMutate(rng *rand.Rand, rates MutationRate, _ StatsSink) bool {
	if rng.Float64() < rates.Binary*g.mutability {
		g.value = !g.value
		return true
	}
	return false
}

func (g *BinaryGene) Recombine(_ *rand.Rand, a, b Node) error {
	if _, ok := b.(*BinaryGene); !ok {
		return mismatch(g, b)
	}
	return g.Copy(a)
}

func (g *BinaryGene) Equality(other Node) (float64, error) {
	o, ok := other.(*BinaryGene)
	if !ok {
		return 0, mismatch(g, other)
	}
	if g.value == o.value {
		return 0, nil
	}
	return 1, nil
}

func (g *BinaryGene) Replicate() Node {
	clone := *g
	return &clone
}

func (g *BinaryGene) Copy(other Node) error {
	o, ok := other.(*BinaryGene)
	if !ok {
		return mismatch(g, other)
	}
	*g = *o
	return nil
}

func (g *BinaryGene) Execute(msg Message) bool {
	if !g.addressed(msg) {
		return false
	}
	setFeature(msg, g.id, g.value)
	return true
}

func (g *BinaryGene) Record() model.NodeRecord {
	rec := g.record(KindBinary)
	rec.Mutability = g.mutability
	rec.InitP = g.initP
	rec.Bool = g.value
	return rec
}

func (g *BinaryGene) String() string {
	if g.value {
		return "1"
	}
	return "0"
}

func mismatch(self, other Node) error {
	if other == nil {
		return fmt.Errorf("%w: %s %q against nil", ErrStructureMismatch, self.Kind(), self.ID())
	}
	return fmt.Errorf("%w: %s %q against %s %q", ErrStructureMismatch, self.Kind(), self.ID(), other.Kind(), other.ID())
}

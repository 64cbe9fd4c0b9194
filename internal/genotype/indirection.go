package genotype

import (
	"math/rand"

	"genevo/internal/model"
)

// IndirectionGene names another gene of the same genome. Executing it executes the
// target through the host, wherever the target sits in the tree.
type IndirectionGene struct {
	base
	target string
}

func NewIndirectionGene(id, target string) *IndirectionGene {
	return &IndirectionGene{base: base{id: id}, target: target}
}

func (g *IndirectionGene) Target() string { return g.target }

func (g *IndirectionGene) Kind() string { return KindIndirection }

func (g *IndirectionGene) Length() int { return 1 }

func (g *IndirectionGene) Init(*rand.Rand) {}

func (g *IndirectionGene) PointMutate(*rand.Rand, MutationRate, StatsSink) bool { return false }

func (g *IndirectionGene) Recombine(_ *rand.Rand, a, b Node) error {
	if _, ok := b.(*IndirectionGene); !ok {
		return mismatch(g, b)
	}
	return g.Copy(a)
}

func (g *IndirectionGene) Equality(other Node) (float64, error) {
	o, ok := other.(*IndirectionGene)
	if !ok {
		return 0, mismatch(g, other)
	}
	if g.target == o.target {
		return 0, nil
	}
	return 1, nil
}

func (g *IndirectionGene) Replicate() Node {
	clone := *g
	return &clone
}

func (g *IndirectionGene) Copy(other Node) error {
	o, ok := other.(*IndirectionGene)
	if !ok {
		return mismatch(g, other)
	}
	*g = *o
	return nil
}

func (g *IndirectionGene) Execute(msg Message) bool {
	if !g.addressed(msg) || msg.Host == nil {
		return false
	}
	next, ok := msg.forward(g.target)
	if !ok {
		return false
	}
	return msg.Host.Execute(next)
}

func (g *IndirectionGene) Record() model.NodeRecord {
	rec := g.record(KindIndirection)
	rec.Target = g.target
	return rec
}

func (g *IndirectionGene) String() string {
	return g.id + "->" + g.target
}

package genotype

import (
	"fmt"
	"math/rand"

	"genevo/internal/model"
)

// GeneBase gives custom atomic genes an id and the hidden flag. Every value
// operation a custom gene does not provide panics with ErrMustOverload.
type GeneBase struct {
	base
}

func NewGeneBase(id string) GeneBase {
	return GeneBase{base: base{id: id}}
}

func (g *GeneBase) Length() int { return 1 }

func (g *GeneBase) Kind() string { mustOverload("Kind"); return "" }

func (g *GeneBase) Init(*rand.Rand) { mustOverload("Init") }

func (g *GeneBase) PointMutate(*rand.Rand, MutationRate, StatsSink) bool {
	mustOverload("PointMutate")
	return false
}

func (g *GeneBase) Recombine(*rand.Rand, Node, Node) error {
	mustOverload("Recombine")
	return nil
}

func (g *GeneBase) Equality(Node) (float64, error) {
	mustOverload("Equality")
	return 0, nil
}

func (g *GeneBase) Replicate() Node {
	mustOverload("Replicate")
	return nil
}

func (g *GeneBase) Copy(Node) error {
	mustOverload("Copy")
	return nil
}

func (g *GeneBase) Execute(msg Message) bool { return false }

func (g *GeneBase) Record() model.NodeRecord {
	mustOverload("Record")
	return model.NodeRecord{}
}

func (g *GeneBase) String() string { return g.id }

func mustOverload(op string) {
	panic(fmt.Errorf("%w: %s", ErrMustOverload, op))
}

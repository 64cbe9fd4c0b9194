package genotype

import (
	"fmt"
	"math/rand"

	"genevo/internal/model"
)

// Genome is the top-level container of an individual. It counts the generations
// in which it produced the best phenotype.
type Genome struct {
	Container
	eliteWins int
}

func NewGenome() *Genome {
	return &Genome{Container: Container{recombRate: 1}}
}

func (g *Genome) Kind() string { return KindGenome }

func (g *Genome) EliteWins() int { return g.eliteWins }

func (g *Genome) AddEliteWins(n int) { g.eliteWins += n }

// Gene looks up a descendant by id.
func (g *Genome) Gene(id string) (Node, error) {
	n := g.Lookup(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGeneID, id)
	}
	return n, nil
}

// Init re-randomizes every gene and clears the elite record.
func (g *Genome) Init(rng *rand.Rand) {
	g.eliteWins = 0
	g.Container.Init(rng)
}

func (g *Genome) Recombine(rng *rand.Rand, a, b Node) error {
	pa, ok := a.(*Genome)
	if !ok {
		return mismatch(g, a)
	}
	pb, ok := b.(*Genome)
	if !ok {
		return mismatch(g, b)
	}
	g.eliteWins = 0
	return g.Container.Recombine(rng, &pa.Container, &pb.Container)
}

func (g *Genome) Replicate() Node {
	return &Genome{Container: *g.Container.clone(), eliteWins: g.eliteWins}
}

func (g *Genome) Copy(other Node) error {
	o, ok := other.(*Genome)
	if !ok {
		return mismatch(g, other)
	}
	if err := g.Container.Copy(&o.Container); err != nil {
		return err
	}
	g.eliteWins = o.eliteWins
	return nil
}

func (g *Genome) Record() model.NodeRecord {
	rec := g.record(KindGenome)
	g.fillRecord(&rec)
	rec.EliteWins = g.eliteWins
	return rec
}

func (g *Genome) String() string {
	return "Genome" + g.Container.String()
}

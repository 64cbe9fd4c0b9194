package genotype

import (
	"math/rand"

	"genevo/internal/model"
)

// Node kinds as stored in serialized records.
const (
	KindBinary      = "binary"
	KindInt         = "int"
	KindFloat       = "float"
	KindBitInt      = "bit_int"
	KindBitFloat    = "bit_float"
	KindIndirection = "indirection"
	KindContainer   = "container"
	KindGenome      = "genome"
)

// Node is one element of a genetic representation tree.
type Node interface {
	ID() string
	Kind() string
	Hidden() bool
	SetHidden(hidden bool)
	// Length is the number of atomic leaves below the node.
	Length() int
	// Init assigns a fresh random genotype.
	Init(rng *rand.Rand)
	// PointMutate perturbs the genotype and reports whether it changed.
	PointMutate(rng *rand.Rand, rates MutationRate, sink StatsSink) bool
	// Recombine turns the receiver into a recombination of two structurally identical parents.
	Recombine(rng *rand.Rand, a, b Node) error
	// Equality is the genetic distance to other; 0 means identical.
	Equality(other Node) (float64, error)
	// Replicate returns a deep clone of the same concrete type.
	Replicate() Node
	// Copy overwrites the receiver's values with those of a structurally identical node.
	Copy(other Node) error
	// Execute handles a message routed to the node.
	Execute(msg Message) bool
	// Lookup returns the descendant with the given id or nil.
	Lookup(id string) Node
	Record() model.NodeRecord
	String() string
}

// Composite is a node with ordered children.
type Composite interface {
	Node
	Children() []Node
}

// StatsSink receives the combined mutation rates applied by self-adjusting containers.
type StatsSink interface {
	RecordRates(binary, float, variance float64)
}

// AnyFloat is implemented by genes that decode to a float value.
type AnyFloat interface {
	Node
	Value() float64
}

// AnyInt is implemented by genes that decode to an integer value.
type AnyInt interface {
	Node
	Value() int
}

// Must panics if err is non-nil. It is meant for templates built from constant ranges.
func Must[T Node](n T, err error) T {
	if err != nil {
		panic(err)
	}
	return n
}

type base struct {
	id     string
	hidden bool
}

func (b *base) ID() string { return b.id }

func (b *base) Hidden() bool { return b.hidden }

func (b *base) SetHidden(hidden bool) { b.hidden = hidden }

func (b *base) Lookup(string) Node { return nil }

func (b *base) addressed(msg Message) bool {
	return b.id != "" && msg.Receiver == b.id
}

func (b *base) record(kind string) model.NodeRecord {
	return model.NodeRecord{Kind: kind, ID: b.id, Hidden: b.hidden}
}

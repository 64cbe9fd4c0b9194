package genotype

import (
	"errors"
	"fmt"
	"sync"

	"genevo/internal/model"
)

var (
	ErrKindExists   = errors.New("node kind already registered")
	ErrKindNotFound = errors.New("node kind not found")
)

// DecodeFunc rebuilds a node from its record.
type DecodeFunc func(rec model.NodeRecord) (Node, error)

var kindRegistry = struct {
	mu sync.RWMutex
	m  map[string]DecodeFunc
}{m: map[string]DecodeFunc{}}

func init() {
	kindRegistry.m[KindBinary] = decodeBinary
	kindRegistry.m[KindInt] = decodeInt
	kindRegistry.m[KindFloat] = decodeFloat
	kindRegistry.m[KindBitInt] = decodeBitInt
	kindRegistry.m[KindBitFloat] = decodeBitFloat
	kindRegistry.m[KindIndirection] = decodeIndirection
	kindRegistry.m[KindContainer] = decodeContainer
	kindRegistry.m[KindGenome] = decodeGenomeNode
}

// RegisterKind makes a custom node kind decodable.
func RegisterKind(kind string, fn DecodeFunc) error {
	if kind == "" {
		return errors.New("node kind is required")
	}
	if fn == nil {
		return errors.New("decode function is required")
	}
	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()
	if _, exists := kindRegistry.m[kind]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, kind)
	}
	kindRegistry.m[kind] = fn
	return nil
}

// Encode serializes a node tree.
func Encode(n Node) model.NodeRecord { return n.Record() }

// Decode rebuilds a node tree, dispatching on the record kind.
func Decode(rec model.NodeRecord) (Node, error) {
	kindRegistry.mu.RLock()
	fn, ok := kindRegistry.m[rec.Kind]
	kindRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKindNotFound, rec.Kind)
	}
	n, err := fn(rec)
	if err != nil {
		return nil, fmt.Errorf("decode %s %q: %w", rec.Kind, rec.ID, err)
	}
	n.SetHidden(rec.Hidden)
	return n, nil
}

func DecodeGenome(rec model.NodeRecord) (*Genome, error) {
	n, err := Decode(rec)
	if err != nil {
		return nil, err
	}
	g, ok := n.(*Genome)
	if !ok {
		return nil, fmt.Errorf("%w: record is %s, want %s", ErrStructureMismatch, rec.Kind, KindGenome)
	}
	return g, nil
}

// DecodeInto appends the decoded children of rec to c and restores its container settings.
func DecodeInto(c *Container, rec model.NodeRecord) error {
	c.recombRate = rec.RecombRate
	c.selfAdjust = rec.SelfAdjust
	for _, childRec := range rec.Children {
		child, err := Decode(childRec)
		if err != nil {
			return err
		}
		c.Add(child)
	}
	return nil
}

func decodeBinary(rec model.NodeRecord) (Node, error) {
	g := NewBinaryGene(rec.ID)
	if err := g.SetInitProbability(rec.InitP); err != nil {
		return nil, err
	}
	g.mutability = rec.Mutability
	g.value = rec.Bool
	return g, nil
}

func decodeInt(rec model.NodeRecord) (Node, error) {
	g, err := NewIntGene(rec.ID, int(rec.Min), int(rec.Max))
	if err != nil {
		return nil, err
	}
	g.mutability = rec.Mutability
	return g, g.SetValue(rec.Int)
}

func decodeFloat(rec model.NodeRecord) (Node, error) {
	g, err := NewFloatGene(rec.ID, rec.Min, rec.Max)
	if err != nil {
		return nil, err
	}
	g.mutability = rec.Mutability
	g.variance = rec.Variance
	g.circular = rec.Circular
	if g.mutator, err = mutatorByName(rec.Mutator, rec.MutatorArg); err != nil {
		return nil, err
	}
	return g, g.SetValue(rec.Float)
}

func decodeBits(code bitCode, recs []model.NodeRecord) error {
	if len(recs) != code.width() {
		return fmt.Errorf("%w: %d bit records for %d bits", ErrStructureMismatch, len(recs), code.width())
	}
	for i, r := range recs {
		bit := code.bits.children[i].(*BinaryGene)
		bit.value = r.Bool
		bit.mutability = r.Mutability
		bit.initP = r.InitP
	}
	return nil
}

func decodeBitInt(rec model.NodeRecord) (Node, error) {
	g, err := NewBitIntGene(rec.ID, int(rec.Min), int(rec.Max), rec.Bits, rec.Gray)
	if err != nil {
		return nil, err
	}
	return g, decodeBits(g.bitCode, rec.Children)
}

func decodeBitFloat(rec model.NodeRecord) (Node, error) {
	g, err := NewBitFloatGene(rec.ID, rec.Min, rec.Max, rec.Bits, rec.Gray)
	if err != nil {
		return nil, err
	}
	return g, decodeBits(g.bitCode, rec.Children)
}

func decodeIndirection(rec model.NodeRecord) (Node, error) {
	return NewIndirectionGene(rec.ID, rec.Target), nil
}

func decodeContainer(rec model.NodeRecord) (Node, error) {
	c := NewContainer(rec.ID)
	return c, DecodeInto(c, rec)
}

func decodeGenomeNode(rec model.NodeRecord) (Node, error) {
	g := NewGenome()
	g.id = rec.ID
	g.eliteWins = rec.EliteWins
	return g, DecodeInto(&g.Container, rec)
}

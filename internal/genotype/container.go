package genotype

import (
	"fmt"
	"math/rand"
	"strings"

	"genevo/internal/model"
)

// Container is an ordered sequence of child nodes. Child order drives positional
// crossover and is preserved by Copy and Replicate.
type Container struct {
	base
	children   []Node
	recombRate float64
	selfAdjust bool
	sealed     bool
	length     int
}

// containerHolder is satisfied by Container and every type embedding it.
type containerHolder interface {
	container() *Container
}

func NewContainer(id string) *Container {
	return &Container{base: base{id: id}, recombRate: 1}
}

func (c *Container) container() *Container { return c }

// Add appends a child and returns the container for chaining.
func (c *Container) Add(n Node) *Container {
	c.children = append(c.children, n)
	c.length = 0
	return c
}

func (c *Container) Children() []Node { return c.children }

func (c *Container) Len() int { return len(c.children) }

// RecombinationRate is the crossover probability used when no Px gene is present.
func (c *Container) RecombinationRate() float64 { return c.recombRate }

func (c *Container) SetRecombinationRate(r float64) error {
	if r < 0 || r > 1 {
		return fmt.Errorf("%w: recombination rate %v", ErrInvalidRange, r)
	}
	c.recombRate = r
	return nil
}

// SetSelfAdjust makes the container scale incoming mutation rates by its own rate genes.
// It applies to this container and every descendant container.
func (c *Container) SetSelfAdjust(on bool) {
	c.selfAdjust = on
	for _, child := range c.children {
		if h, ok := child.(containerHolder); ok {
			h.container().SetSelfAdjust(on)
		}
	}
}

func (c *Container) SelfAdjust() bool { return c.selfAdjust }

// Seal keeps AddPrivateGenes from adding reserved genes to this container.
func (c *Container) Seal() { c.sealed = true }

func (c *Container) Kind() string { return KindContainer }

func (c *Container) Length() int {
	if c.length == 0 {
		for _, child := range c.children {
			c.length += child.Length()
		}
	}
	return c.length
}

func (c *Container) Init(rng *rand.Rand) {
	for _, child := range c.children {
		child.Init(rng)
	}
}

func (c *Container) PointMutate(rng *rand.Rand, rates MutationRate, sink StatsSink) bool {
	if c.selfAdjust {
		rates = rates.Combine(RatesFrom(c))
		if sink != nil {
			sink.RecordRates(rates.Binary, rates.Float, rates.FloatVariance)
		}
	}
	changed := false
	for _, child := range c.children {
		if child.PointMutate(rng, rates, sink) {
			changed = true
		}
	}
	return changed
}

// Recombine reads Nx, Px and RM from parent a. With crossover, Nx cut positions are
// drawn among the child boundaries and each is kept with probability Px. Children are
// copied from a until the first cut and then from the parents in turn. The child right
// after a cut is recombined from the incoming and the outgoing parent, so composite
// children blend at the boundary while atomic children take the incoming parent.
func (c *Container) Recombine(rng *rand.Rand, a, b Node) error {
	pa, ok := a.(containerHolder)
	if !ok {
		return mismatch(c, a)
	}
	pb, ok := b.(containerHolder)
	if !ok {
		return mismatch(c, b)
	}
	ca, cb := pa.container(), pb.container()
	if err := sameShape(ca, cb); err != nil {
		return err
	}
	if len(c.children) == 0 {
		return c.Copy(ca)
	}
	if err := sameShape(c, ca); err != nil {
		return err
	}

	if intChild(ca, GeneRM, RecombineCrossover) == RecombineUniform {
		for i, child := range c.children {
			from := ca.children[i]
			if rng.Float64() < 0.5 {
				from = cb.children[i]
			}
			if err := child.Copy(from); err != nil {
				return err
			}
		}
		return nil
	}

	cuts := make([]bool, len(c.children)-1)
	if len(cuts) > 0 {
		points := intChild(ca, GeneNx, 1)
		px := floatChild(ca, GenePx, ca.recombRate)
		for k := 0; k < points; k++ {
			if rng.Float64() < px {
				cuts[rng.Intn(len(cuts))] = true
			}
		}
	}
	from, other := ca.children, cb.children
	for i, child := range c.children {
		if i > 0 && cuts[i-1] {
			from, other = other, from
			if err := child.Recombine(rng, from[i], other[i]); err != nil {
				return fmt.Errorf("recombine %q: %w", child.ID(), err)
			}
			continue
		}
		if err := child.Copy(from[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) Equality(other Node) (float64, error) {
	o, ok := other.(containerHolder)
	if !ok {
		return 0, mismatch(c, other)
	}
	oc := o.container()
	if err := sameShape(c, oc); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, child := range c.children {
		d, err := child.Equality(oc.children[i])
		if err != nil {
			return 0, err
		}
		sum += d
	}
	return sum, nil
}

func (c *Container) Replicate() Node { return c.clone() }

func (c *Container) clone() *Container {
	out := &Container{
		base:       c.base,
		children:   make([]Node, len(c.children)),
		recombRate: c.recombRate,
		selfAdjust: c.selfAdjust,
		sealed:     c.sealed,
		length:     c.length,
	}
	for i, child := range c.children {
		out.children[i] = child.Replicate()
	}
	return out
}

// Copy overwrites the receiver's values with other's. An empty receiver clones
// other's children instead.
func (c *Container) Copy(other Node) error {
	o, ok := other.(containerHolder)
	if !ok {
		return mismatch(c, other)
	}
	oc := o.container()
	if len(c.children) == 0 {
		for _, child := range oc.children {
			c.children = append(c.children, child.Replicate())
		}
	} else {
		if err := sameShape(c, oc); err != nil {
			return err
		}
		for i, child := range c.children {
			if err := child.Copy(oc.children[i]); err != nil {
				return err
			}
		}
	}
	c.base = oc.base
	c.recombRate = oc.recombRate
	c.selfAdjust = oc.selfAdjust
	c.sealed = oc.sealed
	c.length = 0
	return nil
}

// Execute decodes every identified child when the container itself is addressed.
// Otherwise the message is routed to the matching descendant.
func (c *Container) Execute(msg Message) bool {
	if c.addressed(msg) {
		for _, child := range c.children {
			if child.ID() != "" {
				child.Execute(msg.retarget(child.ID()))
			}
		}
		return true
	}
	return c.route(msg) || msg.Receiver == InitMessage
}

func (c *Container) route(msg Message) bool {
	if msg.Receiver == "" {
		return false
	}
	for _, child := range c.children {
		if child.ID() == msg.Receiver {
			return child.Execute(msg)
		}
	}
	for _, child := range c.children {
		if h, ok := child.(containerHolder); ok && h.container().route(msg) {
			return true
		}
	}
	return false
}

func (c *Container) Lookup(id string) Node {
	for _, child := range c.children {
		if child.ID() == id {
			return child
		}
	}
	for _, child := range c.children {
		if found := child.Lookup(id); found != nil {
			return found
		}
	}
	return nil
}

func (c *Container) Record() model.NodeRecord {
	rec := c.record(KindContainer)
	c.fillRecord(&rec)
	return rec
}

func (c *Container) fillRecord(rec *model.NodeRecord) {
	rec.RecombRate = c.recombRate
	rec.SelfAdjust = c.selfAdjust
	rec.Children = make([]model.NodeRecord, 0, len(c.children))
	for _, child := range c.children {
		rec.Children = append(rec.Children, child.Record())
	}
}

func (c *Container) String() string {
	var b strings.Builder
	if c.id != "" {
		b.WriteString(c.id)
		b.WriteByte('=')
	}
	b.WriteByte('{')
	first, prevBit := true, false
	for _, child := range c.children {
		if child.Hidden() {
			continue
		}
		_, bit := child.(*BinaryGene)
		if !first && !(bit && prevBit) {
			b.WriteByte(' ')
		}
		b.WriteString(child.String())
		first, prevBit = false, bit
	}
	b.WriteByte('}')
	return b.String()
}

func sameShape(a, b *Container) error {
	if len(a.children) != len(b.children) {
		return fmt.Errorf("%w: %q has %d children, %q has %d", ErrStructureMismatch, a.id, len(a.children), b.id, len(b.children))
	}
	for i := range a.children {
		x, y := a.children[i], b.children[i]
		if x.ID() != y.ID() || x.Kind() != y.Kind() {
			return fmt.Errorf("%w: child %d is %s %q against %s %q", ErrStructureMismatch, i, x.Kind(), x.ID(), y.Kind(), y.ID())
		}
	}
	return nil
}

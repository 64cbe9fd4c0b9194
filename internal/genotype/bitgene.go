package genotype

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"genevo/internal/model"
)

const maxBits = 32

// bitCode is a fixed-width bit string, least significant bit first, optionally Gray coded.
type bitCode struct {
	bits *Container
	gray bool
}

func newBitCode(n int, gray bool) bitCode {
	bits := NewContainer("")
	for i := 0; i < n; i++ {
		bits.Add(NewBinaryGene(fmt.Sprintf("b%d", i)))
	}
	return bitCode{bits: bits, gray: gray}
}

func (c bitCode) width() int { return len(c.bits.children) }

// raw decodes the bit pattern to its unsigned integer value.
func (c bitCode) raw() uint64 {
	var v uint64
	for i, child := range c.bits.children {
		if child.(*BinaryGene).value {
			v |= 1 << uint(i)
		}
	}
	if c.gray {
		v = grayToBinary(v)
	}
	return v
}

func (c bitCode) setRaw(v uint64) error {
	n := c.width()
	if v >= 1<<uint(n) {
		return fmt.Errorf("%w: raw value %d exceeds %d bits", ErrInvalidRange, v, n)
	}
	if c.gray {
		v = binaryToGray(v)
	}
	for i, child := range c.bits.children {
		child.(*BinaryGene).value = v&(1<<uint(i)) != 0
	}
	return nil
}

func (c bitCode) setMutability(m float64) {
	for _, child := range c.bits.children {
		child.(*BinaryGene).mutability = m
	}
}

func (c bitCode) pattern() string {
	var b strings.Builder
	for i := len(c.bits.children) - 1; i >= 0; i-- {
		b.WriteString(c.bits.children[i].String())
	}
	return b.String()
}

func (c bitCode) replicate() bitCode {
	return bitCode{bits: c.bits.Replicate().(*Container), gray: c.gray}
}

func (c bitCode) records() []model.NodeRecord {
	out := make([]model.NodeRecord, 0, c.width())
	for _, child := range c.bits.children {
		out = append(out, child.Record())
	}
	return out
}

func binaryToGray(v uint64) uint64 { return v ^ (v >> 1) }

func grayToBinary(v uint64) uint64 {
	for shift := uint(1); shift < 64; shift <<= 1 {
		v ^= v >> shift
	}
	return v
}

func checkWidth(id string, n int) error {
	if n < 1 || n > maxBits {
		return fmt.Errorf("%w: %q needs 1..%d bits, got %d", ErrInvalidRange, id, maxBits, n)
	}
	return nil
}

// BitIntGene encodes min + raw in exactly enough bits to cover [min,max].
type BitIntGene struct {
	base
	bitCode
	min, max int
}

// NewBitIntGene requires max-min+1 == 2^n.
func NewBitIntGene(id string, min, max, n int, gray bool) (*BitIntGene, error) {
	if err := checkWidth(id, n); err != nil {
		return nil, err
	}
	if min > max || uint64(max-min)+1 != 1<<uint(n) {
		return nil, fmt.Errorf("%w: bit int gene %q [%d,%d] does not span 2^%d values", ErrInvalidRange, id, min, max, n)
	}
	return &BitIntGene{base: base{id: id}, bitCode: newBitCode(n, gray), min: min, max: max}, nil
}

func (g *BitIntGene) Value() int { return g.min + int(g.raw()) }

func (g *BitIntGene) SetValue(v int) error {
	if v < g.min || v > g.max {
		return fmt.Errorf("%w: %d outside [%d,%d] for %q", ErrInvalidRange, v, g.min, g.max, g.id)
	}
	return g.setRaw(uint64(v - g.min))
}

func (g *BitIntGene) Raw() uint64 { return g.raw() }

func (g *BitIntGene) SetRaw(v uint64) error { return g.setRaw(v) }

func (g *BitIntGene) SetMutability(m float64) { g.setMutability(m) }

func (g *BitIntGene) Kind() string { return KindBitInt }

func (g *BitIntGene) Length() int { return g.width() }

func (g *BitIntGene) Init(rng *rand.Rand) { g.bits.Init(rng) }

func (g *BitIntGene) PointMutate(rng *rand.Rand, rates MutationRate, sink StatsSink) bool {
	return g.bits.PointMutate(rng, rates, sink)
}

func (g *BitIntGene) Recombine(rng *rand.Rand, a, b Node) error {
	pa, ok := a.(*BitIntGene)
	if !ok {
		return mismatch(g, a)
	}
	pb, ok := b.(*BitIntGene)
	if !ok {
		return mismatch(g, b)
	}
	g.base, g.min, g.max, g.gray = pa.base, pa.min, pa.max, pa.gray
	return g.bits.Recombine(rng, pa.bits, pb.bits)
}

func (g *BitIntGene) Equality(other Node) (float64, error) {
	o, ok := other.(*BitIntGene)
	if !ok {
		return 0, mismatch(g, other)
	}
	return g.bits.Equality(o.bits)
}

func (g *BitIntGene) Replicate() Node {
	return &BitIntGene{base: g.base, bitCode: g.replicate(), min: g.min, max: g.max}
}

func (g *BitIntGene) Copy(other Node) error {
	o, ok := other.(*BitIntGene)
	if !ok {
		return mismatch(g, other)
	}
	g.base, g.min, g.max, g.gray = o.base, o.min, o.max, o.gray
	return g.bits.Copy(o.bits)
}

func (g *BitIntGene) Execute(msg Message) bool {
	if !g.addressed(msg) {
		return false
	}
	setFeature(msg, g.id, g.Value())
	return true
}

func (g *BitIntGene) Record() model.NodeRecord {
	rec := g.record(KindBitInt)
	rec.Min = float64(g.min)
	rec.Max = float64(g.max)
	rec.Bits = g.width()
	rec.Gray = g.gray
	rec.Children = g.records()
	return rec
}

func (g *BitIntGene) String() string {
	return fmt.Sprintf("%s=%s(%d)", g.id, g.pattern(), g.Value())
}

// BitFloatGene maps an n-bit integer linearly onto [min,max).
type BitFloatGene struct {
	base
	bitCode
	min, max float64
}

func NewBitFloatGene(id string, min, max float64, n int, gray bool) (*BitFloatGene, error) {
	if err := checkWidth(id, n); err != nil {
		return nil, err
	}
	if min > max || math.IsNaN(min) || math.IsNaN(max) {
		return nil, fmt.Errorf("%w: bit float gene %q [%v,%v]", ErrInvalidRange, id, min, max)
	}
	return &BitFloatGene{base: base{id: id}, bitCode: newBitCode(n, gray), min: min, max: max}, nil
}

func (g *BitFloatGene) steps() float64 { return float64(uint64(1) << uint(g.width())) }

// Step is the decoded distance between two adjacent raw values.
func (g *BitFloatGene) Step() float64 { return (g.max - g.min) / g.steps() }

func (g *BitFloatGene) Value() float64 {
	return g.min + (g.max-g.min)*float64(g.raw())/g.steps()
}

// SetValue stores the nearest representable value.
func (g *BitFloatGene) SetValue(v float64) error {
	if v < g.min || v > g.max || math.IsNaN(v) {
		return fmt.Errorf("%w: %v outside [%v,%v] for %q", ErrInvalidRange, v, g.min, g.max, g.id)
	}
	if g.max == g.min {
		return g.setRaw(0)
	}
	raw := math.Round((v - g.min) / (g.max - g.min) * g.steps())
	raw = math.Min(raw, g.steps()-1)
	return g.setRaw(uint64(raw))
}

func (g *BitFloatGene) Raw() uint64 { return g.raw() }

func (g *BitFloatGene) SetRaw(v uint64) error { return g.setRaw(v) }

func (g *BitFloatGene) SetMutability(m float64) { g.setMutability(m) }

func (g *BitFloatGene) Kind() string { return KindBitFloat }

func (g *BitFloatGene) Length() int { return g.width() }

func (g *BitFloatGene) Init(rng *rand.Rand) { g.bits.Init(rng) }

func (g *BitFloatGene) PointMutate(rng *rand.Rand, rates MutationRate, sink StatsSink) bool {
	return g.bits.PointMutate(rng, rates, sink)
}

func (g *BitFloatGene) Recombine(rng *rand.Rand, a, b Node) error {
	pa, ok := a.(*BitFloatGene)
	if !ok {
		return mismatch(g, a)
	}
	pb, ok := b.(*BitFloatGene)
	if !ok {
		return mismatch(g, b)
	}
	g.base, g.min, g.max, g.gray = pa.base, pa.min, pa.max, pa.gray
	return g.bits.Recombine(rng, pa.bits, pb.bits)
}

func (g *BitFloatGene) Equality(other Node) (float64, error) {
	o, ok := other.(*BitFloatGene)
	if !ok {
		return 0, mismatch(g, other)
	}
	return g.bits.Equality(o.bits)
}

func (g *BitFloatGene) Replicate() Node {
	return &BitFloatGene{base: g.base, bitCode: g.replicate(), min: g.min, max: g.max}
}

func (g *BitFloatGene) Copy(other Node) error {
	o, ok := other.(*BitFloatGene)
	if !ok {
		return mismatch(g, other)
	}
	g.base, g.min, g.max, g.gray = o.base, o.min, o.max, o.gray
	return g.bits.Copy(o.bits)
}

func (g *BitFloatGene) Execute(msg Message) bool {
	if !g.addressed(msg) {
		return false
	}
	setFeature(msg, g.id, g.Value())
	return true
}

func (g *BitFloatGene) Record() model.NodeRecord {
	rec := g.record(KindBitFloat)
	rec.Min = g.min
	rec.Max = g.max
	rec.Bits = g.width()
	rec.Gray = g.gray
	rec.Children = g.records()
	return rec
}

func (g *BitFloatGene) String() string {
	return fmt.Sprintf("%s=%s(%.4f)", g.id, g.pattern(), g.Value())
}

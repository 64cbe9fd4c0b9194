package genotype

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryGenePointMutateHonorsRate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := NewBinaryGene("x")
	for i := 0; i < 1000; i++ {
		before := g.Value()
		assert.False(t, g.PointMutate(rng, MutationRate{Binary: 0}, nil))
		assert.Equal(t, before, g.Value())
	}
	for i := 0; i < 1000; i++ {
		before := g.Value()
		assert.True(t, g.PointMutate(rng, MutationRate{Binary: 1}, nil))
		assert.NotEqual(t, before, g.Value())
	}
}

func TestBinaryGeneInitProbability(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	g := NewBinaryGene("x")
	require.NoError(t, g.SetInitProbability(1))
	for i := 0; i < 100; i++ {
		g.Init(rng)
		require.True(t, g.Value())
	}
	assert.ErrorIs(t, g.SetInitProbability(1.5), ErrInvalidRange)
}

func TestIntGene(t *testing.T) {
	_, err := NewIntGene("n", 3, 3)
	require.ErrorIs(t, err, ErrInvalidRange)

	rng := rand.New(rand.NewSource(3))
	g := Must(NewIntGene("n", -2, 5))
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		g.Init(rng)
		require.GreaterOrEqual(t, g.Value(), -2)
		require.LessOrEqual(t, g.Value(), 5)
		seen[g.Value()] = true
	}
	assert.Len(t, seen, 8)

	before := g.Value()
	assert.False(t, g.PointMutate(rng, MutationRate{Int: 0}, nil))
	assert.Equal(t, before, g.Value())
	assert.ErrorIs(t, g.SetValue(6), ErrInvalidRange)
}

func TestFloatGeneMutationStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	rates := MutationRate{Float: 1, FloatVariance: 10}

	clamped := Must(NewFloatGene("f", -1, 1))
	circular := Must(NewFloatGene("angle", 0, 2*math.Pi))
	circular.SetCircular(true)
	for i := 0; i < 200; i++ {
		clamped.PointMutate(rng, rates, nil)
		circular.PointMutate(rng, rates, nil)
		require.GreaterOrEqual(t, clamped.Value(), -1.0)
		require.LessOrEqual(t, clamped.Value(), 1.0)
		require.GreaterOrEqual(t, circular.Value(), 0.0)
		require.Less(t, circular.Value(), 2*math.Pi)
	}

	pinned := Must(NewFloatGene("p", 0.3, 0.3))
	require.NoError(t, pinned.SetValue(0.3))
	assert.False(t, pinned.PointMutate(rng, rates, nil))

	_, err := NewFloatGene("bad", 1, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestFloatMutators(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	cases := []struct {
		name    string
		mutator FloatMutator
		min     float64
		max     float64
	}{
		{name: "constant", mutator: ConstantMutator{StdDev: 0.5}, min: -1, max: 1},
		{name: "lognormal", mutator: LogNormalMutator{Tau: 1 / math.Sqrt(30)}, min: 0.01, max: 1},
		{name: "logistic", mutator: LogisticMutator{Phi: 1}, min: 0, max: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := Must(NewFloatGene("f", tc.min, tc.max))
			g.SetMutator(tc.mutator)
			g.Init(rng)
			changed := false
			for i := 0; i < 100; i++ {
				if g.PointMutate(rng, MutationRate{Float: 1, FloatVariance: 1}, nil) {
					changed = true
				}
				require.GreaterOrEqual(t, g.Value(), tc.min)
				require.LessOrEqual(t, g.Value(), tc.max)
			}
			assert.True(t, changed)
		})
	}
}

func TestBitFloatGeneDecodesRangeEnds(t *testing.T) {
	g := Must(NewBitFloatGene("x", -4, 4, 16, true))
	require.NoError(t, g.SetRaw(0))
	assert.Equal(t, "0000000000000000", g.pattern())
	assert.Equal(t, -4.0, g.Value())

	require.NoError(t, g.SetRaw(1<<16-1))
	assert.InDelta(t, 4.0, g.Value(), g.Step())
	assert.Less(t, g.Value(), 4.0)

	plain := Must(NewBitFloatGene("x", -4, 4, 16, false))
	for _, child := range plain.bits.children {
		child.(*BinaryGene).Set(true)
	}
	assert.InDelta(t, 4.0, plain.Value(), plain.Step())
}

func TestBitGenesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for _, gray := range []bool{false, true} {
		f := Must(NewBitFloatGene("f", -4, 4, 16, gray))
		for i := 0; i < 200; i++ {
			v := -4 + 8*rng.Float64()
			require.NoError(t, f.SetValue(v))
			assert.InDelta(t, v, f.Value(), f.Step(), "gray=%v", gray)
		}

		n := Must(NewBitIntGene("n", -8, 7, 4, gray))
		for v := -8; v <= 7; v++ {
			require.NoError(t, n.SetValue(v))
			assert.Equal(t, v, n.Value(), "gray=%v", gray)
		}
	}
}

func TestGrayCodeNeighborsDifferInOneBit(t *testing.T) {
	g := Must(NewBitIntGene("n", 0, 255, 8, true))
	prev := ""
	for v := 0; v <= 255; v++ {
		require.NoError(t, g.SetValue(v))
		cur := g.pattern()
		if prev != "" {
			diff := 0
			for i := range cur {
				if cur[i] != prev[i] {
					diff++
				}
			}
			assert.Equal(t, 1, diff, "value %d", v)
		}
		prev = cur
	}
}

func TestBitGeneRanges(t *testing.T) {
	_, err := NewBitIntGene("n", 0, 10, 4, true)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = NewBitFloatGene("f", 0, 1, 0, true)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = NewBitFloatGene("f", 0, 1, 33, true)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = NewBitIntGene("n", 0, 1<<16-1, 16, false)
	assert.NoError(t, err)
}

func TestBitGeneMutatesAtBitLevel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := Must(NewBitIntGene("n", 0, 15, 4, false))
	require.NoError(t, g.SetValue(0))
	require.True(t, g.PointMutate(rng, MutationRate{Binary: 1}, nil))
	assert.Equal(t, 15, g.Value())
	assert.Equal(t, 4, g.Length())
}

func TestEqualityIsZeroOnSelfAndSymmetric(t *testing.T) {
	builders := map[string]func() Node{
		"binary":    func() Node { return NewBinaryGene("b") },
		"int":       func() Node { return Must(NewIntGene("i", 0, 9)) },
		"float":     func() Node { return Must(NewFloatGene("f", -2, 2)) },
		"bit_int":   func() Node { return Must(NewBitIntGene("bi", 0, 63, 6, true)) },
		"bit_float": func() Node { return Must(NewBitFloatGene("bf", -4, 4, 12, true)) },
		"genome":    func() Node { return testGenome(t) },
	}
	rng := rand.New(rand.NewSource(8))
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			x, y := build(), build()
			x.Init(rng)
			y.Init(rng)

			d, err := x.Equality(x)
			require.NoError(t, err)
			assert.Zero(t, d)

			xy, err := x.Equality(y)
			require.NoError(t, err)
			yx, err := y.Equality(x)
			require.NoError(t, err)
			assert.InDelta(t, xy, yx, 1e-12)
			assert.GreaterOrEqual(t, xy, 0.0)

			clone := x.Replicate()
			assert.IsType(t, x, clone)
			d, err = x.Equality(clone)
			require.NoError(t, err)
			assert.Zero(t, d)
		})
	}
}

func TestEqualityRejectsOtherKinds(t *testing.T) {
	_, err := NewBinaryGene("b").Equality(Must(NewIntGene("b", 0, 1)))
	assert.ErrorIs(t, err, ErrStructureMismatch)
}

type halfGene struct {
	GeneBase
}

func TestGeneBasePanicsOnMissingOverload(t *testing.T) {
	g := &halfGene{GeneBase: NewGeneBase("h")}
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrMustOverload))
	}()
	g.Replicate()
}

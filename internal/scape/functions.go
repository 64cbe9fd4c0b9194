package scape

import (
	"context"
	"fmt"
	"math"
	"sort"

	"genevo/internal/genotype"
)

// TestFunction is a benchmark objective over a real vector. All of them are
// minimized.
type TestFunction func(x []float64) float64

var testFunctions = map[string]TestFunction{
	"sphere":    sphere,
	"ellipsoid": ellipsoid,
	"negsphere": negSphere,
	"zeromin":   zeroMin,
	"f4":        f4,
	"f5":        f5,
	"f6":        f6,
	"rastrigin": rastrigin,
}

// TestFunctionNames lists the known benchmark functions.
func TestFunctionNames() []string {
	names := make([]string, 0, len(testFunctions))
	for name := range testFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LookupTestFunction(name string) (TestFunction, error) {
	fn, ok := testFunctions[name]
	if !ok {
		return nil, fmt.Errorf("unknown test function %q", name)
	}
	return fn, nil
}

func sphere(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func ellipsoid(x []float64) float64 {
	sum := 0.0
	for i, v := range x {
		k := float64(i + 1)
		sum += k * k * v * v
	}
	return sum
}

func negSphere(x []float64) float64 { return -sphere(x) }

func zeroMin(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += math.Abs(v)
	}
	return sum
}

func f4(x []float64) float64 {
	const k = 4.0
	sum := 0.0
	for _, v := range x {
		sum += (k*v)*(k*v) - k*math.Cos(2*math.Pi*v*k)
	}
	return (float64(len(x))*10 + sum) / 50
}

func f5(x []float64) float64 {
	const k = -1000.0
	sum := 0.0
	for _, v := range x {
		sum += -v * math.Sin(math.Sqrt(math.Abs(k*v)))
	}
	return sum
}

func f6(x []float64) float64 {
	const k = 20.0
	sum, mul := 0.0, 1.0
	for i, v := range x {
		sum += (k * 4 * v) * (k * 4 * v) / 4000
		mul *= math.Cos(k * v / math.Sqrt(float64(i)+1))
	}
	return (sum - mul + 1) / 4
}

func rastrigin(x []float64) float64 {
	const a, w = 10.0, 2 * math.Pi
	sum := 0.0
	for _, v := range x {
		sum += v*v - a*math.Cos(w*v)
	}
	return a*float64(len(x)) + sum
}

// FloatFunctionScape minimizes a benchmark function over genes x0..x{Dim-1}.
// Bits > 0 encodes each coordinate as a bit-encoded float gene. Objective 1
// mirrors the optimum from 0 to 1 on every axis.
type FloatFunctionScape struct {
	Function  string
	Dim       int
	Min, Max  float64
	Bits      int
	Gray      bool
	Objective int
}

func DefaultFloatFunctionScape() FloatFunctionScape {
	return FloatFunctionScape{Function: "sphere", Dim: 2, Min: -4, Max: 4, Gray: true}
}

func (FloatFunctionScape) Name() string { return "float-function" }

func (s FloatFunctionScape) AddFeaturesTo(g *genotype.Genome) error {
	if s.Dim < 1 {
		return fmt.Errorf("function dimension must be >= 1: %d", s.Dim)
	}
	if _, err := LookupTestFunction(s.Function); err != nil {
		return err
	}
	for i := 0; i < s.Dim; i++ {
		id := fmt.Sprintf("x%d", i)
		var gene genotype.Node
		var err error
		if s.Bits > 0 {
			gene, err = genotype.NewBitFloatGene(id, s.Min, s.Max, s.Bits, s.Gray)
		} else {
			gene, err = genotype.NewFloatGene(id, s.Min, s.Max)
		}
		if err != nil {
			return err
		}
		g.Add(gene)
	}
	return nil
}

func (s FloatFunctionScape) Evaluate(_ context.Context, agent Agent) (Fitness, Trace, error) {
	fn, err := LookupTestFunction(s.Function)
	if err != nil {
		return 0, nil, err
	}
	x := make([]float64, s.Dim)
	for i := range x {
		if x[i], err = FloatGene(agent, fmt.Sprintf("x%d", i)); err != nil {
			return 0, nil, err
		}
	}
	if s.Objective == 1 {
		for i := range x {
			x[i] = 1 - x[i]
		}
	}
	return Fitness(fn(x)), Trace{"x": x}, nil
}

type point struct{ x, y float64 }

var multiMinima = []point{{0.6, 0.75}, {0.25, 0.25}, {0, 1}, {0.9, 0.4}}

// MultiMinScape scores the distance of (x, y) to the nearest of four minima.
type MultiMinScape struct{}

func (MultiMinScape) Name() string { return "multimin" }

func (MultiMinScape) AddFeaturesTo(g *genotype.Genome) error {
	for _, id := range []string{"x", "y"} {
		gene, err := genotype.NewFloatGene(id, 0, 1)
		if err != nil {
			return err
		}
		g.Add(gene)
	}
	return nil
}

func (MultiMinScape) Evaluate(_ context.Context, agent Agent) (Fitness, Trace, error) {
	x, err := FloatGene(agent, "x")
	if err != nil {
		return 0, nil, err
	}
	y, err := FloatGene(agent, "y")
	if err != nil {
		return 0, nil, err
	}
	nearest, which := math.Inf(1), -1
	for i, m := range multiMinima {
		if d := math.Hypot(x-m.x, y-m.y); d < nearest {
			nearest, which = d, i
		}
	}
	return Fitness(nearest), Trace{"minimum": which}, nil
}

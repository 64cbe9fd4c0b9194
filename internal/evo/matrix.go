package evo

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// SelectionMatrix holds the mating probability of every ranked parent pair.
type SelectionMatrix struct {
	rows  *mat.Dense
	joint *mat.Dense
	cdf   []float64
}

// NewSelectionMatrix asks every ranked individual for its affinity towards every
// other, normalizes the rows, then weighs each pair by the mutual preference
// (elementwise product with the transpose) and normalizes the total to 1.
func NewSelectionMatrix(rng *rand.Rand, sit *Situation) *SelectionMatrix {
	n := sit.Size()
	raw := mat.NewDense(n, n, nil)
	for i, ind := range sit.Ordered {
		for j := 0; j < n; j++ {
			a := ind.selector.Affinity(rng, sit, j)
			if a < 0 || math.IsNaN(a) || math.IsInf(a, 0) {
				a = 0
			}
			raw.Set(i, j, a)
		}
	}
	normalizeRows(raw)

	joint := mat.NewDense(n, n, nil)
	joint.MulElem(raw, raw.T())
	total := mat.Sum(joint)
	if total <= 0 {
		joint.Copy(raw)
		total = mat.Sum(joint)
	}
	joint.Scale(1/total, joint)

	cdf := make([]float64, 0, n*n)
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum += joint.At(i, j)
			cdf = append(cdf, sum)
		}
	}
	return &SelectionMatrix{rows: raw, joint: joint, cdf: cdf}
}

// normalizeRows scales each row to sum 1. A row without positive mass becomes uniform.
func normalizeRows(m *mat.Dense) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		for j := range row {
			if sum > 0 {
				row[j] /= sum
			} else {
				row[j] = 1 / float64(c)
			}
		}
	}
}

func (s *SelectionMatrix) Size() int {
	r, _ := s.joint.Dims()
	return r
}

// RowNormalized is the affinity matrix before symmetrization.
func (s *SelectionMatrix) RowNormalized() mat.Matrix { return s.rows }

// Joint is the symmetrized pair probability matrix.
func (s *SelectionMatrix) Joint() mat.Matrix { return s.joint }

// SelectPair draws the ranks of a parent pair from the joint probabilities.
func (s *SelectionMatrix) SelectPair(rng *rand.Rand) (int, int) {
	r := rng.Float64() * s.cdf[len(s.cdf)-1]
	k := sort.Search(len(s.cdf), func(i int) bool { return s.cdf[i] > r })
	if k == len(s.cdf) {
		k--
	}
	n := s.Size()
	return k / n, k % n
}

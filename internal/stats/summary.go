package stats

import (
	"gonum.org/v1/gonum/stat"
)

// Summary describes a fitness sample.
type Summary struct {
	Mean   float64
	StdDev float64
}

func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}
	return Summary{Mean: mean, StdDev: std}
}

// MeanPairwise averages dist over all unordered pairs of n items.
func MeanPairwise(n int, dist func(i, j int) (float64, error)) (float64, error) {
	if n < 2 {
		return 0, nil
	}
	values := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := dist(i, j)
			if err != nil {
				return 0, err
			}
			values = append(values, d)
		}
	}
	return stat.Mean(values, nil), nil
}

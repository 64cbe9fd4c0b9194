package stats

import (
	"math"
	"sync"
)

// FitnessStats accumulates min/avg/max fitness. Add is safe for concurrent use.
type FitnessStats struct {
	mu    sync.Mutex
	min   float64
	max   float64
	sum   float64
	count int
}

func NewFitnessStats() *FitnessStats {
	s := &FitnessStats{}
	s.Reset()
	return s
}

func (s *FitnessStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.min = math.Inf(1)
	s.max = math.Inf(-1)
	s.sum = 0
	s.count = 0
}

func (s *FitnessStats) Add(fitness float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.min = math.Min(s.min, fitness)
	s.max = math.Max(s.max, fitness)
	s.sum += fitness
	s.count++
}

// FitnessSnapshot is a consistent copy of the accumulated values.
type FitnessSnapshot struct {
	Min   float64
	Avg   float64
	Max   float64
	Count int
}

// Snapshot returns zeros when nothing was added.
func (s *FitnessStats) Snapshot() FitnessSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return FitnessSnapshot{}
	}
	return FitnessSnapshot{Min: s.min, Avg: s.sum / float64(s.count), Max: s.max, Count: s.count}
}

func (s *FitnessStats) Min() float64 { return s.Snapshot().Min }

func (s *FitnessStats) Avg() float64 { return s.Snapshot().Avg }

func (s *FitnessStats) Max() float64 { return s.Snapshot().Max }

package stats

import (
	"math"
	"sync"

	"genevo/internal/model"
)

type running struct {
	min, max, sum float64
	n             int
}

func (r *running) add(v float64) {
	if r.n == 0 {
		r.min, r.max = v, v
	} else {
		r.min = math.Min(r.min, v)
		r.max = math.Max(r.max, v)
	}
	r.sum += v
	r.n++
}

func (r running) avg() float64 {
	if r.n == 0 {
		return 0
	}
	return r.sum / float64(r.n)
}

// MutabilityRecord collects the combined mutation rates self-adjusting containers
// apply during one generation. It is created per run and reset per generation.
type MutabilityRecord struct {
	mu       sync.Mutex
	binary   running
	float    running
	variance running
}

func NewMutabilityRecord() *MutabilityRecord { return &MutabilityRecord{} }

func (m *MutabilityRecord) RecordRates(binary, float, variance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binary.add(binary)
	m.float.add(float)
	m.variance.add(variance)
}

func (m *MutabilityRecord) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binary, m.float, m.variance = running{}, running{}, running{}
}

// Samples is the number of RecordRates calls since the last reset.
func (m *MutabilityRecord) Samples() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.binary.n
}

func (m *MutabilityRecord) Diagnostics() model.MutabilityDiagnostics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.MutabilityDiagnostics{
		BoolMin:     m.binary.min,
		BoolAvg:     m.binary.avg(),
		BoolMax:     m.binary.max,
		FloatMin:    m.float.min,
		FloatAvg:    m.float.avg(),
		FloatMax:    m.float.max,
		VarianceMin: m.variance.min,
		VarianceAvg: m.variance.avg(),
		VarianceMax: m.variance.max,
	}
}

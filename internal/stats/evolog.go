package stats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"genevo/internal/model"
)

// EvolutionLog writes one line per generation:
//
//	generation min avg max [bool min/avg/max float min/avg/max variance min/avg/max]
type EvolutionLog struct {
	w *bufio.Writer
}

func NewEvolutionLog(w io.Writer) *EvolutionLog {
	return &EvolutionLog{w: bufio.NewWriter(w)}
}

func (l *EvolutionLog) Write(d model.GenerationDiagnostics) error {
	cols := []float64{d.MinFitness, d.AvgFitness, d.MaxFitness}
	if m := d.Mutability; m != nil {
		cols = append(cols,
			m.BoolMin, m.BoolAvg, m.BoolMax,
			m.FloatMin, m.FloatAvg, m.FloatMax,
			m.VarianceMin, m.VarianceAvg, m.VarianceMax,
		)
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(d.Generation))
	for _, v := range cols {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteByte('\n')
	if _, err := l.w.WriteString(b.String()); err != nil {
		return err
	}
	return l.w.Flush()
}

// ParseEvolutionLine reads a line written by EvolutionLog.
func ParseEvolutionLine(line string) (model.GenerationDiagnostics, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 && len(fields) != 13 {
		return model.GenerationDiagnostics{}, fmt.Errorf("evolution log line has %d columns", len(fields))
	}
	gen, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.GenerationDiagnostics{}, fmt.Errorf("generation column: %w", err)
	}
	vals := make([]float64, len(fields)-1)
	for i, f := range fields[1:] {
		if vals[i], err = strconv.ParseFloat(f, 64); err != nil {
			return model.GenerationDiagnostics{}, fmt.Errorf("column %d: %w", i+1, err)
		}
	}
	d := model.GenerationDiagnostics{Generation: gen, MinFitness: vals[0], AvgFitness: vals[1], MaxFitness: vals[2]}
	if len(vals) == 12 {
		d.Mutability = &model.MutabilityDiagnostics{
			BoolMin: vals[3], BoolAvg: vals[4], BoolMax: vals[5],
			FloatMin: vals[6], FloatAvg: vals[7], FloatMax: vals[8],
			VarianceMin: vals[9], VarianceAvg: vals[10], VarianceMax: vals[11],
		}
	}
	return d, nil
}

package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NodeRecord is the serialized form of one genetic node and its subtree.
type NodeRecord struct {
	Kind       string       `json:"kind"`
	ID         string       `json:"id,omitempty"`
	Hidden     bool         `json:"hidden,omitempty"`
	Mutability float64      `json:"mutability,omitempty"`
	Bool       bool         `json:"bool,omitempty"`
	Int        int          `json:"int,omitempty"`
	Float      float64      `json:"float,omitempty"`
	Min        float64      `json:"min,omitempty"`
	Max        float64      `json:"max,omitempty"`
	InitP      float64      `json:"init_p,omitempty"`
	Variance   float64      `json:"variance,omitempty"`
	Circular   bool         `json:"circular,omitempty"`
	Mutator    string       `json:"mutator,omitempty"`
	MutatorArg float64      `json:"mutator_arg,omitempty"`
	Bits       int          `json:"bits,omitempty"`
	Gray       bool         `json:"gray,omitempty"`
	Target     string       `json:"target,omitempty"`
	RecombRate float64      `json:"recomb_rate,omitempty"`
	SelfAdjust bool         `json:"self_adjust,omitempty"`
	EliteWins  int          `json:"elite_wins,omitempty"`
	Children   []NodeRecord `json:"children,omitempty"`
}

// IndividualRecord stores one scored member of a population.
type IndividualRecord struct {
	Fitness     float64    `json:"fitness"`
	Evaluations int        `json:"evaluations"`
	Age         int        `json:"age"`
	Genome      NodeRecord `json:"genome"`
}

// Population is a persisted snapshot of a live population.
type Population struct {
	VersionedRecord
	ID          string             `json:"id"`
	Scape       string             `json:"scape"`
	Generation  int                `json:"generation"`
	Individuals []IndividualRecord `json:"individuals"`
}

// Run summarizes one evolution run.
type Run struct {
	VersionedRecord
	ID             string            `json:"id"`
	Scape          string            `json:"scape"`
	CreatedAt      time.Time         `json:"created_at"`
	Params         map[string]string `json:"params,omitempty"`
	Generations    int               `json:"generations"`
	BestFitness    float64           `json:"best_fitness"`
	BestObjective  float64           `json:"best_objective"`
	Evaluations    int               `json:"evaluations"`
	TargetReached  bool              `json:"target_reached"`
	ContinuedFrom  string            `json:"continued_from,omitempty"`
	BestGenomeDump string            `json:"best_genome,omitempty"`
}

// MutabilityDiagnostics holds min/avg/max of the combined mutation rates seen in a generation.
type MutabilityDiagnostics struct {
	BoolMin     float64 `json:"bool_min"`
	BoolAvg     float64 `json:"bool_avg"`
	BoolMax     float64 `json:"bool_max"`
	FloatMin    float64 `json:"float_min"`
	FloatAvg    float64 `json:"float_avg"`
	FloatMax    float64 `json:"float_max"`
	VarianceMin float64 `json:"variance_min"`
	VarianceAvg float64 `json:"variance_avg"`
	VarianceMax float64 `json:"variance_max"`
}

// GenerationDiagnostics summarizes one generation of an evolution run.
type GenerationDiagnostics struct {
	Generation    int                    `json:"generation"`
	MinFitness    float64                `json:"min_fitness"`
	AvgFitness    float64                `json:"avg_fitness"`
	MaxFitness    float64                `json:"max_fitness"`
	StdDev        float64                `json:"std_dev"`
	Diversity     float64                `json:"diversity"`
	BestObjective float64                `json:"best_objective"`
	Evaluations   int                    `json:"evaluations"`
	Mutability    *MutabilityDiagnostics `json:"mutability,omitempty"`
}

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"genevo/internal/model"
)

func TestDecodeRunFixture(t *testing.T) {
	run, err := DecodeRun(readFixture(t, "run_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if run.ID != "run-fixture-1" || run.Scape != "float-function" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Params["FloatFunction.func"] != "sphere" || run.Evaluations != 920 {
		t.Fatalf("unexpected run fields: %+v", run)
	}
}

func TestDecodePopulationFixture(t *testing.T) {
	population, err := DecodePopulation(readFixture(t, "population_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if population.ID != "population-fixture-1" || population.Generation != 4 {
		t.Fatalf("unexpected population: %+v", population)
	}
	if len(population.Individuals) != 1 {
		t.Fatalf("unexpected individuals: %+v", population.Individuals)
	}
	genome := population.Individuals[0].Genome
	if genome.Kind != "genome" || len(genome.Children) != 3 || genome.Children[2].Int != 3 {
		t.Fatalf("unexpected genome record: %+v", genome)
	}
}

func TestDecodeRunRejectsUnknownSchema(t *testing.T) {
	_, err := DecodeRun(readFixture(t, "run_v2.json"))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodePopulationRejectsMissingVersion(t *testing.T) {
	_, err := DecodePopulation([]byte(`{"id":"p"}`))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestEncodeDecodePopulationRoundTrip(t *testing.T) {
	input := samplePopulation("pop-rt")
	data, err := EncodePopulation(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodePopulation(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(input, output) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", input, output)
	}
}

func TestDiagnosticsCodecKeepsMutability(t *testing.T) {
	input := []model.GenerationDiagnostics{{
		Generation: 1,
		Mutability: &model.MutabilityDiagnostics{FloatMin: 0.01, FloatAvg: 0.05, FloatMax: 0.1},
	}}
	data, err := EncodeGenerationDiagnostics(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeGenerationDiagnostics(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(input, output) {
		t.Fatalf("round trip mismatch: %+v", output)
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

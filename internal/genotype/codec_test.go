package genotype

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genevo/internal/model"
)

func TestDecodeRestoresGenome(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := testGenome(t)
	circ := Must(NewFloatGene("phase", 0, 1))
	circ.SetCircular(true)
	circ.SetMutator(ConstantMutator{StdDev: 0.2})
	g.Add(circ)
	g.Init(rng)
	g.AddEliteWins(2)

	data, err := json.Marshal(Encode(g))
	require.NoError(t, err)
	var rec model.NodeRecord
	require.NoError(t, json.Unmarshal(data, &rec))

	restored, err := DecodeGenome(rec)
	require.NoError(t, err)
	d, err := g.Equality(restored)
	require.NoError(t, err)
	assert.Zero(t, d)
	assert.Equal(t, g.String(), restored.String())
	assert.Equal(t, 2, restored.EliteWins())
	assert.True(t, restored.Lookup(GeneNx).Hidden())

	phase := restored.Lookup("phase").(*FloatGene)
	assert.True(t, phase.circular)
	assert.Equal(t, ConstantMutator{StdDev: 0.2}, phase.mutator)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode(model.NodeRecord{Kind: "mystery"})
	assert.ErrorIs(t, err, ErrKindNotFound)

	_, err = DecodeGenome(NewContainer("c").Record())
	assert.ErrorIs(t, err, ErrStructureMismatch)
}

func TestRegisterKindRejectsDuplicates(t *testing.T) {
	err := RegisterKind(KindBinary, decodeBinary)
	assert.ErrorIs(t, err, ErrKindExists)
	assert.Error(t, RegisterKind("", decodeBinary))
}

func TestBuiltinKindsRegistered(t *testing.T) {
	for _, kind := range []string{KindBinary, KindInt, KindFloat, KindBitInt, KindBitFloat, KindIndirection, KindContainer, KindGenome} {
		assert.ErrorIs(t, RegisterKind(kind, decodeBinary), ErrKindExists, kind)
	}
}

package encoder_test

import (
	"math"
	"testing"

	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/treeinduce/pkg/encoder"
)

func TestVocabInterning(t *testing.T) {
	v := encoder.NewVocab()

	assert.Equal(t, 0, v.Add("the"))
	assert.Equal(t, 1, v.Add("fox"))
	assert.Equal(t, 0, v.Add("the"))
	assert.Equal(t, 2, v.Len())

	id, ok := v.ID("fox")
	require.True(t, ok)
	assert.Equal(t, 1, id)

	_, ok = v.ID("missing")
	assert.False(t, ok)

	assert.Equal(t, "fox", v.Word(1))
	assert.Equal(t, "", v.Word(99))
}

func TestVocabEncodeDecode(t *testing.T) {
	v := encoder.FromTokens([][]string{{"a", "b"}, {"b", "c"}})
	assert.Equal(t, 3, v.Len())

	ids := v.Encode([]string{"c", "a", "d"})
	assert.Equal(t, []int{2, 0, 3}, ids)
	assert.Equal(t, []string{"c", "a", "d"}, v.Decode(ids))
}

func TestTableIsDeterministicAndUnitNorm(t *testing.T) {
	a := encoder.NewTable(16, 8, 42)
	b := encoder.NewTable(16, 8, 42)
	other := encoder.NewTable(16, 8, 7)

	assert.Equal(t, 8, a.Dim())
	assert.Equal(t, 16, a.Len())

	va, err := a.Vector(3)
	require.NoError(t, err)
	vb, err := b.Vector(3)
	require.NoError(t, err)
	assert.Equal(t, vb, va)

	vo, err := other.Vector(3)
	require.NoError(t, err)
	assert.NotEqual(t, vo, va)

	var norm float64
	for _, x := range va {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	_, err = a.Vector(16)
	assert.Error(t, err)
}

func TestPotentialsShapeAndRange(t *testing.T) {
	table := encoder.NewTable(10, 12, 1)
	enc := encoder.New(table)

	p, err := enc.Potentials([][]int{{0, 1, 2, 3}, {4, 5, 6, 7}})
	require.NoError(t, err)
	assert.Equal(t, 2, p.BatchSize())
	assert.Equal(t, 4, p.Length())

	for level := 1; level < 4; level++ {
		for pos := 0; pos < 4-level; pos++ {
			for idx := 0; idx < level; idx++ {
				for _, v := range p.At(level, pos, idx) {
					assert.GreaterOrEqual(t, v, -1.0-1e-6)
					assert.LessOrEqual(t, v, 1.0+1e-6)
				}
			}
		}
	}
}

// refCosine is an independent float64 reference for the similarity the
// potentials are built from.
func refCosine(a, b []float32) float64 {
	var dot, na, nb float64
	for d := range a {
		dot += float64(a[d]) * float64(b[d])
		na += float64(a[d]) * float64(a[d])
		nb += float64(b[d]) * float64(b[d])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestPotentialsAreChildMeanCosines(t *testing.T) {
	table := encoder.NewTable(6, 8, 9)
	enc := encoder.New(table)

	p, err := enc.Potentials([][]int{{0, 1, 2}})
	require.NoError(t, err)

	v0, err := table.Vector(0)
	require.NoError(t, err)
	v1, err := table.Vector(1)
	require.NoError(t, err)
	v2, err := table.Vector(2)
	require.NoError(t, err)

	// Split of (0,2): cosine of the two leaf embeddings.
	assert.InDelta(t, refCosine(v0, v1), p.At(1, 0, 0)[0], 1e-5)

	// Root split after the first token: cosine of v0 against mean(v1, v2).
	mean12 := make([]float32, len(v1))
	for d := range mean12 {
		mean12[d] = (v1[d] + v2[d]) / 2
	}
	assert.InDelta(t, refCosine(v0, mean12), p.At(2, 0, 0)[0], 1e-5)
}

func TestPotentialsIdenticalTokensScoreOne(t *testing.T) {
	table := encoder.NewTable(4, 8, 3)
	enc := encoder.New(table)

	// Every token is the same id, so every child mean is the same vector
	// and every cosine is exactly 1.
	p, err := enc.Potentials([][]int{{2, 2, 2}})
	require.NoError(t, err)
	for level := 1; level < 3; level++ {
		for pos := 0; pos < 3-level; pos++ {
			for idx := 0; idx < level; idx++ {
				assert.InDelta(t, 1.0, p.At(level, pos, idx)[0], 1e-5)
			}
		}
	}
}

func TestPotentialsRejectsBadBatches(t *testing.T) {
	enc := encoder.New(encoder.NewTable(4, 8, 3))

	_, err := enc.Potentials(nil)
	assert.Error(t, err)

	_, err = enc.Potentials([][]int{{}})
	assert.Error(t, err)

	_, err = enc.Potentials([][]int{{0, 1}, {0, 1, 2}})
	assert.Error(t, err)

	_, err = enc.Potentials([][]int{{0, 99}})
	assert.Error(t, err)
}

func TestSamplerHardNegatives(t *testing.T) {
	table := encoder.NewTable(32, 8, 11)
	s, err := encoder.NewSampler(table, nil, "")
	require.NoError(t, err)

	vec, err := table.Vector(5)
	require.NoError(t, err)

	ids, err := s.Hard(vec, 4, 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(ids), 4)
	assert.NotEmpty(t, ids)
	for _, id := range ids {
		assert.NotEqual(t, 5, id)
		assert.GreaterOrEqual(t, id, 0)
		assert.Less(t, id, 32)
	}
}

func TestSamplerDimensionMismatch(t *testing.T) {
	table := encoder.NewTable(8, 8, 11)
	s, err := encoder.NewSampler(table, nil, "")
	require.NoError(t, err)

	_, err = s.Hard(make([]float32, 4), 2, -1)
	assert.Error(t, err)
}

func TestSamplerSaveAndReload(t *testing.T) {
	fs, err := mem.NewFS()
	require.NoError(t, err)

	table := encoder.NewTable(16, 8, 11)
	s, err := encoder.NewSampler(table, fs, "index.gob")
	require.NoError(t, err)
	require.NoError(t, s.Save())

	reloaded, err := encoder.NewSampler(table, fs, "index.gob")
	require.NoError(t, err)

	vec, err := table.Vector(2)
	require.NoError(t, err)

	want, err := s.Hard(vec, 3, 2)
	require.NoError(t, err)
	got, err := reloaded.Hard(vec, 3, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)
}

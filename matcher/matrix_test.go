package matcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSimilarityMatrix(t *testing.T) {
	vecs := [][]float32{
		{1, 0},
		{0, 2},
		{1, 1},
	}
	m := BuildSimilarityMatrix(vecs)
	require.Equal(t, 3, m.Size())

	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, m.At(i, i), 1e-6)
		for j := 0; j < 3; j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
			assert.InDelta(t, naiveCosine(vecs[i], vecs[j]), m.At(i, j), 1e-6)
		}
	}
	assert.InDelta(t, 0.0, m.At(0, 1), 1e-6)
	assert.InDelta(t, 0.70710678, m.At(0, 2), 1e-6)
}

func naiveCosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestCosineWithNorms_ZeroVector(t *testing.T) {
	zero, one := []float32{0, 0}, []float32{1, 0}
	assert.Equal(t, float32(0), cosineWithNorms(zero, one, vectorNorm(zero), vectorNorm(one)))
	assert.Equal(t, float32(0), cosineWithNorms(nil, []float32{1}, 0, 1))
}

func TestValidateEmbeddings(t *testing.T) {
	require.NoError(t, validateEmbeddings([][]float32{{1, 2}, {3, 4}}, 2))

	tests := map[string][][]float32{
		"count":     {{1, 2}},
		"empty":     {{1, 2}, {}},
		"dimension": {{1, 2}, {1, 2, 3}},
		"nan":       {{1, 2}, {float32(math.NaN()), 0}},
		"inf":       {{float32(math.Inf(-1)), 2}, {1, 2}},
	}
	for name, vecs := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, validateEmbeddings(vecs, 2), ErrEmbedding)
		})
	}
}

package emb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanPool_IgnoresMaskedTokensAndNormalizes(t *testing.T) {
	states := []float32{
		1, 0, // token 0
		3, 0, // token 1
		100, 100, // padding
	}
	vec := meanPool(states, []int{1, 1, 0}, 2)
	require.Len(t, vec, 2)
	assert.InDelta(t, 1.0, vec[0], 1e-6)
	assert.InDelta(t, 0.0, vec[1], 1e-6)
}

func TestMeanPool_UnitLength(t *testing.T) {
	vec := meanPool([]float32{1, 2, 3, 4, 5, 6}, []int{1, 1}, 3)
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestMeanPool_AllMaskedReturnsZero(t *testing.T) {
	vec := meanPool([]float32{1, 2}, []int{0}, 2)
	assert.Equal(t, []float32{0, 0}, vec)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, truncate([]int{1, 2, 3}, 5))
	assert.Equal(t, []int{101, 7, 8, 102}, truncate([]int{101, 7, 8, 9, 10, 102}, 4))
}

func TestToInt64(t *testing.T) {
	assert.Equal(t, []int64{0, 5, -1}, toInt64([]int{0, 5, -1}))
}

func TestInit_RequiresPaths(t *testing.T) {
	var e Encoder
	require.Error(t, e.Init(Config{TokenizerPath: "tok.json"}))
	require.Error(t, e.Init(Config{ModelPath: "model.onnx"}))
}

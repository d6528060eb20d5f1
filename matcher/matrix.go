package matcher

import (
	"fmt"
	"math"
)

// SimilarityMatrix is the symmetric N×N cosine similarity matrix of a corpus,
// stored row-major. It is read-only once built.
type SimilarityMatrix struct {
	n    int
	vals []float32
}

// BuildSimilarityMatrix computes every pairwise cosine similarity in one pass.
// Only the upper triangle is computed; the lower one is mirrored.
func BuildSimilarityMatrix(vecs [][]float32) *SimilarityMatrix {
	n := len(vecs)
	m := newSimilarityMatrix(n)
	norms := make([]float64, n)
	for i, v := range vecs {
		norms[i] = vectorNorm(v)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			m.set(i, j, cosineWithNorms(vecs[i], vecs[j], norms[i], norms[j]))
		}
	}
	return m
}

func newSimilarityMatrix(n int) *SimilarityMatrix {
	return &SimilarityMatrix{n: n, vals: make([]float32, n*n)}
}

// Size returns N.
func (m *SimilarityMatrix) Size() int { return m.n }

// At returns the similarity of issues i and j.
func (m *SimilarityMatrix) At(i, j int) float32 {
	return m.vals[i*m.n+j]
}

func (m *SimilarityMatrix) set(i, j int, v float32) {
	m.vals[i*m.n+j] = v
	m.vals[j*m.n+i] = v
}

// validateEmbeddings checks that vecs is a complete, order-aligned set of
// finite, equal-dimension vectors for n texts.
func validateEmbeddings(vecs [][]float32, n int) error {
	if len(vecs) != n {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(vecs), n)
	}
	dim := -1
	for i, v := range vecs {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector at position %d", ErrEmbedding, i)
		}
		if dim < 0 {
			dim = len(v)
		} else if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrEmbedding, i, len(v), dim)
		}
		for k, x := range v {
			if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: vector %d has non-finite component %d", ErrEmbedding, i, k)
			}
		}
	}
	return nil
}

func cosineWithNorms(a, b []float32, na, nb float64) float32 {
	if len(a) == 0 || len(b) == 0 || na == 0 || nb == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (na * nb))
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}

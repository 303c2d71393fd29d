// ABOUTME: Builds the similarity graph over embedded entries.
// ABOUTME: Computes the Gram matrix of normalized vectors and keeps pairs at or above threshold.
package dedup

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// similarityTolerance absorbs float32 rounding so identical normalized
// vectors still reach a threshold of 1.
const similarityTolerance = 1e-6

// Pair is an undirected similarity edge between flat index positions, I < J.
type Pair struct {
	I, J int
}

// SimilarPairs returns every pair whose cosine similarity is >= threshold,
// in (I, J) lexicographic order. Vectors must be L2-normalized, so the dot
// product is the cosine.
func SimilarPairs(vectors [][]float32, threshold float64) ([]Pair, error) {
	n := len(vectors)
	if n == 0 {
		return nil, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("embedding 0 is empty")
	}

	data := make([]float64, 0, n*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim)
		}
		for _, x := range v {
			f := float64(x)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("embedding %d contains a non-finite value", i)
			}
			data = append(data, f)
		}
	}

	e := mat.NewDense(n, dim, data)
	var s mat.SymDense
	s.SymOuterK(1, e)

	var pairs []Pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if s.At(i, j) >= threshold-similarityTolerance {
				pairs = append(pairs, Pair{I: i, J: j})
			}
		}
	}
	return pairs, nil
}

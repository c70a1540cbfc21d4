package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Embedding is a lookup-table embedding mapping species codes to feature
// vectors. Weight has shape [numTypes x dim].
type Embedding struct {
	Weight *mat.Dense
}

// NewEmbedding creates an embedding table with unit-normal entries.
func NewEmbedding(numTypes, dim int, rng *rand.Rand) *Embedding {
	w := mat.NewDense(numTypes, dim, nil)
	for i := 0; i < numTypes; i++ {
		for j := 0; j < dim; j++ {
			w.Set(i, j, rng.NormFloat64())
		}
	}
	return &Embedding{Weight: w}
}

// Dim returns the embedding width.
func (e *Embedding) Dim() int {
	_, dim := e.Weight.Dims()
	return dim
}

// Lookup gathers the embedding rows for the given codes into an
// [len(codes) x dim] matrix.
func (e *Embedding) Lookup(codes []int) (*mat.Dense, error) {
	numTypes, dim := e.Weight.Dims()
	out := mat.NewDense(len(codes), dim, nil)
	for i, z := range codes {
		if z < 0 || z >= numTypes {
			return nil, fmt.Errorf("embedding: code %d out of range [0,%d)", z, numTypes)
		}
		out.SetRow(i, e.Weight.RawRowView(z))
	}
	return out, nil
}

package painn

import (
	"fmt"
	"math/rand"

	"github.com/QinguiSun/schnetpack/nn"
	"gonum.org/v1/gonum/mat"
)

// ElectronicEmbedding contributes an additive invariant correction to the
// initial scalar features from global electronic state such as total
// charge or spin.
type ElectronicEmbedding interface {
	Correction(q *mat.Dense, sys *System) (*mat.Dense, error)
}

// ChargeEmbedding spreads the system's total charge uniformly over the
// atoms and projects [q | charge share] through a small network to an
// F-wide correction. Charge is a global invariant, so the correction
// cannot disturb the rotation contract.
type ChargeEmbedding struct {
	net *nn.Dense // F+1 -> F, SiLU
}

// NewChargeEmbedding creates a charge embedding for scalar width nBasis.
func NewChargeEmbedding(nBasis int, rng *rand.Rand) *ChargeEmbedding {
	return &ChargeEmbedding{net: nn.NewDense(nBasis+1, nBasis, nn.SiLU, rng)}
}

// Correction implements ElectronicEmbedding.
func (c *ChargeEmbedding) Correction(q *mat.Dense, sys *System) (*mat.Dense, error) {
	nAtoms, f := q.Dims()
	if want := c.net.InFeatures() - 1; f != want {
		return nil, fmt.Errorf("%w: charge embedding expects %d scalar channels, got %d",
			ErrInvalidShape, want, f)
	}
	share := sys.TotalCharge / float64(nAtoms)
	ctx := mat.NewDense(nAtoms, f+1, nil)
	for i := 0; i < nAtoms; i++ {
		row := ctx.RawRowView(i)
		copy(row[:f], q.RawRowView(i))
		row[f] = share
	}
	return c.net.Forward(ctx), nil
}

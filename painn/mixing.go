package painn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/QinguiSun/schnetpack/nn"
	"gonum.org/v1/gonum/mat"
)

// MixingBlock performs the intra-atomic update that follows each
// interaction round.
//
// The vector channels are mixed by a bias-free linear map into two groups
// mu_V and mu_W (bias-free so the zero field maps to zero, preserving
// equivariance). A context net on q and the stabilized norms of mu_V
// produces three invariant deltas: a plain scalar update, a gate on mu_W,
// and a scalar update weighted by the mu_V.mu_W dot product.
//
// The scalar update CONCATENATES two F-wide halves, doubling the scalar
// width every round: q' = [q + dq_intra | q + dqmu_intra]. The vector
// update doubles the same way, with the second half coupling the rank-2
// tensor from the interaction block against the updated scalars:
// tv[c][i] = q'[c] * sum_j dtm[c][i][j]. The tensor field is consumed here
// and never propagated further.
type MixingBlock struct {
	nBasis  int
	epsilon float64

	channelMix *nn.Dense // F -> 2F, bias-free
	ctx1       *nn.Dense // 2F -> F, SiLU
	ctx2       *nn.Dense // F -> 3F
}

// NewMixingBlock creates a block for scalar width nBasis. epsilon
// stabilizes the vector norms so gradients stay finite near zero vectors.
func NewMixingBlock(nBasis int, epsilon float64, rng *rand.Rand) *MixingBlock {
	return &MixingBlock{
		nBasis:     nBasis,
		epsilon:    epsilon,
		channelMix: nn.NewDenseNoBias(nBasis, 2*nBasis, nil, rng),
		ctx1:       nn.NewDense(2*nBasis, nBasis, nn.SiLU, rng),
		ctx2:       nn.NewDense(nBasis, 3*nBasis, nil, rng),
	}
}

// Forward computes the doubled-width (q', mu') from the round's features
// and tensor field. Inputs are left unmodified.
func (b *MixingBlock) Forward(q *mat.Dense, mu *VectorField, dtm *TensorField) (*mat.Dense, *VectorField, error) {
	f := b.nBasis
	nAtoms := mu.N
	if qr, qc := q.Dims(); qr != nAtoms || qc != f {
		return nil, nil, fmt.Errorf("%w: scalar features [%d x %d], want [%d x %d]",
			ErrInvalidShape, qr, qc, nAtoms, f)
	}
	if mu.C != f {
		return nil, nil, fmt.Errorf("%w: vector features carry %d channels, want %d",
			ErrInvalidShape, mu.C, f)
	}
	if dtm.N != nAtoms || dtm.C != f {
		return nil, nil, fmt.Errorf("%w: tensor field [%d x %d x 3 x 3], want [%d x %d x 3 x 3]",
			ErrInvalidShape, dtm.N, dtm.C, nAtoms, f)
	}

	// channel mix: each (atom, component) row maps F -> 2F
	mixed := b.channelMix.Forward(mu.Matrix()) // [3N x 2F]

	// stabilized invariant norms of mu_V and the mu_V.mu_W dot product
	muVn := mat.NewDense(nAtoms, f, nil)
	dot := mat.NewDense(nAtoms, f, nil)
	for i := 0; i < nAtoms; i++ {
		vn := muVn.RawRowView(i)
		dp := dot.RawRowView(i)
		for s := 0; s < 3; s++ {
			row := mixed.RawRowView(i*3 + s)
			for c := 0; c < f; c++ {
				v, w := row[c], row[f+c]
				vn[c] += v * v
				dp[c] += v * w
			}
		}
		for c := 0; c < f; c++ {
			vn[c] = math.Sqrt(vn[c] + b.epsilon)
		}
	}

	// intra-atomic context on [q | mu_Vn]
	ctx := mat.NewDense(nAtoms, 2*f, nil)
	for i := 0; i < nAtoms; i++ {
		row := ctx.RawRowView(i)
		copy(row[:f], q.RawRowView(i))
		copy(row[f:], muVn.RawRowView(i))
	}
	x := b.ctx2.Forward(b.ctx1.Forward(ctx)) // [N x 3F]: dq | dmu | dqmu

	qOut := mat.NewDense(nAtoms, 2*f, nil)
	for i := 0; i < nAtoms; i++ {
		qrow := q.RawRowView(i)
		xrow := x.RawRowView(i)
		dst := qOut.RawRowView(i)
		for c := 0; c < f; c++ {
			dst[c] = qrow[c] + xrow[c]
			dst[f+c] = qrow[c] + xrow[2*f+c]*dot.At(i, c)
		}
	}

	muOut := NewVectorField(nAtoms, 2*f)
	for i := 0; i < nAtoms; i++ {
		xrow := x.RawRowView(i)
		qrow := qOut.RawRowView(i)
		for s := 0; s < 3; s++ {
			mixRow := mixed.RawRowView(i*3 + s)
			dst := muOut.Data[(i*3+s)*2*f : (i*3+s+1)*2*f]
			muRow := mu.Data[(i*3+s)*f : (i*3+s+1)*f]
			for c := 0; c < f; c++ {
				// gated linear half
				dst[c] = muRow[c] + xrow[f+c]*mixRow[f+c]
				// tensor-coupled half: q'[c] * row-sum of dtm channel c
				var rowSum float64
				for j := 0; j < 3; j++ {
					rowSum += dtm.At(i, c, s, j)
				}
				dst[f+c] = muRow[c] + qrow[c]*rowSum
			}
		}
	}
	return qOut, muOut, nil
}

package painn

import (
	"fmt"
	"math/rand"

	"github.com/QinguiSun/schnetpack/nn"
	"gonum.org/v1/gonum/mat"
)

// InteractionBlock performs one round of inter-atomic message passing.
//
// Scalar messages are built by projecting q through a two-layer context
// net, gathering at the source atom of each edge, gating with the
// invariant per-edge filter, and aggregating per target atom. Vector
// messages combine the unit bond direction with compressed source vectors;
// both paths use only invariant coefficients against equivariant vectors,
// so mu stays equivariant.
//
// Two observed asymmetries are part of the contract: q is updated
// additively (q' = q + dq) while mu is REPLACED by the aggregated message
// plus a compressed self term, and the self term is computed from each
// atom's own vector feature. The block finally reconstructs a rank-2
// tensor field from the updated vectors for the paired mixing step.
type InteractionBlock struct {
	nBasis   int // per-round basis width F
	vectorIn int // expected mu channel width

	ctx1           *nn.Dense // F -> F, SiLU
	ctx2           *nn.Dense // F -> 3F
	compression    *CompressionLayer
	reconstruction *ReconstructionLayer
}

// NewInteractionBlock creates a block for scalar width nBasis and incoming
// vector width vectorIn. The compression layer pools vectorIn channels to
// nBasis; reconstruction expands nBasis compressed channels to nBasis
// tensor channels.
func NewInteractionBlock(nBasis, vectorIn int, rng *rand.Rand) *InteractionBlock {
	return &InteractionBlock{
		nBasis:         nBasis,
		vectorIn:       vectorIn,
		ctx1:           nn.NewDense(nBasis, nBasis, nn.SiLU, rng),
		ctx2:           nn.NewDense(nBasis, 3*nBasis, nil, rng),
		compression:    NewCompressionLayer(vectorIn, nBasis, rng),
		reconstruction: NewReconstructionLayer(nBasis, nBasis, rng),
	}
}

// FilterWidth returns the per-edge filter width this block consumes.
func (b *InteractionBlock) FilterWidth() int { return 3 * b.nBasis }

// Forward computes (q', mu', dtm) from the current features, per-edge
// filters and edge geometry. It has no side effects beyond the returned
// values; all inputs are left unmodified.
func (b *InteractionBlock) Forward(
	q *mat.Dense,
	mu *VectorField,
	filters *mat.Dense,
	edges *EdgeSet,
	nAtoms int,
) (*mat.Dense, *VectorField, *TensorField, error) {
	f := b.nBasis
	if qr, qc := q.Dims(); qr != nAtoms || qc != f {
		return nil, nil, nil, fmt.Errorf("%w: scalar features [%d x %d], want [%d x %d]",
			ErrInvalidShape, qr, qc, nAtoms, f)
	}
	if mu.N != nAtoms || mu.C != b.vectorIn {
		return nil, nil, nil, fmt.Errorf("%w: vector features [%d x 3 x %d], want [%d x 3 x %d]",
			ErrInvalidShape, mu.N, mu.C, nAtoms, b.vectorIn)
	}
	if err := edges.Validate(nAtoms); err != nil {
		return nil, nil, nil, err
	}
	nEdges := edges.Len()
	if nEdges > 0 {
		if wr, wc := filters.Dims(); wr != nEdges || wc != 3*f {
			return nil, nil, nil, fmt.Errorf("%w: filters [%d x %d], want [%d x %d]",
				ErrInvalidShape, wr, wc, nEdges, 3*f)
		}
	}

	// inter-atomic context, gathered at the source atom and gated by the
	// invariant filter
	x := b.ctx2.Forward(b.ctx1.Forward(q)) // [atoms x 3F]

	dqEdges := make([]float64, nEdges*f)
	dmuEdges := make([]float64, nEdges*3*f)
	if nEdges > 0 {
		// compressed source vectors, per edge
		muj := mu.Gather(edges.IdxJ)
		cvj, err := b.compression.Forward(muj.ToChannelMajor())
		if err != nil {
			return nil, nil, nil, err
		}

		// gate by the filter, then split into dq | dmuR | dmumu
		gated := make([]float64, 3*f)
		for e := 0; e < nEdges; e++ {
			xj := x.RawRowView(edges.IdxJ[e])
			wrow := filters.RawRowView(e)
			for k := 0; k < 3*f; k++ {
				gated[k] = wrow[k] * xj[k]
			}
			copy(dqEdges[e*f:(e+1)*f], gated[:f])
			dir := edges.Dir[e*3 : e*3+3]
			for s := 0; s < 3; s++ {
				dst := dmuEdges[(e*3+s)*f : (e*3+s+1)*f]
				for c := 0; c < f; c++ {
					dst[c] = gated[f+c]*dir[s] + gated[2*f+c]*cvj.At(e, c, s)
				}
			}
		}
	}

	// order-independent aggregation per target atom; atoms without
	// incoming edges keep zero
	dqFlat, err := nn.ScatterAddStrided(dqEdges, f, edges.IdxI, nAtoms)
	if err != nil {
		return nil, nil, nil, err
	}
	dmuFlat, err := nn.ScatterAddStrided(dmuEdges, 3*f, edges.IdxI, nAtoms)
	if err != nil {
		return nil, nil, nil, err
	}

	qOut := mat.NewDense(nAtoms, f, nil)
	qOut.Add(q, mat.NewDense(nAtoms, f, dqFlat))

	// self term on the receiver's own vector feature, then the
	// replacement update for mu
	cvi, err := b.compression.Forward(mu.ToChannelMajor())
	if err != nil {
		return nil, nil, nil, err
	}
	muOut := &VectorField{N: nAtoms, C: f, Data: dmuFlat}
	for i := 0; i < nAtoms; i++ {
		for s := 0; s < 3; s++ {
			for c := 0; c < f; c++ {
				muOut.Data[(i*3+s)*f+c] += cvi.At(i, c, s)
			}
		}
	}

	dtm, err := b.reconstruction.Forward(muOut.ToChannelMajor())
	if err != nil {
		return nil, nil, nil, err
	}
	return qOut, muOut, dtm, nil
}

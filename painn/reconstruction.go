package painn

import (
	"fmt"
	"math/rand"

	"github.com/QinguiSun/schnetpack/nn"
)

// ReconstructionLayer expands C compressed vector channels into R rank-2
// tensor channels.
//
// Each compressed vector contributes its self outer product, a symmetric
// equivariant 3x3 tensor. Mixing coefficients come from a small network on
// the invariant channel norms, so output r is
//
//	out[r] = sum_c coeff[r,c] * outer(v_c, v_c)
//
// A bilinear product of an equivariant vector with itself, scaled by
// invariant coefficients, is rank-2 equivariant: under rotation Q the
// output transforms as Q T Q^T. A zero input channel contributes exactly
// zero to every output tensor.
type ReconstructionLayer struct {
	C, R   int
	hidden *nn.Dense // C -> 32, ReLU
	out    *nn.Dense // 32 -> R*C
}

// NewReconstructionLayer creates a layer expanding c compressed channels
// into r tensor channels.
func NewReconstructionLayer(c, r int, rng *rand.Rand) *ReconstructionLayer {
	return &ReconstructionLayer{
		C:      c,
		R:      r,
		hidden: nn.NewDense(c, invariantNetHidden, nn.ReLU, rng),
		out:    nn.NewDense(invariantNetHidden, r*c, nil, rng),
	}
}

// Forward builds the [N x R x 3 x 3] tensor field for channel-major input
// vectors.
func (l *ReconstructionLayer) Forward(in *ChannelVectors) (*TensorField, error) {
	if in.C != l.C {
		return nil, fmt.Errorf("%w: reconstruction expects %d compressed channels, got %d",
			ErrInvalidShape, l.C, in.C)
	}
	coeff := l.out.Forward(l.hidden.Forward(in.Norms())) // [N x R*C]

	out := NewTensorField(in.N, l.R)
	for i := 0; i < in.N; i++ {
		crow := coeff.RawRowView(i)
		for c := 0; c < l.C; c++ {
			base := (i*l.C + c) * 3
			x, y, z := in.Data[base], in.Data[base+1], in.Data[base+2]
			// self outer product, symmetric by construction
			var op [9]float64
			op[0], op[1], op[2] = x*x, x*y, x*z
			op[3], op[4], op[5] = y*x, y*y, y*z
			op[6], op[7], op[8] = z*x, z*y, z*z
			for r := 0; r < l.R; r++ {
				k := crow[r*l.C+c]
				dst := out.Data[(i*l.R+r)*9 : (i*l.R+r+1)*9]
				for m := 0; m < 9; m++ {
					dst[m] += k * op[m]
				}
			}
		}
	}
	return out, nil
}

package painn

import (
	"fmt"
	"math/rand"

	"github.com/QinguiSun/schnetpack/nn"
	"gonum.org/v1/gonum/mat"
)

// hidden width of the small invariant networks inside the compression and
// reconstruction layers.
const invariantNetHidden = 32

// CompressionLayer pools V vector channels into C compressed channels
// using learned invariant weights.
//
// The weights are a softmax over the compressed channels, computed from
// the per-channel norms of the input. Each output channel l is the sum of
// ALL input vectors scaled by the single weight w[l]: the weight is indexed
// by output channel only and applied uniformly across input channels. That
// uniform broadcast means channel identity does not influence the pooling;
// it is the observed contract of this layer and is pinned by tests rather
// than corrected. Because the weights are invariant, the output transforms
// exactly like the input under rotation.
type CompressionLayer struct {
	V, C   int
	hidden *nn.Dense // V -> 32, ReLU
	out    *nn.Dense // 32 -> C, softmax applied after
}

// NewCompressionLayer creates a layer pooling v channels into c.
func NewCompressionLayer(v, c int, rng *rand.Rand) *CompressionLayer {
	return &CompressionLayer{
		V:      v,
		C:      c,
		hidden: nn.NewDense(v, invariantNetHidden, nn.ReLU, rng),
		out:    nn.NewDense(invariantNetHidden, c, nil, rng),
	}
}

// PoolingWeights returns the [N x C] softmax weights for the given input:
// non-negative, each row summing to one.
func (l *CompressionLayer) PoolingWeights(in *ChannelVectors) (*mat.Dense, error) {
	if in.C != l.V {
		return nil, fmt.Errorf("%w: compression expects %d vector channels, got %d",
			ErrInvalidShape, l.V, in.C)
	}
	return nn.SoftmaxRows(l.out.Forward(l.hidden.Forward(in.Norms()))), nil
}

// Forward pools the input channels, returning [N x C x 3] channel-major
// vectors.
func (l *CompressionLayer) Forward(in *ChannelVectors) (*ChannelVectors, error) {
	w, err := l.PoolingWeights(in)
	if err != nil {
		return nil, err
	}
	out := NewChannelVectors(in.N, l.C)
	for i := 0; i < in.N; i++ {
		// pooled = sum of all input vectors for this item
		var px, py, pz float64
		for v := 0; v < in.C; v++ {
			base := (i*in.C + v) * 3
			px += in.Data[base]
			py += in.Data[base+1]
			pz += in.Data[base+2]
		}
		wrow := w.RawRowView(i)
		for c := 0; c < l.C; c++ {
			base := (i*l.C + c) * 3
			out.Data[base] = wrow[c] * px
			out.Data[base+1] = wrow[c] * py
			out.Data[base+2] = wrow[c] * pz
		}
	}
	return out, nil
}

// Package nn provides the shared neural primitives used by the atomistic
// representation stack.
//
// The package implements the small set of building blocks every network in
// this module is assembled from:
//
//   - Dense: affine layer with optional activation, backed by gonum matrices
//   - Activations: SiLU and ReLU scalar functions
//   - SoftmaxRows: numerically stable row-wise softmax
//   - ScatterAdd: grouped, order-independent summation by target index
//   - Embedding: lookup-table embedding for atomic species
//
// All parameters are plain exported gonum values so callers (and tests) can
// seed, inspect or overwrite them directly. Nothing in this package keeps
// mutable state across calls; every Forward is a pure function of its inputs
// and the layer parameters.
package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Activation is a scalar nonlinearity applied elementwise after the affine
// transform. A nil Activation means identity.
type Activation func(x float64) float64

// SiLU computes x * sigmoid(x).
func SiLU(x float64) float64 {
	return x / (1 + math.Exp(-x))
}

// ReLU computes max(0, x).
func ReLU(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// Dense is a fully connected layer y = act(x*W + b).
//
// W has shape [in x out]. B is nil for bias-free layers; bias-free is
// required wherever a layer must map the zero vector to the zero vector.
type Dense struct {
	W   *mat.Dense
	B   *mat.VecDense
	Act Activation
}

// NewDense creates a Dense layer with Xavier-uniform weights and zero bias.
func NewDense(in, out int, act Activation, rng *rand.Rand) *Dense {
	return &Dense{
		W:   xavier(in, out, rng),
		B:   mat.NewVecDense(out, nil),
		Act: act,
	}
}

// NewDenseNoBias creates a bias-free Dense layer with Xavier-uniform weights.
func NewDenseNoBias(in, out int, act Activation, rng *rand.Rand) *Dense {
	return &Dense{
		W:   xavier(in, out, rng),
		Act: act,
	}
}

func xavier(in, out int, rng *rand.Rand) *mat.Dense {
	limit := math.Sqrt(6.0 / float64(in+out))
	w := mat.NewDense(in, out, nil)
	for i := 0; i < in; i++ {
		for j := 0; j < out; j++ {
			w.Set(i, j, (2*rng.Float64()-1)*limit)
		}
	}
	return w
}

// InFeatures returns the expected input width.
func (d *Dense) InFeatures() int {
	in, _ := d.W.Dims()
	return in
}

// OutFeatures returns the produced output width.
func (d *Dense) OutFeatures() int {
	_, out := d.W.Dims()
	return out
}

// Forward applies the layer to a batch of row vectors [n x in] and returns
// [n x out]. The input is not modified.
func (d *Dense) Forward(x *mat.Dense) *mat.Dense {
	var y mat.Dense
	y.Mul(x, d.W)
	y.Apply(func(_, j int, v float64) float64 {
		if d.B != nil {
			v += d.B.AtVec(j)
		}
		if d.Act != nil {
			v = d.Act(v)
		}
		return v
	}, &y)
	return &y
}

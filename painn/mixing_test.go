package painn

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randTensorField(rng *rand.Rand, n, c int) *TensorField {
	t := NewTensorField(n, c)
	for i := range t.Data {
		t.Data[i] = rng.NormFloat64()
	}
	return t
}

func TestMixingWidthDoubling(t *testing.T) {
	rng := newRng(51)
	const f, nAtoms = 4, 5
	block := NewMixingBlock(f, 1e-8, rng)
	q := randDense(rng, nAtoms, f)
	mu := randVectorField(rng, nAtoms, f)
	dtm := randTensorField(rng, nAtoms, f)

	qOut, muOut, err := block.Forward(q, mu, dtm)
	require.NoError(t, err)

	qr, qc := qOut.Dims()
	assert.Equal(t, nAtoms, qr)
	assert.Equal(t, 2*f, qc)
	assert.Equal(t, nAtoms, muOut.N)
	assert.Equal(t, 2*f, muOut.C)
}

// With a zero tensor field the whole block is built from invariant
// coefficients and linear maps of mu, so rotating mu leaves the scalars
// untouched and rotates every output vector channel.
func TestMixingEquivariantWithZeroTensor(t *testing.T) {
	rng := newRng(53)
	const f, nAtoms = 4, 6
	block := NewMixingBlock(f, 1e-8, rng)
	q := randDense(rng, nAtoms, f)
	mu := randVectorField(rng, nAtoms, f)
	dtm := NewTensorField(nAtoms, f)
	rot := rotationMatrix(0.6, 1.9, -1.2)

	q1, mu1, err := block.Forward(q, mu, dtm)
	require.NoError(t, err)
	q2, mu2, err := block.Forward(q, rotateVectorField(rot, mu), dtm)
	require.NoError(t, err)

	assert.Less(t, maxAbsDiff(denseData(q1), denseData(q2)), rotTolerance)
	assert.Less(t, maxAbsDiff(rotateVectorField(rot, mu1).Data, mu2.Data), rotTolerance)
}

// Pins the tensor coupling contract: channel c of the second vector half
// is mu[c] + q'[c] * row-sum of tensor channel c, with q' the first half
// of the doubled scalars.
func TestMixingTensorCoupling(t *testing.T) {
	rng := newRng(59)
	const f, nAtoms = 3, 4
	block := NewMixingBlock(f, 1e-8, rng)
	q := randDense(rng, nAtoms, f)
	mu := randVectorField(rng, nAtoms, f)
	dtm := randTensorField(rng, nAtoms, f)

	qOut, muOut, err := block.Forward(q, mu, dtm)
	require.NoError(t, err)

	for i := 0; i < nAtoms; i++ {
		for s := 0; s < 3; s++ {
			for c := 0; c < f; c++ {
				rowSum := dtm.At(i, c, s, 0) + dtm.At(i, c, s, 1) + dtm.At(i, c, s, 2)
				want := mu.At(i, s, c) + qOut.At(i, c)*rowSum
				assert.InDelta(t, want, muOut.At(i, s, f+c), exactTolerance)
			}
		}
	}
}

func TestMixingScalarGrowthIsTiledAdd(t *testing.T) {
	rng := newRng(61)
	const f, nAtoms = 3, 2
	block := NewMixingBlock(f, 1e-8, rng)
	// silence the context net: both scalar deltas become zero
	block.ctx2.W.Zero()
	block.ctx2.B.Zero()
	q := randDense(rng, nAtoms, f)
	mu := randVectorField(rng, nAtoms, f)
	dtm := NewTensorField(nAtoms, f)

	qOut, _, err := block.Forward(q, mu, dtm)
	require.NoError(t, err)

	// both halves collapse onto the original q
	for i := 0; i < nAtoms; i++ {
		for c := 0; c < f; c++ {
			assert.Equal(t, q.At(i, c), qOut.At(i, c))
			assert.Equal(t, q.At(i, c), qOut.At(i, f+c))
		}
	}
}

func TestMixingTensorChannelMismatch(t *testing.T) {
	rng := newRng(67)
	const f, nAtoms = 3, 2
	block := NewMixingBlock(f, 1e-8, rng)
	q := randDense(rng, nAtoms, f)
	mu := randVectorField(rng, nAtoms, f)
	dtm := NewTensorField(nAtoms, f+1)

	_, _, err := block.Forward(q, mu, dtm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidShape))
}

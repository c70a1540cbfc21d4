package basis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const floatTolerance = 1e-12

func TestCosineCutoff(t *testing.T) {
	c := NewCosineCutoff(5.0)
	assert.Equal(t, 5.0, c.Radius())
	assert.InDelta(t, 1.0, c.Weight(0), floatTolerance)
	assert.Equal(t, 0.0, c.Weight(5.0))
	assert.Equal(t, 0.0, c.Weight(7.3))

	// smooth monotone decay inside the radius
	prev := c.Weight(0)
	for d := 0.5; d < 5.0; d += 0.5 {
		w := c.Weight(d)
		assert.Less(t, w, prev)
		assert.GreaterOrEqual(t, w, 0.0)
		prev = w
	}
}

func TestGaussianRBF(t *testing.T) {
	g := NewGaussianRBF(8, 5.0)
	require.Equal(t, 8, g.NumFeatures())

	d := []float64{0, 2.5, 5.0}
	phi := g.Expand(d)
	r, c := phi.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 8, c)

	// the first Gaussian is centered at zero, the last at the cutoff
	assert.InDelta(t, 1.0, phi.At(0, 0), floatTolerance)
	assert.InDelta(t, 1.0, phi.At(2, 7), floatTolerance)
	for j := 0; j < 8; j++ {
		assert.Greater(t, phi.At(1, j), 0.0)
		assert.LessOrEqual(t, phi.At(1, j), 1.0)
	}
}

func TestBesselRBF(t *testing.T) {
	b := NewBesselRBF(4, 5.0)
	require.Equal(t, 4, b.NumFeatures())

	phi := b.Expand([]float64{0, 1.0})
	// d -> 0 limit is the frequency itself
	for k := 0; k < 4; k++ {
		want := float64(k+1) * math.Pi / 5.0
		assert.InDelta(t, want, phi.At(0, k), floatTolerance)
	}
	// sin(k*pi*d/rc)/d elsewhere
	for k := 0; k < 4; k++ {
		want := math.Sin(float64(k+1)*math.Pi/5.0) / 1.0
		assert.InDelta(t, want, phi.At(1, k), floatTolerance)
	}
}

package painn

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/QinguiSun/schnetpack/nn"
)

const (
	rotTolerance   = 1e-9
	exactTolerance = 1e-12
)

func newRng(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// rotationMatrix builds a proper rotation from three Euler angles.
func rotationMatrix(a, b, c float64) *mat.Dense {
	rz := func(t float64) *mat.Dense {
		return mat.NewDense(3, 3, []float64{
			math.Cos(t), -math.Sin(t), 0,
			math.Sin(t), math.Cos(t), 0,
			0, 0, 1,
		})
	}
	rx := func(t float64) *mat.Dense {
		return mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, math.Cos(t), -math.Sin(t),
			0, math.Sin(t), math.Cos(t),
		})
	}
	var tmp, out mat.Dense
	tmp.Mul(rx(b), rz(c))
	out.Mul(rz(a), &tmp)
	return &out
}

func rotateVec3(r *mat.Dense, x, y, z float64) (float64, float64, float64) {
	return r.At(0, 0)*x + r.At(0, 1)*y + r.At(0, 2)*z,
		r.At(1, 0)*x + r.At(1, 1)*y + r.At(1, 2)*z,
		r.At(2, 0)*x + r.At(2, 1)*y + r.At(2, 2)*z
}

func rotateChannelVectors(r *mat.Dense, v *ChannelVectors) *ChannelVectors {
	out := NewChannelVectors(v.N, v.C)
	for i := 0; i < v.N; i++ {
		for c := 0; c < v.C; c++ {
			base := (i*v.C + c) * 3
			x, y, z := rotateVec3(r, v.Data[base], v.Data[base+1], v.Data[base+2])
			out.Data[base], out.Data[base+1], out.Data[base+2] = x, y, z
		}
	}
	return out
}

func rotateVectorField(r *mat.Dense, f *VectorField) *VectorField {
	return rotateChannelVectors(r, f.ToChannelMajor()).ToSpatialMajor()
}

// rotateTensorField conjugates every 3x3 channel: T -> R T R^T.
func rotateTensorField(r *mat.Dense, t *TensorField) *TensorField {
	out := NewTensorField(t.N, t.C)
	for i := 0; i < t.N; i++ {
		for c := 0; c < t.C; c++ {
			base := (i*t.C + c) * 9
			block := mat.NewDense(3, 3, t.Data[base:base+9])
			var tmp, rot mat.Dense
			tmp.Mul(r, block)
			rot.Mul(&tmp, r.T())
			for a := 0; a < 3; a++ {
				for bb := 0; bb < 3; bb++ {
					out.Data[base+a*3+bb] = rot.At(a, bb)
				}
			}
		}
	}
	return out
}

func randChannelVectors(rng *rand.Rand, n, c int) *ChannelVectors {
	v := NewChannelVectors(n, c)
	for i := range v.Data {
		v.Data[i] = rng.NormFloat64()
	}
	return v
}

func randVectorField(rng *rand.Rand, n, c int) *VectorField {
	f := NewVectorField(n, c)
	for i := range f.Data {
		f.Data[i] = rng.NormFloat64()
	}
	return f
}

func randDense(rng *rand.Rand, r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
	}
	return m
}

func maxAbsDiff(a, b []float64) float64 {
	var worst float64
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > worst {
			worst = d
		}
	}
	return worst
}

func newTestEmbedding(t *testing.T, dim int) *nn.Embedding {
	t.Helper()
	return nn.NewEmbedding(maxSpecies, dim, newRng(2))
}

func denseData(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

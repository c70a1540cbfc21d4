// Package painn implements the rotation-equivariant atomistic
// representation core: iterative geometric message passing that refines an
// invariant scalar feature and an equivariant vector feature per atom.
//
// Each round runs an InteractionBlock (inter-atomic messages along edges)
// followed by a MixingBlock (intra-atomic channel update). Vector and
// tensor quantities are only ever combined through invariant coefficients,
// linear maps, or bilinear products of equivariant quantities, which is
// what keeps the representation physically meaningful under rotations.
//
// # Axis layouts
//
// Two layouts appear at component boundaries and are named explicitly to
// keep axis-order conversions visible:
//
//   - spatial-major (VectorField): [atoms][3][channels]. The layout in
//     which features are threaded between rounds.
//   - channel-major (ChannelVectors): [items][channels][3]. The layout the
//     compression and reconstruction layers consume, where each channel is
//     one 3-vector.
//
// ToChannelMajor and ToSpatialMajor are the only conversion points; every
// boundary that swaps axes calls one of them rather than re-indexing ad
// hoc. Scalar features are plain [atoms x channels] matrices (the source
// system carried a singleton broadcast axis in the middle; it is dropped
// here).
package painn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// VectorField holds per-atom equivariant vector features in spatial-major
// layout [N][3][C]: component s of channel c for atom i lives at
// Data[(i*3+s)*C+c]. Each fixed (i, s) is a contiguous row of width C, so
// the field doubles as a [3N x C] matrix for channel-wise linear maps.
type VectorField struct {
	N, C int
	Data []float64
}

// NewVectorField returns a zero field for n atoms and c channels.
func NewVectorField(n, c int) *VectorField {
	return &VectorField{N: n, C: c, Data: make([]float64, n*3*c)}
}

// At returns component s (0..2) of channel c for atom i.
func (f *VectorField) At(i, s, c int) float64 {
	return f.Data[(i*3+s)*f.C+c]
}

// Set assigns component s of channel c for atom i.
func (f *VectorField) Set(i, s, c int, v float64) {
	f.Data[(i*3+s)*f.C+c] = v
}

// Matrix views the field as a [3N x C] dense matrix sharing the same
// backing storage.
func (f *VectorField) Matrix() *mat.Dense {
	return mat.NewDense(f.N*3, f.C, f.Data)
}

// Clone returns a deep copy.
func (f *VectorField) Clone() *VectorField {
	out := NewVectorField(f.N, f.C)
	copy(out.Data, f.Data)
	return out
}

// Gather collects the field rows for the given atom indices, producing a
// per-edge field. Indices must already be validated.
func (f *VectorField) Gather(index []int) *VectorField {
	out := NewVectorField(len(index), f.C)
	w := 3 * f.C
	for e, i := range index {
		copy(out.Data[e*w:(e+1)*w], f.Data[i*w:(i+1)*w])
	}
	return out
}

// ToChannelMajor converts to channel-major layout.
func (f *VectorField) ToChannelMajor() *ChannelVectors {
	out := NewChannelVectors(f.N, f.C)
	for i := 0; i < f.N; i++ {
		for s := 0; s < 3; s++ {
			for c := 0; c < f.C; c++ {
				out.Data[(i*f.C+c)*3+s] = f.Data[(i*3+s)*f.C+c]
			}
		}
	}
	return out
}

// ChannelVectors holds vector channels in channel-major layout [N][C][3]:
// component s of channel c for item i lives at Data[(i*C+c)*3+s].
type ChannelVectors struct {
	N, C int
	Data []float64
}

// NewChannelVectors returns zeroed channel-major storage for n items and c
// channels.
func NewChannelVectors(n, c int) *ChannelVectors {
	return &ChannelVectors{N: n, C: c, Data: make([]float64, n*c*3)}
}

// At returns component s of channel c for item i.
func (v *ChannelVectors) At(i, c, s int) float64 {
	return v.Data[(i*v.C+c)*3+s]
}

// Set assigns component s of channel c for item i.
func (v *ChannelVectors) Set(i, c, s int, val float64) {
	v.Data[(i*v.C+c)*3+s] = val
}

// Norms computes the Euclidean length of every channel vector, returning
// an [N x C] matrix of rotation-invariant values.
func (v *ChannelVectors) Norms() *mat.Dense {
	out := mat.NewDense(v.N, v.C, nil)
	for i := 0; i < v.N; i++ {
		row := out.RawRowView(i)
		for c := 0; c < v.C; c++ {
			base := (i*v.C + c) * 3
			x, y, z := v.Data[base], v.Data[base+1], v.Data[base+2]
			row[c] = math.Sqrt(x*x + y*y + z*z)
		}
	}
	return out
}

// ToSpatialMajor converts back to spatial-major layout.
func (v *ChannelVectors) ToSpatialMajor() *VectorField {
	out := NewVectorField(v.N, v.C)
	for i := 0; i < v.N; i++ {
		for c := 0; c < v.C; c++ {
			for s := 0; s < 3; s++ {
				out.Data[(i*3+s)*v.C+c] = v.Data[(i*v.C+c)*3+s]
			}
		}
	}
	return out
}

// TensorField holds per-atom rank-2 tensor features [N][C][3][3]: entry
// (a, b) of channel c for atom i lives at Data[((i*C+c)*3+a)*3+b].
type TensorField struct {
	N, C int
	Data []float64
}

// NewTensorField returns a zero tensor field.
func NewTensorField(n, c int) *TensorField {
	return &TensorField{N: n, C: c, Data: make([]float64, n*c*9)}
}

// At returns entry (a, b) of channel c for atom i.
func (t *TensorField) At(i, c, a, b int) float64 {
	return t.Data[((i*t.C+c)*3+a)*3+b]
}

// Set assigns entry (a, b) of channel c for atom i.
func (t *TensorField) Set(i, c, a, b int, v float64) {
	t.Data[((i*t.C+c)*3+a)*3+b] = v
}

// EdgeSet is a directed neighbor list: edge e points from source atom
// IdxJ[e] to target atom IdxI[e], with unit bond direction Dir (flat,
// stride 3) and invariant distance Dist.
type EdgeSet struct {
	IdxI, IdxJ []int
	Dir        []float64
	Dist       []float64
}

// Len returns the number of edges.
func (e *EdgeSet) Len() int { return len(e.IdxI) }

// Validate checks internal consistency and that all indices reference
// atoms in [0, nAtoms).
func (e *EdgeSet) Validate(nAtoms int) error {
	n := len(e.IdxI)
	if len(e.IdxJ) != n {
		return fmt.Errorf("%w: %d target indices but %d source indices",
			ErrInvalidShape, n, len(e.IdxJ))
	}
	if len(e.Dir) != 3*n {
		return fmt.Errorf("%w: direction array length %d, want %d",
			ErrInvalidShape, len(e.Dir), 3*n)
	}
	if e.Dist != nil && len(e.Dist) != n {
		return fmt.Errorf("%w: distance array length %d, want %d",
			ErrInvalidShape, len(e.Dist), n)
	}
	for k := 0; k < n; k++ {
		if e.IdxI[k] < 0 || e.IdxI[k] >= nAtoms {
			return fmt.Errorf("%w: idx_i[%d]=%d, atoms=%d",
				ErrIndexOutOfRange, k, e.IdxI[k], nAtoms)
		}
		if e.IdxJ[k] < 0 || e.IdxJ[k] >= nAtoms {
			return fmt.Errorf("%w: idx_j[%d]=%d, atoms=%d",
				ErrIndexOutOfRange, k, e.IdxJ[k], nAtoms)
		}
	}
	return nil
}

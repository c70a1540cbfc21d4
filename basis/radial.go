// Package basis implements radial basis expansions and smooth cutoff
// functions for interatomic distances.
//
// A radial basis maps each scalar distance to an invariant feature vector;
// a cutoff function produces a smooth weight in [0,1] that vanishes beyond
// its radius. Both are consumed by the representation orchestrator to build
// per-edge filters, and both depend only on distances, so every quantity
// produced here is rotation invariant by construction.
package basis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// GaussianRBF expands distances in Gaussian functions with centers spaced
// evenly on [0, cutoff].
type GaussianRBF struct {
	centers []float64
	gamma   float64
}

// NewGaussianRBF creates n Gaussians on [0, cutoff]. The width is tied to
// the center spacing so neighboring Gaussians overlap at half height.
func NewGaussianRBF(n int, cutoff float64) *GaussianRBF {
	centers := make([]float64, n)
	spacing := cutoff / float64(n-1)
	for k := range centers {
		centers[k] = float64(k) * spacing
	}
	return &GaussianRBF{
		centers: centers,
		gamma:   0.5 / (spacing * spacing),
	}
}

// NumFeatures returns the number of basis functions.
func (g *GaussianRBF) NumFeatures() int { return len(g.centers) }

// Expand maps each distance to its basis expansion, returning
// [len(d) x NumFeatures()].
func (g *GaussianRBF) Expand(d []float64) *mat.Dense {
	out := mat.NewDense(len(d), len(g.centers), nil)
	for i, dist := range d {
		row := out.RawRowView(i)
		for k, c := range g.centers {
			diff := dist - c
			row[k] = math.Exp(-g.gamma * diff * diff)
		}
	}
	return out
}

// BesselRBF expands distances in spherical Bessel functions
// sin(k*pi*d/rc) / d, the zeroth-order basis used for periodic systems.
type BesselRBF struct {
	freqs []float64
}

// NewBesselRBF creates n Bessel functions for the given cutoff radius.
func NewBesselRBF(n int, cutoff float64) *BesselRBF {
	freqs := make([]float64, n)
	for k := range freqs {
		freqs[k] = float64(k+1) * math.Pi / cutoff
	}
	return &BesselRBF{freqs: freqs}
}

// NumFeatures returns the number of basis functions.
func (b *BesselRBF) NumFeatures() int { return len(b.freqs) }

// Expand maps each distance to its basis expansion, returning
// [len(d) x NumFeatures()]. The d -> 0 limit of each function is its
// frequency, used directly to keep the expansion finite.
func (b *BesselRBF) Expand(d []float64) *mat.Dense {
	out := mat.NewDense(len(d), len(b.freqs), nil)
	for i, dist := range d {
		row := out.RawRowView(i)
		for k, f := range b.freqs {
			if dist > 0 {
				row[k] = math.Sin(f*dist) / dist
			} else {
				row[k] = f
			}
		}
	}
	return out
}

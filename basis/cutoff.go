package basis

import "math"

// CosineCutoff is the smooth cosine (Behler) cutoff
// 0.5*(cos(pi*d/rc) + 1) for d < rc, zero beyond.
type CosineCutoff struct {
	radius float64
}

// NewCosineCutoff creates a cosine cutoff with the given radius.
func NewCosineCutoff(radius float64) *CosineCutoff {
	return &CosineCutoff{radius: radius}
}

// Radius returns the cutoff radius.
func (c *CosineCutoff) Radius() float64 { return c.radius }

// Weight returns the cutoff weight for a distance. The weight is 1 at zero
// separation, decays smoothly, and is exactly zero at and beyond the radius.
func (c *CosineCutoff) Weight(d float64) float64 {
	if d >= c.radius {
		return 0
	}
	return 0.5 * (math.Cos(math.Pi*d/c.radius) + 1)
}

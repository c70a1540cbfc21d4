package painn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/QinguiSun/schnetpack/nn"
	"gonum.org/v1/gonum/mat"
)

// Output keys written into the System record after a forward pass.
const (
	KeyScalarRepresentation = "scalar_representation"
	KeyVectorRepresentation = "vector_representation"
)

// maxSpecies bounds the default nuclear embedding table.
const maxSpecies = 100

// RadialBasis expands interatomic distances into an invariant basis.
type RadialBasis interface {
	Expand(d []float64) *mat.Dense
	NumFeatures() int
}

// Cutoff is a smooth radial weight in [0,1], zero at and beyond Radius.
type Cutoff interface {
	Weight(d float64) float64
	Radius() float64
}

// Config holds the static tunables of the representation. All values are
// fixed at construction; the model carries no mutable state afterwards.
type Config struct {
	// NAtomBasis is the configured basis size. It must be even: the
	// working half basis F = NAtomBasis/2 is an explicit derived quantity,
	// not silent floor division.
	NAtomBasis int `yaml:"n_atom_basis"`
	// NInteractions is the number of (interaction, mixing) rounds.
	NInteractions int `yaml:"n_interactions"`
	// SharedInteractions reuses one interaction/mixing instance across
	// rounds. Scalar widths double per round, so sharing is only
	// well-formed for a single round.
	SharedInteractions bool `yaml:"shared_interactions"`
	// SharedFilters reuses one filter slice across rounds, under the same
	// single-round restriction.
	SharedFilters bool `yaml:"shared_filters"`
	// Epsilon stabilizes vector norms inside the mixing blocks.
	Epsilon float64 `yaml:"epsilon"`
}

// DefaultConfig returns the conventional settings.
func DefaultConfig() Config {
	return Config{
		NAtomBasis:    128,
		NInteractions: 3,
		Epsilon:       1e-8,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.NAtomBasis < 2 || c.NAtomBasis%2 != 0 {
		return fmt.Errorf("%w: n_atom_basis must be a positive even number, got %d",
			ErrInvalidShape, c.NAtomBasis)
	}
	if c.NInteractions < 1 {
		return fmt.Errorf("%w: n_interactions must be positive, got %d",
			ErrInvalidShape, c.NInteractions)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("%w: epsilon must be positive, got %g",
			ErrInvalidShape, c.Epsilon)
	}
	if (c.SharedInteractions || c.SharedFilters) && c.NInteractions > 1 {
		return fmt.Errorf("%w: weight sharing needs uniform round widths; scalar widths double per round, so sharing requires n_interactions=1",
			ErrInvalidShape)
	}
	return nil
}

// HalfBasis returns the derived working width F = NAtomBasis/2.
func (c Config) HalfBasis() int { return c.NAtomBasis / 2 }

// RoundDims fixes the widths of one round: the scalar width the round's
// blocks are sized for, the vector channel width entering the round, and
// the per-edge filter slice width the interaction consumes.
type RoundDims struct {
	Scalar   int
	VectorIn int
	Filter   int
}

// Rounds returns the explicit width schedule. Round 1 consumes scalar
// width F and vector width 2F; each mixing doubles the scalar width, and
// the following round consumes the doubled widths.
func (c Config) Rounds() []RoundDims {
	f := c.HalfBasis()
	dims := make([]RoundDims, c.NInteractions)
	scalar, vec := f, 2*f
	for i := range dims {
		dims[i] = RoundDims{Scalar: scalar, VectorIn: vec, Filter: 3 * scalar}
		scalar *= 2
		vec = scalar
	}
	return dims
}

// TotalFilterWidth returns the width the filter network must emit: the
// concatenation of every round's filter slice.
func (c Config) TotalFilterWidth() int {
	var total int
	for _, d := range c.Rounds() {
		total += d.Filter
	}
	return total
}

// FinalScalarWidth returns the emitted scalar width, F doubled once per
// round.
func (c Config) FinalScalarWidth() int {
	return c.HalfBasis() << uint(c.NInteractions)
}

// FinalVectorWidth returns the emitted vector channel width.
func (c Config) FinalVectorWidth() int {
	return c.HalfBasis() << uint(c.NInteractions)
}

// System is the caller's per-system record: the geometry inputs consumed
// by Forward and the representations written back.
type System struct {
	// AtomicNumbers holds one species code per atom.
	AtomicNumbers []int
	// Rij holds raw bond vectors, flat with stride 3: edge e occupies
	// Rij[3e:3e+3].
	Rij []float64
	// IdxI and IdxJ are the target and source atom of each directed edge.
	IdxI, IdxJ []int
	// TotalCharge is consumed by electronic embeddings, if any.
	TotalCharge float64

	// ScalarRepresentation (key "scalar_representation") is the invariant
	// per-atom output, [atoms x FinalScalarWidth].
	ScalarRepresentation *mat.Dense
	// VectorRepresentation (key "vector_representation") is the
	// equivariant per-atom output, [atoms x 3 x FinalVectorWidth].
	VectorRepresentation *VectorField
}

// PaiNN owns the embeddings, the radial-basis/cutoff/filter pipeline and
// the per-round blocks, and threads (q, mu) through N rounds of
// message passing. A forward evaluation is single-threaded, synchronous
// and purely functional; the only state is the read-only learned
// parameters fixed at construction.
type PaiNN struct {
	cfg    Config
	radial RadialBasis
	cutoff Cutoff

	embedding  *nn.Embedding
	electronic []ElectronicEmbedding
	filterNet  *nn.Dense

	interactions []*InteractionBlock
	mixings      []*MixingBlock
}

// Option configures optional collaborators of New.
type Option func(*options)

type options struct {
	seed       int64
	embedding  *nn.Embedding
	electronic []ElectronicEmbedding
}

// WithSeed fixes the parameter initialization seed. The default seed is 1;
// two models built with the same configuration and seed are
// parameter-identical.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// WithEmbedding supplies a custom nuclear embedding. Its width must equal
// the half basis F.
func WithEmbedding(e *nn.Embedding) Option {
	return func(o *options) { o.embedding = e }
}

// WithElectronicEmbeddings appends additive electronic corrections applied
// to the initial scalar features.
func WithElectronicEmbeddings(es ...ElectronicEmbedding) Option {
	return func(o *options) { o.electronic = append(o.electronic, es...) }
}

// New builds the representation from a validated configuration and its
// radial-basis and cutoff collaborators.
func New(cfg Config, radial RadialBasis, cutoff Cutoff, opts ...Option) (*PaiNN, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{seed: 1}
	for _, opt := range opts {
		opt(&o)
	}
	rng := rand.New(rand.NewSource(o.seed))

	f := cfg.HalfBasis()
	embedding := o.embedding
	if embedding == nil {
		embedding = nn.NewEmbedding(maxSpecies, f, rng)
	}
	if embedding.Dim() != f {
		return nil, fmt.Errorf("%w: embedding width %d, want half basis %d",
			ErrInvalidShape, embedding.Dim(), f)
	}

	filterWidth := cfg.TotalFilterWidth()
	if cfg.SharedFilters {
		filterWidth = 3 * f
	}

	dims := cfg.Rounds()
	interactions := replicate(func(r int) *InteractionBlock {
		return NewInteractionBlock(dims[r].Scalar, dims[r].VectorIn, rng)
	}, cfg.NInteractions, cfg.SharedInteractions)
	mixings := replicate(func(r int) *MixingBlock {
		return NewMixingBlock(dims[r].Scalar, cfg.Epsilon, rng)
	}, cfg.NInteractions, cfg.SharedInteractions)

	return &PaiNN{
		cfg:          cfg,
		radial:       radial,
		cutoff:       cutoff,
		embedding:    embedding,
		electronic:   o.electronic,
		filterNet:    nn.NewDense(radial.NumFeatures(), filterWidth, nil, rng),
		interactions: interactions,
		mixings:      mixings,
	}, nil
}

// replicate implements the enumerated construction strategy for weight
// sharing: the factory runs once for a shared instance, n times otherwise.
func replicate[T any](factory func(round int) T, n int, shared bool) []T {
	out := make([]T, n)
	if shared {
		v := factory(0)
		for i := range out {
			out[i] = v
		}
		return out
	}
	for i := range out {
		out[i] = factory(i)
	}
	return out
}

// Config returns the model configuration.
func (p *PaiNN) Config() Config { return p.cfg }

// Forward computes the representations for one system and writes them into
// the record. Inputs are validated synchronously; any violation aborts the
// evaluation with a wrapped error kind and leaves the record's outputs
// unset.
func (p *PaiNN) Forward(sys *System) error {
	nAtoms := len(sys.AtomicNumbers)
	if nAtoms == 0 {
		return fmt.Errorf("%w: system has no atoms", ErrInvalidShape)
	}
	nEdges := len(sys.IdxI)
	if len(sys.IdxJ) != nEdges {
		return fmt.Errorf("%w: %d target indices but %d source indices",
			ErrInvalidShape, nEdges, len(sys.IdxJ))
	}
	if len(sys.Rij) != 3*nEdges {
		return fmt.Errorf("%w: bond vector array length %d, want %d",
			ErrInvalidShape, len(sys.Rij), 3*nEdges)
	}

	edges, err := p.buildEdges(sys, nAtoms)
	if err != nil {
		return err
	}
	filters, err := p.buildFilters(edges)
	if err != nil {
		return err
	}

	// initial features: q from the species embedding plus electronic
	// corrections, mu as the zero field
	q, err := p.embedding.Lookup(sys.AtomicNumbers)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexOutOfRange, err)
	}
	for _, emb := range p.electronic {
		corr, err := emb.Correction(q, sys)
		if err != nil {
			return err
		}
		q.Add(q, corr)
	}
	mu := NewVectorField(nAtoms, 2*p.cfg.HalfBasis())

	for r := 0; r < p.cfg.NInteractions; r++ {
		var dtm *TensorField
		q, mu, dtm, err = p.interactions[r].Forward(q, mu, filters[r], edges, nAtoms)
		if err != nil {
			return err
		}
		q, mu, err = p.mixings[r].Forward(q, mu, dtm)
		if err != nil {
			return err
		}
	}

	sys.ScalarRepresentation = q
	sys.VectorRepresentation = mu
	return nil
}

// buildEdges derives unit directions and distances from the raw bond
// vectors and validates the neighbor indices.
func (p *PaiNN) buildEdges(sys *System, nAtoms int) (*EdgeSet, error) {
	nEdges := len(sys.IdxI)
	edges := &EdgeSet{
		IdxI: sys.IdxI,
		IdxJ: sys.IdxJ,
		Dir:  make([]float64, 3*nEdges),
		Dist: make([]float64, nEdges),
	}
	for e := 0; e < nEdges; e++ {
		x, y, z := sys.Rij[3*e], sys.Rij[3*e+1], sys.Rij[3*e+2]
		d := math.Sqrt(x*x + y*y + z*z)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("%w: edge %d has bond length %g",
				ErrNumericalInstability, e, d)
		}
		edges.Dist[e] = d
		edges.Dir[3*e] = x / d
		edges.Dir[3*e+1] = y / d
		edges.Dir[3*e+2] = z / d
	}
	if err := edges.Validate(nAtoms); err != nil {
		return nil, err
	}
	return edges, nil
}

// buildFilters runs the radial-basis / cutoff / filter-net pipeline once
// and splits the result into per-round slices.
func (p *PaiNN) buildFilters(edges *EdgeSet) ([]*mat.Dense, error) {
	dims := p.cfg.Rounds()
	out := make([]*mat.Dense, len(dims))
	if edges.Len() == 0 {
		return out, nil
	}

	phi := p.radial.Expand(edges.Dist)
	if _, cols := phi.Dims(); cols != p.filterNet.InFeatures() {
		return nil, fmt.Errorf("%w: radial basis width %d, filter net expects %d",
			ErrInvalidShape, cols, p.filterNet.InFeatures())
	}
	filters := p.filterNet.Forward(phi)
	for e := 0; e < edges.Len(); e++ {
		fc := p.cutoff.Weight(edges.Dist[e])
		row := filters.RawRowView(e)
		for k := range row {
			row[k] *= fc
		}
	}

	if p.cfg.SharedFilters {
		// single round by construction; reuse the one slice
		for i := range out {
			out[i] = filters
		}
		return out, nil
	}
	offset := 0
	for i, d := range dims {
		out[i] = filters.Slice(0, edges.Len(), offset, offset+d.Filter).(*mat.Dense)
		offset += d.Filter
	}
	return out, nil
}

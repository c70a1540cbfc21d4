// Package schnetpack provides rotation-equivariant per-atom representations
// for atomistic systems via iterative geometric message passing.
//
// Each atom carries an invariant scalar feature and an equivariant vector
// feature. Representations are refined across a fixed number of rounds
// using pairwise geometric information between neighboring atoms: unit bond
// directions, and cutoff-weighted filters derived from interatomic
// distances.
//
// # Architecture Overview
//
// The module is organized around a small set of components:
//
//   - painn.CompressionLayer: pools vector channels through invariant
//     learned weights
//   - painn.ReconstructionLayer: expands compressed vectors into rank-2
//     tensor features via invariant-weighted outer products
//   - painn.InteractionBlock: inter-atomic message passing along edges
//   - painn.MixingBlock: intra-atomic channel update and width growth
//   - painn.PaiNN: the orchestrator threading state through N rounds
//
// Scalar quantities may combine freely; vector and tensor quantities are
// only combined through invariant coefficients, linear maps, or bilinear
// products of equivariant quantities. That discipline is what guarantees
// that rotating the input geometry rotates the vector representation and
// leaves the scalar representation unchanged.
//
// # Basic Usage
//
//	cfg := painn.DefaultConfig()
//	model, err := painn.New(cfg,
//	    basis.NewGaussianRBF(20, 5.0),
//	    basis.NewCosineCutoff(5.0),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sys := &painn.System{
//	    AtomicNumbers: []int{8, 1, 1},
//	    Rij:           rij,  // flat [edges*3] bond vectors
//	    IdxI:          idxI, // target atoms
//	    IdxJ:          idxJ, // source atoms
//	}
//	if err := model.Forward(sys); err != nil {
//	    log.Fatal(err)
//	}
//	// sys.ScalarRepresentation, sys.VectorRepresentation
//
// # Package Structure
//
//   - nn: shared neural primitives (dense layers, softmax, grouped sums,
//     embeddings)
//   - basis: radial basis expansions and smooth cutoff functions
//   - painn: the equivariant representation core
//   - cmd/painnrun: demo driver running one forward pass
//
// Forward evaluations are single-threaded, synchronous and purely
// functional; batching across systems or devices is the caller's concern.
package schnetpack

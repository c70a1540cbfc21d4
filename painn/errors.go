package painn

import "errors"

// Error kinds reported by the representation core. All violations are
// detected synchronously at block entry and abort the current forward
// evaluation; malformed geometry or misconfigured widths cannot be
// self-corrected, so there is no retry path.
var (
	// ErrInvalidShape reports a mismatch between configured widths and the
	// widths of a supplied tensor (filters, features, basis expansions).
	ErrInvalidShape = errors.New("painn: invalid shape")

	// ErrIndexOutOfRange reports an edge index referencing a nonexistent
	// atom.
	ErrIndexOutOfRange = errors.New("painn: index out of range")

	// ErrNumericalInstability reports geometry that would produce
	// non-finite values, such as a zero-length bond vector.
	ErrNumericalInstability = errors.New("painn: numerical instability")
)

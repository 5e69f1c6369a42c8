package solver

import "errors"

// Domain errors for solve calls.
var (
	// ErrGridTooShort indicates fewer than two time points.
	ErrGridTooShort = errors.New("solver: grid needs at least two time points")

	// ErrGridNotIncreasing indicates a non-strictly-increasing time grid.
	ErrGridNotIncreasing = errors.New("solver: grid must be strictly increasing")

	// ErrDimensionMismatch indicates an initial value whose length differs
	// from the vector field dimension.
	ErrDimensionMismatch = errors.New("solver: initial value dimension mismatch")

	// ErrUnknownInit indicates an unrecognized initialization strategy.
	ErrUnknownInit = errors.New("solver: unknown init strategy")

	// ErrNonFiniteState indicates the iteration diverged: a belief became
	// NaN or Inf, or an intermediate factorization degenerated. The last
	// finite trajectory is still returned alongside this error.
	ErrNonFiniteState = errors.New("solver: state diverged (NaN or Inf)")
)

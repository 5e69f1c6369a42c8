package solver

// InitStrategy names how the initial belief and nominal trajectory are
// seeded before the first linearization pass.
type InitStrategy string

const (
	// InitConstant replicates the initial value (and its derivative from
	// one vector-field evaluation) across the whole grid.
	InitConstant InitStrategy = "constant"

	// InitTaylor additionally pins the second derivative through the
	// Jacobian chain rule when the order allows it.
	InitTaylor InitStrategy = "taylor"
)

// Options configure a solve call. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// Order is the number of derivatives carried by the prior (q >= 1).
	Order int

	// Diffusion is the spectral density of the prior's driving noise.
	Diffusion float64

	// Init selects the initialization strategy.
	Init InitStrategy

	// Parallel routes filtering and smoothing through the associative
	// scan instead of the sequential sweeps. Results are identical up to
	// floating-point roundoff.
	Parallel bool

	// MaxIter bounds the relinearization passes. One pass is a plain
	// extended Kalman sweep; more approximate an iterated smoother.
	MaxIter int

	// Tol stops iterating once the mean-squared change of the smoothed
	// means between passes drops below it.
	Tol float64

	// Jitter is an optional observation noise standard deviation for
	// near-singular configurations. Zero keeps the ODE constraint exact.
	Jitter float64

	// FilterOnly returns filtered instead of smoothed marginals from the
	// final pass.
	FilterOnly bool

	// OnIteration, when set, observes each pass with its mean-squared
	// change.
	OnIteration func(iter int, change float64)
}

// DefaultOptions returns a configuration that works well across the bundled
// problems: order 3, diffusion 0.1, constant initialization, sequential
// execution, convergence at 1e-6 mean-squared change.
func DefaultOptions() Options {
	return Options{
		Order:     3,
		Diffusion: 0.1,
		Init:      InitConstant,
		MaxIter:   20,
		Tol:       1e-6,
	}
}

package prior

import "errors"

// Construction errors. These are caller misconfigurations and are rejected
// before any numerical work happens.
var (
	// ErrInvalidOrder indicates a filter order below 1.
	ErrInvalidOrder = errors.New("prior: order must be at least 1")

	// ErrInvalidDimension indicates a state dimension below 1.
	ErrInvalidDimension = errors.New("prior: dimension must be at least 1")

	// ErrInvalidStep indicates a non-positive step size.
	ErrInvalidStep = errors.New("prior: step size must be positive")

	// ErrInvalidDiffusion indicates a non-positive process noise density.
	ErrInvalidDiffusion = errors.New("prior: diffusion must be positive")
)

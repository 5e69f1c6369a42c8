// Package solver drives the probabilistic ODE filter: it casts an initial
// value problem as inference in a linear-Gaussian state-space model with an
// integrated Wiener process prior, and returns the smoothed posterior over
// the whole trajectory.
//
// Each pass linearizes the ODE constraint along the current nominal
// trajectory, runs a square-root filter and smoother (sequentially or as a
// parallel associative scan), and adopts the smoothed means as the next
// nominal trajectory. One pass is an extended Kalman sweep; iterating to
// convergence is a Gauss-Newton style iterated smoother.
package solver

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/kalman"
	"github.com/san-kum/odefilter/internal/ode"
	"github.com/san-kum/odefilter/internal/parscan"
	"github.com/san-kum/odefilter/internal/prior"
)

// Solve computes the posterior over the solution of dy/dt = f(t, y),
// y(ts[0]) = y0, on the fixed grid ts. Configuration errors fail before any
// numerical work; numerical divergence is reported through Info.Diverged and
// ErrNonFiniteState together with the last finite trajectory.
func Solve(sys ode.System, y0 []float64, ts []float64, opts Options) (*Result, Info, error) {
	info := Info{}

	if len(y0) != sys.Dim() {
		return nil, info, fmt.Errorf("%w: got %d, field has %d", ErrDimensionMismatch, len(y0), sys.Dim())
	}
	if len(ts) < 2 {
		return nil, info, fmt.Errorf("%w: got %d", ErrGridTooShort, len(ts))
	}
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			return nil, info, fmt.Errorf("%w: ts[%d]=%g, ts[%d]=%g", ErrGridNotIncreasing, i-1, ts[i-1], i, ts[i])
		}
	}

	p, err := prior.New(opts.Order, len(y0), opts.Diffusion)
	if err != nil {
		return nil, info, err
	}

	n := len(ts) - 1
	trs := make([]kalman.AffineTransition, n)
	for i := 0; i < n; i++ {
		tr, err := p.Discretize(ts[i+1] - ts[i])
		if err != nil {
			return nil, info, err
		}
		trs[i] = kalman.AffineTransition{A: tr.A, QChol: tr.QChol}
	}

	x0, err := initialBelief(sys, p, ts[0], y0, opts.Init)
	if err != nil {
		return nil, info, err
	}
	nominal := initialTrajectory(x0.Mean, n+1)

	maxIter := opts.MaxIter
	if maxIter < 1 {
		maxIter = 1
	}

	var result *Result
	for iter := 1; iter <= maxIter; iter++ {
		obs := make([]kalman.AffineObservation, n)
		for i := 0; i < n; i++ {
			obs[i] = kalman.Linearize(sys, p, ts[i+1], nominal[i+1], opts.Jitter)
		}

		var filtered, smoothed []gauss.MVNSqrt
		var passErr error
		if opts.Parallel {
			filtered, smoothed, passErr = scanPass(x0, trs, obs)
		} else {
			filtered, passErr = kalman.FilterSweep(x0, trs, obs)
			if passErr == nil {
				smoothed, passErr = kalman.SmootherSweep(filtered, trs)
			}
		}
		if passErr != nil {
			info.Diverged = true
			return result, info, fmt.Errorf("%w: %v", ErrNonFiniteState, passErr)
		}
		if !allFinite(filtered) || !allFinite(smoothed) {
			info.Diverged = true
			return result, info, ErrNonFiniteState
		}

		change := meanSquaredChange(nominal, smoothed)
		info.Iterations = iter
		info.FinalChange = change
		if opts.OnIteration != nil {
			opts.OnIteration(iter, change)
		}

		for i := range smoothed {
			nominal[i] = smoothed[i].Mean
		}
		if opts.FilterOnly {
			result = newResult(ts, filtered, opts.Order, len(y0))
		} else {
			result = newResult(ts, smoothed, opts.Order, len(y0))
		}

		if change <= opts.Tol {
			info.Converged = true
			break
		}
	}

	return result, info, nil
}

// scanPass runs filtering and smoothing through the associative scans.
func scanPass(x0 gauss.MVNSqrt, trs []kalman.AffineTransition, obs []kalman.AffineObservation) ([]gauss.MVNSqrt, []gauss.MVNSqrt, error) {
	n := len(trs)

	felems := make([]parscan.FilterElement, n)
	first, err := parscan.NewFirstFilterElement(x0, trs[0], obs[0])
	if err != nil {
		return nil, nil, err
	}
	felems[0] = first
	for i := 1; i < n; i++ {
		felems[i] = parscan.NewFilterElement(trs[i], obs[i])
	}
	prefixes := parscan.Scan(felems, parscan.CombineFilter)

	filtered := make([]gauss.MVNSqrt, n+1)
	filtered[0] = x0.Clone()
	for i := 0; i < n; i++ {
		filtered[i+1] = prefixes[i].Belief()
	}

	selems := make([]parscan.SmoothElement, n+1)
	for i := 0; i < n; i++ {
		se, err := parscan.NewSmoothElement(filtered[i], trs[i])
		if err != nil {
			return nil, nil, err
		}
		selems[i] = se
	}
	selems[n] = parscan.NewLastSmoothElement(filtered[n])
	suffixes := parscan.ScanReverse(selems, parscan.CombineSmooth)

	smoothed := make([]gauss.MVNSqrt, n+1)
	for i := range suffixes {
		smoothed[i] = suffixes[i].Belief()
	}
	return filtered, smoothed, nil
}

func allFinite(beliefs []gauss.MVNSqrt) bool {
	for _, b := range beliefs {
		if !b.IsFinite() {
			return false
		}
	}
	return true
}

// meanSquaredChange measures how far the smoothed means moved relative to
// the nominal trajectory of the pass, the iterated-smoother convergence
// criterion.
func meanSquaredChange(nominal []*mat.VecDense, smoothed []gauss.MVNSqrt) float64 {
	if len(nominal) == 0 {
		return 0
	}
	sum := 0.0
	count := 0
	for i := range nominal {
		m := smoothed[i].Mean
		for k := 0; k < m.Len(); k++ {
			d := m.AtVec(k) - nominal[i].AtVec(k)
			sum += d * d
			count++
		}
	}
	return sum / float64(count)
}

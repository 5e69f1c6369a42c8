package solver

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/ode"
	"github.com/san-kum/odefilter/internal/prior"
)

// initialBelief builds the belief at t0. The value block is always pinned to
// y0 exactly and the first-derivative block to f(t0, y0); how many further
// derivatives are pinned depends on the strategy. Unpinned derivatives get
// unit standard deviation.
func initialBelief(sys ode.System, p *prior.IWP, t0 float64, y0 []float64, strategy InitStrategy) (gauss.MVNSqrt, error) {
	d := p.Dim()
	q := p.Order()

	b := gauss.Zero(p.StateDim())
	dy0 := sys.Eval(t0, y0)
	for j := 0; j < d; j++ {
		b.Mean.SetVec(p.StateIndex(j, 0), y0[j])
		b.Mean.SetVec(p.StateIndex(j, 1), dy0[j])
	}
	known := 1

	switch strategy {
	case InitConstant:
	case InitTaylor:
		if q >= 2 {
			// y'' = Jf(y) f(y) for autonomous fields; the time
			// dependence of built-in problems is nil.
			jf := ode.Jacobian(sys, t0, y0)
			d2 := mat.NewVecDense(d, nil)
			d2.MulVec(jf, mat.NewVecDense(d, dy0))
			for j := 0; j < d; j++ {
				b.Mean.SetVec(p.StateIndex(j, 2), d2.AtVec(j))
			}
			known = 2
		}
	default:
		return gauss.MVNSqrt{}, fmt.Errorf("%w: %q", ErrUnknownInit, strategy)
	}

	for j := 0; j < d; j++ {
		for deriv := known + 1; deriv <= q; deriv++ {
			idx := p.StateIndex(j, deriv)
			b.Chol.Set(idx, idx, 1)
		}
	}
	return b, nil
}

// initialTrajectory replicates the initial mean across the grid, the
// constant nominal trajectory the first linearization pass works from.
func initialTrajectory(m0 *mat.VecDense, n int) []*mat.VecDense {
	out := make([]*mat.VecDense, n)
	for i := range out {
		out[i] = mat.VecDenseCopyOf(m0)
	}
	return out
}

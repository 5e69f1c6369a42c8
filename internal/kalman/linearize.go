package kalman

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odefilter/internal/ode"
	"github.com/san-kum/odefilter/internal/prior"
)

// Linearize builds the extended-Kalman observation of the ODE constraint
// "the first-derivative block equals f(value block)" around a nominal state.
//
// With projections E0 (values) and E1 (first derivatives), the constraint
// residual is g(x) = E1 x - f(E0 x). Linearizing at the nominal point gives
// z = H x + c with H = E1 - Jf(E0 x̄) E0 and c chosen so that the affine map
// matches g at x̄. Jitter, when positive, is the standard deviation of an
// artificial observation noise for near-singular configurations; zero keeps
// the constraint exact.
func Linearize(sys ode.System, p *prior.IWP, t float64, point *mat.VecDense, jitter float64) AffineObservation {
	d := p.Dim()

	y := make([]float64, d)
	for j := 0; j < d; j++ {
		y[j] = point.AtVec(p.StateIndex(j, 0))
	}
	fy := sys.Eval(t, y)
	jf := ode.Jacobian(sys, t, y)

	e0 := p.Projection(0)
	e1 := p.Projection(1)

	var jfe0 mat.Dense
	jfe0.Mul(jf, e0)
	var h mat.Dense
	h.Sub(e1, &jfe0)

	// c = g(x̄) - H x̄, which reduces to Jf(ȳ) ȳ - f(ȳ).
	yv := mat.NewVecDense(d, y)
	c := mat.NewVecDense(d, nil)
	c.MulVec(jf, yv)
	for j := 0; j < d; j++ {
		c.SetVec(j, c.AtVec(j)-fy[j])
	}

	r := mat.NewDense(d, d, nil)
	if jitter > 0 {
		for j := 0; j < d; j++ {
			r.Set(j, j, jitter)
		}
	}

	return AffineObservation{H: &h, C: c, RChol: r}
}

package kalman

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odefilter/internal/gauss"
)

// ErrUpdateFailed indicates the innovation factor could not be solved
// against, which only happens when an intermediate covariance has
// degenerated. The driver promotes this to its divergence error.
var ErrUpdateFailed = errors.New("kalman: update solve failed")

// Predict propagates a belief through one transition in square-root form:
// mean through the affine map, factor through QR of [A L, QChol].
func Predict(b gauss.MVNSqrt, tr AffineTransition) gauss.MVNSqrt {
	dim := b.Dim()
	m := mat.NewVecDense(dim, nil)
	m.MulVec(tr.A, b.Mean)
	if tr.B != nil {
		m.AddVec(m, tr.B)
	}

	var al mat.Dense
	al.Mul(tr.A, b.Chol)
	l := gauss.Tria(gauss.StackCols(&al, tr.QChol))

	return gauss.MVNSqrt{Mean: m, Chol: l}
}

// Update conditions a predicted belief on the affine observation with data
// z = 0. The innovation factor, gain, and posterior factor all come from one
// QR of the stacked block matrix
//
//	[ H L   R ]
//	[  L    0 ]
//
// whose triangularization is [[S½, 0], [K S½, L⁺]].
func Update(b gauss.MVNSqrt, obs AffineObservation) (gauss.MVNSqrt, error) {
	dim := b.Dim()
	ny, _ := obs.H.Dims()

	var hl mat.Dense
	hl.Mul(obs.H, b.Chol)
	psi := gauss.Tria(gauss.Block2x2(&hl, obs.RChol, b.Chol, nil))

	psi11 := psi.Slice(0, ny, 0, ny).(*mat.Dense)
	psi21 := psi.Slice(ny, ny+dim, 0, ny).(*mat.Dense)
	psi22 := psi.Slice(ny, ny+dim, ny, ny+dim).(*mat.Dense)

	// Innovation for z = 0: r = -(H m + c).
	r := mat.NewVecDense(ny, nil)
	r.MulVec(obs.H, b.Mean)
	r.AddVec(r, obs.C)
	r.ScaleVec(-1, r)

	// Gain applied through the triangular factor: K r = Psi21 (Psi11⁻¹ r).
	alpha, err := gauss.SolveLower(psi11, r)
	if err != nil {
		return gauss.MVNSqrt{}, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	corr := mat.NewVecDense(dim, nil)
	corr.MulVec(psi21, alpha.ColView(0))

	m := mat.NewVecDense(dim, nil)
	m.AddVec(b.Mean, corr)

	return gauss.MVNSqrt{Mean: m, Chol: mat.DenseCopyOf(psi22)}, nil
}

// FilterSweep runs the forward square-root filter across the grid.
// trs[i] carries beliefs from point i to i+1 and obs[i] is the linearized
// constraint at point i+1; the returned slice has len(trs)+1 beliefs, the
// first being init itself.
func FilterSweep(init gauss.MVNSqrt, trs []AffineTransition, obs []AffineObservation) ([]gauss.MVNSqrt, error) {
	if len(trs) != len(obs) {
		return nil, fmt.Errorf("kalman: %d transitions vs %d observations", len(trs), len(obs))
	}
	out := make([]gauss.MVNSqrt, len(trs)+1)
	out[0] = init.Clone()
	cur := init
	for i := range trs {
		pred := Predict(cur, trs[i])
		filt, err := Update(pred, obs[i])
		if err != nil {
			return nil, err
		}
		out[i+1] = filt
		cur = filt
	}
	return out, nil
}

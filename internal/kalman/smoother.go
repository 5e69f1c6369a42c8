package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odefilter/internal/gauss"
)

// SmoothStep combines the filtered belief at a grid point with the already
// smoothed belief at the next point through the transition between them
// (square-root Rauch-Tung-Striebel).
//
// One QR of
//
//	[ A L   QChol ]
//	[  L      0   ]
//
// yields [[P⁻½, 0], [Phi21, Phi22]]; the smoothing gain is G = Phi21 P⁻½⁻¹
// and the smoothed factor re-triangularizes [Phi22, G L_next].
func SmoothStep(filtered, next gauss.MVNSqrt, tr AffineTransition) (gauss.MVNSqrt, error) {
	dim := filtered.Dim()

	var al mat.Dense
	al.Mul(tr.A, filtered.Chol)
	phi := gauss.Tria(gauss.Block2x2(&al, tr.QChol, filtered.Chol, nil))

	phi11 := phi.Slice(0, dim, 0, dim).(*mat.Dense)
	phi21 := phi.Slice(dim, 2*dim, 0, dim).(*mat.Dense)
	phi22 := phi.Slice(dim, 2*dim, dim, 2*dim).(*mat.Dense)

	// G = Phi21 Phi11⁻¹, via Gᵀ = Phi11⁻ᵀ Phi21ᵀ.
	gt, err := gauss.SolveUpper(phi11, phi21.T())
	if err != nil {
		return gauss.MVNSqrt{}, fmt.Errorf("kalman: smoothing gain solve: %w", err)
	}
	var g mat.Dense
	g.CloneFrom(gt.T())

	// m = m_f + G (m_next - (A m_f + b)).
	pred := mat.NewVecDense(dim, nil)
	pred.MulVec(tr.A, filtered.Mean)
	if tr.B != nil {
		pred.AddVec(pred, tr.B)
	}
	diff := mat.NewVecDense(dim, nil)
	diff.SubVec(next.Mean, pred)
	corr := mat.NewVecDense(dim, nil)
	corr.MulVec(&g, diff)
	m := mat.NewVecDense(dim, nil)
	m.AddVec(filtered.Mean, corr)

	var gl mat.Dense
	gl.Mul(&g, next.Chol)
	l := gauss.Tria(gauss.StackCols(phi22, &gl))

	return gauss.MVNSqrt{Mean: m, Chol: l}, nil
}

// SmootherSweep runs the backward RTS pass over a filtered sequence.
// trs[i] is the transition from point i to i+1. The last belief is returned
// unchanged; every earlier one incorporates the whole trajectory.
func SmootherSweep(filtered []gauss.MVNSqrt, trs []AffineTransition) ([]gauss.MVNSqrt, error) {
	n := len(filtered)
	if n == 0 {
		return nil, nil
	}
	if len(trs) != n-1 {
		return nil, fmt.Errorf("kalman: %d transitions for %d beliefs", len(trs), n)
	}
	out := make([]gauss.MVNSqrt, n)
	out[n-1] = filtered[n-1].Clone()
	for i := n - 2; i >= 0; i-- {
		s, err := SmoothStep(filtered[i], out[i+1], trs[i])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Package kalman implements the square-root extended Kalman filter and
// Rauch-Tung-Striebel smoother over affine Gaussian models.
//
// All covariance arithmetic is done on lower triangular factors via QR
// re-triangularization; no covariance matrix is ever formed or inverted.
package kalman

import "gonum.org/v1/gonum/mat"

// AffineTransition is x' = A x + b + w, w ~ N(0, QChol*QCholᵀ).
// A nil B means a zero offset.
type AffineTransition struct {
	A     *mat.Dense
	B     *mat.VecDense
	QChol *mat.Dense
}

// Offset returns the transition offset, materializing zeros for a nil B.
func (tr AffineTransition) Offset() *mat.VecDense {
	if tr.B != nil {
		return tr.B
	}
	r, _ := tr.A.Dims()
	return mat.NewVecDense(r, nil)
}

// AffineObservation is z = H x + c + v, v ~ N(0, RChol*RCholᵀ). The ODE
// filter always conditions on z = 0: the observation expresses how far the
// state is from satisfying the differential equation.
type AffineObservation struct {
	H     *mat.Dense
	C     *mat.VecDense
	RChol *mat.Dense
}

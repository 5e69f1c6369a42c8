// Package gauss provides Gaussian beliefs in square-root form and the
// QR-based factor algebra the filtering recursions are built on.
//
// Covariances are never stored as full matrices: a belief carries a lower
// triangular factor L with covariance L*Lᵀ. All covariance arithmetic goes
// through [Tria], which re-triangularizes stacked factors without ever
// forming, inverting, or Cholesky-decomposing a full covariance.
package gauss

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MVNSqrt is a multivariate Gaussian with covariance Chol * Cholᵀ,
// Chol lower triangular.
type MVNSqrt struct {
	Mean *mat.VecDense
	Chol *mat.Dense
}

// Zero returns a belief of the given dimension with zero mean and zero
// covariance factor.
func Zero(dim int) MVNSqrt {
	return MVNSqrt{
		Mean: mat.NewVecDense(dim, nil),
		Chol: mat.NewDense(dim, dim, nil),
	}
}

func (b MVNSqrt) Dim() int {
	return b.Mean.Len()
}

func (b MVNSqrt) Clone() MVNSqrt {
	return MVNSqrt{
		Mean: mat.VecDenseCopyOf(b.Mean),
		Chol: mat.DenseCopyOf(b.Chol),
	}
}

// IsFinite reports whether every entry of the mean and factor is finite.
func (b MVNSqrt) IsFinite() bool {
	for _, v := range b.Mean.RawVector().Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range b.Chol.RawMatrix().Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Std returns the marginal standard deviation of component i, the Euclidean
// norm of row i of the factor.
func (b MVNSqrt) Std(i int) float64 {
	n := b.Dim()
	sum := 0.0
	for k := 0; k < n; k++ {
		v := b.Chol.At(i, k)
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Tria re-triangularizes a wide factor: given M with at least as many
// columns as rows, it returns the lower triangular L with L*Lᵀ = M*Mᵀ,
// computed from a QR factorization of Mᵀ. The diagonal of L is normalized
// to be non-negative so the factor is unique.
func Tria(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	if c < r {
		panic("gauss: tria requires cols >= rows")
	}

	var qr mat.QR
	qr.Factorize(m.T())
	var rm mat.Dense
	qr.RTo(&rm)

	l := mat.NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j <= i; j++ {
			l.Set(i, j, rm.At(j, i))
		}
	}
	for j := 0; j < r; j++ {
		if l.At(j, j) < 0 {
			for i := j; i < r; i++ {
				l.Set(i, j, -l.At(i, j))
			}
		}
	}
	return l
}

// StackCols places the given matrices side by side into one wide matrix.
// All arguments must share the same row count.
func StackCols(ms ...mat.Matrix) *mat.Dense {
	rows := 0
	cols := 0
	for _, m := range ms {
		r, c := m.Dims()
		if rows == 0 {
			rows = r
		} else if r != rows {
			panic("gauss: stackCols row mismatch")
		}
		cols += c
	}
	out := mat.NewDense(rows, cols, nil)
	off := 0
	for _, m := range ms {
		_, c := m.Dims()
		out.Slice(0, rows, off, off+c).(*mat.Dense).Copy(m)
		off += c
	}
	return out
}

// Block2x2 assembles [[a, b], [c, d]] into one dense matrix. A nil block is
// treated as zeros; its extent is inferred from the blocks sharing its row
// and column.
func Block2x2(a, b, c, d mat.Matrix) *mat.Dense {
	dims := func(m mat.Matrix) (int, int) {
		if m == nil {
			return -1, -1
		}
		r, c := m.Dims()
		return r, c
	}
	ar, ac := dims(a)
	br, bc := dims(b)
	cr, cc := dims(c)
	dr, dc := dims(d)

	top := max(ar, br)
	bot := max(cr, dr)
	left := max(ac, cc)
	right := max(bc, dc)
	if top < 0 || bot < 0 || left < 0 || right < 0 {
		panic("gauss: block2x2 cannot infer extents")
	}

	out := mat.NewDense(top+bot, left+right, nil)
	if a != nil {
		out.Slice(0, top, 0, left).(*mat.Dense).Copy(a)
	}
	if b != nil {
		out.Slice(0, top, left, left+right).(*mat.Dense).Copy(b)
	}
	if c != nil {
		out.Slice(top, top+bot, 0, left).(*mat.Dense).Copy(c)
	}
	if d != nil {
		out.Slice(top, top+bot, left, left+right).(*mat.Dense).Copy(d)
	}
	return out
}

// SolveLower solves L*X = B for X with L lower triangular and well
// conditioned (the factors produced by Tria from positive-definite stacks).
func SolveLower(l *mat.Dense, b mat.Matrix) (*mat.Dense, error) {
	var x mat.Dense
	if err := x.Solve(l, b); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return nil, err
		}
	}
	return &x, nil
}

// SolveUpper solves Lᵀ*X = B for X, i.e. applies L⁻ᵀ from the left.
func SolveUpper(l *mat.Dense, b mat.Matrix) (*mat.Dense, error) {
	var x mat.Dense
	if err := x.Solve(l.T(), b); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return nil, err
		}
	}
	return &x, nil
}

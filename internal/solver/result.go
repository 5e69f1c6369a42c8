package solver

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odefilter/internal/gauss"
)

// Info reports how a solve call went.
type Info struct {
	// Iterations is the number of relinearization passes performed.
	Iterations int

	// Converged is set when the mean-squared change criterion was met
	// within the iteration budget.
	Converged bool

	// Diverged is set when a pass produced a non-finite belief; the
	// result then holds the last finite trajectory.
	Diverged bool

	// FinalChange is the mean-squared change of the last pass.
	FinalChange float64
}

// Result is the posterior over the solution trajectory: one Gaussian belief
// per grid point over the stacked state [y_j, y_j', ..., y_j^(q)].
// Covariances are lower triangular Cholesky factors.
type Result struct {
	Times []float64
	Means []*mat.VecDense
	Chols []*mat.Dense

	order int
	dim   int
}

func newResult(ts []float64, beliefs []gauss.MVNSqrt, order, dim int) *Result {
	r := &Result{
		Times: append([]float64(nil), ts...),
		Means: make([]*mat.VecDense, len(beliefs)),
		Chols: make([]*mat.Dense, len(beliefs)),
		order: order,
		dim:   dim,
	}
	for i, b := range beliefs {
		r.Means[i] = mat.VecDenseCopyOf(b.Mean)
		r.Chols[i] = mat.DenseCopyOf(b.Chol)
	}
	return r
}

// Len is the number of grid points.
func (r *Result) Len() int { return len(r.Times) }

// Order is the prior order the trajectory was solved with.
func (r *Result) Order() int { return r.order }

// Dim is the ODE dimension.
func (r *Result) Dim() int { return r.dim }

// Belief returns a copy of the posterior at grid point i.
func (r *Result) Belief(i int) gauss.MVNSqrt {
	return gauss.MVNSqrt{
		Mean: mat.VecDenseCopyOf(r.Means[i]),
		Chol: mat.DenseCopyOf(r.Chols[i]),
	}
}

// Values projects the posterior means onto the solution values: row i holds
// the d-dimensional estimate of y(t_i).
func (r *Result) Values() [][]float64 {
	out := make([][]float64, r.Len())
	for i := range out {
		row := make([]float64, r.dim)
		for j := 0; j < r.dim; j++ {
			row[j] = r.Means[i].AtVec(j * (r.order + 1))
		}
		out[i] = row
	}
	return out
}

// ValueStd returns the marginal standard deviation of each solution value,
// shaped like Values.
func (r *Result) ValueStd() [][]float64 {
	out := make([][]float64, r.Len())
	for i := range out {
		b := gauss.MVNSqrt{Mean: r.Means[i], Chol: r.Chols[i]}
		row := make([]float64, r.dim)
		for j := 0; j < r.dim; j++ {
			row[j] = b.Std(j * (r.order + 1))
		}
		out[i] = row
	}
	return out
}

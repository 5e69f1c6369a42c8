// Package prior builds the discrete-time form of the integrated Wiener
// process prior used by the ODE filter.
//
// The state stacks, per ODE dimension, the solution value and its first q
// time derivatives: [y_j, y_j', ..., y_j^(q)] for each dimension j. Over a
// step of length h the process has an exact closed-form transition matrix
// and process-noise covariance, so discretization never integrates anything.
package prior

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transition is the discretized dynamics over one step:
// x' = A x + w with w ~ N(0, QChol*QCholᵀ).
type Transition struct {
	A     *mat.Dense
	QChol *mat.Dense
}

// IWP is an integrated Wiener process prior of a given order for a
// d-dimensional ODE. Diffusion is the spectral density of the driving
// white noise. The zero value is not usable; construct with New.
type IWP struct {
	order     int
	dim       int
	diffusion float64

	hilbertL *mat.Dense // factor of the (q+1)x(q+1) Hilbert segment
	cache    map[float64]Transition
}

// New validates the configuration and precomputes the step-independent part
// of the noise factor.
func New(order, dim int, diffusion float64) (*IWP, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	if dim < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	if diffusion <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidDiffusion, diffusion)
	}

	p := &IWP{
		order:     order,
		dim:       dim,
		diffusion: diffusion,
		cache:     make(map[float64]Transition),
	}

	// The one-dimensional noise covariance factors as
	//   Q1[i][j] = diffusion^2 * s_i * s_j * H[i][j]
	// with s_i = h^(q-i+1/2)/(q-i)! and H[i][j] = 1/(2q+1-i-j) a reversed
	// Hilbert matrix. H is fixed per order and well conditioned for the
	// orders in use, so its factor is computed once here and scaled by the
	// step-dependent diagonal in Discretize.
	n := order + 1
	h := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			h.SetSym(i, j, 1.0/float64(2*order+1-i-j))
		}
	}
	var ch mat.Cholesky
	if ok := ch.Factorize(h); !ok {
		return nil, fmt.Errorf("prior: noise covariance factorization failed for order %d", order)
	}
	var tri mat.TriDense
	ch.LTo(&tri)
	p.hilbertL = mat.NewDense(n, n, nil)
	p.hilbertL.Copy(&tri)

	return p, nil
}

func (p *IWP) Order() int         { return p.order }
func (p *IWP) Dim() int           { return p.dim }
func (p *IWP) Diffusion() float64 { return p.diffusion }

// StateDim is the stacked dimension d*(q+1).
func (p *IWP) StateDim() int { return p.dim * (p.order + 1) }

// StateIndex returns the index of derivative deriv of ODE dimension j in the
// stacked state vector.
func (p *IWP) StateIndex(j, deriv int) int {
	return j*(p.order+1) + deriv
}

// Discretize returns the exact transition matrix and lower triangular noise
// factor for a step of length h. Results are cached per step size, so
// uniform grids build the matrices once.
func (p *IWP) Discretize(h float64) (Transition, error) {
	if h <= 0 {
		return Transition{}, fmt.Errorf("%w: got %g", ErrInvalidStep, h)
	}
	if tr, ok := p.cache[h]; ok {
		return tr, nil
	}

	q := p.order
	n := q + 1

	// A1[i][j] = h^(j-i)/(j-i)! for j >= i: Taylor shift of the
	// derivative stack.
	a1 := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		v := 1.0
		for j := i; j < n; j++ {
			a1.Set(i, j, v)
			v *= h / float64(j-i+1)
		}
	}

	// QChol1 = diffusion * diag(s) * hilbertL, still lower triangular.
	s := make([]float64, n)
	for i := 0; i < n; i++ {
		si := p.diffusion * pow(h, q-i) * math.Sqrt(h)
		for k := q - i; k > 1; k-- {
			si /= float64(k)
		}
		s[i] = si
	}
	q1 := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			q1.Set(i, j, s[i]*p.hilbertL.At(i, j))
		}
	}

	// The full matrices are block diagonal over the ODE dimensions.
	dim := p.StateDim()
	a := mat.NewDense(dim, dim, nil)
	qc := mat.NewDense(dim, dim, nil)
	for j := 0; j < p.dim; j++ {
		off := j * n
		a.Slice(off, off+n, off, off+n).(*mat.Dense).Copy(a1)
		qc.Slice(off, off+n, off, off+n).(*mat.Dense).Copy(q1)
	}

	tr := Transition{A: a, QChol: qc}
	p.cache[h] = tr
	return tr, nil
}

// Projection returns the d x d(q+1) selector of derivative deriv: E_k x
// extracts [y_0^(k), ..., y_{d-1}^(k)].
func (p *IWP) Projection(deriv int) *mat.Dense {
	e := mat.NewDense(p.dim, p.StateDim(), nil)
	for j := 0; j < p.dim; j++ {
		e.Set(j, p.StateIndex(j, deriv), 1)
	}
	return e
}

func pow(x float64, n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= x
	}
	return v
}

package parscan

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/kalman"
)

// FilterElement represents the effect of one predict+update step as a
// member of the associative filtering monoid, in square-root form.
//
// A prefix combination of elements 1..k has A = 0 (the first element is
// conditioned on the initial belief) and carries the filtered mean in B and
// the filtered covariance factor in U. Eta and Z accumulate the information
// contribution of the observations and only matter mid-combination.
type FilterElement struct {
	A   *mat.Dense
	B   *mat.VecDense
	U   *mat.Dense
	Eta *mat.VecDense
	Z   *mat.Dense
}

// NewFilterElement builds the generic scan element for one grid step from
// its transition and linearized observation. Following the square-root
// formulation, one QR of
//
//	[ H Q   R ]
//	[  Q    0 ]
//
// provides the innovation factor Y1, the gain numerator Y2, and the
// conditioned noise factor U = Xi22.
func NewFilterElement(tr kalman.AffineTransition, obs kalman.AffineObservation) FilterElement {
	dim, _ := tr.A.Dims()
	ny, _ := obs.H.Dims()

	var hq mat.Dense
	hq.Mul(obs.H, tr.QChol)
	xi := gauss.Tria(gauss.Block2x2(&hq, obs.RChol, tr.QChol, nil))
	y1 := xi.Slice(0, ny, 0, ny).(*mat.Dense)
	y2 := xi.Slice(ny, ny+dim, 0, ny).(*mat.Dense)
	u := mat.DenseCopyOf(xi.Slice(ny, ny+dim, ny, ny+dim))

	// K = Y2 Y1⁻¹.
	kt, err := gauss.SolveUpper(y1, y2.T())
	if err != nil {
		return nanFilterElement(dim)
	}
	var k mat.Dense
	k.CloneFrom(kt.T())

	// Residual of the zero observation at the transition offset.
	btr := tr.Offset()
	r := mat.NewVecDense(ny, nil)
	r.MulVec(obs.H, btr)
	r.AddVec(r, obs.C)
	r.ScaleVec(-1, r)

	// A = (I - K H) F.
	var hf mat.Dense
	hf.Mul(obs.H, tr.A)
	var khf mat.Dense
	khf.Mul(&k, &hf)
	a := mat.NewDense(dim, dim, nil)
	a.Sub(tr.A, &khf)

	// b = b_tr + K r.
	b := mat.NewVecDense(dim, nil)
	b.MulVec(&k, r)
	b.AddVec(btr, b)

	// eta = Fᵀ Hᵀ S⁻¹ r with S⁻¹ applied through the factor Y1.
	w1, err1 := gauss.SolveLower(y1, r)
	if err1 != nil {
		return nanFilterElement(dim)
	}
	w2, err2 := gauss.SolveUpper(y1, w1)
	if err2 != nil {
		return nanFilterElement(dim)
	}
	etaM := mat.NewDense(dim, 1, nil)
	etaM.Mul(hf.T(), w2)
	eta := mat.NewVecDense(dim, nil)
	eta.CopyVec(etaM.ColView(0))

	// Z Zᵀ = Fᵀ Hᵀ S⁻¹ H F, so Z = (Y1⁻¹ H F)ᵀ padded to full width.
	zt, err3 := gauss.SolveLower(y1, &hf)
	if err3 != nil {
		return nanFilterElement(dim)
	}
	z := mat.NewDense(dim, dim, nil)
	z.Slice(0, dim, 0, ny).(*mat.Dense).Copy(zt.T())

	return FilterElement{A: a, B: b, U: u, Eta: eta, Z: z}
}

// NewFirstFilterElement conditions the first step on the initial belief by
// running one sequential predict+update; the element then anchors every
// prefix so scanned results are proper filtered marginals.
func NewFirstFilterElement(init gauss.MVNSqrt, tr kalman.AffineTransition, obs kalman.AffineObservation) (FilterElement, error) {
	pred := kalman.Predict(init, tr)
	filt, err := kalman.Update(pred, obs)
	if err != nil {
		return FilterElement{}, err
	}
	dim := filt.Dim()
	return FilterElement{
		A:   mat.NewDense(dim, dim, nil),
		B:   filt.Mean,
		U:   filt.Chol,
		Eta: mat.NewVecDense(dim, nil),
		Z:   mat.NewDense(dim, dim, nil),
	}, nil
}

// Belief reads the filtered marginal out of a prefix-combined element.
func (e FilterElement) Belief() gauss.MVNSqrt {
	return gauss.MVNSqrt{Mean: mat.VecDenseCopyOf(e.B), Chol: mat.DenseCopyOf(e.U)}
}

// CombineFilter is the associative operator of the filtering monoid.
//
// It is the square-root form of element composition: with C1 = U1 U1ᵀ and
// J2 = Z2 Z2ᵀ, all occurrences of (I + C1 J2)⁻¹ reduce, via M = U1ᵀ Z2 and
// the factors Gamma Gammaᵀ = I + MᵀM and Lambda Lambdaᵀ = I + MMᵀ, to
// triangular solves. No covariance or information matrix is inverted.
func CombineFilter(e1, e2 FilterElement) FilterElement {
	dim, _ := e1.A.Dims()

	var m mat.Dense
	m.Mul(e1.U.T(), e2.Z)
	id := eye(dim)
	gamma := gauss.Tria(gauss.StackCols(m.T(), id))
	lambda := gauss.Tria(gauss.StackCols(&m, id))

	// theta(X) = (I + C1 J2)⁻¹ X = X - U1 M (Gamma Gammaᵀ)⁻¹ Z2ᵀ X.
	theta := func(x mat.Matrix) (*mat.Dense, bool) {
		var t1 mat.Dense
		t1.Mul(e2.Z.T(), x)
		s1, err := gauss.SolveLower(gamma, &t1)
		if err != nil {
			return nil, false
		}
		s2, err := gauss.SolveUpper(gamma, s1)
		if err != nil {
			return nil, false
		}
		var t2 mat.Dense
		t2.Mul(&m, s2)
		var t3 mat.Dense
		t3.Mul(e1.U, &t2)
		var out mat.Dense
		out.Sub(x, &t3)
		return &out, true
	}
	// thetaT(X) = (I + J2 C1)⁻¹ X = X - Z2 (Gamma Gammaᵀ)⁻¹ Mᵀ U1ᵀ X.
	thetaT := func(x mat.Matrix) (*mat.Dense, bool) {
		var t1 mat.Dense
		t1.Mul(e1.U.T(), x)
		var t2 mat.Dense
		t2.Mul(m.T(), &t1)
		s1, err := gauss.SolveLower(gamma, &t2)
		if err != nil {
			return nil, false
		}
		s2, err := gauss.SolveUpper(gamma, s1)
		if err != nil {
			return nil, false
		}
		var t3 mat.Dense
		t3.Mul(e2.Z, s2)
		var out mat.Dense
		out.Sub(x, &t3)
		return &out, true
	}

	// A = A2 theta(A1).
	ta, ok := theta(e1.A)
	if !ok {
		return nanFilterElement(dim)
	}
	a := mat.NewDense(dim, dim, nil)
	a.Mul(e2.A, ta)

	// b = A2 theta(b1 + C1 eta2) + b2.
	tmp := mat.NewVecDense(dim, nil)
	tmp.MulVec(e1.U.T(), e2.Eta)
	ce := mat.NewVecDense(dim, nil)
	ce.MulVec(e1.U, tmp)
	ce.AddVec(e1.B, ce)
	tb, ok := theta(ce)
	if !ok {
		return nanFilterElement(dim)
	}
	b := mat.NewVecDense(dim, nil)
	b.MulVec(e2.A, tb.ColView(0))
	b.AddVec(b, e2.B)

	// U = tria([A2 U1 Lambda⁻ᵀ, U2]).
	wt, err := gauss.SolveLower(lambda, e1.U.T())
	if err != nil {
		return nanFilterElement(dim)
	}
	var aw mat.Dense
	aw.Mul(e2.A, wt.T())
	u := gauss.Tria(gauss.StackCols(&aw, e2.U))

	// eta = A1ᵀ thetaT(eta2 - J2 b1) + eta1.
	jb := mat.NewVecDense(dim, nil)
	jb.MulVec(e2.Z.T(), e1.B)
	tmp2 := mat.NewVecDense(dim, nil)
	tmp2.MulVec(e2.Z, jb)
	d := mat.NewVecDense(dim, nil)
	d.SubVec(e2.Eta, tmp2)
	td, ok := thetaT(d)
	if !ok {
		return nanFilterElement(dim)
	}
	eta := mat.NewVecDense(dim, nil)
	eta.MulVec(e1.A.T(), td.ColView(0))
	eta.AddVec(eta, e1.Eta)

	// Z = tria([A1ᵀ Z2 Gamma⁻ᵀ, Z1]).
	vt, err := gauss.SolveLower(gamma, e2.Z.T())
	if err != nil {
		return nanFilterElement(dim)
	}
	var av mat.Dense
	av.Mul(e1.A.T(), vt.T())
	z := gauss.Tria(gauss.StackCols(&av, e1.Z))

	return FilterElement{A: a, B: b, U: u, Eta: eta, Z: z}
}

// SmoothElement represents the backward recursion x_k = E x_{k+1} + g + noise
// as a member of the associative smoothing monoid.
type SmoothElement struct {
	E *mat.Dense
	G *mat.VecDense
	D *mat.Dense
}

// NewSmoothElement builds the element for an interior grid point from its
// filtered belief and the outgoing transition; the same QR as the
// sequential RTS step produces the gain and conditioned factor.
func NewSmoothElement(filtered gauss.MVNSqrt, tr kalman.AffineTransition) (SmoothElement, error) {
	dim := filtered.Dim()

	var al mat.Dense
	al.Mul(tr.A, filtered.Chol)
	phi := gauss.Tria(gauss.Block2x2(&al, tr.QChol, filtered.Chol, nil))
	phi11 := phi.Slice(0, dim, 0, dim).(*mat.Dense)
	phi21 := phi.Slice(dim, 2*dim, 0, dim).(*mat.Dense)
	phi22 := mat.DenseCopyOf(phi.Slice(dim, 2*dim, dim, 2*dim))

	gt, err := gauss.SolveUpper(phi11, phi21.T())
	if err != nil {
		return SmoothElement{}, err
	}
	var e mat.Dense
	e.CloneFrom(gt.T())

	pred := mat.NewVecDense(dim, nil)
	pred.MulVec(tr.A, filtered.Mean)
	if tr.B != nil {
		pred.AddVec(pred, tr.B)
	}
	g := mat.NewVecDense(dim, nil)
	g.MulVec(&e, pred)
	g.SubVec(filtered.Mean, g)

	return SmoothElement{E: &e, G: g, D: phi22}, nil
}

// NewLastSmoothElement terminates the suffix: the final smoothed marginal is
// the final filtered one.
func NewLastSmoothElement(filtered gauss.MVNSqrt) SmoothElement {
	dim := filtered.Dim()
	return SmoothElement{
		E: mat.NewDense(dim, dim, nil),
		G: mat.VecDenseCopyOf(filtered.Mean),
		D: mat.DenseCopyOf(filtered.Chol),
	}
}

// Belief reads the smoothed marginal out of a suffix-combined element.
func (e SmoothElement) Belief() gauss.MVNSqrt {
	return gauss.MVNSqrt{Mean: mat.VecDenseCopyOf(e.G), Chol: mat.DenseCopyOf(e.D)}
}

// CombineSmooth composes two adjacent backward maps.
func CombineSmooth(e1, e2 SmoothElement) SmoothElement {
	dim, _ := e1.E.Dims()

	e := mat.NewDense(dim, dim, nil)
	e.Mul(e1.E, e2.E)

	g := mat.NewVecDense(dim, nil)
	g.MulVec(e1.E, e2.G)
	g.AddVec(g, e1.G)

	var ed mat.Dense
	ed.Mul(e1.E, e2.D)
	d := gauss.Tria(gauss.StackCols(&ed, e1.D))

	return SmoothElement{E: e, G: g, D: d}
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// nanFilterElement marks a failed combine; the driver's finiteness check
// turns it into a divergence error instead of silently returning garbage.
func nanFilterElement(dim int) FilterElement {
	nan := math.NaN()
	a := mat.NewDense(dim, dim, nil)
	b := mat.NewVecDense(dim, nil)
	for i := 0; i < dim; i++ {
		b.SetVec(i, nan)
		for j := 0; j < dim; j++ {
			a.Set(i, j, nan)
		}
	}
	return FilterElement{
		A:   a,
		B:   b,
		U:   mat.DenseCopyOf(a),
		Eta: mat.VecDenseCopyOf(b),
		Z:   mat.DenseCopyOf(a),
	}
}

package parscan

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odefilter/internal/gauss"
	"github.com/san-kum/odefilter/internal/kalman"
	"github.com/san-kum/odefilter/internal/ode"
	"github.com/san-kum/odefilter/internal/prior"
)

func TestScanMatchesSequential(t *testing.T) {
	// String concatenation is associative but not commutative, so an
	// operand-order bug in the scan shows up immediately.
	concat := func(a, b string) string { return a + b }

	for _, n := range []int{1, 2, 3, 7, 64, 1000} {
		elems := make([]string, n)
		for i := range elems {
			elems[i] = fmt.Sprintf("e%d.", i)
		}

		want := ScanSequential(elems, concat)
		got := Scan(elems, concat)
		if len(got) != len(want) {
			t.Fatalf("n=%d: length %d, want %d", n, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("n=%d: prefix %d is %q, want %q", n, i, got[i], want[i])
			}
		}
	}
}

func TestScanReverseMatchesSuffixes(t *testing.T) {
	concat := func(a, b string) string { return a + b }

	for _, n := range []int{1, 2, 5, 33, 200} {
		elems := make([]string, n)
		for i := range elems {
			elems[i] = fmt.Sprintf("e%d.", i)
		}

		got := ScanReverse(elems, concat)
		for i := 0; i < n; i++ {
			want := ""
			for k := i; k < n; k++ {
				want += elems[k]
			}
			if got[i] != want {
				t.Fatalf("n=%d: suffix %d is %q, want %q", n, i, got[i], want)
			}
		}
	}
}

func TestScanDeterministic(t *testing.T) {
	add := func(a, b float64) float64 { return a + b }

	elems := make([]float64, 500)
	for i := range elems {
		elems[i] = math.Sin(float64(i)) * 1e-3
	}

	first := Scan(elems, add)
	for rep := 0; rep < 20; rep++ {
		again := Scan(elems, add)
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("rep %d: prefix %d changed: %v != %v", rep, i, again[i], first[i])
			}
		}
	}
}

// decayElements builds the filtering elements of a decay problem on a uniform
// grid, linearized at the initial state.
func decayElements(t *testing.T, n int) (gauss.MVNSqrt, []kalman.AffineTransition, []kalman.AffineObservation) {
	t.Helper()
	sys := ode.NewDecay()
	p, err := prior.New(2, 1, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	init := gauss.Zero(p.StateDim())
	init.Mean.SetVec(0, 1)
	init.Mean.SetVec(1, -1)
	init.Chol.Set(2, 2, 1)

	h := 0.05
	trans, err := p.Discretize(h)
	if err != nil {
		t.Fatal(err)
	}

	trs := make([]kalman.AffineTransition, n)
	obs := make([]kalman.AffineObservation, n)
	for i := 0; i < n; i++ {
		trs[i] = kalman.AffineTransition{A: trans.A, QChol: trans.QChol}
		obs[i] = kalman.Linearize(sys, p, float64(i+1)*h, init.Mean, 0)
	}
	return init, trs, obs
}

func maxAbsDiff(a, b mat.Matrix) float64 {
	ra, ca := a.Dims()
	worst := 0.0
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			if d := math.Abs(a.At(i, j) - b.At(i, j)); d > worst {
				worst = d
			}
		}
	}
	return worst
}

// covDiff compares two Cholesky factors through the covariances they span,
// since the factors themselves are only unique up to orthogonal rotation.
func covDiff(l1, l2 *mat.Dense) float64 {
	var c1, c2 mat.Dense
	c1.Mul(l1, l1.T())
	c2.Mul(l2, l2.T())
	return maxAbsDiff(&c1, &c2)
}

func TestCombineFilterAssociative(t *testing.T) {
	init, trs, obs := decayElements(t, 3)

	e1, err := NewFirstFilterElement(init, trs[0], obs[0])
	if err != nil {
		t.Fatal(err)
	}
	e2 := NewFilterElement(trs[1], obs[1])
	e3 := NewFilterElement(trs[2], obs[2])

	left := CombineFilter(CombineFilter(e1, e2), e3)
	right := CombineFilter(e1, CombineFilter(e2, e3))

	if d := maxAbsDiff(left.A, right.A); d > 1e-9 {
		t.Fatalf("A differs by %.3e", d)
	}
	if d := maxAbsDiff(left.B, right.B); d > 1e-9 {
		t.Fatalf("b differs by %.3e", d)
	}
	if d := covDiff(left.U, right.U); d > 1e-9 {
		t.Fatalf("UU^T differs by %.3e", d)
	}
	if d := maxAbsDiff(left.Eta, right.Eta); d > 1e-9 {
		t.Fatalf("eta differs by %.3e", d)
	}
	if d := covDiff(left.Z, right.Z); d > 1e-9 {
		t.Fatalf("ZZ^T differs by %.3e", d)
	}
}

func TestScanFilterMatchesSequentialFilter(t *testing.T) {
	const n = 40
	init, trs, obs := decayElements(t, n)

	seq, err := kalman.FilterSweep(init, trs, obs)
	if err != nil {
		t.Fatal(err)
	}

	elems := make([]FilterElement, n)
	elems[0], err = NewFirstFilterElement(init, trs[0], obs[0])
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < n; i++ {
		elems[i] = NewFilterElement(trs[i], obs[i])
	}

	prefixes := Scan(elems, CombineFilter)
	for i := 0; i < n; i++ {
		b := prefixes[i].Belief()
		if d := maxAbsDiff(b.Mean, seq[i+1].Mean); d > 1e-6 {
			t.Fatalf("point %d: filtered means differ by %.3e", i+1, d)
		}
		if d := covDiff(b.Chol, seq[i+1].Chol); d > 1e-6 {
			t.Fatalf("point %d: filtered covariances differ by %.3e", i+1, d)
		}
	}
}

func TestScanSmootherMatchesSequentialSmoother(t *testing.T) {
	const n = 40
	init, trs, obs := decayElements(t, n)

	filtered, err := kalman.FilterSweep(init, trs, obs)
	if err != nil {
		t.Fatal(err)
	}
	seq, err := kalman.SmootherSweep(filtered, trs)
	if err != nil {
		t.Fatal(err)
	}

	elems := make([]SmoothElement, len(filtered))
	for i := 0; i < n; i++ {
		elems[i], err = NewSmoothElement(filtered[i], trs[i])
		if err != nil {
			t.Fatal(err)
		}
	}
	elems[n] = NewLastSmoothElement(filtered[n])

	suffixes := ScanReverse(elems, CombineSmooth)
	for i := range suffixes {
		b := suffixes[i].Belief()
		if d := maxAbsDiff(b.Mean, seq[i].Mean); d > 1e-6 {
			t.Fatalf("point %d: smoothed means differ by %.3e", i, d)
		}
		if d := covDiff(b.Chol, seq[i].Chol); d > 1e-6 {
			t.Fatalf("point %d: smoothed covariances differ by %.3e", i, d)
		}
	}
}

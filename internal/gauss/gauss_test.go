package gauss

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTriaReproducesCovariance(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, dims := range [][2]int{{2, 4}, {3, 3}, {4, 9}, {6, 12}} {
		r, c := dims[0], dims[1]
		m := mat.NewDense(r, c, nil)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				m.Set(i, j, rng.NormFloat64())
			}
		}

		l := Tria(m)

		var want mat.Dense
		want.Mul(m, m.T())
		var got mat.Dense
		got.Mul(l, l.T())

		for i := 0; i < r; i++ {
			for j := 0; j < r; j++ {
				if math.Abs(got.At(i, j)-want.At(i, j)) > 1e-10 {
					t.Fatalf("(%d,%d): got %.12f, want %.12f", i, j, got.At(i, j), want.At(i, j))
				}
			}
			for j := i + 1; j < r; j++ {
				if l.At(i, j) != 0 {
					t.Fatalf("upper entry (%d,%d) = %g, want 0", i, j, l.At(i, j))
				}
			}
			if l.At(i, i) < 0 {
				t.Fatalf("negative diagonal at %d", i)
			}
		}
	}
}

func TestTriaZeroRows(t *testing.T) {
	// Factors with exact (zero-variance) components must pass through.
	m := mat.NewDense(3, 6, nil)
	m.Set(2, 0, 2.0)

	l := Tria(m)
	var got mat.Dense
	got.Mul(l, l.T())
	if math.Abs(got.At(2, 2)-4.0) > 1e-12 {
		t.Fatalf("got %g, want 4", got.At(2, 2))
	}
	if got.At(0, 0) != 0 || got.At(1, 1) != 0 {
		t.Fatalf("zero rows not preserved")
	}
}

func TestBlock2x2(t *testing.T) {
	a := mat.NewDense(1, 2, []float64{1, 2})
	b := mat.NewDense(1, 1, []float64{3})
	c := mat.NewDense(2, 2, []float64{4, 5, 6, 7})

	out := Block2x2(a, b, c, nil)
	r, cc := out.Dims()
	if r != 3 || cc != 3 {
		t.Fatalf("dims %dx%d, want 3x3", r, cc)
	}
	want := []float64{1, 2, 3, 4, 5, 0, 6, 7, 0}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if out.At(i, j) != want[i*3+j] {
				t.Fatalf("(%d,%d) = %g, want %g", i, j, out.At(i, j), want[i*3+j])
			}
		}
	}
}

func TestStdAndFinite(t *testing.T) {
	b := Zero(2)
	b.Chol.Set(0, 0, 3)
	b.Chol.Set(1, 0, 4)
	b.Chol.Set(1, 1, 3)

	if got := b.Std(0); math.Abs(got-3) > 1e-15 {
		t.Fatalf("std(0) = %g, want 3", got)
	}
	if got := b.Std(1); math.Abs(got-5) > 1e-15 {
		t.Fatalf("std(1) = %g, want 5", got)
	}
	if !b.IsFinite() {
		t.Fatal("finite belief reported non-finite")
	}

	b.Mean.SetVec(1, math.NaN())
	if b.IsFinite() {
		t.Fatal("NaN mean reported finite")
	}
}

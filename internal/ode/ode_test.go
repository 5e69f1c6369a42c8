package ode

import (
	"errors"
	"math"
	"testing"
)

// fieldOnly hides the analytic Jacobian so the finite-difference path runs.
type fieldOnly struct {
	System
}

func TestAnalyticJacobianMatchesFiniteDifferences(t *testing.T) {
	cases := []struct {
		prob Problem
		y    []float64
	}{
		{NewVanDerPol(), []float64{1.3, -0.4}},
		{NewLotkaVolterra(), []float64{0.8, 1.7}},
		{NewFitzHughNagumo(), []float64{0.5, 0.2}},
		{NewLogistic(), []float64{0.3}},
		{NewLorenz(), []float64{1.1, -0.7, 14.0}},
		{NewRossler(), []float64{2.0, -1.0, 0.3}},
	}

	for _, tc := range cases {
		analytic := Jacobian(tc.prob, 0, tc.y)
		numeric := Jacobian(fieldOnly{System: tc.prob}, 0, tc.y)

		n := tc.prob.Dim()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if math.Abs(analytic.At(i, j)-numeric.At(i, j)) > 1e-6 {
					t.Errorf("%s: J(%d,%d) analytic %g vs numeric %g",
						tc.prob.Name(), i, j, analytic.At(i, j), numeric.At(i, j))
				}
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		prob, err := NewProblem(name)
		if err != nil {
			t.Fatal(err)
		}
		if prob.Name() != name {
			t.Fatalf("problem %q reports name %q", name, prob.Name())
		}
		if len(prob.Initial()) != prob.Dim() {
			t.Fatalf("%s: initial value length %d, dim %d", name, len(prob.Initial()), prob.Dim())
		}
		dy := prob.Eval(0, prob.Initial())
		if len(dy) != prob.Dim() {
			t.Fatalf("%s: Eval returned %d components, dim %d", name, len(dy), prob.Dim())
		}
	}

	if _, err := NewProblem("nope"); !errors.Is(err, ErrUnknownProblem) {
		t.Fatalf("got %v, want ErrUnknownProblem", err)
	}
}

func TestRK4Accuracy(t *testing.T) {
	prob := NewDecay()
	n := 100
	ts := make([]float64, n+1)
	for i := range ts {
		ts[i] = float64(i) * 0.01
	}

	out := RK4(prob, []float64{1}, ts)

	for i, t0 := range ts {
		want := math.Exp(-t0)
		if math.Abs(out[i][0]-want) > 1e-8 {
			t.Fatalf("t=%g: got %.10f, want %.10f", t0, out[i][0], want)
		}
	}
}

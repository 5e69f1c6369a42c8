// Package ode defines the vector-field contract consumed by the filter and
// a small registry of built-in initial value problems.
package ode

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// ErrUnknownProblem indicates a problem name not present in the registry.
var ErrUnknownProblem = errors.New("ode: unknown problem")

// System is a first-order vector field dy/dt = f(t, y) of fixed dimension.
// Eval must be a pure function of its arguments and must return a slice of
// length Dim.
type System interface {
	Dim() int
	Eval(t float64, y []float64) []float64
}

// Differentiable systems expose an analytic Jacobian df/dy. Systems without
// one fall back to finite differences in Jacobian.
type Differentiable interface {
	Jacobian(t float64, y []float64) *mat.Dense
}

// Problem is a System packaged with a default initial value and time span.
type Problem interface {
	System
	Name() string
	Initial() []float64
	Span() (t0, tmax float64)
}

// Jacobian evaluates df/dy at (t, y), analytically when the system provides
// it and by central finite differences otherwise.
func Jacobian(sys System, t float64, y []float64) *mat.Dense {
	if d, ok := sys.(Differentiable); ok {
		return d.Jacobian(t, y)
	}
	n := sys.Dim()
	jac := mat.NewDense(n, n, nil)
	fd.Jacobian(jac, func(dst, x []float64) {
		copy(dst, sys.Eval(t, x))
	}, y, &fd.JacobianSettings{Formula: fd.Central})
	return jac
}

var registry = map[string]func() Problem{
	"decay":          func() Problem { return NewDecay() },
	"logistic":       func() Problem { return NewLogistic() },
	"lotkavolterra":  func() Problem { return NewLotkaVolterra() },
	"vanderpol":      func() Problem { return NewVanDerPol() },
	"fitzhughnagumo": func() Problem { return NewFitzHughNagumo() },
	"lorenz":         func() Problem { return NewLorenz() },
	"rossler":        func() Problem { return NewRossler() },
}

// NewProblem looks up a built-in problem by name.
func NewProblem(name string) (Problem, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProblem, name)
	}
	return mk(), nil
}

// Names lists the built-in problems in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package ode

import "gonum.org/v1/gonum/mat"

// Decay is the linear test equation y' = -rate*y.
type Decay struct {
	rate float64
}

func NewDecay() *Decay {
	return &Decay{rate: 1.0}
}

func (d *Decay) Name() string                { return "decay" }
func (d *Decay) Dim() int                    { return 1 }
func (d *Decay) Initial() []float64          { return []float64{1.0} }
func (d *Decay) Span() (float64, float64)    { return 0, 5 }
func (d *Decay) Eval(_ float64, y []float64) []float64 {
	return []float64{-d.rate * y[0]}
}

func (d *Decay) Jacobian(_ float64, _ []float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{-d.rate})
}

// Logistic is y' = r*y*(1-y).
type Logistic struct {
	rate float64
}

func NewLogistic() *Logistic {
	return &Logistic{rate: 1.0}
}

func (l *Logistic) Name() string             { return "logistic" }
func (l *Logistic) Dim() int                 { return 1 }
func (l *Logistic) Initial() []float64       { return []float64{0.01} }
func (l *Logistic) Span() (float64, float64) { return 0, 10 }
func (l *Logistic) Eval(_ float64, y []float64) []float64 {
	return []float64{l.rate * y[0] * (1 - y[0])}
}

func (l *Logistic) Jacobian(_ float64, y []float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{l.rate * (1 - 2*y[0])})
}

// LotkaVolterra is the predator-prey system
//
//	dy0/dt = a*y0 - b*y0*y1
//	dy1/dt = -c*y1 + d*y0*y1
type LotkaVolterra struct {
	a, b, c, d float64
}

func NewLotkaVolterra() *LotkaVolterra {
	return &LotkaVolterra{a: 1.5, b: 1.0, c: 3.0, d: 1.0}
}

func (lv *LotkaVolterra) Name() string             { return "lotkavolterra" }
func (lv *LotkaVolterra) Dim() int                 { return 2 }
func (lv *LotkaVolterra) Initial() []float64       { return []float64{1.0, 1.0} }
func (lv *LotkaVolterra) Span() (float64, float64) { return 0, 7 }
func (lv *LotkaVolterra) Eval(_ float64, y []float64) []float64 {
	return []float64{
		lv.a*y[0] - lv.b*y[0]*y[1],
		-lv.c*y[1] + lv.d*y[0]*y[1],
	}
}

func (lv *LotkaVolterra) Jacobian(_ float64, y []float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		lv.a - lv.b*y[1], -lv.b * y[0],
		lv.d * y[1], -lv.c + lv.d*y[0],
	})
}

// VanDerPol is the Van der Pol oscillator.
// State: [x, y] where y = dx/dt.
type VanDerPol struct {
	mu float64
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{mu: 1.0}
}

func (v *VanDerPol) Name() string             { return "vanderpol" }
func (v *VanDerPol) Dim() int                 { return 2 }
func (v *VanDerPol) Initial() []float64       { return []float64{2.0, 0.0} }
func (v *VanDerPol) Span() (float64, float64) { return 0, 6.3 }
func (v *VanDerPol) Eval(_ float64, y []float64) []float64 {
	return []float64{
		y[1],
		v.mu*(1-y[0]*y[0])*y[1] - y[0],
	}
}

func (v *VanDerPol) Jacobian(_ float64, y []float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		0, 1,
		-2*v.mu*y[0]*y[1] - 1, v.mu * (1 - y[0]*y[0]),
	})
}

// FitzHughNagumo is the two-variable neuron excitation model.
type FitzHughNagumo struct {
	a, b, tinv, l float64
}

func NewFitzHughNagumo() *FitzHughNagumo {
	return &FitzHughNagumo{a: 0.7, b: 0.8, tinv: 1.0 / 12.5, l: 0.5}
}

func (f *FitzHughNagumo) Name() string             { return "fitzhughnagumo" }
func (f *FitzHughNagumo) Dim() int                 { return 2 }
func (f *FitzHughNagumo) Initial() []float64       { return []float64{1.0, 1.0} }
func (f *FitzHughNagumo) Span() (float64, float64) { return 0, 100 }
func (f *FitzHughNagumo) Eval(_ float64, y []float64) []float64 {
	v, w := y[0], y[1]
	return []float64{
		v - v*v*v/3 - w + f.l,
		f.tinv * (v + f.a - f.b*w),
	}
}

func (f *FitzHughNagumo) Jacobian(_ float64, y []float64) *mat.Dense {
	v := y[0]
	return mat.NewDense(2, 2, []float64{
		1 - v*v, -1,
		f.tinv, -f.tinv * f.b,
	})
}

// Lorenz is the chaotic convection model with the classical parameters
// sigma=10, rho=28, beta=8/3.
type Lorenz struct {
	sigma, rho, beta float64
}

func NewLorenz() *Lorenz {
	return &Lorenz{sigma: 10.0, rho: 28.0, beta: 8.0 / 3.0}
}

func (l *Lorenz) Name() string             { return "lorenz" }
func (l *Lorenz) Dim() int                 { return 3 }
func (l *Lorenz) Initial() []float64       { return []float64{1.0, 1.0, 1.0} }
func (l *Lorenz) Span() (float64, float64) { return 0, 5 }
func (l *Lorenz) Eval(_ float64, y []float64) []float64 {
	return []float64{
		l.sigma * (y[1] - y[0]),
		y[0]*(l.rho-y[2]) - y[1],
		y[0]*y[1] - l.beta*y[2],
	}
}

func (l *Lorenz) Jacobian(_ float64, y []float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		-l.sigma, l.sigma, 0,
		l.rho - y[2], -1, -y[0],
		y[1], y[0], -l.beta,
	})
}

// Rossler is the three-variable attractor with a=b=0.2, c=5.7.
type Rossler struct {
	a, b, c float64
}

func NewRossler() *Rossler {
	return &Rossler{a: 0.2, b: 0.2, c: 5.7}
}

func (r *Rossler) Name() string             { return "rossler" }
func (r *Rossler) Dim() int                 { return 3 }
func (r *Rossler) Initial() []float64       { return []float64{1.0, 1.0, 1.0} }
func (r *Rossler) Span() (float64, float64) { return 0, 20 }
func (r *Rossler) Eval(_ float64, y []float64) []float64 {
	return []float64{
		-y[1] - y[2],
		y[0] + r.a*y[1],
		r.b + y[2]*(y[0]-r.c),
	}
}

func (r *Rossler) Jacobian(_ float64, y []float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -1, -1,
		1, r.a, 0,
		y[2], 0, y[0] - r.c,
	})
}

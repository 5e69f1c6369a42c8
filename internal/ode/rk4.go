package ode

// RK4 is a fixed-step fourth-order Runge-Kutta sweep, used as a classical
// reference solution when validating or comparing filter output. It plays no
// part in the filter itself.
func RK4(sys System, y0 []float64, ts []float64) [][]float64 {
	n := len(y0)
	out := make([][]float64, len(ts))
	y := make([]float64, n)
	copy(y, y0)
	out[0] = append([]float64(nil), y...)

	scratch := make([]float64, n)
	for i := 1; i < len(ts); i++ {
		t := ts[i-1]
		dt := ts[i] - ts[i-1]

		k1 := sys.Eval(t, y)
		for j := 0; j < n; j++ {
			scratch[j] = y[j] + dt*0.5*k1[j]
		}
		k2 := sys.Eval(t+dt*0.5, scratch)
		for j := 0; j < n; j++ {
			scratch[j] = y[j] + dt*0.5*k2[j]
		}
		k3 := sys.Eval(t+dt*0.5, scratch)
		for j := 0; j < n; j++ {
			scratch[j] = y[j] + dt*k3[j]
		}
		k4 := sys.Eval(t+dt, scratch)

		dt6 := dt / 6.0
		for j := 0; j < n; j++ {
			y[j] += dt6 * (k1[j] + 2*k2[j] + 2*k3[j] + k4[j])
		}
		out[i] = append([]float64(nil), y...)
	}
	return out
}

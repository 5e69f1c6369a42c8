package config

// Presets are ready-made configurations for the built-in problems.
var Presets = map[string]*Config{
	"logistic": {
		Problem:   "logistic",
		Order:     2,
		Dt:        0.05,
		Tmax:      10,
		Diffusion: DefaultDiffusion,
		Init:      "constant",
		MaxIter:   DefaultMaxIter,
		Tol:       DefaultTol,
	},
	"lotkavolterra": {
		Problem:   "lotkavolterra",
		Order:     3,
		Dt:        0.01,
		Tmax:      7,
		Diffusion: DefaultDiffusion,
		Init:      "taylor",
		MaxIter:   50,
		Tol:       DefaultTol,
	},
	"vanderpol": {
		Problem:   "vanderpol",
		Order:     3,
		Dt:        0.005,
		Tmax:      6.3,
		Diffusion: DefaultDiffusion,
		Init:      "taylor",
		MaxIter:   100,
		Tol:       DefaultTol,
	},
}

// Preset returns a copy of a named preset so callers can adjust it.
func Preset(name string) (*Config, bool) {
	p, ok := Presets[name]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

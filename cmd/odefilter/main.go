package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/odefilter/internal/config"
	"github.com/san-kum/odefilter/internal/ode"
	"github.com/san-kum/odefilter/internal/solver"
	"github.com/san-kum/odefilter/internal/store"
	"github.com/san-kum/odefilter/internal/tui"
	"github.com/san-kum/odefilter/internal/viz"
)

var (
	order      int
	dt         float64
	t0         float64
	tmax       float64
	diffusion  float64
	initName   string
	parallel   bool
	maxIter    int
	tol        float64
	jitter     float64
	filterOnly bool
	configFile string
	preset     string
	plotComp   int
	csvPath    string
	jsonOut    bool
	live       bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "odefilter",
		Short: "probabilistic ODE solver via parallel Kalman smoothing",
	}

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "solve an initial value problem",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSolve,
	}
	solveCmd.Flags().IntVar(&order, "order", config.DefaultOrder, "prior order (derivatives tracked)")
	solveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "grid step")
	solveCmd.Flags().Float64Var(&t0, "t0", 0, "start time")
	solveCmd.Flags().Float64Var(&tmax, "time", 0, "end time (0 uses the problem default)")
	solveCmd.Flags().Float64Var(&diffusion, "diffusion", config.DefaultDiffusion, "prior diffusion")
	solveCmd.Flags().StringVar(&initName, "init", "constant", "init strategy (constant|taylor)")
	solveCmd.Flags().BoolVar(&parallel, "parallel", false, "use the associative-scan path")
	solveCmd.Flags().IntVar(&maxIter, "iters", config.DefaultMaxIter, "max relinearization passes")
	solveCmd.Flags().Float64Var(&tol, "tol", config.DefaultTol, "convergence tolerance")
	solveCmd.Flags().Float64Var(&jitter, "jitter", 0, "observation noise std")
	solveCmd.Flags().BoolVar(&filterOnly, "filter-only", false, "return filtered instead of smoothed marginals")
	solveCmd.Flags().StringVar(&configFile, "config", "", "yaml config path")
	solveCmd.Flags().StringVar(&preset, "preset", "", "named preset configuration")
	solveCmd.Flags().IntVar(&plotComp, "plot", -1, "solution component to plot (-1 disables)")
	solveCmd.Flags().StringVar(&csvPath, "csv", "", "write trajectory CSV to path")
	solveCmd.Flags().BoolVar(&jsonOut, "json", false, "print trajectory JSON to stdout")
	solveCmd.Flags().BoolVar(&live, "live", false, "show passes live while solving")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list built-in problems",
		RunE:  runProblems,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [problem]",
		Short: "check sequential against parallel execution",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCompare,
	}
	compareCmd.Flags().IntVar(&order, "order", config.DefaultOrder, "prior order")
	compareCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "grid step")
	compareCmd.Flags().Float64Var(&tmax, "time", 0, "end time (0 uses the problem default)")
	compareCmd.Flags().IntVar(&maxIter, "iters", config.DefaultMaxIter, "max relinearization passes")

	rootCmd.AddCommand(solveCmd, problemsCmd, compareCmd)
	return rootCmd
}

func buildConfig(args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case preset != "":
		c, ok := config.Preset(preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", preset)
		}
		cfg = c
	default:
		cfg = config.DefaultConfig()
		cfg.Order = order
		cfg.Dt = dt
		cfg.T0 = t0
		cfg.Tmax = tmax
		cfg.Diffusion = diffusion
		cfg.Init = initName
		cfg.Parallel = parallel
		cfg.MaxIter = maxIter
		cfg.Tol = tol
		cfg.Jitter = jitter
	}
	if len(args) > 0 {
		cfg.Problem = args[0]
	}
	return cfg, nil
}

func setupRun(cfg *config.Config) (ode.Problem, []float64, []float64, error) {
	prob, err := ode.NewProblem(cfg.Problem)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Tmax == 0 {
		p0, pmax := prob.Span()
		cfg.T0, cfg.Tmax = p0, pmax
	}
	if tmax != 0 {
		cfg.Tmax = tmax
	}
	ts, err := cfg.Grid()
	if err != nil {
		return nil, nil, nil, err
	}
	y0 := cfg.InitValue
	if y0 == nil {
		y0 = prob.Initial()
	}
	return prob, y0, ts, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(args)
	if err != nil {
		return err
	}
	prob, y0, ts, err := setupRun(cfg)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	opts.FilterOnly = filterOnly

	var res *solver.Result
	var info solver.Info
	var solveErr error

	if live {
		res, info, solveErr = solveLive(prob, y0, ts, opts, func(sub <-chan tea.Msg) error {
			_, err := tea.NewProgram(tui.New(cfg.Problem, sub)).Run()
			return err
		})
	} else {
		res, info, solveErr = solver.Solve(prob, y0, ts, opts)
	}

	if res == nil {
		return solveErr
	}

	if jsonOut {
		return store.WriteJSON(os.Stdout, cfg.Problem, res, info)
	}
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := store.WriteCSV(f, res); err != nil {
			return err
		}
	}

	fmt.Println(viz.Summary(cfg.Problem, res, info))
	if plotComp >= 0 && plotComp < res.Dim() {
		fmt.Println(viz.TrajectoryPlot(res, plotComp, 80, 15))
	}
	return solveErr
}

// solveLive runs the solver in the background while view consumes progress
// messages from the subscription channel. The solver goroutine abandons
// message delivery once the view exits, so quitting the view early neither
// leaks the goroutine nor lets the caller read results before they are
// written; solveLive always waits for the solve to finish.
func solveLive(sys ode.System, y0, ts []float64, opts solver.Options, view func(<-chan tea.Msg) error) (*solver.Result, solver.Info, error) {
	sub := make(chan tea.Msg)
	closed := make(chan struct{})
	done := make(chan struct{})

	opts.OnIteration = func(iter int, change float64) {
		select {
		case sub <- tui.IterationMsg{Iter: iter, Change: change}:
		case <-closed:
		}
	}

	var (
		res      *solver.Result
		info     solver.Info
		solveErr error
	)
	go func() {
		defer close(done)
		res, info, solveErr = solver.Solve(sys, y0, ts, opts)
		select {
		case sub <- tui.DoneMsg{Err: solveErr}:
		case <-closed:
		}
	}()

	viewErr := view(sub)
	close(closed)
	<-done

	if viewErr != nil {
		return nil, info, viewErr
	}
	return res, info, solveErr
}

func runProblems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIM\tSPAN\tINITIAL")
	for _, name := range ode.Names() {
		prob, err := ode.NewProblem(name)
		if err != nil {
			return err
		}
		p0, pmax := prob.Span()
		fmt.Fprintf(w, "%s\t%d\t[%g, %g]\t%v\n", name, prob.Dim(), p0, pmax, prob.Initial())
	}
	return w.Flush()
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(args)
	if err != nil {
		return err
	}
	prob, y0, ts, err := setupRun(cfg)
	if err != nil {
		return err
	}

	opts := cfg.Options()

	opts.Parallel = false
	seqStart := time.Now()
	seqRes, seqInfo, err := solver.Solve(prob, y0, ts, opts)
	if err != nil {
		return err
	}
	seqTime := time.Since(seqStart)

	opts.Parallel = true
	parStart := time.Now()
	parRes, _, err := solver.Solve(prob, y0, ts, opts)
	if err != nil {
		return err
	}
	parTime := time.Since(parStart)

	maxDev := 0.0
	for i := range seqRes.Means {
		for k := 0; k < seqRes.Means[i].Len(); k++ {
			d := math.Abs(seqRes.Means[i].AtVec(k) - parRes.Means[i].AtVec(k))
			if d > maxDev {
				maxDev = d
			}
		}
	}

	ref := ode.RK4(prob, y0, ts)
	vals := seqRes.Values()
	refErr := 0.0
	for i := range vals {
		for j := range vals[i] {
			d := math.Abs(vals[i][j] - ref[i][j])
			if d > refErr {
				refErr = d
			}
		}
	}

	fmt.Printf("grid %d points, %d passes\n", len(ts), seqInfo.Iterations)
	fmt.Printf("sequential  %v\n", seqTime)
	fmt.Printf("parallel    %v\n", parTime)
	fmt.Printf("max |seq - par|     %.3e\n", maxDev)
	fmt.Printf("max |seq - rk4 ref| %.3e\n", refErr)
	return nil
}

package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/odefilter/internal/ode"
	"github.com/san-kum/odefilter/internal/solver"
	"github.com/san-kum/odefilter/internal/tui"
)

func decayGrid() []float64 {
	ts := make([]float64, 21)
	for i := range ts {
		ts[i] = float64(i) * 0.05
	}
	return ts
}

func TestSolveLiveDeliversAllPasses(t *testing.T) {
	var iters int
	view := func(sub <-chan tea.Msg) error {
		for msg := range sub {
			switch msg.(type) {
			case tui.IterationMsg:
				iters++
			case tui.DoneMsg:
				return nil
			}
		}
		return nil
	}

	res, info, err := solveLive(ode.NewDecay(), []float64{1}, decayGrid(), solver.DefaultOptions(), view)
	if err != nil {
		t.Fatal(err)
	}
	if res == nil {
		t.Fatal("no result from a successful solve")
	}
	if iters != info.Iterations {
		t.Fatalf("view saw %d passes, solver ran %d", iters, info.Iterations)
	}
}

func TestSolveLiveAbortedView(t *testing.T) {
	// A view that quits without draining the subscription, like a user
	// pressing q mid-solve. The solve must still run to completion, its
	// results must be visible after solveLive returns, and the background
	// goroutine must not stay blocked on an abandoned send.
	view := func(<-chan tea.Msg) error { return nil }

	res, info, err := solveLive(ode.NewDecay(), []float64{1}, decayGrid(), solver.DefaultOptions(), view)
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || res.Len() != 21 {
		t.Fatalf("aborted view lost the trajectory: %v", res)
	}
	if info.Iterations == 0 {
		t.Fatal("info not populated after aborted view")
	}
}

func TestSolveLiveViewError(t *testing.T) {
	viewErr := errors.New("terminal went away")
	view := func(sub <-chan tea.Msg) error {
		<-sub
		return viewErr
	}

	res, _, err := solveLive(ode.NewDecay(), []float64{1}, decayGrid(), solver.DefaultOptions(), view)
	if !errors.Is(err, viewErr) {
		t.Fatalf("got %v, want the view error", err)
	}
	if res != nil {
		t.Fatal("result returned despite a failed display")
	}
}

func TestPlotFlagDisabledByDefault(t *testing.T) {
	root := newRootCmd()
	for _, cmd := range root.Commands() {
		if cmd.Name() != "solve" {
			continue
		}
		f := cmd.Flags().Lookup("plot")
		if f == nil {
			t.Fatal("solve has no plot flag")
		}
		if f.DefValue != "-1" {
			t.Fatalf("plot defaults to %s, want -1 (disabled)", f.DefValue)
		}
		return
	}
	t.Fatal("solve command not registered")
}

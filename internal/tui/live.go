// Package tui shows solver iterations live while a solve runs.
package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	statStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

// IterationMsg reports one relinearization pass.
type IterationMsg struct {
	Iter   int
	Change float64
}

// DoneMsg ends the session; Err carries a solve failure.
type DoneMsg struct {
	Err error
}

// Model is the bubbletea model for a running solve.
type Model struct {
	problem string
	sub     <-chan tea.Msg

	iters   int
	last    float64
	history []float64
	done    bool
	err     error
}

func New(problem string, sub <-chan tea.Msg) Model {
	return Model{problem: problem, sub: sub}
}

func (m Model) Init() tea.Cmd {
	return waitFor(m.sub)
}

func waitFor(sub <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case IterationMsg:
		m.iters = msg.Iter
		m.last = msg.Change
		m.history = append(m.history, math.Log10(math.Max(msg.Change, 1e-300)))
		return m, waitFor(m.sub)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("odefilter: " + m.problem))
	b.WriteString("\n\n")

	if m.iters == 0 {
		b.WriteString(dimStyle.Render("waiting for first pass..."))
		b.WriteString("\n")
	} else {
		b.WriteString(statStyle.Render(fmt.Sprintf("pass %d", m.iters)))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  mean-squared change %.3e", m.last)))
		b.WriteString("\n")
	}

	if len(m.history) > 1 {
		b.WriteString("\n")
		b.WriteString(asciigraph.Plot(m.history,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("log10 change per pass"),
		))
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(errStyle.Render(m.err.Error()))
		} else {
			b.WriteString(dimStyle.Render("done"))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("q to abort view"))
		b.WriteString("\n")
	}

	return borderStyle.Render(b.String())
}

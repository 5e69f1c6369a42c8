// Package viz renders solved trajectories as terminal plots.
package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/odefilter/internal/solver"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	summaryStyle = lipgloss.NewStyle().Padding(0, 2)
)

// TrajectoryPlot draws the posterior mean of one solution component together
// with its 2-sigma band.
func TrajectoryPlot(res *solver.Result, comp, width, height int) string {
	values := res.Values()
	stds := res.ValueStd()

	n := res.Len()
	mean := make([]float64, n)
	lo := make([]float64, n)
	hi := make([]float64, n)
	for i := 0; i < n; i++ {
		mean[i] = values[i][comp]
		lo[i] = mean[i] - 2*stds[i][comp]
		hi[i] = mean[i] + 2*stds[i][comp]
	}

	caption := fmt.Sprintf("y%d posterior mean, ±2σ  t ∈ [%g, %g]",
		comp, res.Times[0], res.Times[n-1])
	graph := asciigraph.PlotMany([][]float64{lo, hi, mean},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Gray, asciigraph.Default),
	)
	return graph
}

// Summary renders the solve diagnostics in one styled block.
func Summary(problem string, res *solver.Result, info solver.Info) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(problem))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("grid %d points, order %d, dim %d",
		res.Len(), res.Order(), res.Dim())))
	b.WriteString("\n")

	status := okStyle.Render(fmt.Sprintf("converged in %d iterations", info.Iterations))
	if info.Diverged {
		status = failStyle.Render(fmt.Sprintf("diverged after %d iterations", info.Iterations))
	} else if !info.Converged {
		status = warnStyle.Render(fmt.Sprintf("iteration budget hit (%d), mean-squared change %.2e",
			info.Iterations, info.FinalChange))
	}
	b.WriteString(status)
	b.WriteString("\n")

	return summaryStyle.Render(b.String())
}

// Package store exports solved trajectories to CSV and JSON.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/odefilter/internal/solver"
)

type ExportData struct {
	Problem    string      `json:"problem"`
	Order      int         `json:"order"`
	Iterations int         `json:"iterations"`
	Converged  bool        `json:"converged"`
	Times      []float64   `json:"times"`
	Values     [][]float64 `json:"values"`
	Std        [][]float64 `json:"std"`
}

// WriteJSON writes the value-block posterior with its marginal standard
// deviations as indented JSON.
func WriteJSON(w io.Writer, problem string, res *solver.Result, info solver.Info) error {
	data := ExportData{
		Problem:    problem,
		Order:      res.Order(),
		Iterations: info.Iterations,
		Converged:  info.Converged,
		Times:      res.Times,
		Values:     res.Values(),
		Std:        res.ValueStd(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// WriteCSV writes one row per grid point: time, then the posterior mean and
// standard deviation of each solution component.
func WriteCSV(w io.Writer, res *solver.Result) error {
	cw := csv.NewWriter(w)

	dim := res.Dim()
	header := []string{"t"}
	for j := 0; j < dim; j++ {
		header = append(header, fmt.Sprintf("y%d", j), fmt.Sprintf("std%d", j))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	values := res.Values()
	stds := res.ValueStd()
	for i, t := range res.Times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for j := 0; j < dim; j++ {
			row = append(row,
				strconv.FormatFloat(values[i][j], 'g', -1, 64),
				strconv.FormatFloat(stds[i][j], 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

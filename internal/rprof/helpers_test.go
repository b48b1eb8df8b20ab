package rprof

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rprof/internal/monitoring"
)

// testVars maps the three columns written by testutil.NewProfileFile(3).
func testVars() VarTable {
	return VarTable{
		"r":     {Column: 0, Description: "Radial coordinate", Kind: "Radius", Dim: "m"},
		"Tmean": {Column: 1, Description: "Temperature", Kind: "Temperature", Dim: "K"},
		"vzabs": {Column: 2, Description: "Vertical velocity", Kind: "Velocity", Dim: "m/s"},
	}
}

func mustOpen(t *testing.T, text string, opts Options) *Data {
	t.Helper()
	defer monitoring.Quiet()()
	if opts.Vars == nil {
		opts.Vars = testVars()
	}
	d, err := Open(strings.NewReader(text), opts)
	require.NoError(t, err)
	return d
}

func markersAt(rows []int, steps []int) []Marker {
	ms := make([]Marker, len(rows))
	for i := range rows {
		ms[i] = Marker{RowIndex: rows[i], Step: steps[i], Time: float64(steps[i]) / 10}
	}
	return ms
}

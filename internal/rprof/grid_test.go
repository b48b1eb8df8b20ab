package rprof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rprof/internal/testutil"
)

func TestGrid(t *testing.T) {
	text := "* 1 a b c 0\n0.1 0 0\n0.3 0 0\n0.7 0 0\n"
	d := mustOpen(t, text, Options{Bounds: Bounds{RCMB: 1}})
	s, err := d.Locate(Latest)
	require.NoError(t, err)

	g := d.Accessor().Grid(s)
	testutil.AssertFloats(t, g.Radii, []float64{1.1, 1.3, 1.7}, 1e-12)
	testutil.AssertFloats(t, g.Spacing, []float64{0.2, 0.4}, 1e-12)
	assert.Equal(t, 1, g.Step)
	assert.Empty(t, g.Unit)
}

func TestGrid_Scaled(t *testing.T) {
	scale := func(v float64, dim string) (float64, string) {
		if dim == "m" {
			return v * 10, "km"
		}
		return v, ""
	}
	text := "* 1 a b c 0\n0.1 0 0\n0.3 0 0\n"
	d := mustOpen(t, text, Options{Scale: scale})
	s, err := d.Locate(Latest)
	require.NoError(t, err)

	g := d.Accessor().Grid(s)
	assert.Equal(t, "km", g.Unit)
	testutil.AssertFloats(t, g.Radii, []float64{1, 3}, 1e-12)
	testutil.AssertFloats(t, g.Spacing, []float64{2}, 1e-12)
}

func TestGrid_SingleCell(t *testing.T) {
	d := mustOpen(t, "* 1 a b c 0\n0.5 0 0\n", Options{})
	s, err := d.Locate(Latest)
	require.NoError(t, err)

	g := d.Accessor().Grid(s)
	assert.Len(t, g.Radii, 1)
	assert.Empty(t, g.Spacing)
}

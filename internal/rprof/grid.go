package rprof

import "gonum.org/v1/gonum/floats"

// Grid holds the cell positions of one step and the spacing between
// consecutive cells.
type Grid struct {
	Radii   []float64 // cell centres, offset by the inner boundary
	Spacing []float64 // Radii[i+1] - Radii[i], one fewer than Radii
	Unit    string
	Step    int
}

// Grid returns the radial grid of the slice.
func (a *Accessor) Grid(s Slice) Grid {
	radii := a.Radii(s)
	var spacing []float64
	if len(radii) > 1 {
		spacing = make([]float64, len(radii)-1)
		floats.SubTo(spacing, radii[1:], radii[:len(radii)-1])
	}
	g := Grid{Radii: radii, Spacing: spacing, Step: s.Marker.Step}
	g.Unit = a.scaleInPlace(g.Radii, "m")
	a.scaleInPlace(g.Spacing, "m")
	return g
}

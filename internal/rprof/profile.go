package rprof

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ScaleFunc converts a nondimensional value of the given dimension into
// display units and names the unit. The empty string means no unit.
type ScaleFunc func(value float64, dim string) (float64, string)

// Identity leaves values untouched and reports no unit.
func Identity(v float64, _ string) (float64, string) { return v, "" }

// Bounds is the radial extent of the domain.
type Bounds struct {
	RCMB     float64 // inner boundary
	RSurface float64 // outer boundary
}

// Thickness returns RSurface - RCMB.
func (b Bounds) Thickness() float64 { return b.RSurface - b.RCMB }

// Profile is one variable over the cells of one step.
type Profile struct {
	Values     []float64
	Radii      []float64
	Meta       VarMeta
	Unit       string // unit of Values after scaling
	RadiusUnit string // unit of Radii after scaling
	Step       int    // step number, or the last step of an average
}

// Len returns the number of cells.
func (p Profile) Len() int { return len(p.Values) }

// Depth returns rSurface - r for every radius. The profile is not modified.
func (p Profile) Depth(rSurface float64) []float64 {
	d := make([]float64, len(p.Radii))
	floats.AddConst(rSurface, floats.ScaleTo(d, -1, p.Radii))
	return d
}

// Integrated returns the values weighted by (r/rMax)^2, the spherical
// surface correction applied to advection totals.
func (p Profile) Integrated(rMax float64) []float64 {
	w := make([]float64, len(p.Radii))
	floats.ScaleTo(w, 1/rMax, p.Radii)
	floats.Mul(w, w)
	floats.Mul(w, p.Values)
	return w
}

// Mean returns the arithmetic mean of the values, or NaN for an empty profile.
func (p Profile) Mean() float64 {
	return stat.Mean(p.Values, nil)
}

// Accessor extracts named profiles from row slices.
type Accessor struct {
	rows   *Rows
	vars   VarTable
	bounds Bounds
	scale  ScaleFunc
}

// NewAccessor returns an Accessor over rows. A nil scale means Identity.
func NewAccessor(rows *Rows, vars VarTable, bounds Bounds, scale ScaleFunc) *Accessor {
	if scale == nil {
		scale = Identity
	}
	return &Accessor{rows: rows, vars: vars, bounds: bounds, scale: scale}
}

// Bounds returns the domain extent the accessor offsets radii with.
func (a *Accessor) Bounds() Bounds { return a.bounds }

// ScaledBounds returns the domain extent in display units.
func (a *Accessor) ScaledBounds() Bounds {
	rcmb, _ := a.scale(a.bounds.RCMB, "m")
	rsurf, _ := a.scale(a.bounds.RSurface, "m")
	return Bounds{RCMB: rcmb, RSurface: rsurf}
}

// Radii returns column 0 of the slice offset by the inner boundary, before
// scaling.
func (a *Accessor) Radii(s Slice) []float64 {
	r := a.rows.Column(RadiusColumn, s.Start, s.End)
	floats.AddConst(a.bounds.RCMB, r)
	return r
}

// Extract returns the profile of variable name over the slice. Values and
// radii are passed through the scale function; the row table is never
// modified.
func (a *Accessor) Extract(name string, s Slice) (Profile, error) {
	meta, err := a.vars.Lookup(name)
	if err != nil {
		return Profile{}, err
	}
	values := a.rows.Column(meta.Column, s.Start, s.End)
	radii := a.Radii(s)

	p := Profile{Values: values, Radii: radii, Meta: meta, Step: s.Marker.Step}
	p.Unit = a.scaleInPlace(values, meta.Dim)
	p.RadiusUnit = a.scaleInPlace(radii, "m")
	return p, nil
}

// ExtractAll extracts several variables over the same slice. It fails as a
// whole if any name is unknown.
func (a *Accessor) ExtractAll(names []string, s Slice) (map[string]Profile, error) {
	out := make(map[string]Profile, len(names))
	for _, n := range names {
		p, err := a.Extract(n, s)
		if err != nil {
			return nil, err
		}
		out[n] = p
	}
	return out, nil
}

func (a *Accessor) scaleInPlace(v []float64, dim string) string {
	_, unit := a.scale(1, dim)
	for i := range v {
		v[i], _ = a.scale(v[i], dim)
	}
	return unit
}

package rprof

import (
	"fmt"
	"sort"
)

// RadiusColumn holds the radial position of each cell, relative to the
// inner boundary of the domain.
const RadiusColumn = 0

// VarMeta describes one named column of the profile file.
type VarMeta struct {
	Name        string `json:"name"`
	Column      int    `json:"column"`
	Description string `json:"description"`
	Kind        string `json:"kind"` // axis label shared by related variables
	Dim         string `json:"dim"`  // dimension handed to the scale function
}

// VarTable maps variable names to columns. It is read-only once a Data
// value has been built from it.
type VarTable map[string]VarMeta

// DefaultVars returns the column layout of the profile file.
func DefaultVars() VarTable {
	t := VarTable{}
	add := func(name string, col int, desc, kind, dim string) {
		t[name] = VarMeta{Name: name, Column: col, Description: desc, Kind: kind, Dim: dim}
	}
	add("r", 0, "Radial coordinate", "Radius", "m")

	add("Tmean", 1, "Temperature", "Temperature", "K")
	add("Tmin", 2, "Minimum temperature", "Temperature", "K")
	add("Tmax", 3, "Maximum temperature", "Temperature", "K")

	add("vzabs", 7, "Vertical velocity", "Velocity", "m/s")
	add("vzmin", 8, "Minimum vertical velocity", "Velocity", "m/s")
	add("vzmax", 9, "Maximum vertical velocity", "Velocity", "m/s")

	add("vhrms", 10, "Horizontal velocity", "Velocity", "m/s")
	add("vhmin", 11, "Minimum horizontal velocity", "Velocity", "m/s")
	add("vhmax", 12, "Maximum horizontal velocity", "Velocity", "m/s")

	add("etalog", 13, "Viscosity", "Viscosity", "Pa.s")
	add("etamin", 14, "Minimum viscosity", "Viscosity", "Pa.s")
	add("etamax", 15, "Maximum viscosity", "Viscosity", "Pa.s")

	add("cmean", 36, "Concentration", "Concentration", "1")
	add("cmin", 37, "Minimum concentration", "Concentration", "1")
	add("cmax", 38, "Maximum concentration", "Concentration", "1")

	add("advtot", 57, "Advection per unit surface", "Heat flux", "W/m^2")
	add("advdesc", 58, "Down-welling advection", "Heat flux", "W/m^2")
	add("advasc", 59, "Up-welling advection", "Heat flux", "W/m^2")

	add("enadv", 60, "Advective heat flux", "Heat flux", "W/m^2")
	add("redges", 63, "Cell boundaries", "Radius", "m")
	return t
}

// Lookup returns the metadata of name.
func (t VarTable) Lookup(name string) (VarMeta, error) {
	m, ok := t[name]
	if !ok {
		return VarMeta{}, &UnknownVariableError{Name: name}
	}
	if m.Name == "" {
		m.Name = name
	}
	return m, nil
}

// Names returns the variable names sorted by column, then name.
func (t VarTable) Names() []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := t[names[i]], t[names[j]]
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return names[i] < names[j]
	})
	return names
}

// Validate checks every column against the column count of a parsed file.
// An empty file (ncols == 0) has no schema to check against.
func (t VarTable) Validate(ncols int) error {
	if ncols == 0 {
		return nil
	}
	for _, name := range t.Names() {
		m := t[name]
		if m.Column < 0 || m.Column >= ncols {
			return &ParseError{Reason: fmt.Sprintf(
				"variable %q maps to column %d but the file has %d columns", name, m.Column, ncols)}
		}
	}
	return nil
}

// Subset keeps only the named variables plus the radius column.
func (t VarTable) Subset(names ...string) (VarTable, error) {
	out := VarTable{}
	for _, n := range names {
		m, err := t.Lookup(n)
		if err != nil {
			return nil, err
		}
		out[n] = m
	}
	if r, ok := t["r"]; ok {
		out["r"] = r
	}
	return out, nil
}

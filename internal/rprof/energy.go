package rprof

import "gonum.org/v1/gonum/floats"

// Variables read by Energy.
const (
	energyTemperature = "Tmean"
	energyAdvection   = "enadv"
	energyEdges       = "redges"
)

// EnergyBalance is the heat flux through the cell boundaries of one step.
// All three profiles share the boundary radii.
type EnergyBalance struct {
	Total      Profile
	Advective  Profile
	Conductive Profile
}

// Energy computes the heat flux balance of the slice from the mean
// temperature, the advective flux and the cell boundary columns. The
// boundary temperatures are the nondimensional 1 at the bottom and 0 at the
// top, and the outermost boundary sits at the domain thickness.
//
// With n cells the result has n boundaries: n-1 read from the edge column
// plus the top. Advection is zero on both outer boundaries; conduction uses
// the temperature jump between neighbouring cells inside the domain and the
// jump to the boundary temperature at either end.
func (a *Accessor) Energy(s Slice) (EnergyBalance, error) {
	n := s.Len()
	if n < 2 {
		return EnergyBalance{}, &ShapeMismatchError{Variable: "energy", Step: s.Marker.Step, Want: 2, Got: n}
	}
	tm, err := a.vars.Lookup(energyTemperature)
	if err != nil {
		return EnergyBalance{}, err
	}
	am, err := a.vars.Lookup(energyAdvection)
	if err != nil {
		return EnergyBalance{}, err
	}
	em, err := a.vars.Lookup(energyEdges)
	if err != nil {
		return EnergyBalance{}, err
	}

	r := a.rows.Column(RadiusColumn, s.Start, s.End)
	temp := a.rows.Column(tm.Column, s.Start, s.End)
	qa := a.rows.Column(am.Column, s.Start, s.End)
	edges := a.rows.Column(em.Column, s.Start, s.End)
	thickness := a.bounds.Thickness()

	// the last edge column entry is replaced by the top boundary
	edges[n-1] = thickness
	floats.AddConst(a.bounds.RCMB, edges)

	adv := make([]float64, n)
	copy(adv[1:n-1], qa[:n-2])

	cond := make([]float64, n)
	cond[0] = (1 - temp[0]) / r[0]
	for i := 0; i < n-2; i++ {
		cond[i+1] = (temp[i] - temp[i+1]) / (r[i+1] - r[i])
	}
	cond[n-1] = temp[n-1] / (thickness - r[n-1])

	total := make([]float64, n)
	floats.AddTo(total, adv, cond)

	meta := VarMeta{Kind: "Heat flux", Dim: am.Dim}
	mk := func(name, desc string, v []float64) Profile {
		m := meta
		m.Name, m.Description = name, desc
		p := Profile{Values: v, Radii: append([]float64(nil), edges...), Meta: m, Step: s.Marker.Step}
		p.Unit = a.scaleInPlace(p.Values, m.Dim)
		p.RadiusUnit = a.scaleInPlace(p.Radii, "m")
		return p
	}
	return EnergyBalance{
		Total:      mk("qtot", "Total", total),
		Advective:  mk("qadv", "Advection", adv),
		Conductive: mk("qcond", "Conduction", cond),
	}, nil
}

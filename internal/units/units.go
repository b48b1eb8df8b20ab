// Package units converts nondimensional solver output into physical units
package units

// Dimension constants, as carried by the variable table
const (
	Length       = "m"
	Temperature  = "K"
	Velocity     = "m/s"
	Time         = "s"
	Viscosity    = "Pa.s"
	Stress       = "Pa"
	StrainRate   = "1/s"
	HeatFlux     = "W/m^2"
	Nondimension = "1"
)

// ValidDims contains all dimensions the Scaler knows about
var ValidDims = []string{Length, Temperature, Velocity, Time, Viscosity, Stress, StrainRate, HeatFlux, Nondimension}

// IsValid checks if the given dimension is in the list of valid dimensions
func IsValid(dim string) bool {
	for _, d := range ValidDims {
		if dim == d {
			return true
		}
	}
	return false
}

const secondsPerYear = 365.25 * 24 * 3600

// Reference holds the physical scales of a run.
type Reference struct {
	Length       float64 // domain thickness, m
	TempDelta    float64 // temperature contrast across the domain, K
	TempSurface  float64 // surface temperature, K
	Diffusivity  float64 // thermal diffusivity, m^2/s
	Viscosity    float64 // reference viscosity, Pa.s
	Conductivity float64 // thermal conductivity, W/m/K
}

// DefaultReference returns Earth-like mantle scales.
func DefaultReference() Reference {
	return Reference{
		Length:       2890e3,
		TempDelta:    2500,
		TempSurface:  300,
		Diffusivity:  1e-6,
		Viscosity:    1e22,
		Conductivity: 3,
	}
}

// Scaler converts values of a given dimension into display units.
type Scaler struct {
	Ref         Reference
	Dimensional bool
}

// Scale converts a nondimensional value of dimension dim and names the
// display unit. When the scaler is not dimensional, or the dimension is
// unknown, the value is returned unchanged with an empty unit.
func (s Scaler) Scale(v float64, dim string) (float64, string) {
	if !s.Dimensional {
		return v, ""
	}
	r := s.Ref
	switch dim {
	case Length:
		return v * r.Length / 1e3, "km"
	case Temperature:
		return v*r.TempDelta + r.TempSurface, "K"
	case Velocity:
		return v * r.Diffusivity / r.Length * 100 * secondsPerYear, "cm/y"
	case Time:
		return v * r.Length * r.Length / r.Diffusivity / (1e6 * secondsPerYear), "Myr"
	case Viscosity:
		return v * r.Viscosity, "Pa.s"
	case Stress:
		return v * r.Viscosity * r.Diffusivity / (r.Length * r.Length) / 1e6, "MPa"
	case StrainRate:
		return v * r.Diffusivity / (r.Length * r.Length), "1/s"
	case HeatFlux:
		return v * r.Conductivity * r.TempDelta / r.Length * 1e3, "mW/m^2"
	default:
		return v, ""
	}
}

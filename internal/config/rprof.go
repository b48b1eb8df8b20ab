package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/rprof/internal/rprof"
	"github.com/banshee-data/rprof/internal/units"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/rprof.defaults.json"

// Geometry values.
const (
	Spherical = "spherical"
	Cartesian = "cartesian"
)

// RprofConfig is the configuration of a profile extraction run. Every field
// is optional; the Get* methods supply defaults for the ones left out.
type RprofConfig struct {
	// Input
	ProfileFile *string `json:"profile_file,omitempty"`
	Stem        *string `json:"output_file_stem,omitempty"` // used when profile_file is empty
	Marker      *string `json:"marker,omitempty"`           // single character

	// Geometry
	Geometry *string  `json:"geometry,omitempty"`
	RCMB     *float64 `json:"r_cmb,omitempty"`
	RSurface *float64 `json:"r_surface,omitempty"`

	// Selection
	Vars      []string `json:"vars,omitempty"`
	MinMax    *bool    `json:"min_max,omitempty"`
	Timesteps *string  `json:"timesteps,omitempty"` // start:stop:stride over step ordinals

	// Output modes
	Depth       *bool `json:"depth,omitempty"`
	Average     *bool `json:"average,omitempty"`
	Grid        *bool `json:"grid,omitempty"`
	Energy      *bool `json:"energy,omitempty"`
	Integrated  *bool `json:"integrated,omitempty"`
	Dimensional *bool `json:"dimensional,omitempty"`

	Reference *ReferenceConfig            `json:"reference,omitempty"`
	Variables map[string]VariableOverride `json:"variables,omitempty"`

	Database *string `json:"database,omitempty"`
}

// ReferenceConfig holds the physical scales used when dimensional is set.
type ReferenceConfig struct {
	Length       *float64 `json:"length,omitempty"`
	TempDelta    *float64 `json:"temp_delta,omitempty"`
	TempSurface  *float64 `json:"temp_surface,omitempty"`
	Diffusivity  *float64 `json:"diffusivity,omitempty"`
	Viscosity    *float64 `json:"viscosity,omitempty"`
	Conductivity *float64 `json:"conductivity,omitempty"`
}

// VariableOverride adds a column to the variable table or replaces one.
type VariableOverride struct {
	Column      int    `json:"column"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Dim         string `json:"dim,omitempty"`
}

// minMaxCompanions lists the min/max columns that go with a mean variable.
var minMaxCompanions = map[string][2]string{
	"Tmean":  {"Tmin", "Tmax"},
	"vzabs":  {"vzmin", "vzmax"},
	"vhrms":  {"vhmin", "vhmax"},
	"etalog": {"etamin", "etamax"},
	"cmean":  {"cmin", "cmax"},
	"advtot": {"advdesc", "advasc"},
}

// EmptyConfig returns an RprofConfig with all fields unset.
func EmptyConfig() *RprofConfig {
	return &RprofConfig{}
}

// LoadConfig loads an RprofConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadConfig(path string) (*RprofConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *RprofConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *RprofConfig) Validate() error {
	if c.Marker != nil && len(*c.Marker) != 1 {
		return fmt.Errorf("marker must be a single character, got %q", *c.Marker)
	}
	if c.Geometry != nil && *c.Geometry != Spherical && *c.Geometry != Cartesian {
		return fmt.Errorf("geometry must be %q or %q, got %q", Spherical, Cartesian, *c.Geometry)
	}
	if c.RCMB != nil && *c.RCMB < 0 {
		return fmt.Errorf("r_cmb must be non-negative, got %f", *c.RCMB)
	}
	if b := c.GetBounds(); b.RSurface <= b.RCMB {
		return fmt.Errorf("r_surface (%f) must exceed r_cmb (%f)", b.RSurface, b.RCMB)
	}
	if _, err := rprof.ParseRange(c.GetTimesteps()); err != nil {
		return fmt.Errorf("invalid timesteps: %w", err)
	}
	for name, v := range c.Variables {
		if v.Column < 0 {
			return fmt.Errorf("variable %q: column must be non-negative, got %d", name, v.Column)
		}
		if v.Dim != "" && !units.IsValid(v.Dim) {
			return fmt.Errorf("variable %q: unknown dimension %q", name, v.Dim)
		}
	}
	vars := c.GetVarTable()
	for _, name := range c.GetVars() {
		if _, err := vars.Lookup(name); err != nil {
			return err
		}
	}
	if r := c.Reference; r != nil {
		for name, p := range map[string]*float64{
			"length":       r.Length,
			"temp_delta":   r.TempDelta,
			"diffusivity":  r.Diffusivity,
			"viscosity":    r.Viscosity,
			"conductivity": r.Conductivity,
		} {
			if p != nil && *p <= 0 {
				return fmt.Errorf("reference %s must be positive, got %g", name, *p)
			}
		}
	}
	return nil
}

// GetProfileFile returns the profile_file value, or "" when discovery from
// the output stem should be used.
func (c *RprofConfig) GetProfileFile() string {
	if c.ProfileFile == nil {
		return ""
	}
	return *c.ProfileFile
}

// GetStem returns the output_file_stem value or the default.
func (c *RprofConfig) GetStem() string {
	if c.Stem == nil || *c.Stem == "" {
		return "test"
	}
	return *c.Stem
}

// GetMarker returns the marker sentinel or the default.
func (c *RprofConfig) GetMarker() byte {
	if c.Marker == nil || *c.Marker == "" {
		return rprof.DefaultMarker
	}
	return (*c.Marker)[0]
}

// GetGeometry returns the geometry value or the default.
func (c *RprofConfig) GetGeometry() string {
	if c.Geometry == nil {
		return Spherical
	}
	return *c.Geometry
}

// GetBounds returns the radial extent. Cartesian domains start at 0 and
// the surface defaults to one thickness above the inner boundary.
func (c *RprofConfig) GetBounds() rprof.Bounds {
	var b rprof.Bounds
	switch {
	case c.GetGeometry() == Cartesian:
		b.RCMB = 0
	case c.RCMB != nil:
		b.RCMB = *c.RCMB
	default:
		b.RCMB = 1.19
	}
	if c.RSurface != nil {
		b.RSurface = *c.RSurface
	} else {
		b.RSurface = b.RCMB + 1
	}
	return b
}

// GetVars returns the variables to extract, with their min/max companions
// when min_max is set.
func (c *RprofConfig) GetVars() []string {
	vars := c.Vars
	if len(vars) == 0 {
		vars = []string{"Tmean", "vzabs", "cmean", "advtot"}
	}
	if !c.GetMinMax() {
		return vars
	}
	out := make([]string, 0, 3*len(vars))
	for _, v := range vars {
		out = append(out, v)
		if mm, ok := minMaxCompanions[v]; ok {
			out = append(out, mm[0], mm[1])
		}
	}
	return out
}

// GetMinMax returns the min_max value or the default.
func (c *RprofConfig) GetMinMax() bool { return getBool(c.MinMax, false) }

// GetTimesteps returns the timesteps value or the default (latest step).
func (c *RprofConfig) GetTimesteps() string {
	if c.Timesteps == nil {
		return "-1"
	}
	return *c.Timesteps
}

// GetDepth returns the depth value or the default.
func (c *RprofConfig) GetDepth() bool { return getBool(c.Depth, false) }

// GetAverage returns the average value or the default.
func (c *RprofConfig) GetAverage() bool { return getBool(c.Average, false) }

// GetGrid returns the grid value or the default.
func (c *RprofConfig) GetGrid() bool { return getBool(c.Grid, false) }

// GetEnergy returns the energy value or the default.
func (c *RprofConfig) GetEnergy() bool { return getBool(c.Energy, false) }

// GetIntegrated returns the integrated value or the default.
func (c *RprofConfig) GetIntegrated() bool { return getBool(c.Integrated, false) }

// GetDimensional returns the dimensional value or the default.
func (c *RprofConfig) GetDimensional() bool { return getBool(c.Dimensional, false) }

// GetDatabase returns the sqlite path, or "" when exports are not recorded.
func (c *RprofConfig) GetDatabase() string {
	if c.Database == nil {
		return ""
	}
	return *c.Database
}

// GetReference returns the physical scales, defaulting each unset one.
func (c *RprofConfig) GetReference() units.Reference {
	ref := units.DefaultReference()
	r := c.Reference
	if r == nil {
		return ref
	}
	setFloat(&ref.Length, r.Length)
	setFloat(&ref.TempDelta, r.TempDelta)
	setFloat(&ref.TempSurface, r.TempSurface)
	setFloat(&ref.Diffusivity, r.Diffusivity)
	setFloat(&ref.Viscosity, r.Viscosity)
	setFloat(&ref.Conductivity, r.Conductivity)
	return ref
}

// GetScaler returns the unit scaler implied by dimensional and reference.
func (c *RprofConfig) GetScaler() units.Scaler {
	return units.Scaler{Ref: c.GetReference(), Dimensional: c.GetDimensional()}
}

// GetVarTable returns the default variable table with the overrides
// applied.
func (c *RprofConfig) GetVarTable() rprof.VarTable {
	t := rprof.DefaultVars()
	for name, v := range c.Variables {
		m := t[name]
		m.Name = name
		m.Column = v.Column
		if v.Description != "" {
			m.Description = v.Description
		}
		if v.Kind != "" {
			m.Kind = v.Kind
		}
		if v.Dim != "" {
			m.Dim = v.Dim
		}
		t[name] = m
	}
	return t
}

func getBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func setFloat(dst *float64, p *float64) {
	if p != nil {
		*dst = *p
	}
}

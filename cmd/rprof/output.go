package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/rprof/internal/config"
	"github.com/banshee-data/rprof/internal/monitoring"
	"github.com/banshee-data/rprof/internal/rprof"
	"github.com/banshee-data/rprof/internal/store"
	"github.com/banshee-data/rprof/internal/timeutil"
)

var errNoSteps = errors.New("no steps selected")

type column struct {
	name   string
	unit   string
	values []float64
}

func (c column) header() string {
	if c.unit == "" {
		return c.name
	}
	return c.name + "[" + c.unit + "]"
}

// writer renders profiles of one Data value as tab-separated blocks.
type writer struct {
	out  io.Writer
	cfg  *config.RprofConfig
	data *rprof.Data
	rec  *recorder
}

// selection walks the filters once to find the step bounds of the output.
func (w *writer) selection(filters []rprof.StepFilter) (first, last rprof.StepHandle, err error) {
	n := 0
	for h := range w.data.Walk(filters...) {
		if n == 0 {
			first = h
		}
		last = h
		n++
	}
	if n == 0 {
		return first, last, errNoSteps
	}
	return first, last, nil
}

func (w *writer) everyStep(path string, names []string, filters []rprof.StepFilter) error {
	first, last, err := w.selection(filters)
	if err != nil {
		return err
	}
	if err := w.rec.begin(path, store.ModeSteps, w.data.Index(), first.Step(), last.Step()); err != nil {
		return err
	}

	acc := w.data.Accessor()
	for h := range w.data.Walk(filters...) {
		ps, err := acc.ExtractAll(names, h.Slice)
		if err != nil {
			return err
		}
		t, unit := w.cfg.GetScaler().Scale(h.Time(), "s")
		fmt.Fprintf(w.out, "# step %d time %.6e%s\n", h.Step(), t, bracket(unit))
		if err := w.table(names, ps); err != nil {
			return err
		}
		for _, n := range names {
			if err := w.rec.profile(ps[n], false); err != nil {
				return err
			}
		}
		if err := w.extras(h); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) averaged(path string, names []string, filters []rprof.StepFilter) error {
	first, last, err := w.selection(filters)
	if err != nil {
		return err
	}
	avgs, _, _, ok, err := w.data.AverageAll(names, filters...)
	if err != nil {
		return err
	}
	if !ok {
		return errNoSteps
	}
	if err := w.rec.begin(path, store.ModeAverage, w.data.Index(), first.Step(), last.Step()); err != nil {
		return err
	}

	fmt.Fprintf(w.out, "# average steps %d_%d\n", first.Step(), last.Step())
	if err := w.table(names, avgs); err != nil {
		return err
	}
	for _, n := range names {
		if err := w.rec.profile(avgs[n], true); err != nil {
			return err
		}
	}
	return w.extras(last)
}

// table writes the radius (or depth) column followed by one column per
// variable.
func (w *writer) table(names []string, ps map[string]rprof.Profile) error {
	if len(names) == 0 {
		return nil
	}
	acc := w.data.Accessor()
	surface := acc.ScaledBounds().RSurface
	ref := ps[names[0]]

	var cols []column
	if w.cfg.GetDepth() {
		cols = append(cols, column{"depth", ref.RadiusUnit, ref.Depth(surface)})
	} else {
		cols = append(cols, column{"r", ref.RadiusUnit, ref.Radii})
	}

	integrate := w.cfg.GetIntegrated() && w.cfg.GetGeometry() == config.Spherical
	for _, n := range names {
		p := ps[n]
		if p.Len() != ref.Len() {
			return &rprof.ShapeMismatchError{Variable: n, Step: p.Step, Want: ref.Len(), Got: p.Len()}
		}
		v := p.Values
		if integrate {
			v = p.Integrated(surface)
		}
		cols = append(cols, column{n, p.Unit, v})
	}
	return writeTable(w.out, cols)
}

// extras writes the grid and energy blocks of h when enabled.
func (w *writer) extras(h rprof.StepHandle) error {
	acc := w.data.Accessor()
	if w.cfg.GetGrid() {
		g := acc.Grid(h.Slice)
		fmt.Fprintf(w.out, "# grid step %d\n", h.Step())
		if err := writeTable(w.out, []column{{"r", g.Unit, g.Radii}, {"dr", g.Unit, g.Spacing}}); err != nil {
			return err
		}
	}
	if w.cfg.GetEnergy() {
		e, err := acc.Energy(h.Slice)
		if err != nil {
			return err
		}
		fmt.Fprintf(w.out, "# energy step %d\n", h.Step())
		cols := []column{
			{"r_edge", e.Total.RadiusUnit, e.Total.Radii},
			{e.Total.Meta.Name, e.Total.Unit, e.Total.Values},
			{e.Advective.Meta.Name, e.Advective.Unit, e.Advective.Values},
			{e.Conductive.Meta.Name, e.Conductive.Unit, e.Conductive.Values},
		}
		if err := writeTable(w.out, cols); err != nil {
			return err
		}
	}
	return nil
}

// writeTable writes a tab-separated header and one record per row. Shorter
// columns leave their trailing fields empty.
func writeTable(out io.Writer, cols []column) error {
	w := csv.NewWriter(out)
	w.Comma = '\t'

	rows := 0
	record := make([]string, len(cols))
	for i, c := range cols {
		record[i] = c.header()
		rows = max(rows, len(c.values))
	}
	if err := w.Write(record); err != nil {
		return err
	}
	for r := 0; r < rows; r++ {
		for i, c := range cols {
			record[i] = ""
			if r < len(c.values) {
				record[i] = strconv.FormatFloat(c.values[r], 'e', 6, 64)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func bracket(unit string) string {
	if unit == "" {
		return ""
	}
	return " [" + unit + "]"
}

// recorder writes exports to the store. A nil recorder does nothing.
type recorder struct {
	s      *store.Store
	export store.Export
}

func newRecorder(path string, clock timeutil.Clock) (*recorder, error) {
	s, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export database: %w", err)
	}
	s.SetClock(clock)
	return &recorder{s: s}, nil
}

func (r *recorder) begin(source, mode string, idx *rprof.Index, first, last int) error {
	if r == nil {
		return nil
	}
	e, err := r.s.RecordExport(source, mode, idx, first, last)
	if err != nil {
		return err
	}
	r.export = e
	monitoring.Logf("rprof: recording export %s (%s, steps %d..%d)", e.ID, mode, first, last)
	return nil
}

func (r *recorder) profile(p rprof.Profile, averaged bool) error {
	if r == nil {
		return nil
	}
	return r.s.RecordProfile(r.export.ID, p, averaged)
}

func (r *recorder) close() error {
	if r == nil {
		return nil
	}
	if err := r.s.Close(); err != nil {
		return fmt.Errorf("failed to close export database: %w", err)
	}
	return nil
}

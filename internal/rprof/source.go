package rprof

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path"

	"github.com/banshee-data/rprof/internal/fsutil"
	"github.com/banshee-data/rprof/internal/monitoring"
)

// Options configures a Data value.
type Options struct {
	Parse ParseOptions
	// Vars is the variable table. Nil means DefaultVars.
	Vars VarTable
	// Bounds is the radial extent. When RSurface does not exceed RCMB the
	// outer boundary defaults to RCMB + 1, the nondimensional thickness.
	Bounds Bounds
	// Scale converts values into display units. Nil means Identity.
	Scale ScaleFunc
}

// Data is a parsed and indexed profile file. It is immutable and safe for
// concurrent queries.
type Data struct {
	records  *Records
	index    *Index
	vars     VarTable
	accessor *Accessor
}

// New indexes parsed records and validates the variable table against
// their column count.
func New(rec *Records, opts Options) (*Data, error) {
	vars := opts.Vars
	if vars == nil {
		vars = DefaultVars()
	}
	if err := vars.Validate(rec.Rows.NumCols()); err != nil {
		return nil, err
	}
	idx, err := NewIndex(rec.Markers, rec.Rows.Len(), rec.Trailing())
	if err != nil {
		return nil, err
	}

	bounds := opts.Bounds
	if bounds.RSurface <= bounds.RCMB {
		bounds.RSurface = bounds.RCMB + 1
	}

	d := &Data{
		records:  rec,
		index:    idx,
		vars:     vars,
		accessor: NewAccessor(rec.Rows, vars, bounds, opts.Scale),
	}
	for _, run := range idx.Runs() {
		if run.Cells == 0 {
			monitoring.Logf("rprof: %d step(s) from ordinal %d carry no cells", run.Length, run.Start)
		}
	}
	return d, nil
}

// Open parses and indexes a profile stream.
func Open(r io.Reader, opts Options) (*Data, error) {
	rec, err := Parse(r, opts.Parse)
	if err != nil {
		return nil, err
	}
	return New(rec, opts)
}

// OpenFile reads the profile file at name from fsys. Names ending in .gz
// are decompressed on the fly. The file is closed before OpenFile returns.
func OpenFile(fsys fsutil.FileSystem, name string, opts Options) (*Data, error) {
	f, err := fsutil.OpenReader(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile file: %w", err)
	}
	defer f.Close()

	d, err := Open(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	monitoring.Logf("rprof: indexed %s: %d steps, %d rows, %d runs",
		name, d.index.NumSteps(), d.records.Rows.Len(), len(d.index.Runs()))
	return d, nil
}

// ProfileFileSuffix is appended to the output stem of a run.
const ProfileFileSuffix = "_rprof.dat"

// ProfileFileCandidates lists where the profile file of a run with the given
// output stem may live, in search order: the parent directory, the working
// directory, then the stem as written.
func ProfileFileCandidates(stem string) []string {
	base := path.Base(stem)
	return []string{
		path.Join("..", base+ProfileFileSuffix),
		base + ProfileFileSuffix,
		stem + ProfileFileSuffix,
	}
}

// FindProfileFile returns the first candidate of stem that exists in fsys.
func FindProfileFile(fsys fsutil.FileSystem, stem string) (string, error) {
	cands := ProfileFileCandidates(stem)
	if p, ok := fsutil.FirstExisting(fsys, cands...); ok {
		return p, nil
	}
	return "", fmt.Errorf("no profile file for stem %q (tried %v): %w", stem, cands, fs.ErrNotExist)
}

// Index returns the marker and run index.
func (d *Data) Index() *Index { return d.index }

// Records returns the parsed markers and rows.
func (d *Data) Records() *Records { return d.records }

// Vars returns the variable table.
func (d *Data) Vars() VarTable { return d.vars }

// Accessor returns the profile accessor.
func (d *Data) Accessor() *Accessor { return d.accessor }

// Bounds returns the radial extent of the domain.
func (d *Data) Bounds() Bounds { return d.accessor.Bounds() }

// Locate resolves a step reference to its row slice.
func (d *Data) Locate(ref StepRef) (Slice, error) { return d.index.Locate(ref) }

// Walk iterates over the steps accepted by filters.
func (d *Data) Walk(filters ...StepFilter) iter.Seq[StepHandle] {
	return d.index.Walk(filters...)
}

// Profile locates ref and extracts variable name from it.
func (d *Data) Profile(name string, ref StepRef) (Profile, error) {
	s, err := d.Locate(ref)
	if err != nil {
		return Profile{}, err
	}
	return d.accessor.Extract(name, s)
}

// Profiles yields the profile of name for every step of the walk. An
// extraction error is yielded once with a zero Profile and ends the
// sequence.
func (d *Data) Profiles(name string, filters ...StepFilter) iter.Seq2[Profile, error] {
	return func(yield func(Profile, error) bool) {
		for h := range d.Walk(filters...) {
			p, err := d.accessor.Extract(name, h.Slice)
			if err != nil {
				yield(Profile{}, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

// AverageAll averages every named variable over the steps of the walk.
// It returns the averages together with the first and last step numbers
// that contributed; ok is false when the walk is empty.
func (d *Data) AverageAll(names []string, filters ...StepFilter) (profs map[string]Profile, first, last int, ok bool, err error) {
	set := NewAverageSet(names...)
	n := 0
	for h := range d.Walk(filters...) {
		ps, err := d.accessor.ExtractAll(set.Names(), h.Slice)
		if err != nil {
			return nil, 0, 0, false, err
		}
		for _, name := range set.Names() {
			if err := set.Add(ps[name]); err != nil {
				return nil, 0, 0, false, err
			}
		}
		if n == 0 {
			first = h.Step()
		}
		last = h.Step()
		n++
	}
	if n == 0 {
		return nil, 0, 0, false, nil
	}
	return set.Profiles(), first, last, true, nil
}

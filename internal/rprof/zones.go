package rprof

import "fmt"

// Run is a maximal span of consecutive steps that share a cell count.
type Run struct {
	Start  int // ordinal of the first step of the run
	Length int // number of steps in the run
	Cells  int // cells per step
}

// End returns the ordinal one past the last step of the run.
func (r Run) End() int { return r.Start + r.Length }

// Rows returns the number of data rows covered by the run.
func (r Run) Rows() int { return r.Length * r.Cells }

// CellCounts derives the number of cells of every step from the marker gaps.
// trailing is the number of data rows after the last marker.
func CellCounts(markers []Marker, trailing int) ([]int, error) {
	if len(markers) == 0 {
		return nil, nil
	}
	counts := make([]int, len(markers))
	for i := 0; i < len(markers)-1; i++ {
		if markers[i+1].RowIndex <= markers[i].RowIndex {
			return nil, &IndexError{Reason: fmt.Sprintf(
				"marker %d at row %d does not follow marker %d at row %d",
				i+1, markers[i+1].RowIndex, i, markers[i].RowIndex)}
		}
		if markers[i+1].Step <= markers[i].Step {
			return nil, &IndexError{Reason: fmt.Sprintf(
				"step %d at row %d does not follow step %d",
				markers[i+1].Step, markers[i+1].RowIndex, markers[i].Step)}
		}
		counts[i] = markers[i+1].RowIndex - markers[i].RowIndex - 1
	}
	if trailing < 0 {
		return nil, &IndexError{Reason: fmt.Sprintf("negative trailing row count %d", trailing)}
	}
	counts[len(counts)-1] = trailing
	return counts, nil
}

// BuildRuns coalesces the per-step cell counts into runs. A new run starts
// whenever the cell count changes from the previous step.
func BuildRuns(markers []Marker, trailing int) ([]Run, error) {
	counts, err := CellCounts(markers, trailing)
	if err != nil {
		return nil, err
	}
	var runs []Run
	for i, n := range counts {
		if len(runs) > 0 && runs[len(runs)-1].Cells == n {
			runs[len(runs)-1].Length++
			continue
		}
		runs = append(runs, Run{Start: i, Length: 1, Cells: n})
	}
	return runs, nil
}

// Index is the build-once lookup structure over markers and runs.
type Index struct {
	markers []Marker
	runs    []Run
	// offsets[i] is the first data row of runs[i]; offsets[len(runs)] is
	// the total row count.
	offsets []int
}

// NewIndex builds the run table for markers over a row table of nrows data
// rows, where trailing rows follow the last marker.
func NewIndex(markers []Marker, nrows, trailing int) (*Index, error) {
	switch {
	case len(markers) == 0 && nrows > 0:
		return nil, &IndexError{Reason: fmt.Sprintf("%d data rows but no step markers", nrows)}
	case len(markers) > 0 && nrows == 0:
		return nil, &IndexError{Reason: fmt.Sprintf("%d step markers but no data rows", len(markers))}
	case len(markers) > 0 && markers[0].RowIndex != 0:
		return nil, &IndexError{Reason: fmt.Sprintf("%d data rows precede the first marker", markers[0].RowIndex)}
	}

	runs, err := BuildRuns(markers, trailing)
	if err != nil {
		return nil, err
	}

	offsets := make([]int, len(runs)+1)
	for i, r := range runs {
		offsets[i+1] = offsets[i] + r.Rows()
	}
	if offsets[len(runs)] != nrows {
		return nil, &IndexError{Reason: fmt.Sprintf(
			"runs cover %d rows, row table holds %d", offsets[len(runs)], nrows)}
	}

	return &Index{markers: markers, runs: runs, offsets: offsets}, nil
}

// NumSteps returns the number of markers.
func (x *Index) NumSteps() int { return len(x.markers) }

// Markers returns the marker list. It must not be modified.
func (x *Index) Markers() []Marker { return x.markers }

// Runs returns the run table. It must not be modified.
func (x *Index) Runs() []Run { return x.runs }

package rprof

import (
	"fmt"
	"sort"
)

type refKind int

const (
	refStep refKind = iota
	refOrdinal
	refLatest
	refFirst
)

// StepRef addresses a step either by its step number or by its position
// among the available steps.
type StepRef struct {
	kind refKind
	n    int
}

var (
	// Latest resolves to the most recent step in the file.
	Latest = StepRef{kind: refLatest}
	// First resolves to the first step in the file.
	First = StepRef{kind: refFirst}
)

// Step addresses the step whose marker carries step number n.
func Step(n int) StepRef { return StepRef{kind: refStep, n: n} }

// Ordinal addresses the i-th available step. Negative values count back
// from the end, so Ordinal(-1) is the last step.
func Ordinal(i int) StepRef { return StepRef{kind: refOrdinal, n: i} }

func (r StepRef) String() string {
	switch r.kind {
	case refOrdinal:
		return fmt.Sprintf("step ordinal %d", r.n)
	case refLatest:
		return "latest step"
	case refFirst:
		return "first step"
	default:
		return fmt.Sprintf("step %d", r.n)
	}
}

// Slice is the row range of one step.
type Slice struct {
	Ordinal int    // position of the step among all markers
	Marker  Marker // header of the step
	Run     int    // index of the run holding the step
	Start   int    // first data row
	End     int    // one past the last data row
	Cells   int    // End - Start
}

// Len returns the number of cells in the slice.
func (s Slice) Len() int { return s.End - s.Start }

// Span returns the logical line range of the step's data lines, which
// directly follow its marker.
func (s Slice) Span() (start, end int) {
	return s.Marker.RowIndex + 1, s.Marker.RowIndex + 1 + s.Cells
}

// Locate resolves ref to the exact data-row slice of the step in O(log R)
// for the run lookup plus O(log N) for step numbers.
func (x *Index) Locate(ref StepRef) (Slice, error) {
	ord, err := x.ordinal(ref)
	if err != nil {
		return Slice{}, err
	}
	return x.sliceAt(ord), nil
}

func (x *Index) ordinal(ref StepRef) (int, error) {
	n := len(x.markers)
	switch ref.kind {
	case refLatest, refFirst:
		if n == 0 {
			return 0, &IndexError{Reason: fmt.Sprintf("cannot resolve %s: no steps", ref)}
		}
		if ref.kind == refFirst {
			return 0, nil
		}
		return n - 1, nil
	case refOrdinal:
		i := ref.n
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return 0, &StepNotFoundError{Ref: ref}
		}
		return i, nil
	default:
		i := sort.Search(n, func(i int) bool { return x.markers[i].Step >= ref.n })
		if i == n || x.markers[i].Step != ref.n {
			return 0, &StepNotFoundError{Ref: ref}
		}
		return i, nil
	}
}

// sliceAt computes the slice of a valid ordinal from the run table alone.
func (x *Index) sliceAt(ord int) Slice {
	r := sort.Search(len(x.runs), func(i int) bool { return x.runs[i].End() > ord })
	run := x.runs[r]
	start := x.offsets[r] + (ord-run.Start)*run.Cells
	return Slice{
		Ordinal: ord,
		Marker:  x.markers[ord],
		Run:     r,
		Start:   start,
		End:     start + run.Cells,
		Cells:   run.Cells,
	}
}

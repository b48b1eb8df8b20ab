// Package testutil provides shared test utilities and fixtures.
//
// ProfileFile builds profile file text whose cell values can be recomputed
// with Value, so tests can check extraction without hand-written tables.
package testutil

import (
	"fmt"
	"strings"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertFloats fails the test when got and want differ in length or any
// element differs by more than tol.
func AssertFloats(t testing.TB, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (got %v)", len(got), len(want), got)
		return
	}
	for i := range got {
		d := got[i] - want[i]
		if d < -tol || d > tol {
			t.Errorf("[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

// ProfileFile accumulates the text of a synthetic profile file.
type ProfileFile struct {
	ncols int
	sb    strings.Builder
}

// NewProfileFile starts a file whose data lines carry ncols columns.
func NewProfileFile(ncols int) *ProfileFile {
	return &ProfileFile{ncols: ncols}
}

// Marker formats a step header line. The step number is the second token
// and the time the sixth, as in the files written by the solver.
func Marker(step int, time float64) string {
	return fmt.Sprintf("*********** %d steps, time = %.6E", step, time)
}

// Value is the content of column col of cell i in a step with the given
// number of cells. Column 0 is the cell centre in [0, 1).
func Value(step, cells, i, col int) float64 {
	if col == 0 {
		return (float64(i) + 0.5) / float64(cells)
	}
	return float64(step) + float64(col)*0.01 + float64(i)*0.0001
}

// Step appends a marker followed by cells data lines.
func (p *ProfileFile) Step(step int, time float64, cells int) *ProfileFile {
	p.sb.WriteString(Marker(step, time))
	p.sb.WriteByte('\n')
	for i := 0; i < cells; i++ {
		for col := 0; col < p.ncols; col++ {
			if col > 0 {
				p.sb.WriteString("  ")
			}
			fmt.Fprintf(&p.sb, "%.8E", Value(step, cells, i, col))
		}
		p.sb.WriteByte('\n')
	}
	return p
}

// Steps appends one step per number, all with the same cell count. Times
// are step/1000.
func (p *ProfileFile) Steps(cells int, steps ...int) *ProfileFile {
	for _, s := range steps {
		p.Step(s, float64(s)/1000, cells)
	}
	return p
}

// Blank appends an empty line.
func (p *ProfileFile) Blank() *ProfileFile {
	p.sb.WriteByte('\n')
	return p
}

// Line appends a raw line.
func (p *ProfileFile) Line(s string) *ProfileFile {
	p.sb.WriteString(s)
	p.sb.WriteByte('\n')
	return p
}

// String returns the file text.
func (p *ProfileFile) String() string { return p.sb.String() }

// Reader returns the file text as a reader.
func (p *ProfileFile) Reader() *strings.Reader { return strings.NewReader(p.String()) }

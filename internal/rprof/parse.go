package rprof

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultMarker is the first character of a step header line.
const DefaultMarker = '*'

// Token positions inside a marker line once whitespace is collapsed.
const (
	markerStepField = 1
	markerTimeField = 5
)

// maxLineBytes bounds a single line; profile files carry under a hundred
// columns so this is generous.
const maxLineBytes = 1 << 20

// ParseOptions controls how lines are classified.
type ParseOptions struct {
	// Marker is the sentinel that starts a header line. Zero means DefaultMarker.
	Marker byte
}

func (o ParseOptions) marker() byte {
	if o.Marker == 0 {
		return DefaultMarker
	}
	return o.Marker
}

// Marker is the header of one saved step.
type Marker struct {
	RowIndex int     // zero-based logical line of the header, blank lines skipped
	Step     int     // step number
	Time     float64 // simulated time
}

// Rows is the row table: every data line of the file in order, stored
// row-major in a single backing slice.
type Rows struct {
	ncols int
	data  []float64
}

// Len returns the number of data rows.
func (r *Rows) Len() int {
	if r == nil || r.ncols == 0 {
		return 0
	}
	return len(r.data) / r.ncols
}

// NumCols returns the column count shared by every row.
func (r *Rows) NumCols() int {
	if r == nil {
		return 0
	}
	return r.ncols
}

// Row returns row i. The returned slice aliases the table and must not be
// modified.
func (r *Rows) Row(i int) []float64 {
	off := i * r.ncols
	return r.data[off : off+r.ncols : off+r.ncols]
}

// Column copies column col of rows [start, end) into a new slice.
func (r *Rows) Column(col, start, end int) []float64 {
	out := make([]float64, end-start)
	for i := range out {
		out[i] = r.data[(start+i)*r.ncols+col]
	}
	return out
}

// Records is the parser output: markers and rows in file order.
type Records struct {
	Markers []Marker
	Rows    *Rows
	// Lines is the number of logical (non-blank) lines, markers included.
	Lines int
}

// Trailing returns the number of data rows after the last marker.
func (rec *Records) Trailing() int {
	if len(rec.Markers) == 0 {
		return rec.Rows.Len()
	}
	return rec.Lines - 1 - rec.Markers[len(rec.Markers)-1].RowIndex
}

// Parse reads a profile stream. Marker lines yield a Marker, all other
// non-blank lines a row whose column count must match the first row.
func Parse(r io.Reader, opts ParseOptions) (*Records, error) {
	sentinel := opts.marker()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	rec := &Records{Rows: &Rows{}}
	physical := 0
	logical := -1
	for sc.Scan() {
		physical++
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		logical++

		if fields[0][0] == sentinel {
			m, err := parseMarker(fields)
			if err != nil {
				return nil, &ParseError{Line: physical, Content: line, Reason: err.Error()}
			}
			m.RowIndex = logical
			rec.Markers = append(rec.Markers, m)
			continue
		}

		if rec.Rows.ncols == 0 {
			rec.Rows.ncols = len(fields)
		} else if len(fields) != rec.Rows.ncols {
			return nil, &ParseError{
				Line:    physical,
				Content: line,
				Reason:  fmt.Sprintf("expected %d columns, got %d", rec.Rows.ncols, len(fields)),
			}
		}
		for i, tok := range fields {
			v, err := parseFloat(tok)
			if err != nil {
				return nil, &ParseError{
					Line:    physical,
					Content: line,
					Reason:  fmt.Sprintf("column %d: invalid number %q", i, tok),
				}
			}
			rec.Rows.data = append(rec.Rows.data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profile stream after line %d: %w", physical, err)
	}
	rec.Lines = logical + 1
	return rec, nil
}

func parseMarker(fields []string) (Marker, error) {
	if len(fields) <= markerTimeField {
		return Marker{}, fmt.Errorf("marker has %d tokens, need at least %d", len(fields), markerTimeField+1)
	}
	step, err := strconv.Atoi(fields[markerStepField])
	if err != nil {
		return Marker{}, fmt.Errorf("invalid step number %q", fields[markerStepField])
	}
	t, err := parseFloat(fields[markerTimeField])
	if err != nil {
		return Marker{}, fmt.Errorf("invalid time %q", fields[markerTimeField])
	}
	return Marker{Step: step, Time: t}, nil
}

// parseFloat accepts Go float syntax plus the two Fortran spellings found in
// profile files: a D exponent (1.5D+02) and a bare signed exponent used when
// the exponent needs three digits (1.5-102).
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, nil
	}
	t := strings.NewReplacer("D", "E", "d", "E").Replace(s)
	if !strings.ContainsAny(t, "eE") {
		if i := strings.LastIndexAny(t, "+-"); i > 0 {
			t = t[:i] + "E" + t[i:]
		}
	}
	return strconv.ParseFloat(t, 64)
}

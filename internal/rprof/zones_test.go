package rprof

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rprof/internal/testutil"
)

func TestNewIndex_UniformRun(t *testing.T) {
	// Three steps of ten cells each: markers at logical rows 0, 11 and 22.
	markers := markersAt([]int{0, 11, 22}, []int{0, 1, 2})
	idx, err := NewIndex(markers, 30, 10)
	require.NoError(t, err)

	if diff := cmp.Diff([]Run{{Start: 0, Length: 3, Cells: 10}}, idx.Runs()); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	s, err := idx.Locate(Step(1))
	require.NoError(t, err)
	assert.Equal(t, 10, s.Start)
	assert.Equal(t, 20, s.End)
	assert.Equal(t, 10, s.Cells)
	start, end := s.Span()
	assert.Equal(t, 12, start)
	assert.Equal(t, 22, end)
}

func TestNewIndex_RestartChangesCells(t *testing.T) {
	// The second step carries eleven cells, and so does the third.
	markers := markersAt([]int{0, 11, 23}, []int{0, 1, 2})
	idx, err := NewIndex(markers, 32, 11)
	require.NoError(t, err)

	want := []Run{
		{Start: 0, Length: 1, Cells: 10},
		{Start: 1, Length: 2, Cells: 11},
	}
	if diff := cmp.Diff(want, idx.Runs()); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	s, err := idx.Locate(Step(2))
	require.NoError(t, err)
	assert.Equal(t, Slice{
		Ordinal: 2,
		Marker:  markers[2],
		Run:     1,
		Start:   21,
		End:     32,
		Cells:   11,
	}, s)
	start, end := s.Span()
	assert.Equal(t, 24, start)
	assert.Equal(t, 35, end)
}

func TestNewIndex_SingleStep(t *testing.T) {
	idx, err := NewIndex(markersAt([]int{0}, []int{5}), 7, 7)
	require.NoError(t, err)
	assert.Equal(t, []Run{{Start: 0, Length: 1, Cells: 7}}, idx.Runs())
	assert.Equal(t, 1, idx.NumSteps())
}

func TestNewIndex_Empty(t *testing.T) {
	idx, err := NewIndex(nil, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, idx.NumSteps())
	assert.Empty(t, idx.Runs())
}

// TestLocate_MatchesMarkerGaps checks every step of a file with several
// restarts against the rows that physically follow its marker.
func TestLocate_MatchesMarkerGaps(t *testing.T) {
	cells := []int{3, 3, 5, 5, 5, 0, 2, 2, 4}
	pf := testutil.NewProfileFile(3)
	for i, n := range cells {
		pf.Step(10*(i+1), float64(i), n)
		if i%2 == 1 {
			pf.Blank()
		}
	}
	d := mustOpen(t, pf.String(), Options{})
	idx := d.Index()
	rows := d.Records().Rows

	require.Equal(t, len(cells), idx.NumSteps())
	for ord, n := range cells {
		s, err := idx.Locate(Ordinal(ord))
		require.NoError(t, err)
		assert.Equal(t, n, s.Len(), "ordinal %d", ord)
		assert.Equal(t, n, s.Cells)

		// ground truth: the gap between this marker and the next
		m := idx.Markers()
		gap := d.Records().Trailing()
		if ord+1 < len(m) {
			gap = m[ord+1].RowIndex - m[ord].RowIndex - 1
		}
		assert.Equal(t, gap, s.Len(), "ordinal %d", ord)

		step := 10 * (ord + 1)
		for i := 0; i < s.Len(); i++ {
			row := rows.Row(s.Start + i)
			for col := range row {
				assert.InDelta(t, testutil.Value(step, n, i, col), row[col], 1e-9,
					"step %d cell %d col %d", step, i, col)
			}
		}
	}
}

func TestBuildRuns_Partition(t *testing.T) {
	cells := []int{4, 4, 4, 6, 0, 0, 6, 6, 1}
	var markers []Marker
	row := 0
	for i, n := range cells[:len(cells)-1] {
		markers = append(markers, Marker{RowIndex: row, Step: i})
		row += n + 1
	}
	markers = append(markers, Marker{RowIndex: row, Step: len(cells) - 1})

	runs, err := BuildRuns(markers, cells[len(cells)-1])
	require.NoError(t, err)

	want := []Run{
		{Start: 0, Length: 3, Cells: 4},
		{Start: 3, Length: 1, Cells: 6},
		{Start: 4, Length: 2, Cells: 0},
		{Start: 6, Length: 2, Cells: 6},
		{Start: 8, Length: 1, Cells: 1},
	}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Fatalf("runs mismatch (-want +got):\n%s", diff)
	}

	next := 0
	for i, r := range runs {
		assert.Equal(t, next, r.Start, "runs must tile the step axis")
		assert.Positive(t, r.Length)
		if i > 0 {
			assert.NotEqual(t, runs[i-1].Cells, r.Cells, "adjacent runs must differ")
		}
		next = r.End()
	}
	assert.Equal(t, len(cells), next)
}

func TestNewIndex_ZeroCellStep(t *testing.T) {
	text := testutil.NewProfileFile(3).Steps(2, 1).Steps(0, 2).Steps(2, 3).String()
	d := mustOpen(t, text, Options{})

	s, err := d.Locate(Step(2))
	require.NoError(t, err)
	assert.Zero(t, s.Len())

	p, err := d.Accessor().Extract("Tmean", s)
	require.NoError(t, err)
	assert.Empty(t, p.Values)
	assert.Empty(t, p.Radii)

	s3, err := d.Locate(Step(3))
	require.NoError(t, err)
	assert.Equal(t, 2, s3.Start)
	assert.Equal(t, 4, s3.End)
}

func TestNewIndex_Errors(t *testing.T) {
	tests := []struct {
		name     string
		markers  []Marker
		nrows    int
		trailing int
	}{
		{"rows without markers", nil, 4, 4},
		{"markers without rows", markersAt([]int{0, 1}, []int{1, 2}), 0, 0},
		{"rows before first marker", markersAt([]int{2}, []int{1}), 3, 1},
		{"row indices not increasing", markersAt([]int{0, 5, 5}, []int{1, 2, 3}), 8, 4},
		{"step numbers not increasing", markersAt([]int{0, 3, 6}, []int{1, 3, 2}), 6, 2},
		{"negative trailing rows", markersAt([]int{0, 3}, []int{1, 2}), 2, -1},
		{"row count disagrees", markersAt([]int{0, 3}, []int{1, 2}), 9, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndex(tt.markers, tt.nrows, tt.trailing)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIndex), "want ErrIndex, got %v", err)
			var ie *IndexError
			assert.True(t, errors.As(err, &ie))
		})
	}
}

func TestOpen_RowsBeforeFirstMarker(t *testing.T) {
	text := "0.5 1 2\n" + testutil.NewProfileFile(3).Steps(1, 1).String()
	_, err := Open(strings.NewReader(text), Options{Vars: testVars()})
	assert.ErrorIs(t, err, ErrIndex)
}

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rprof/internal/rprof"
	"github.com/banshee-data/rprof/internal/testutil"
	"github.com/banshee-data/rprof/internal/timeutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "exports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testData(t *testing.T) *rprof.Data {
	t.Helper()
	text := testutil.NewProfileFile(3).Steps(4, 10, 20).Steps(2, 30).String()
	vars := rprof.VarTable{
		"r":     {Column: 0, Dim: "m"},
		"Tmean": {Column: 1, Dim: "K"},
	}
	d, err := rprof.Open(strings.NewReader(text), rprof.Options{Vars: vars})
	require.NoError(t, err)
	return d
}

func TestPragmasApplied(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, s.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var synchronous int
	require.NoError(t, s.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 1, synchronous, "synchronous should be NORMAL")

	var tempStore int
	require.NoError(t, s.QueryRow("PRAGMA temp_store").Scan(&tempStore))
	assert.Equal(t, 2, tempStore, "temp_store should be MEMORY")
}

func TestMigrations(t *testing.T) {
	s := newTestStore(t)

	latest, err := LatestMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)

	v, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, latest, v)
	assert.False(t, dirty)

	// Running up again is a no-op.
	require.NoError(t, s.MigrateUp())

	require.NoError(t, s.MigrateDown())
	v, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	var n int
	require.NoError(t, s.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='profiles'`).Scan(&n))
	assert.Zero(t, n, "profiles table should be dropped")

	require.NoError(t, s.MigrateUp())
	v, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestOpenWithoutMigrations(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer s.Close()

	v, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)
}

func TestRecordExport(t *testing.T) {
	s := newTestStore(t)
	created := time.Date(2025, 2, 1, 8, 30, 0, 0, time.UTC)
	s.SetClock(timeutil.NewMockClock(created))
	d := testData(t)

	e, err := s.RecordExport("run_rprof.dat", ModeSteps, d.Index(), 10, 30)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, e.ID)

	exports, err := s.Exports()
	require.NoError(t, err)
	require.Len(t, exports, 1)
	if diff := cmp.Diff(e, exports[0]); diff != "" {
		t.Errorf("Exports() mismatch (-want +got):\n%s", diff)
	}

	runs, err := s.Runs(e.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(d.Index().Runs(), runs); diff != "" {
		t.Errorf("Runs() mismatch (-want +got):\n%s", diff)
	}

	steps, err := s.Steps(e.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(d.Index().Markers(), steps); diff != "" {
		t.Errorf("Steps() mismatch (-want +got):\n%s", diff)
	}
}

func TestExportsOrder(t *testing.T) {
	s := newTestStore(t)
	clock := timeutil.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.SetClock(clock)
	d := testData(t)

	first, err := s.RecordExport("a_rprof.dat", ModeSteps, d.Index(), 10, 10)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := s.RecordExport("b_rprof.dat", ModeAverage, d.Index(), 10, 30)
	require.NoError(t, err)

	exports, err := s.Exports()
	require.NoError(t, err)
	require.Len(t, exports, 2)
	assert.Equal(t, second.ID, exports[0].ID)
	assert.Equal(t, first.ID, exports[1].ID)
}

func TestRecordProfile(t *testing.T) {
	s := newTestStore(t)
	d := testData(t)
	e, err := s.RecordExport("run_rprof.dat", ModeSteps, d.Index(), 10, 30)
	require.NoError(t, err)

	p, err := d.Profile("Tmean", rprof.Step(20))
	require.NoError(t, err)
	require.NoError(t, s.RecordProfile(e.ID, p, false))

	got, err := s.Profile(e.ID, 20, "Tmean", false)
	require.NoError(t, err)
	want := StoredProfile{
		ExportID: e.ID,
		Step:     20,
		Variable: "Tmean",
		Radii:    p.Radii,
		Values:   p.Values,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Profile() mismatch (-want +got):\n%s", diff)
	}

	// Recording again replaces the row.
	p.Values[0] = -1
	require.NoError(t, s.RecordProfile(e.ID, p, false))
	got, err = s.Profile(e.ID, 20, "Tmean", false)
	require.NoError(t, err)
	assert.Equal(t, -1.0, got.Values[0])

	_, err = s.Profile(e.ID, 20, "Tmean", true)
	assert.True(t, errors.Is(err, ErrNotFound), "averaged profile was never recorded: %v", err)
}

func TestRecordProfile_NonFinite(t *testing.T) {
	s := newTestStore(t)
	vars := rprof.VarTable{"Tmean": {Column: 1, Dim: "K"}}
	d, err := rprof.Open(strings.NewReader("* 0 a b c 0\n0.1 NaN\n0.2 Inf\n0.3 -Inf\n0.4 1\n"), rprof.Options{Vars: vars})
	require.NoError(t, err)
	e, err := s.RecordExport("diverged_rprof.dat", ModeSteps, d.Index(), 0, 0)
	require.NoError(t, err)

	p, err := d.Profile("Tmean", rprof.Latest)
	require.NoError(t, err)
	require.NoError(t, s.RecordProfile(e.ID, p, false))

	got, err := s.Profile(e.ID, 0, "Tmean", false)
	require.NoError(t, err)
	require.Len(t, got.Values, 4)
	assert.True(t, math.IsNaN(got.Values[0]))
	assert.True(t, math.IsInf(got.Values[1], 1))
	assert.True(t, math.IsInf(got.Values[2], -1))
	assert.Equal(t, 1.0, got.Values[3])
	assert.Equal(t, p.Radii, got.Radii)

	var stored string
	require.NoError(t, s.QueryRow(`SELECT values_json FROM profiles WHERE export_id = ?`, e.ID.String()).Scan(&stored))
	assert.Equal(t, `["NaN","+Inf","-Inf",1]`, stored)
}

func TestFloatArrayJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []float64
		wantErr bool
	}{
		{"numbers", `[1,2.5,-3e-7]`, []float64{1, 2.5, -3e-7}, false},
		{"empty", `[]`, []float64{}, false},
		{"non-finite", `["NaN","+Inf","-Inf"]`, []float64{math.NaN(), math.Inf(1), math.Inf(-1)}, false},
		{"finite string", `["1.5"]`, nil, true},
		{"not an array", `{"a":1}`, nil, true},
		{"bool element", `[true]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a floatArray
			err := json.Unmarshal([]byte(tt.in), &a)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, []float64(a), cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("decode mismatch (-want +got):\n%s", diff)
			}

			out, err := json.Marshal(a)
			require.NoError(t, err)
			var again floatArray
			require.NoError(t, json.Unmarshal(out, &again))
			if diff := cmp.Diff([]float64(a), []float64(again), cmpopts.EquateNaNs()); diff != "" {
				t.Errorf("re-encode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteExport(t *testing.T) {
	s := newTestStore(t)
	d := testData(t)
	e, err := s.RecordExport("run_rprof.dat", ModeSteps, d.Index(), 10, 30)
	require.NoError(t, err)
	p, err := d.Profile("Tmean", rprof.Latest)
	require.NoError(t, err)
	require.NoError(t, s.RecordProfile(e.ID, p, false))

	require.NoError(t, s.DeleteExport(e.ID))

	runs, err := s.Runs(e.ID)
	require.NoError(t, err)
	assert.Empty(t, runs, "runs should cascade")
	_, err = s.Profile(e.ID, p.Step, "Tmean", false)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteExport(e.ID), ErrNotFound)
}

func TestRunMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"status before migrating", []string{"status"}, "Current version: 0 (latest 2)", false},
		{"up", []string{"up"}, "Current version: 2 (latest 2)", false},
		{"down", []string{"down"}, "Current version: 1 (latest 2)", false},
		{"to latest", []string{"to", "2"}, "Current version: 2 (latest 2)", false},
		{"to first", []string{"to", "1"}, "Current version: 1 (latest 2)", false},
		{"to without version", []string{"to"}, "Usage: rprof migrate", true},
		{"to bad version", []string{"to", "two"}, "", true},
		{"help", []string{"help"}, "Usage: rprof migrate", false},
		{"unknown action", []string{"sideways"}, "Usage: rprof migrate", true},
		{"missing action", nil, "Usage: rprof migrate", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := RunMigrateCommand(tt.args, dbPath, &out)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

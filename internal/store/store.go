// Package store records profile exports in a sqlite database so that runs,
// steps and extracted profiles can be queried after the source file is gone.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/rprof/internal/rprof"
	"github.com/banshee-data/rprof/internal/timeutil"
)

// Export modes.
const (
	ModeSteps   = "steps"
	ModeAverage = "average"
)

// ErrNotFound is returned when a queried export or profile does not exist.
var ErrNotFound = errors.New("store: not found")

// pragmas are applied to every pooled connection.
const pragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=temp_store(MEMORY)" +
	"&_pragma=foreign_keys(1)"

// Store is the export database. It embeds the *sql.DB so callers can run
// ad hoc queries against the recorded tables.
type Store struct {
	*sql.DB
	clock timeutil.Clock
}

// Open opens the database at path without touching the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return &Store{DB: db, clock: timeutil.RealClock{}}, nil
}

// New opens the database at path and applies all pending migrations.
func New(path string) (*Store, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// SetClock replaces the clock used to stamp exports.
func (s *Store) SetClock(c timeutil.Clock) { s.clock = c }

// Export is one recorded invocation over a profile file.
type Export struct {
	ID        uuid.UUID
	Source    string
	Mode      string
	FirstStep int
	LastStep  int
	CreatedAt time.Time
}

// StoredProfile is a profile read back from the database.
type StoredProfile struct {
	ExportID   uuid.UUID
	Step       int
	Variable   string
	Averaged   bool
	Unit       string
	RadiusUnit string
	Radii      []float64
	Values     []float64
}

// RecordExport stores the run table and step markers of idx under a new
// export id.
func (s *Store) RecordExport(source, mode string, idx *rprof.Index, firstStep, lastStep int) (Export, error) {
	e := Export{
		ID:        uuid.New(),
		Source:    source,
		Mode:      mode,
		FirstStep: firstStep,
		LastStep:  lastStep,
		CreatedAt: s.clock.Now().UTC(),
	}

	tx, err := s.Begin()
	if err != nil {
		return Export{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO exports (export_id, source, mode, first_step, last_step, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Source, e.Mode, e.FirstStep, e.LastStep, e.CreatedAt.UnixNano(),
	); err != nil {
		return Export{}, fmt.Errorf("failed to insert export: %w", err)
	}

	for i, r := range idx.Runs() {
		if _, err := tx.Exec(
			`INSERT INTO runs (export_id, run_index, start_ordinal, length, cells) VALUES (?, ?, ?, ?, ?)`,
			e.ID.String(), i, r.Start, r.Length, r.Cells,
		); err != nil {
			return Export{}, fmt.Errorf("failed to insert run %d: %w", i, err)
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO steps (export_id, ordinal, step, time, row_index) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Export{}, err
	}
	defer stmt.Close()
	for i, m := range idx.Markers() {
		if _, err := stmt.Exec(e.ID.String(), i, m.Step, m.Time, m.RowIndex); err != nil {
			return Export{}, fmt.Errorf("failed to insert step %d: %w", m.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Export{}, err
	}
	return e, nil
}

// RecordProfile stores one extracted or averaged profile of an export.
func (s *Store) RecordProfile(exportID uuid.UUID, p rprof.Profile, averaged bool) error {
	radii, err := json.Marshal(floatArray(p.Radii))
	if err != nil {
		return err
	}
	values, err := json.Marshal(floatArray(p.Values))
	if err != nil {
		return err
	}
	_, err = s.Exec(
		`INSERT OR REPLACE INTO profiles
			(export_id, step, variable, averaged, unit, radius_unit, radii_json, values_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exportID.String(), p.Step, p.Meta.Name, averaged, p.Unit, p.RadiusUnit, string(radii), string(values),
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile %s at step %d: %w", p.Meta.Name, p.Step, err)
	}
	return nil
}

// Exports lists every export, newest first.
func (s *Store) Exports() ([]Export, error) {
	rows, err := s.Query(
		`SELECT export_id, source, mode, first_step, last_step, created_at
		 FROM exports ORDER BY created_at DESC, export_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Export
	for rows.Next() {
		var (
			e       Export
			id      string
			created int64
		)
		if err := rows.Scan(&id, &e.Source, &e.Mode, &e.FirstStep, &e.LastStep, &created); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt export id %q: %w", id, err)
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs returns the run table recorded with an export.
func (s *Store) Runs(exportID uuid.UUID) ([]rprof.Run, error) {
	rows, err := s.Query(
		`SELECT start_ordinal, length, cells FROM runs WHERE export_id = ? ORDER BY run_index`,
		exportID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rprof.Run
	for rows.Next() {
		var r rprof.Run
		if err := rows.Scan(&r.Start, &r.Length, &r.Cells); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Steps returns the step markers recorded with an export.
func (s *Store) Steps(exportID uuid.UUID) ([]rprof.Marker, error) {
	rows, err := s.Query(
		`SELECT step, time, row_index FROM steps WHERE export_id = ? ORDER BY ordinal`,
		exportID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rprof.Marker
	for rows.Next() {
		var m rprof.Marker
		if err := rows.Scan(&m.Step, &m.Time, &m.RowIndex); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Profile reads back one stored profile. A missing profile yields an error
// wrapping ErrNotFound.
func (s *Store) Profile(exportID uuid.UUID, step int, variable string, averaged bool) (StoredProfile, error) {
	p := StoredProfile{ExportID: exportID, Step: step, Variable: variable, Averaged: averaged}
	var radii, values string
	err := s.QueryRow(
		`SELECT unit, radius_unit, radii_json, values_json FROM profiles
		 WHERE export_id = ? AND step = ? AND variable = ? AND averaged = ?`,
		exportID.String(), step, variable, averaged,
	).Scan(&p.Unit, &p.RadiusUnit, &radii, &values)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredProfile{}, fmt.Errorf("profile %s at step %d of export %s: %w", variable, step, exportID, ErrNotFound)
	}
	if err != nil {
		return StoredProfile{}, err
	}
	if err := json.Unmarshal([]byte(radii), (*floatArray)(&p.Radii)); err != nil {
		return StoredProfile{}, fmt.Errorf("failed to decode radii: %w", err)
	}
	if err := json.Unmarshal([]byte(values), (*floatArray)(&p.Values)); err != nil {
		return StoredProfile{}, fmt.Errorf("failed to decode values: %w", err)
	}
	return p, nil
}

// DeleteExport removes an export and everything recorded with it.
func (s *Store) DeleteExport(exportID uuid.UUID) error {
	res, err := s.Exec(`DELETE FROM exports WHERE export_id = ?`, exportID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("export %s: %w", exportID, ErrNotFound)
	}
	return nil
}

// Package storage persists simulation runs: one directory per run holding
// the statistics record (JSON), the time series (CSV) and periodic field
// snapshots, with a SQLite catalog over all runs for listing.
package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"cacaotherm/internal/therm"
)

const catalogDB = "runs.db"

// Store manages the run directory tree and the catalog database.
type Store struct {
	baseDir string
	db      *sql.DB
}

// Open prepares the base directory and the catalog.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", filepath.Join(baseDir, catalogDB)))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		vessel TEXT NOT NULL,
		created TEXT NOT NULL,
		dt REAL NOT NULL,
		duration REAL NOT NULL,
		max_temp_celsius REAL NOT NULL,
		thermal_death INTEGER NOT NULL,
		emergency_stop INTEGER NOT NULL,
		rotations INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: init catalog: %w", err)
	}
	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RunMeta is one catalog row.
type RunMeta struct {
	ID            string
	Vessel        string
	Created       time.Time
	Dt            float64
	Duration      float64
	MaxTempC      float64
	ThermalDeath  bool
	EmergencyStop bool
	Rotations     int
}

// Run is an in-progress run directory. It implements therm.SnapshotWriter
// so the driver can stream field snapshots while stepping.
type Run struct {
	id    string
	dir   string
	store *Store
}

// Begin allocates a run directory before the simulation starts. IDs carry a
// nanosecond timestamp; creating the directory claims the ID, and a numeric
// suffix resolves the rare collision.
func (s *Store) Begin(vessel string) (*Run, error) {
	base := fmt.Sprintf("%s_%d", vessel, time.Now().UnixNano())
	id := base
	for n := 1; ; n++ {
		err := os.Mkdir(filepath.Join(s.baseDir, id), 0o755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, err
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(filepath.Join(dir, "snapshots"), 0o755); err != nil {
		return nil, err
	}
	return &Run{id: id, dir: dir, store: s}, nil
}

func (r *Run) ID() string  { return r.id }
func (r *Run) Dir() string { return r.dir }

// WriteSnapshot persists one full temperature field [°C] as CSV.
func (r *Run) WriteSnapshot(t float64, tempC []float64) error {
	name := fmt.Sprintf("field_%06.1fh.csv", t/3600)
	f, err := os.Create(filepath.Join(r.dir, "snapshots", name))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"cell", "temp_celsius"}); err != nil {
		return err
	}
	for i, v := range tempC {
		if err := w.Write([]string{strconv.Itoa(i), strconv.FormatFloat(v, 'f', 4, 64)}); err != nil {
			return err
		}
	}
	return nil
}

// Finish writes the statistics record and series, and registers the run in
// the catalog. Aborted runs are persisted the same way; their partial
// series are part of the record.
func (r *Run) Finish(dt, duration float64, res *therm.Result) error {
	if err := r.writeStats(res); err != nil {
		return err
	}
	if err := r.writeSeries(res); err != nil {
		return err
	}
	_, err := r.store.db.Exec(
		`INSERT INTO runs (id, vessel, created, dt, duration, max_temp_celsius, thermal_death, emergency_stop, rotations)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, res.Vessel, time.Now().UTC().Format(time.RFC3339), dt, duration,
		res.MaxTempReached, boolInt(res.ThermalDeath), boolInt(res.EmergencyStop), res.Rotations,
	)
	if err != nil {
		return fmt.Errorf("storage: catalog insert: %w", err)
	}
	return nil
}

func (r *Run) writeStats(res *therm.Result) error {
	f, err := os.Create(filepath.Join(r.dir, "stats.json"))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (r *Run) writeSeries(res *therm.Result) error {
	f, err := os.Create(filepath.Join(r.dir, "series.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"time_hours", "t_max_celsius", "t_min_celsius", "t_avg_celsius",
		"q_gen_w_m3", "q_evap_w_m3", "moisture_loss_kg_m3"}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range res.Times {
		row := []string{
			strconv.FormatFloat(res.Times[i], 'f', 4, 64),
			strconv.FormatFloat(res.TMax[i], 'f', 4, 64),
			strconv.FormatFloat(res.TMin[i], 'f', 4, 64),
			strconv.FormatFloat(res.TAvg[i], 'f', 4, 64),
			strconv.FormatFloat(res.QGen[i], 'f', 4, 64),
			strconv.FormatFloat(res.QEvap[i], 'f', 4, 64),
			strconv.FormatFloat(res.MoistureLoss[i], 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// List returns the catalog, most recent first.
func (s *Store) List() ([]RunMeta, error) {
	rows, err := s.db.Query(`SELECT id, vessel, created, dt, duration, max_temp_celsius,
		thermal_death, emergency_stop, rotations FROM runs ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunMeta
	for rows.Next() {
		var m RunMeta
		var created string
		var death, emergency int
		if err := rows.Scan(&m.ID, &m.Vessel, &created, &m.Dt, &m.Duration,
			&m.MaxTempC, &death, &emergency, &m.Rotations); err != nil {
			return nil, err
		}
		m.Created, _ = time.Parse(time.RFC3339, created)
		m.ThermalDeath = death != 0
		m.EmergencyStop = emergency != 0
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// LoadResult reads back a run's statistics record. A saved and reloaded
// record carries identical time series.
func (s *Store) LoadResult(runID string) (*therm.Result, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "stats.json"))
	if err != nil {
		return nil, err
	}
	var res therm.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("storage: parse %s: %w", runID, err)
	}
	return &res, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package persistence stores completed simulation runs in SQLite: one
// row per simulated trading day plus its per-zone tallies, footfall
// curve and event log.
package persistence

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/asgorot87/PeopleSwarm/internal/engine"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		saved_at TEXT NOT NULL,
		layout TEXT NOT NULL,
		seed INTEGER NOT NULL,
		total_visitors INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		total_served INTEGER NOT NULL,
		avg_visit_seconds REAL NOT NULL,
		ticks INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS zone_stats (
		run_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		total INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS footfall (
		run_id INTEGER NOT NULL,
		minute INTEGER NOT NULL,
		inside INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		clock TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_zone_stats_run ON zone_stats(run_id);
	CREATE INDEX IF NOT EXISTS idx_footfall_run ON footfall(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID              int64   `db:"id" json:"id"`
	SavedAt         string  `db:"saved_at" json:"saved_at"`
	Layout          string  `db:"layout" json:"layout"`
	Seed            int64   `db:"seed" json:"seed"`
	TotalVisitors   int     `db:"total_visitors" json:"total_visitors"`
	Finished        int     `db:"finished" json:"finished"`
	TotalServed     int     `db:"total_served" json:"total_served"`
	AvgVisitSeconds float64 `db:"avg_visit_seconds" json:"avg_visit_seconds"`
	Ticks           uint64  `db:"ticks" json:"ticks"`
}

// ZoneStat is one zone's tally within a stored run. Kind is "product"
// for visit counts and "checkout" for customers served.
type ZoneStat struct {
	Name  string `db:"name" json:"name"`
	Kind  string `db:"kind" json:"kind"`
	Total int    `db:"total" json:"total"`
}

// SaveRun writes the simulation's current numbers as one completed run
// and returns the new run id. Everything lands in a single transaction.
func (db *DB) SaveRun(sim *engine.Simulation) (int64, error) {
	snap := sim.Stats.Snapshot()

	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs
		(saved_at, layout, seed, total_visitors, finished, total_served, avg_visit_seconds, ticks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), sim.Layout.Name, sim.Config.Seed,
		snap.TotalVisitors, snap.Finished, snap.TotalServed, snap.AvgVisitSeconds, sim.Ticks,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Preparex("INSERT INTO zone_stats (run_id, name, kind, total) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for name, n := range snap.ZoneVisits {
		if _, err := stmt.Exec(runID, name, "product", n); err != nil {
			return 0, fmt.Errorf("insert zone stat %q: %w", name, err)
		}
	}
	for name, n := range snap.CheckoutServed {
		if _, err := stmt.Exec(runID, name, "checkout", n); err != nil {
			return 0, fmt.Errorf("insert checkout stat %q: %w", name, err)
		}
	}

	ff, err := tx.Preparex("INSERT INTO footfall (run_id, minute, inside) VALUES (?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer ff.Close()

	for _, sample := range snap.Footfall {
		if _, err := ff.Exec(runID, sample.Minute, sample.Inside); err != nil {
			return 0, fmt.Errorf("insert footfall minute %d: %w", sample.Minute, err)
		}
	}

	ev, err := tx.Preparex(
		"INSERT INTO run_events (run_id, tick, clock, category, description) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer ev.Close()

	for _, e := range sim.Events {
		if _, err := ev.Exec(runID, e.Tick, e.Clock, e.Category, e.Description); err != nil {
			return 0, fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('last_run_id', ?)",
		strconv.FormatInt(runID, 10),
	); err != nil {
		return 0, fmt.Errorf("update meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	slog.Info("run saved",
		"run", runID,
		"visitors", snap.TotalVisitors,
		"served", snap.TotalServed,
	)
	return runID, nil
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// Run returns one stored run by id.
func (db *DB) Run(id int64) (RunSummary, error) {
	var run RunSummary
	err := db.conn.Get(&run, `SELECT id, saved_at, layout, seed, total_visitors,
		finished, total_served, avg_visit_seconds, ticks
		FROM runs WHERE id = ?`, id)
	return run, err
}

// RecentRuns returns the most recent N stored runs, newest first.
func (db *DB) RecentRuns(limit int) ([]RunSummary, error) {
	var runs []RunSummary
	err := db.conn.Select(&runs, `SELECT id, saved_at, layout, seed, total_visitors,
		finished, total_served, avg_visit_seconds, ticks
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	return runs, err
}

// ZoneStats returns a stored run's per-zone tallies, busiest first.
func (db *DB) ZoneStats(runID int64) ([]ZoneStat, error) {
	var stats []ZoneStat
	err := db.conn.Select(&stats,
		"SELECT name, kind, total FROM zone_stats WHERE run_id = ? ORDER BY total DESC, name",
		runID)
	return stats, err
}

// Footfall returns a stored run's minute-by-minute headcount.
func (db *DB) Footfall(runID int64) ([]engine.MinuteSample, error) {
	var curve []engine.MinuteSample
	err := db.conn.Select(&curve,
		"SELECT minute, inside FROM footfall WHERE run_id = ? ORDER BY minute", runID)
	return curve, err
}

// RunEvents returns the most recent events captured with a stored run.
func (db *DB) RunEvents(runID int64, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, clock, category, description FROM run_events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit)
	return events, err
}

// Package runstore persists run outcomes in SQLite for the `sudodev list`
// command. The agent only appends here; nothing from previous runs feeds
// back into a new run.
package runstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sudodev-ai/sudodev/pkg/model"
)

// Store manages run-result persistence in SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			instance_id TEXT NOT NULL,
			status      TEXT NOT NULL,
			phase       TEXT NOT NULL DEFAULT '',
			attempts    INTEGER NOT NULL DEFAULT 0,
			error       TEXT NOT NULL DEFAULT '',
			started_at  DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_instance ON runs(instance_id);
	`)
	return err
}

// Save appends one run result.
func (s *Store) Save(r *model.RunResult) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, instance_id, status, phase, attempts, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.InstanceID, string(r.Status), r.Phase, r.Attempts, r.Error,
		r.StartedAt.UTC(), r.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", r.ID, err)
	}
	return nil
}

// List returns all recorded runs, most recent first.
func (s *Store) List() ([]*model.RunResult, error) {
	rows, err := s.db.Query(`
		SELECT id, instance_id, status, phase, attempts, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var results []*model.RunResult
	for rows.Next() {
		var r model.RunResult
		var status string
		var started, finished time.Time
		if err := rows.Scan(&r.ID, &r.InstanceID, &status, &r.Phase, &r.Attempts, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Status = model.RunStatus(status)
		r.StartedAt = started
		r.FinishedAt = finished
		results = append(results, &r)
	}
	return results, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

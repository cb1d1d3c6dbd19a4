// Package history records wear runs in a SQLite ledger so a result can be
// traced back to the seed and settings that produced it.
package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultBatchSize is the number of records buffered before an automatic flush.
const DefaultBatchSize = 50

// Record is one processed image.
type Record struct {
	ID      int64
	RunAt   time.Time
	Input   string
	Output  string
	Width   int
	Height  int
	Points  int
	Seed    int64
	Mode    string
	Noise   string
	Elapsed time.Duration
	Error   string

	// Processor tuning, enough to rerun the image with the same output.
	PointFrequency     int
	MinRadius          int
	MaxRadius          int
	NoiseDivision      float64
	ResolutionDivision float64
	Simple             bool
}

// Store is a SQLite-backed run ledger.
type Store struct {
	db        *sql.DB
	path      string
	batch     []Record
	batchSize int
	mu        sync.Mutex
}

// Open opens (creating if needed) the ledger at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{
		db:        db,
		path:      path,
		batch:     make([]Record, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_at INTEGER NOT NULL,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			points INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			mode TEXT NOT NULL,
			noise TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS runs_input_index ON runs (input);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return addTuningColumns(db)
}

// tuningColumns were added after the first ledger version.
var tuningColumns = []struct{ name, decl string }{
	{"point_frequency", "INTEGER NOT NULL DEFAULT 0"},
	{"min_radius", "INTEGER NOT NULL DEFAULT 0"},
	{"max_radius", "INTEGER NOT NULL DEFAULT 0"},
	{"noise_division", "REAL NOT NULL DEFAULT 0"},
	{"resolution_division", "REAL NOT NULL DEFAULT 0"},
	{"simple", "INTEGER NOT NULL DEFAULT 0"},
}

// addTuningColumns upgrades ledgers created before the tuning columns existed.
func addTuningColumns(db *sql.DB) error {
	rows, err := db.Query("PRAGMA table_info(runs)")
	if err != nil {
		return fmt.Errorf("failed to read runs columns: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primaryKey); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan runs column: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("failed to read runs columns: %w", err)
	}

	for _, col := range tuningColumns {
		if existing[col.name] {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("ALTER TABLE runs ADD COLUMN %s %s", col.name, col.decl)); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
	}
	return nil
}

// Add buffers a record, flushing when the batch is full.
func (s *Store) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.RunAt.IsZero() {
		r.RunAt = time.Now()
	}
	s.batch = append(s.batch, r)
	if len(s.batch) >= s.batchSize {
		return s.flushLocked()
	}
	return nil
}

// Flush writes buffered records.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if len(s.batch) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare(`INSERT INTO runs
		(run_at, input, output, width, height, points, seed, mode, noise, elapsed_ms, error,
		 point_frequency, min_radius, max_radius, noise_division, resolution_division, simple)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range s.batch {
		if _, err := stmt.Exec(
			r.RunAt.UnixNano(), r.Input, r.Output, r.Width, r.Height, r.Points,
			r.Seed, r.Mode, r.Noise, r.Elapsed.Milliseconds(), r.Error,
			r.PointFrequency, r.MinRadius, r.MaxRadius, r.NoiseDivision, r.ResolutionDivision, r.Simple,
		); err != nil {
			return fmt.Errorf("failed to insert run for %s: %w", r.Input, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.batch = s.batch[:0]
	return nil
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
// input filters by exact input path when non-empty.
func (s *Store) Recent(limit int, input string) ([]Record, error) {
	query := `SELECT id, run_at, input, output, width, height, points, seed, mode, noise, elapsed_ms, error,
		point_frequency, min_radius, max_radius, noise_division, resolution_division, simple
		FROM runs`
	var args []any
	if input != "" {
		query += " WHERE input = ?"
		args = append(args, input)
	}
	query += " ORDER BY run_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r         Record
			runAt     int64
			elapsedMS int64
		)
		if err := rows.Scan(&r.ID, &runAt, &r.Input, &r.Output, &r.Width, &r.Height,
			&r.Points, &r.Seed, &r.Mode, &r.Noise, &elapsedMS, &r.Error,
			&r.PointFrequency, &r.MinRadius, &r.MaxRadius, &r.NoiseDivision, &r.ResolutionDivision, &r.Simple); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.RunAt = time.Unix(0, runAt)
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return records, nil
}

// Close flushes pending records and closes the database.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	return nil
}

// Package store keeps a history of batch runs in SQLite: one record per run,
// the status of every image, and the rows that were exported.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ironsheep/red-numbers/internal/batch"
	"github.com/ironsheep/red-numbers/internal/imaging"
)

// Image statuses.
const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Run describes one batch execution.
type Run struct {
	ID        string
	InputDir  string
	Output    string
	StartedAt time.Time
	Elapsed   time.Duration
	Images    int
	Failed    int
	Rows      int
	SatMin    int
	ValMin    int
}

// ImageStatus is the outcome recorded for one image of a run.
type ImageStatus struct {
	Path   string
	FileID string
	Status string
	Error  string
}

// Store wraps the SQLite connection.
type Store struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input_dir TEXT NOT NULL,
		output TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		images INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		row_count INTEGER NOT NULL DEFAULT 0,
		s_min INTEGER NOT NULL DEFAULT 0,
		v_min INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS images (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		path TEXT NOT NULL,
		file_id TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		file_id TEXT NOT NULL,
		number TEXT NOT NULL,
		motor_code TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_records_number ON records(number);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// SaveRun records run together with the status of every image in res and
// the rows it produced, in one transaction. Counts in run are filled from res.
func (s *Store) SaveRun(run Run, res *batch.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := batch.Rows(res)
	run.Images = len(res.Order)
	run.Failed = len(res.Failed)
	run.Rows = len(rows)

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO runs (id, input_dir, output, started_at, elapsed_ms, images, failed, row_count, s_min, v_min)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.InputDir, run.Output, run.StartedAt.UTC(), run.Elapsed.Milliseconds(),
		run.Images, run.Failed, run.Rows, run.SatMin, run.ValMin); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	imgStmt, err := tx.Prepare(`
		INSERT INTO images (run_id, seq, path, file_id, status, error) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer imgStmt.Close()

	failed := make(map[string]string, len(res.Failed))
	for _, f := range res.Failed {
		failed[f.Path] = f.Err.Error()
	}
	canceled := make(map[string]bool, len(res.Canceled))
	for _, p := range res.Canceled {
		canceled[p] = true
	}

	for i, p := range res.Order {
		status, msg := StatusOK, ""
		if e, ok := failed[p]; ok {
			status, msg = StatusFailed, e
		} else if canceled[p] {
			status = StatusCanceled
		}
		if _, err := imgStmt.Exec(run.ID, i, p, imaging.FileID(p), status, msg); err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
	}

	rowStmt, err := tx.Prepare(`
		INSERT INTO records (run_id, seq, file_id, number, motor_code) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer rowStmt.Close()

	for i, r := range rows {
		if _, err := rowStmt.Exec(run.ID, i, r.File, r.Number, r.MotorCode); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	return tx.Commit()
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, input_dir, output, started_at, elapsed_ms, images, failed, row_count, s_min, v_min
		FROM runs ORDER BY started_at DESC, rowid DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var elapsedMs int64
		if err := rows.Scan(&r.ID, &r.InputDir, &r.Output, &r.StartedAt, &elapsedMs,
			&r.Images, &r.Failed, &r.Rows, &r.SatMin, &r.ValMin); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Rows returns the rows stored for a run, in export order.
func (s *Store) Rows(runID string) ([]batch.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`
		SELECT file_id, number, motor_code FROM records WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	out := make([]batch.Row, 0)
	for rows.Next() {
		var r batch.Row
		if err := rows.Scan(&r.File, &r.Number, &r.MotorCode); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Images returns the per-image outcomes of a run, in input order.
func (s *Store) Images(runID string) ([]ImageStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`
		SELECT path, file_id, status, error FROM images WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var out []ImageStatus
	for rows.Next() {
		var st ImageStatus
		if err := rows.Scan(&st.Path, &st.FileID, &st.Status, &st.Error); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// FindNumber returns the rows of every run that recorded number.
func (s *Store) FindNumber(number string) ([]batch.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`
		SELECT file_id, number, motor_code FROM records WHERE number = ? ORDER BY run_id, seq
	`, number)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var out []batch.Row
	for rows.Next() {
		var r batch.Row
		if err := rows.Scan(&r.File, &r.Number, &r.MotorCode); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

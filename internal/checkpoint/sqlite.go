// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-radar/pkg/types"
)

// DBFile is the database file name inside the state directory.
const DBFile = "research-radar.db"

// seenBatch bounds the IDs bound into one IN clause.
const seenBatch = 500

// SQLiteStore is a Store backed by a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// Open opens or creates the state database at stateDir/research-radar.db
// and creates the schema if it does not exist.
func Open(stateDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, DBFile)
	db, err := sqlx.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS checkpoints (
			name TEXT PRIMARY KEY,
			last_checked TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			fetched INTEGER NOT NULL DEFAULT 0,
			passed INTEGER NOT NULL DEFAULT 0,
			rejected INTEGER NOT NULL DEFAULT 0,
			evaluated INTEGER NOT NULL DEFAULT 0,
			findings INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS seen_papers (
			id TEXT PRIMARY KEY,
			published TEXT NOT NULL,
			seen_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_papers_published ON seen_papers(published)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Load returns the named checkpoint.
func (s *SQLiteStore) Load(ctx context.Context, name string) (time.Time, bool, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT last_checked FROM checkpoints WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("loading checkpoint %q: %w", name, err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing checkpoint %q: %w", name, err)
	}
	return t, true, nil
}

// Save upserts the named checkpoint.
func (s *SQLiteStore) Save(ctx context.Context, name string, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (name, last_checked) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET last_checked = excluded.last_checked`,
		name, t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving checkpoint %q: %w", name, err)
	}
	return nil
}

// runRow mirrors the runs table; timestamps are stored as RFC 3339 text.
type runRow struct {
	ID         int64  `db:"id"`
	Mode       string `db:"mode"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
	Fetched    int    `db:"fetched"`
	Passed     int    `db:"passed"`
	Rejected   int    `db:"rejected"`
	Evaluated  int    `db:"evaluated"`
	Findings   int    `db:"findings"`
}

// RecordRun appends a run.
func (s *SQLiteStore) RecordRun(ctx context.Context, r Run) (int64, error) {
	row := runRow{
		Mode:       r.Mode,
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt: r.FinishedAt.UTC().Format(time.RFC3339Nano),
		Fetched:    r.Fetched,
		Passed:     r.Passed,
		Rejected:   r.Rejected,
		Evaluated:  r.Evaluated,
		Findings:   r.Findings,
	}
	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO runs (mode, started_at, finished_at, fetched, passed, rejected, evaluated, findings)
		 VALUES (:mode, :started_at, :finished_at, :fetched, :passed, :rejected, :evaluated, :findings)`,
		row)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, mode, started_at, finished_at, fetched, passed, rejected, evaluated, findings
		 FROM runs ORDER BY id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		r := Run{
			ID:        row.ID,
			Mode:      row.Mode,
			Fetched:   row.Fetched,
			Passed:    row.Passed,
			Rejected:  row.Rejected,
			Evaluated: row.Evaluated,
			Findings:  row.Findings,
		}
		// Unparseable timestamps leave the zero time.
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, row.StartedAt)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, row.FinishedAt)
		runs = append(runs, r)
	}
	return runs, nil
}

// Seen reports which of ids are in the seen_papers table.
func (s *SQLiteStore) Seen(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for start := 0; start < len(ids); start += seenBatch {
		chunk := ids[start:min(start+seenBatch, len(ids))]
		query, args, err := sqlx.In(`SELECT id FROM seen_papers WHERE id IN (?)`, chunk)
		if err != nil {
			return nil, fmt.Errorf("building seen query: %w", err)
		}
		var found []string
		if err := s.db.SelectContext(ctx, &found, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("checking seen papers: %w", err)
		}
		for _, id := range found {
			out[id] = true
		}
	}
	return out, nil
}

// MarkSeen inserts papers into seen_papers, keeping existing rows.
// Publication times are stored as second-precision UTC RFC 3339 so they
// compare as text.
func (s *SQLiteStore) MarkSeen(ctx context.Context, papers []types.Paper) error {
	if len(papers) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO seen_papers (id, published, seen_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("preparing seen insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range papers {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Published.UTC().Format(time.RFC3339), now); err != nil {
			return fmt.Errorf("marking %s seen: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seen papers: %w", err)
	}
	return nil
}

// PruneSeen deletes seen papers published before t.
func (s *SQLiteStore) PruneSeen(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM seen_papers WHERE published < ?`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("pruning seen papers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading pruned count: %w", err)
	}
	return n, nil
}

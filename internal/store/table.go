package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobmarket-engine/internal/domain"
	"jobmarket-engine/internal/scrape/types"
)

var ErrNoRuns = errors.New("no runs stored")

// fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one finished pipeline pass as persisted.
type Run struct {
	ID         int64               `json:"id"`
	Query      string              `json:"query"`
	Location   string              `json:"location"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Total      int                 `json:"total"`
	Sources    []types.SourceStats `json:"sources"`
	Postings   []domain.JobPosting `json:"postings,omitempty"`
}

type ListPostingsOpts struct {
	RunID  int64  // 0 = latest run
	Source string // exact source name, "" = all
	Limit  int
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  query TEXT NOT NULL,
  location TEXT NOT NULL,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  total INTEGER NOT NULL DEFAULT 0,
  sources TEXT NOT NULL DEFAULT '[]'
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS postings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  source TEXT NOT NULL,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  city TEXT NOT NULL,
  description TEXT NOT NULL,
  date_posted TEXT NOT NULL,
  skills TEXT NOT NULL DEFAULT '[]'
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_run_seq
ON postings(run_id, seq);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_runs_finished_at
ON runs(finished_at);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

// SaveRun stores a run and its postings in one transaction, keeping the
// posting order. It returns the new run id.
func SaveRun(ctx context.Context, db *sql.DB, r Run) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	sourcesB, _ := json.Marshal(r.Sources)
	res, err := tx.ExecContext(ctx, `
INSERT INTO runs(query, location, started_at, finished_at, total, sources)
VALUES(?,?,?,?,?,?);`,
		r.Query,
		r.Location,
		r.StartedAt.UTC().Format(timeLayout),
		r.FinishedAt.UTC().Format(timeLayout),
		len(r.Postings),
		string(sourcesB),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO postings(run_id, seq, source, title, company, location, city, description, date_posted, skills)
VALUES(?,?,?,?,?,?,?,?,?,?);`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, p := range r.Postings {
		skillsB, _ := json.Marshal(p.Skills)
		if _, err := stmt.ExecContext(ctx,
			id, i, p.Source, p.Title, p.Company, p.Location, p.City, p.Description, p.DatePosted, string(skillsB),
		); err != nil {
			return 0, fmt.Errorf("insert posting %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns returns run headers, newest first.
func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, query, location, started_at, finished_at, total, sources
FROM runs
ORDER BY id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun loads the newest run with all of its postings.
func LatestRun(ctx context.Context, db *sql.DB) (Run, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, query, location, started_at, finished_at, total, sources
FROM runs
ORDER BY id DESC
LIMIT 1;`)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, err
	}

	r.Postings, err = ListPostings(ctx, db, ListPostingsOpts{RunID: r.ID})
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

func ListPostings(ctx context.Context, db *sql.DB, opts ListPostingsOpts) ([]domain.JobPosting, error) {
	runID := opts.RunID
	if runID == 0 {
		if err := db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT 1;`).Scan(&runID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNoRuns
			}
			return nil, err
		}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := db.QueryContext(ctx, `
SELECT source, title, company, location, city, description, date_posted, skills
FROM postings
WHERE run_id = ? AND (? = '' OR source = ?)
ORDER BY seq ASC
LIMIT ?;`, runID, opts.Source, opts.Source, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.JobPosting{}
	for rows.Next() {
		var p domain.JobPosting
		var skillsJSON string
		if err := rows.Scan(&p.Source, &p.Title, &p.Company, &p.Location, &p.City, &p.Description, &p.DatePosted, &skillsJSON); err != nil {
			return nil, err
		}
		p.Skills = []string{}
		_ = json.Unmarshal([]byte(skillsJSON), &p.Skills)
		out = append(out, p)
	}
	return out, rows.Err()
}

// CleanupOldRuns drops runs (and their postings) finished before cutoff.
func CleanupOldRuns(ctx context.Context, db *sql.DB, cutoff time.Time) (deleted int64, err error) {
	res, err := db.ExecContext(ctx, `DELETE FROM runs WHERE finished_at < ?;`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("cleanup old runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanRun(s interface{ Scan(dest ...any) error }) (Run, error) {
	var r Run
	var started, finished, sourcesJSON string
	if err := s.Scan(&r.ID, &r.Query, &r.Location, &started, &finished, &r.Total, &sourcesJSON); err != nil {
		return Run{}, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	r.FinishedAt, _ = time.Parse(timeLayout, finished)
	_ = json.Unmarshal([]byte(sourcesJSON), &r.Sources)
	return r, nil
}

// Package store records model evaluation runs in a local SQLite database so
// score variability across runs can be inspected later.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/wildfire/pkg/errors"
)

// Run is one scored model evaluation.
type Run struct {
	ID        int64
	Model     string
	Scoring   string
	MeanScore float64
	StdScore  float64
	CVFolds   int
	Seed      int64
	LogTarget bool
	CreatedAt time.Time
}

// Store wraps the runs database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite file at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", path)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			model      TEXT NOT NULL,
			scoring    TEXT NOT NULL,
			mean_score REAL NOT NULL,
			std_score  REAL NOT NULL,
			cv_folds   INTEGER NOT NULL,
			seed       INTEGER NOT NULL,
			log_target INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		"CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model);",
		"CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);",
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "run migration statement")
		}
	}
	return nil
}

// InsertRun records a run and returns its assigned id.
func (s *Store) InsertRun(ctx context.Context, r *Run) (int64, error) {
	if r == nil {
		return 0, errors.New("run required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (model, scoring, mean_score, std_score, cv_folds, seed, log_target)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Model, r.Scoring, r.MeanScore, r.StdScore, r.CVFolds, r.Seed, boolToInt(r.LogTarget))
	if err != nil {
		return 0, errors.Wrap(err, "insert run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "read inserted run id")
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first. A non-empty model
// filters to that model; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, model string, limit int) ([]*Run, error) {
	q := `SELECT id, model, scoring, mean_score, std_score, cv_folds, seed, log_target, created_at
	      FROM runs`
	args := []interface{}{}
	if model != "" {
		q += " WHERE model = ?"
		args = append(args, model)
	}
	q += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var logTarget int
		if err := rows.Scan(&r.ID, &r.Model, &r.Scoring, &r.MeanScore, &r.StdScore,
			&r.CVFolds, &r.Seed, &logTarget, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan run row")
		}
		r.LogTarget = logTarget != 0
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate run rows")
	}
	return runs, nil
}

// BestRun returns the run with the lowest mean score for the given scoring,
// or nil when nothing is recorded yet.
func (s *Store) BestRun(ctx context.Context, scoring string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, model, scoring, mean_score, std_score, cv_folds, seed, log_target, created_at
		 FROM runs WHERE scoring = ? ORDER BY mean_score ASC, id DESC LIMIT 1`, scoring)

	var r Run
	var logTarget int
	err := row.Scan(&r.ID, &r.Model, &r.Scoring, &r.MeanScore, &r.StdScore,
		&r.CVFolds, &r.Seed, &logTarget, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query best run")
	}
	r.LogTarget = logTarget != 0
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

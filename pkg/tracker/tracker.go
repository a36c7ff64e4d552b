// Package tracker keeps a local SQLite history of batch runs and the images
// they saved.
package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pario-ai/badgeshot/pkg/models"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Tracker records and queries batch history.
type Tracker interface {
	// StartRun stores a run before its first image is attempted.
	StartRun(ctx context.Context, run models.RunRecord) error
	// RecordImage stores one saved image of a run.
	RecordImage(ctx context.Context, img models.ImageRecord) error
	// FinishRun stores the final counts and cost of a run.
	FinishRun(ctx context.Context, run models.RunRecord) error
	// GetRun returns one run by id.
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	// ListRuns returns the most recent runs first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
	// RunImages returns the images of a run in save order.
	RunImages(ctx context.Context, runID string) ([]models.ImageRecord, error)
	// CostReport aggregates spend by provider and model since a given time.
	CostReport(ctx context.Context, since time.Time) ([]models.CostReport, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	style TEXT NOT NULL,
	format TEXT NOT NULL,
	output_dir TEXT NOT NULL,
	requested INTEGER NOT NULL,
	succeeded INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	estimated_cost REAL NOT NULL,
	actual_cost REAL NOT NULL DEFAULT 0,
	aborted_by_budget INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

const createImagesTable = `
CREATE TABLE IF NOT EXISTS images (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	gender TEXT NOT NULL,
	path TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	prompt TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_images_run ON images(run_id, created_at);
`

// New creates a SQLiteTracker and runs auto-migration.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}

	if _, err := db.Exec(createRunsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate runs table: %w", err)
	}
	if _, err := db.Exec(createImagesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate images table: %w", err)
	}

	return &SQLiteTracker{db: db}, nil
}

// StartRun inserts a run row with zero results.
func (t *SQLiteTracker) StartRun(ctx context.Context, run models.RunRecord) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO runs (id, provider, model, style, format, output_dir, requested, estimated_cost, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Provider, run.Model, run.Style, run.Format, run.OutputDir, run.Requested, run.EstimatedCost, run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// RecordImage stores a saved image.
func (t *SQLiteTracker) RecordImage(ctx context.Context, img models.ImageRecord) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO images (id, run_id, gender, path, width, height, prompt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.RunID, string(img.Gender), img.Path, img.Width, img.Height, img.Prompt, img.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record image: %w", err)
	}
	return nil
}

// FinishRun updates the outcome columns of an existing run.
func (t *SQLiteTracker) FinishRun(ctx context.Context, run models.RunRecord) error {
	res, err := t.db.ExecContext(ctx,
		`UPDATE runs SET succeeded = ?, failed = ?, actual_cost = ?, aborted_by_budget = ?, finished_at = ?
		 WHERE id = ?`,
		run.Succeeded, run.Failed, run.ActualCost, run.AbortedByBudget, run.FinishedAt.UTC(), run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, provider, model, style, format, output_dir, requested, succeeded, failed,
	estimated_cost, actual_cost, aborted_by_budget, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (models.RunRecord, error) {
	var r models.RunRecord
	var finished sql.NullTime
	err := s.Scan(&r.ID, &r.Provider, &r.Model, &r.Style, &r.Format, &r.OutputDir,
		&r.Requested, &r.Succeeded, &r.Failed, &r.EstimatedCost, &r.ActualCost,
		&r.AbortedByBudget, &r.StartedAt, &finished)
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return r, err
}

// GetRun returns a single run.
func (t *SQLiteTracker) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	r, err := scanRun(t.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &r, nil
}

// ListRuns returns runs newest first.
func (t *SQLiteTracker) ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunImages returns the images saved by a run.
func (t *SQLiteTracker) RunImages(ctx context.Context, runID string) ([]models.ImageRecord, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, run_id, gender, path, width, height, prompt, created_at
		 FROM images WHERE run_id = ? ORDER BY created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("run images: %w", err)
	}
	defer rows.Close()

	var images []models.ImageRecord
	for rows.Next() {
		var img models.ImageRecord
		var gender string
		if err := rows.Scan(&img.ID, &img.RunID, &gender, &img.Path, &img.Width, &img.Height, &img.Prompt, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		img.Gender = models.Gender(gender)
		images = append(images, img)
	}
	return images, rows.Err()
}

// CostReport sums actual spend grouped by provider and model.
func (t *SQLiteTracker) CostReport(ctx context.Context, since time.Time) ([]models.CostReport, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT provider, model, COUNT(*), SUM(requested), SUM(succeeded), SUM(actual_cost)
		 FROM runs WHERE started_at >= ?
		 GROUP BY provider, model ORDER BY provider, model`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("cost report: %w", err)
	}
	defer rows.Close()

	var reports []models.CostReport
	for rows.Next() {
		var c models.CostReport
		if err := rows.Scan(&c.Provider, &c.Model, &c.Runs, &c.Requested, &c.Images, &c.Cost); err != nil {
			return nil, fmt.Errorf("scan cost report: %w", err)
		}
		reports = append(reports, c)
	}
	return reports, rows.Err()
}

// Close releases the database connection.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}

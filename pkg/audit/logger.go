// Package audit records every provider call attempt in SQLite so failed
// batches can be diagnosed after the fact.
package audit

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pario-ai/badgeshot/pkg/models"
)

// Logger writes and queries attempt entries.
type Logger struct {
	db  *sql.DB
	cfg models.AuditConfig
}

// New opens the audit database, creates the schema and prunes entries older
// than the retention period.
func New(cfg models.AuditConfig) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	l := &Logger{db: db, cfg: cfg}
	if cfg.RetentionDays > 0 {
		if _, err := l.Cleanup(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	}
	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS attempts (
		request_id    TEXT PRIMARY KEY,
		run_id        TEXT NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		key_hash      TEXT NOT NULL DEFAULT '',
		attempt       INTEGER NOT NULL,
		prompt        TEXT,
		size          TEXT NOT NULL,
		status_code   INTEGER NOT NULL DEFAULT 0,
		error_kind    TEXT,
		error_message TEXT,
		latency_ms    INTEGER NOT NULL,
		created_at    DATETIME NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_attempts_created ON attempts(created_at)`)
	return err
}

// Log inserts an attempt. Prompts are dropped unless IncludePrompt is set
// and truncated to MaxPromptSize. A nil Logger discards entries.
func (l *Logger) Log(ctx context.Context, entry models.AuditEntry) error {
	if l == nil || l.db == nil {
		return nil
	}

	prompt := entry.Prompt
	if !l.cfg.IncludePrompt {
		prompt = ""
	}
	if l.cfg.MaxPromptSize > 0 && len(prompt) > l.cfg.MaxPromptSize {
		prompt = prompt[:l.cfg.MaxPromptSize]
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO attempts
		(request_id, run_id, provider, model, key_hash, attempt, prompt, size,
		 status_code, error_kind, error_message, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID, entry.RunID, entry.Provider, entry.Model, entry.KeyHash,
		entry.Attempt, prompt, entry.Size,
		entry.StatusCode, entry.ErrorKind, entry.ErrorMessage,
		entry.LatencyMs, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("log attempt: %w", err)
	}
	return nil
}

// Query returns attempts matching opts, newest first.
func (l *Logger) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, error) {
	q := `SELECT request_id, run_id, provider, model, key_hash, attempt, prompt, size,
		status_code, error_kind, error_message, latency_ms, created_at
		FROM attempts WHERE 1=1`
	var args []any

	if opts.RunID != "" {
		q += " AND run_id = ?"
		args = append(args, opts.RunID)
	}
	if opts.Provider != "" {
		q += " AND provider = ?"
		args = append(args, opts.Provider)
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}
	if opts.Failed {
		q += " AND COALESCE(error_kind, '') != ''"
	}

	q += " ORDER BY created_at DESC, attempt DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var prompt, kind, msg sql.NullString
		if err := rows.Scan(
			&e.RequestID, &e.RunID, &e.Provider, &e.Model, &e.KeyHash, &e.Attempt,
			&prompt, &e.Size, &e.StatusCode, &kind, &msg,
			&e.LatencyMs, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.Prompt = prompt.String
		e.ErrorKind = kind.String
		e.ErrorMessage = msg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns attempt and failure counts grouped by provider and day.
func (l *Logger) Stats(ctx context.Context) ([]models.AuditStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT provider, substr(created_at, 1, 10) AS day, count(*),
		        SUM(CASE WHEN COALESCE(error_kind, '') != '' THEN 1 ELSE 0 END)
		 FROM attempts GROUP BY provider, day ORDER BY day DESC, provider`)
	if err != nil {
		return nil, fmt.Errorf("audit stats: %w", err)
	}
	defer rows.Close()

	var stats []models.AuditStat
	for rows.Next() {
		var s models.AuditStat
		var day sql.NullString
		if err := rows.Scan(&s.Provider, &day, &s.Attempts, &s.Failures); err != nil {
			return nil, fmt.Errorf("scan audit stat: %w", err)
		}
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes entries older than the configured retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM attempts WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (l *Logger) Close() error {
	return l.db.Close()
}

// HashAPIKey returns the SHA-256 hex hash of key, truncated to 16 characters.
// The key itself is never stored.
func HashAPIKey(key string) string {
	if key == "" {
		return ""
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])[:16]
}

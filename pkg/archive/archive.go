package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lintai-dev/lintai/pkg/budget"
)

// Store persists per-call usage records so spend can be audited across
// scan runs. Writes are best-effort from the gateway's point of view: a
// failed insert never fails the request that produced it.
type Store struct {
	db *sql.DB
}

// Entry is one archived provider call.
type Entry struct {
	ID               int64     `json:"id"`
	RunID            string    `json:"run_id"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	CreatedAt        time.Time `json:"created_at"`
}

// Summary aggregates archived usage per provider and model.
type Summary struct {
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	Requests         int64   `json:"requests"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

const createTable = `
CREATE TABLE IF NOT EXISTS usage_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_usage_run ON usage_records(run_id, created_at);
`

// Open creates a Store at dbPath and runs auto-migration. An empty path
// defaults to ~/.lintai/usage.db.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(home, ".lintai")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dir, "usage.db")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open usage archive: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate usage archive: %w", err)
	}

	return &Store{db: db}, nil
}

// Record stores one call's usage.
func (s *Store) Record(ctx context.Context, runID, providerName, model string, usage budget.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_records (run_id, provider, model, prompt_tokens, completion_tokens, cost_usd, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, providerName, model, usage.PromptTokens, usage.CompletionTokens, usage.CostUSD, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// Summarize returns aggregated usage grouped by provider and model,
// optionally filtered to one run.
func (s *Store) Summarize(ctx context.Context, runID string) ([]Summary, error) {
	query := `SELECT provider, model, COUNT(*), SUM(prompt_tokens), SUM(completion_tokens), SUM(cost_usd)
		 FROM usage_records`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` GROUP BY provider, model ORDER BY provider, model`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize usage: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Provider, &sum.Model, &sum.Requests, &sum.PromptTokens, &sum.CompletionTokens, &sum.CostUSD); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Totals returns the summed usage for one run.
func (s *Store) Totals(ctx context.Context, runID string) (budget.Record, error) {
	var totals budget.Record
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0), COALESCE(SUM(cost_usd), 0), COUNT(*)
		 FROM usage_records WHERE run_id = ?`,
		runID,
	).Scan(&totals.PromptTokens, &totals.CompletionTokens, &totals.CostUSD, &totals.Requests)
	if err != nil {
		return budget.Record{}, fmt.Errorf("run totals: %w", err)
	}
	return totals, nil
}

// Entries returns the archived calls for one run, newest first.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, provider, model, prompt_tokens, completion_tokens, cost_usd, created_at
		 FROM usage_records WHERE run_id = ? ORDER BY created_at DESC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Provider, &e.Model, &e.PromptTokens, &e.CompletionTokens, &e.CostUSD, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

package llmcall

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Fixed-width so that lexical order in SQLite matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS llm_calls (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	document TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	prompt TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	oracle_run_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	success INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_llm_calls_run ON llm_calls(run_id);
CREATE INDEX IF NOT EXISTS idx_llm_calls_timestamp ON llm_calls(timestamp);
`

const callColumns = `id, run_id, timestamp, latency_ms, document, category, prompt, response,
	model, oracle_run_id, status, input_tokens, output_tokens, success, error`

// SQLiteStore persists calls in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the history database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Record(ctx context.Context, c *Call) error {
	if c == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO llm_calls (`+callColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RunID, c.Timestamp.UTC().Format(timeLayout), c.LatencyMs,
		c.Document, c.Category, c.Prompt, c.Response,
		c.Model, c.OracleRunID, c.Status, c.InputTokens, c.OutputTokens,
		c.Success, c.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert call %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, filter QueryFilter) ([]Call, error) {
	var conditions []string
	var args []any

	if filter.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Document != "" {
		conditions = append(conditions, "document = ?")
		args = append(args, filter.Document)
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Success != nil {
		conditions = append(conditions, "success = ?")
		args = append(args, *filter.Success)
	}

	query := "SELECT " + callColumns + " FROM llm_calls"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp, rowid"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var (
			c  Call
			ts string
		)
		if err := rows.Scan(&c.ID, &c.RunID, &ts, &c.LatencyMs, &c.Document, &c.Category,
			&c.Prompt, &c.Response, &c.Model, &c.OracleRunID, &c.Status,
			&c.InputTokens, &c.OutputTokens, &c.Success, &c.Error); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		if t, err := time.Parse(timeLayout, ts); err == nil {
			c.Timestamp = t
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

func (s *SQLiteStore) ByRun(ctx context.Context, runID string) ([]Call, error) {
	calls, err := s.List(ctx, QueryFilter{RunID: runID})
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, ErrNotFound
	}
	return calls, nil
}

func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT run_id, MIN(document), MIN(timestamp), COUNT(*),
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END)
		FROM llm_calls
		GROUP BY run_id
		ORDER BY MIN(timestamp) DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r  RunSummary
			ts string
		)
		if err := rows.Scan(&r.RunID, &r.Document, &ts, &r.Calls, &r.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if t, err := time.Parse(timeLayout, ts); err == nil {
			r.Started = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Package store persists batch results to SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonwraymond/probeops/batch"
	"github.com/jonwraymond/probeops/check"
)

const schema = `
CREATE TABLE IF NOT EXISTS batches (
    id          TEXT    PRIMARY KEY,
    started_at  TEXT    NOT NULL,
    elapsed_ms  INTEGER NOT NULL,
    success     INTEGER NOT NULL,
    warning     INTEGER NOT NULL,
    error       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_results (
    batch_id    TEXT    NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    identity    TEXT    NOT NULL,
    kind        TEXT    NOT NULL CHECK(kind IN ('success', 'warning', 'error')),
    message     TEXT    NOT NULL DEFAULT '',
    elapsed_ms  INTEGER NOT NULL,
    raw         TEXT    NOT NULL DEFAULT '{}',
    PRIMARY KEY (batch_id, position)
);

CREATE INDEX IF NOT EXISTS idx_batches_started_at ON batches(started_at DESC);
`

// BatchRow is a stored batch header.
type BatchRow struct {
	ID        string
	StartedAt time.Time
	Elapsed   time.Duration
	Summary   batch.Summary
}

// ResultRow is a stored per-check result.
type ResultRow struct {
	BatchID  string
	Position int
	Identity string
	Kind     check.Kind
	Message  string
	Elapsed  time.Duration
	Raw      map[string]any
}

// StoredBatch is a batch header with its ordered results.
type StoredBatch struct {
	BatchRow
	Results []ResultRow
}

// DB wraps a SQLite database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the
// schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// SaveBatch persists a batch result and all of its items in one
// transaction.
func (d *DB) SaveBatch(ctx context.Context, startedAt time.Time, res *batch.Result) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, started_at, elapsed_ms, success, warning, error) VALUES (?, ?, ?, ?, ?, ?)`,
		res.BatchID,
		startedAt.UTC().Format(time.RFC3339Nano),
		res.Elapsed.Milliseconds(),
		res.Summary.Success,
		res.Summary.Warning,
		res.Summary.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting batch %q: %w", res.BatchID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO batch_results (batch_id, position, identity, kind, message, elapsed_ms, raw) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range res.Items {
		raw := "{}"
		if item.Outcome.Raw != nil {
			data, err := json.Marshal(item.Outcome.Raw)
			if err != nil {
				return fmt.Errorf("encoding raw data for %q: %w", item.ID, err)
			}
			raw = string(data)
		}
		_, err = stmt.ExecContext(ctx,
			res.BatchID,
			i,
			item.ID,
			item.Outcome.Kind.String(),
			item.Outcome.Message,
			item.Outcome.Elapsed.Milliseconds(),
			raw,
		)
		if err != nil {
			return fmt.Errorf("inserting result %q: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// Batch returns a stored batch with its results in submission order, or
// nil if no batch with the given id exists.
func (d *DB) Batch(ctx context.Context, id string) (*StoredBatch, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, started_at, elapsed_ms, success, warning, error FROM batches WHERE id = ?`, id,
	)
	header, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying batch %q: %w", id, err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT batch_id, position, identity, kind, message, elapsed_ms, raw FROM batch_results WHERE batch_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying results for %q: %w", id, err)
	}
	defer rows.Close()

	stored := &StoredBatch{BatchRow: *header}
	for rows.Next() {
		var (
			r         ResultRow
			kind      string
			elapsedMS int64
			rawJSON   string
		)
		if err := rows.Scan(&r.BatchID, &r.Position, &r.Identity, &kind, &r.Message, &elapsedMS, &rawJSON); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		r.Kind = check.ParseKind(kind)
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if err := json.Unmarshal([]byte(rawJSON), &r.Raw); err != nil {
			return nil, fmt.Errorf("decoding raw data for %q: %w", r.Identity, err)
		}
		stored.Results = append(stored.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating result rows: %w", err)
	}
	return stored, nil
}

// RecentBatches returns the most recent batch headers, newest first.
func (d *DB) RecentBatches(ctx context.Context, limit int) ([]BatchRow, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, started_at, elapsed_ms, success, warning, error FROM batches ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent batches: %w", err)
	}
	defer rows.Close()

	var batches []BatchRow
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning batch row: %w", err)
		}
		batches = append(batches, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch rows: %w", err)
	}
	return batches, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (*BatchRow, error) {
	var (
		b         BatchRow
		startedAt string
		elapsedMS int64
	)
	err := row.Scan(&b.ID, &startedAt, &elapsedMS, &b.Summary.Success, &b.Summary.Warning, &b.Summary.Error)
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	b.StartedAt = t
	b.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return &b, nil
}

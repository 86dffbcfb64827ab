package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS renames (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	source        TEXT NOT NULL,
	backup        TEXT NOT NULL,
	final_name    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	state         TEXT NOT NULL DEFAULT '',
	joined        TEXT NOT NULL DEFAULT '',
	second_chance INTEGER NOT NULL DEFAULT 0,
	fields_json   TEXT NOT NULL DEFAULT '{}',
	items_json    TEXT NOT NULL DEFAULT '[]',
	error         TEXT NOT NULL DEFAULT '',
	elapsed_ms    INTEGER NOT NULL DEFAULT 0,
	recorded_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS renames_run ON renames(run_id);
CREATE TRIGGER IF NOT EXISTS renames_no_update BEFORE UPDATE ON renames
BEGIN SELECT RAISE(ABORT, 'rename journal is append-only'); END;
CREATE TRIGGER IF NOT EXISTS renames_no_delete BEFORE DELETE ON renames
BEGIN SELECT RAISE(ABORT, 'rename journal is append-only'); END;
`

// Journal appends one row per processed document.
type Journal struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenJournal opens (or creates) the sqlite journal at path.
func OpenJournal(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// one writer; the worker is the only caller
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout=5000", "PRAGMA synchronous=NORMAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, journalSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	logger.Debug("report.journal.open", "path", path)
	return &Journal{db: db, path: path, logger: logger}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string { return j.path }

// Record appends r.
func (j *Journal) Record(ctx context.Context, r Row) error {
	values, err := json.Marshal(r.Values)
	if err != nil {
		return fmt.Errorf("journal fields: %w", err)
	}
	items, err := json.Marshal(r.Items)
	if err != nil {
		return fmt.Errorf("journal items: %w", err)
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	second := 0
	if r.SecondChance {
		second = 1
	}
	_, err = j.db.ExecContext(ctx, `INSERT INTO renames
		(run_id, source, backup, final_name, status, state, joined, second_chance, fields_json, items_json, error, elapsed_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Source, r.Backup, r.Final, r.Status, r.State, r.Joined, second,
		string(values), string(items), r.Err, r.ElapsedMS, r.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		j.logger.Error("report.journal.insert_failed", "source", r.Source, "error", err)
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// Rows returns the rows of a run in insertion order; an empty runID returns all rows.
func (j *Journal) Rows(ctx context.Context, runID string) ([]Row, error) {
	q := `SELECT run_id, source, backup, final_name, status, state, joined, second_chance,
		fields_json, items_json, error, elapsed_ms, recorded_at FROM renames`
	var args []any
	if runID != "" {
		q += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	q += ` ORDER BY id`

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []Row
	for rows.Next() {
		var (
			r             Row
			second        int
			values, items string
			at            string
		)
		if err := rows.Scan(&r.RunID, &r.Source, &r.Backup, &r.Final, &r.Status, &r.State, &r.Joined,
			&second, &values, &items, &r.Err, &r.ElapsedMS, &at); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		r.SecondChance = second == 1
		if err := json.Unmarshal([]byte(values), &r.Values); err != nil {
			return nil, fmt.Errorf("journal fields: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &r.Items); err != nil {
			return nil, fmt.Errorf("journal items: %w", err)
		}
		r.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}

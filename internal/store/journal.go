package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"mailcal/internal/model"
)

// Journal is an append-only SQLite record of what each run created and
// skipped. It is an audit trail only; nothing reads it to deduplicate, so
// re-running over the same email still creates a fresh calendar event.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// CreatedEvent is one journaled calendar insertion.
type CreatedEvent struct {
	EventID       string
	Link          string
	Title         string
	StartDate     string
	SourceSubject string
	CreatedAt     string
}

// NewJournal opens (or creates) the database at the given path and runs
// migrations.
func NewJournal(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS created_events (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id       TEXT NOT NULL,
	link           TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL,
	start_date     TEXT NOT NULL DEFAULT '',
	source_subject TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS skipped_emails (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	subject    TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordResults journals the successful insertions of one materialization
// batch in a single transaction. Failures are not journaled; they are already
// reported to the caller.
func (j *Journal) RecordResults(ctx context.Context, results []model.MaterializeResult) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO created_events (event_id, link, title, start_date, source_subject, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := j.now().UTC().Format(time.RFC3339)
	for _, r := range results {
		if r.Handle == nil {
			continue
		}
		_, err := stmt.ExecContext(ctx, r.Handle.ID, r.Handle.Link, r.Event.Title, r.Event.StartDate, r.Event.SourceSubject, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordSkip journals one email that produced no candidate.
func (j *Journal) RecordSkip(ctx context.Context, subject, reason string) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO skipped_emails (subject, reason, created_at) VALUES (?, ?, ?)",
		subject, reason, j.now().UTC().Format(time.RFC3339))
	return err
}

// RecentCreated returns the most recently journaled insertions, newest first.
func (j *Journal) RecentCreated(ctx context.Context, limit int) ([]CreatedEvent, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT event_id, link, title, start_date, source_subject, created_at
		FROM created_events ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CreatedEvent
	for rows.Next() {
		var e CreatedEvent
		if err := rows.Scan(&e.EventID, &e.Link, &e.Title, &e.StartDate, &e.SourceSubject, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountCreated returns the total number of journaled insertions.
func (j *Journal) CountCreated(ctx context.Context) (int, error) {
	var count int
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM created_events").Scan(&count)
	return count, err
}

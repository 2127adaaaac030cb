// Package audit persists Scheduler Instance lifecycle events to
// SQLite, so an operator can reconstruct the run/finish/exit/terminate/
// pool-release/free history of any scheduler after the fact via the
// introspection API. Events recorded during scheduler.Create (create,
// pool-bind) happen before a sink can be attached and are not stored.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists scheduler lifecycle events to a SQLite database. It
// implements scheduler.AuditSink.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) a SQLite database at dbPath and ensures the
// audit schema exists. Use ":memory:" for an ephemeral store, useful
// in tests.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	s := &Store{db: db, logger: logger.With("component", "audit")}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS sched_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    sched_id TEXT NOT NULL,
    kind INTEGER NOT NULL,
    event TEXT NOT NULL,
    detail TEXT NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sched_events_sched_id ON sched_events(sched_id);
`
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

// RecordSchedEvent implements scheduler.AuditSink. Write failures are
// logged, not returned: a broken audit log must never take down the
// scheduler it's observing.
func (s *Store) RecordSchedEvent(schedID string, kind uint64, event string, detail string) {
	_, err := s.db.Exec(
		`INSERT INTO sched_events (sched_id, kind, event, detail, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		schedID, kind, event, detail, time.Now().UTC(),
	)
	if err != nil {
		s.logger.Error("audit insert failed", "sched_id", schedID, "event", event, "error", err)
	}
}

// Event is one recorded lifecycle transition, returned by ListBySched
// for introspection.
type Event struct {
	SchedID    string
	Kind       uint64
	Event      string
	Detail     string
	RecordedAt time.Time
}

// ListBySched returns every recorded event for schedID, oldest first.
func (s *Store) ListBySched(ctx context.Context, schedID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sched_id, kind, event, detail, recorded_at FROM sched_events WHERE sched_id = ? ORDER BY id ASC`,
		schedID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.SchedID, &e.Kind, &e.Event, &e.Detail, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListRecent returns the most recently recorded events across every
// scheduler, newest first, capped at limit.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT sched_id, kind, event, detail, recorded_at FROM sched_events ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.SchedID, &e.Kind, &e.Event, &e.Detail, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

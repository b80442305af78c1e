package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go driver

	"termcal/internal/events"
	"termcal/internal/log"
)

// SQLiteConfig defines SQLite operational parameters
type SQLiteConfig struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultSQLiteConfig suits a single-user CLI with an occasional daemon reader
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	calendar         TEXT NOT NULL DEFAULT '',
	start_at         TEXT NOT NULL,
	end_at           TEXT NOT NULL,
	all_day          INTEGER NOT NULL DEFAULT 0,
	reminder_minutes INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_at);
`

// SQLiteStore persists events in a single SQLite database file
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// OpenSQLite opens (and migrates) the database at path with WAL and busy_timeout set on every connection
func OpenSQLite(path string, cfg SQLiteConfig) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate failed: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		path:   path,
		logger: log.WithComponent("store.sqlite"),
	}, nil
}

// Load returns every stored event
func (s *SQLiteStore) Load(ctx context.Context) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, location, calendar,
		start_at, end_at, all_day, reminder_minutes, created_at, updated_at FROM events ORDER BY start_at`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed event row")
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate events: %w", err)
	}
	return out, nil
}

func scanEvent(rows *sql.Rows) (events.Event, error) {
	var (
		e                                events.Event
		id, start, end, created, updated string
		allDay                           int
	)
	if err := rows.Scan(&id, &e.Title, &e.Description, &e.Location, &e.Calendar,
		&start, &end, &allDay, &e.ReminderMinutes, &created, &updated); err != nil {
		return events.Event{}, err
	}

	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return events.Event{}, err
	}
	if e.Start, err = parseTime(start); err != nil {
		return events.Event{}, err
	}
	if e.End, err = parseTime(end); err != nil {
		return events.Event{}, err
	}
	e.CreatedAt, _ = parseTime(created)
	e.UpdatedAt, _ = parseTime(updated)
	e.AllDay = allDay != 0
	return e, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Local(), nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// Put inserts or replaces an event
func (s *SQLiteStore) Put(ctx context.Context, e events.Event) error {
	if e.ID == uuid.Nil {
		return errors.New("event has no ID")
	}
	allDay := 0
	if e.AllDay {
		allDay = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO events (id, title, description, location, calendar,
		start_at, end_at, all_day, reminder_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			location = excluded.location,
			calendar = excluded.calendar,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			all_day = excluded.all_day,
			reminder_minutes = excluded.reminder_minutes,
			updated_at = excluded.updated_at`,
		e.ID.String(), e.Title, e.Description, e.Location, e.Calendar,
		formatTime(e.Start), formatTime(e.End), allDay, e.ReminderMinutes,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: upsert event: %w", err)
	}
	return nil
}

// Delete removes an event; deleting a missing ID is not an error
func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("sqlite: delete event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"studyfocus/internal/core/model"
	"studyfocus/internal/errclass"
)

//go:embed schema.sql
var schemaSQL string

// SessionStore keeps session records in SQLite, one row per session ID.
type SessionStore struct {
	db *sql.DB
}

// OpenSessionStore opens (and migrates) the database at dbPath.
func OpenSessionStore(dbPath string) (*SessionStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SessionStore{db: db}, nil
}

// Close closes the database.
func (store *SessionStore) Close() error {
	return store.db.Close()
}

// UpsertPartial creates the row for an in-progress session or raises its
// duration. Re-sending an already stored duration changes nothing, and a
// finalized row is never touched.
func (store *SessionStore) UpsertPartial(ctx context.Context, record model.SessionRecord) error {
	now := formatTime(time.Now())
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, session_type, duration, completed, final, goal, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, 0, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			duration = MAX(sessions.duration, excluded.duration),
			updated_at = excluded.updated_at
		WHERE sessions.final = 0`,
		record.ID, record.UserID, string(record.SessionType), record.DurationSeconds,
		nullString(record.Goal), formatTime(record.CreatedAt), now,
	)
	if err != nil {
		return errclass.ErrStoreUnavailable.WithMessagef("upsert partial %s: %v", record.ID, err)
	}
	return nil
}

// UpsertCompletion writes the final record for a session. The first
// completion wins; later deliveries for the same ID are ignored.
func (store *SessionStore) UpsertCompletion(ctx context.Context, record model.SessionRecord) error {
	now := formatTime(time.Now())
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, session_type, duration, completed, final, goal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			duration = excluded.duration,
			completed = excluded.completed,
			final = 1,
			goal = COALESCE(excluded.goal, sessions.goal),
			updated_at = excluded.updated_at
		WHERE sessions.final = 0`,
		record.ID, record.UserID, string(record.SessionType), record.DurationSeconds,
		boolInt(record.Completed), nullString(record.Goal), formatTime(record.CreatedAt), now,
	)
	if err != nil {
		return errclass.ErrStoreUnavailable.WithMessagef("upsert completion %s: %v", record.ID, err)
	}
	return nil
}

// Get returns a single session by ID.
func (store *SessionStore) Get(ctx context.Context, id string) (model.SessionRecord, bool, error) {
	row := store.db.QueryRowContext(ctx, `
		SELECT id, user_id, session_type, duration, completed, final, goal, created_at
		FROM sessions WHERE id = ?`, id)
	record, err := scanSession(row)
	if err == sql.ErrNoRows {
		return model.SessionRecord{}, false, nil
	}
	if err != nil {
		return model.SessionRecord{}, false, err
	}
	return record, true, nil
}

// List returns the most recent sessions of a user, newest first.
func (store *SessionStore) List(ctx context.Context, userID string, limit int) ([]model.SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := store.db.QueryContext(ctx, `
		SELECT id, user_id, session_type, duration, completed, final, goal, created_at
		FROM sessions WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []model.SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.SessionRecord, error) {
	var (
		record    model.SessionRecord
		mode      string
		completed int
		final     int
		goal      sql.NullString
		createdAt string
	)
	if err := row.Scan(&record.ID, &record.UserID, &mode, &record.DurationSeconds, &completed, &final, &goal, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return record, err
		}
		return record, fmt.Errorf("scan session: %w", err)
	}
	record.SessionType = model.Mode(mode)
	record.Completed = completed != 0
	record.Final = final != 0
	record.Goal = goal.String
	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return record, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	record.CreatedAt = parsed
	return record, nil
}

// timeLayout keeps every fraction digit so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// Package auditlog keeps API access entries in a local SQLite file.
package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ehr/regimen/internal/platform/middleware"
)

const schema = `
CREATE TABLE IF NOT EXISTS access_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	user_roles TEXT NOT NULL DEFAULT '',
	resource_type TEXT NOT NULL DEFAULT '',
	resource_id TEXT NOT NULL DEFAULT '',
	patient_id INTEGER NOT NULL DEFAULT 0,
	action TEXT NOT NULL,
	method TEXT NOT NULL,
	path TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT '',
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_access_log_patient ON access_log(patient_id);
CREATE INDEX IF NOT EXISTS idx_access_log_recorded ON access_log(recorded_at);
`

const insertEntry = `INSERT INTO access_log (
	entry_id, user_id, user_roles, resource_type, resource_id, patient_id,
	action, method, path, status_code, ip_address, user_agent, request_id, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRecent = `SELECT entry_id, user_id, user_roles, resource_type, resource_id, patient_id,
	action, method, path, status_code, ip_address, user_agent, request_id, recorded_at
FROM access_log ORDER BY id DESC LIMIT ?`

// Store implements middleware.AuditRecorder.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// Open opens or creates the database at path. ":memory:" keeps the log in
// process memory.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create audit log directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	// SQLite allows one writer.
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return New(db), nil
}

// New wraps an open database whose schema already exists.
func New(db *sql.DB) *Store {
	return &Store{db: db, timeout: 2 * time.Second}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordAccess appends one entry. It is called after the response has been
// written, so it carries its own deadline.
func (s *Store) RecordAccess(e middleware.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, insertEntry,
		e.ID, e.UserID, strings.Join(e.UserRoles, ","), e.ResourceType, e.ResourceID, e.PatientID,
		e.Action, e.Method, e.Path, e.StatusCode, e.IPAddress, e.UserAgent, e.RequestID,
		ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]middleware.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []middleware.AuditEntry
	for rows.Next() {
		var e middleware.AuditEntry
		var roles, recorded string
		if err := rows.Scan(
			&e.ID, &e.UserID, &roles, &e.ResourceType, &e.ResourceID, &e.PatientID,
			&e.Action, &e.Method, &e.Path, &e.StatusCode, &e.IPAddress, &e.UserAgent, &e.RequestID, &recorded,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if roles != "" {
			e.UserRoles = strings.Split(roles, ",")
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, recorded); err != nil {
			return nil, fmt.Errorf("parse audit timestamp %q: %w", recorded, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

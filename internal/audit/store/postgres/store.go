package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"typeindex/internal/audit"
)

// Schema creates the audit table. It is safe to apply repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          TEXT PRIMARY KEY,
	category    TEXT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	webid       TEXT NOT NULL,
	action      TEXT NOT NULL,
	index_uri   TEXT NOT NULL DEFAULT '',
	class       TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	visibility  TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	detail      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_webid_ts ON audit_events (webid, timestamp DESC);
`

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies Schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// Append inserts an event. Duplicate IDs are ignored so redelivery is harmless.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, webid, action,
			index_uri, class, location, visibility, request_id, detail
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Category),
		event.Timestamp,
		event.WebID,
		event.Action,
		event.IndexURI,
		event.Class,
		event.Location,
		event.Visibility,
		event.RequestID,
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByWebID returns events for webID, most recent first. A non-positive
// limit returns every event.
func (s *Store) ListByWebID(ctx context.Context, webID string, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, category, timestamp, webid, action,
			   index_uri, class, location, visibility, request_id, detail
		FROM audit_events
		WHERE webid = $1
		ORDER BY timestamp DESC
	`
	args := []any{webID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category string
			event    audit.Event
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&event.WebID,
			&event.Action,
			&event.IndexURI,
			&event.Class,
			&event.Location,
			&event.Visibility,
			&event.RequestID,
			&event.Detail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

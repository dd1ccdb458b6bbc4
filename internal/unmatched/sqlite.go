package unmatched

import (
	"context"
	"fmt"
	"time"

	"github.com/ziadkadry99/errmatch/internal/db"
	"github.com/ziadkadry99/errmatch/internal/matcher"
)

// Store persists unmatched entries in SQLite. It is both a Sink and the
// source for full exports.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

func (s *Store) Write(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unmatched_errors (id, timestamp, error_message, session_id, user_context, category)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Timestamp.UTC().Format(storedLayout),
		e.ErrorMessage,
		e.SessionID,
		e.UserContext,
		string(e.Category),
	)
	if err != nil {
		return fmt.Errorf("inserting unmatched error: %w", err)
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	SessionID string
	Since     *time.Time
	Limit     int
}

// List returns stored entries, oldest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	query := `SELECT id, timestamp, error_message, session_id, user_context, category FROM unmatched_errors WHERE 1=1`
	var args []any
	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}
	if filter.Since != nil {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC().Format(storedLayout))
	}
	query += " ORDER BY timestamp ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying unmatched errors: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			ts       string
			category string
		)
		if err := rows.Scan(&e.ID, &ts, &e.ErrorMessage, &e.SessionID, &e.UserContext, &category); err != nil {
			return nil, fmt.Errorf("scanning unmatched error: %w", err)
		}
		t, err := parseTimestamp(ts)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp for %s: %w", e.ID, err)
		}
		e.Timestamp = t
		e.Category = matcher.Category(category)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM unmatched_errors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting unmatched errors: %w", err)
	}
	return n, nil
}

// storedLayout has a fixed-width fraction so stored timestamps sort as text.
const storedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestampLayouts covers the text forms SQLite drivers hand back for
// DATETIME columns.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	time.DateTime,
}

func parseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/diamond-desk/internal/db"
)

// Store provides read and append operations for ledger entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Categories == nil {
		entry.Categories = []string{}
	}

	categories, err := json.Marshal(entry.Categories)
	if err != nil {
		return fmt.Errorf("marshalling categories: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, action, session_id, summary,
			prompt_tokens, completion_tokens, categories
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		string(entry.Action),
		entry.SessionID,
		entry.Summary,
		entry.PromptTokens,
		entry.CompletionTokens,
		string(categories),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// GetByID retrieves a single entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, action, session_id, summary,
			   prompt_tokens, completion_tokens, categories
		FROM audit_entries WHERE id = ?`, id)

	return scanInto(row)
}

// QueryFilter controls which entries are returned by Query.
type QueryFilter struct {
	SessionID string
	Action    Action
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

func (f QueryFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if f.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(f.Action))
	}
	if f.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(time.DateTime))
	}
	if f.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, f.Until.UTC().Format(time.DateTime))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	where, args := filter.where()
	query := "SELECT id, timestamp, action, session_id, summary, prompt_tokens, completion_tokens, categories FROM audit_entries" +
		where + " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// UsageTotals sums chat turns matching the filter. Limit and Offset are ignored.
func (s *Store) UsageTotals(ctx context.Context, filter QueryFilter) (*Totals, error) {
	filter.Action = ""
	where, args := filter.where()
	if where == "" {
		where = " WHERE "
	} else {
		where += " AND "
	}
	where += "action IN ('turn_answered', 'turn_blocked')"

	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN action = 'turn_answered' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN action = 'turn_blocked' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0)
		FROM audit_entries`+where, args...,
	).Scan(&t.Turns, &t.Blocked, &t.PromptTokens, &t.CompletionTokens)
	if err != nil {
		return nil, fmt.Errorf("summing usage: %w", err)
	}
	return &t, nil
}

// DeleteBefore removes all entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// timestampLayouts covers SQLite's datetime('now') text and the RFC 3339
// form database/sql produces when the driver hands back a time.Time.
var timestampLayouts = []string{time.DateTime, time.RFC3339Nano}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e              Entry
		action, ts     string
		categoriesJSON string
	)

	err := sc.Scan(&e.ID, &ts, &action, &e.SessionID, &e.Summary,
		&e.PromptTokens, &e.CompletionTokens, &categoriesJSON)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning audit entry: %w", err)
	}

	e.Action = Action(action)
	for _, layout := range timestampLayouts {
		if t, parseErr := time.Parse(layout, ts); parseErr == nil {
			e.Timestamp = t
			break
		}
	}

	if err := json.Unmarshal([]byte(categoriesJSON), &e.Categories); err != nil {
		e.Categories = nil
	}

	return &e, nil
}

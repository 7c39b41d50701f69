package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/pixelgraph/schemas"
	"github.com/smallnest/pixelgraph/store"
)

// SqliteEventStore implements store.EventStore using SQLite
type SqliteEventStore struct {
	db        *sql.DB
	tableName string
}

var _ store.EventStore = (*SqliteEventStore)(nil)

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "game_events"
}

// NewSqliteEventStore opens (or creates) the database file and its schema.
func NewSqliteEventStore(opts SqliteOptions) (*SqliteEventStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent appends
	db.SetMaxOpenConns(1)

	tableName := opts.TableName
	if tableName == "" {
		tableName = "game_events"
	}

	s := &SqliteEventStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist.
// Timestamps are stored as unix nanoseconds so aggregates stay numeric.
func (s *SqliteEventStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			type TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			data TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_run_id ON %s (run_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteEventStore) Close() error {
	return s.db.Close()
}

// Append records an event at the end of a run.
func (s *SqliteEventStore) Append(ctx context.Context, runID string, event schemas.GameEvent) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, event_id, type, agent_id, data, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		runID,
		event.EventID,
		string(event.Type),
		event.AgentID,
		string(data),
		event.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// List returns the events of a run in append order.
func (s *SqliteEventStore) List(ctx context.Context, runID string) ([]schemas.GameEvent, error) {
	query := fmt.Sprintf(`
		SELECT event_id, type, agent_id, data, timestamp
		FROM %s
		WHERE run_id = ?
		ORDER BY seq ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []schemas.GameEvent
	for rows.Next() {
		var (
			ev       schemas.GameEvent
			typ      string
			dataJSON string
			ts       int64
		)
		if err := rows.Scan(&ev.EventID, &typ, &ev.AgentID, &dataJSON, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(dataJSON), &ev.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
		if ev.Data == nil {
			ev.Data = map[string]any{}
		}
		ev.Type = schemas.EventType(typ)
		ev.Timestamp = time.Unix(0, ts).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(events) == 0 {
		return nil, store.ErrRunNotFound
	}
	return events, nil
}

// Runs returns all runs, most recently updated first.
func (s *SqliteEventStore) Runs(ctx context.Context) ([]store.RunSummary, error) {
	query := fmt.Sprintf(`
		SELECT run_id, COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM %s
		GROUP BY run_id
		ORDER BY MAX(timestamp) DESC, MAX(seq) DESC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []store.RunSummary{}
	for rows.Next() {
		var (
			summary       store.RunSummary
			first, latest int64
		)
		if err := rows.Scan(&summary.RunID, &summary.Events, &first, &latest); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summary.StartedAt = time.Unix(0, first).UTC()
		summary.UpdatedAt = time.Unix(0, latest).UTC()
		runs = append(runs, summary)
	}
	return runs, rows.Err()
}

// Clear removes all events of a run.
func (s *SqliteEventStore) Clear(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to clear run: %w", err)
	}
	return nil
}

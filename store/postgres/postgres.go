package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/pixelgraph/schemas"
	"github.com/smallnest/pixelgraph/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresEventStore implements store.EventStore using PostgreSQL
type PostgresEventStore struct {
	pool      DBPool
	tableName string
}

var _ store.EventStore = (*PostgresEventStore)(nil)

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "game_events"
}

// NewPostgresEventStore connects to Postgres and creates the schema.
func NewPostgresEventStore(ctx context.Context, opts PostgresOptions) (*PostgresEventStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	s := NewPostgresEventStoreWithPool(pool, opts.TableName)
	if err := s.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresEventStoreWithPool creates a new Postgres event store with an existing pool
// Useful for testing with mocks
func NewPostgresEventStoreWithPool(pool DBPool, tableName string) *PostgresEventStore {
	if tableName == "" {
		tableName = "game_events"
	}
	return &PostgresEventStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresEventStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			event_id TEXT NOT NULL,
			type TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			data JSONB NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_run_id ON %s (run_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresEventStore) Close() error {
	s.pool.Close()
	return nil
}

// Append records an event at the end of a run.
func (s *PostgresEventStore) Append(ctx context.Context, runID string, event schemas.GameEvent) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, event_id, type, agent_id, data, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		runID,
		event.EventID,
		string(event.Type),
		event.AgentID,
		data,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// List returns the events of a run in append order.
func (s *PostgresEventStore) List(ctx context.Context, runID string) ([]schemas.GameEvent, error) {
	query := fmt.Sprintf(`
		SELECT event_id, type, agent_id, data, timestamp
		FROM %s
		WHERE run_id = $1
		ORDER BY seq ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []schemas.GameEvent
	for rows.Next() {
		var (
			ev       schemas.GameEvent
			typ      string
			dataJSON []byte
			ts       time.Time
		)
		if err := rows.Scan(&ev.EventID, &typ, &ev.AgentID, &dataJSON, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal(dataJSON, &ev.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
		if ev.Data == nil {
			ev.Data = map[string]any{}
		}
		ev.Type = schemas.EventType(typ)
		ev.Timestamp = ts.UTC()
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
func (s *PostgresEventStore) Runs(ctx context.Context) ([]store.RunSummary, error) {
	query := fmt.Sprintf(`
		SELECT run_id, COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM %s
		GROUP BY run_id
		ORDER BY MAX(timestamp) DESC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []store.RunSummary{}
	for rows.Next() {
		var (
			summary store.RunSummary
			count   int64
		)
		if err := rows.Scan(&summary.RunID, &count, &summary.StartedAt, &summary.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summary.Events = int(count)
		summary.StartedAt = summary.StartedAt.UTC()
		summary.UpdatedAt = summary.UpdatedAt.UTC()
		runs = append(runs, summary)
	}
	return runs, rows.Err()
}

// Clear removes all events of a run.
func (s *PostgresEventStore) Clear(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to clear run: %w", err)
	}
	return nil
}

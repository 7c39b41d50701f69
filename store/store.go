package store

import (
	"context"
	"errors"
	"time"

	"github.com/smallnest/pixelgraph/schemas"
)

// ErrRunNotFound is returned when a run has no recorded events.
var ErrRunNotFound = errors.New("run not found")

// RunSummary describes a recorded simulation run.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	Events    int       `json:"events"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventStore persists the events of every simulation run so they can be
// replayed later.
type EventStore interface {
	// Append records an event at the end of a run.
	Append(ctx context.Context, runID string, event schemas.GameEvent) error

	// List returns the events of a run in append order.
	// It returns ErrRunNotFound when the run has no events.
	List(ctx context.Context, runID string) ([]schemas.GameEvent, error)

	// Runs returns all runs, most recently updated first.
	Runs(ctx context.Context) ([]RunSummary, error)

	// Clear removes all events of a run.
	Clear(ctx context.Context, runID string) error

	// Close releases the underlying connection.
	Close() error
}

package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/smallnest/pixelgraph/schemas"
	"github.com/smallnest/pixelgraph/store"
)

// MemoryEventStore keeps runs in process memory.
type MemoryEventStore struct {
	mu   sync.RWMutex
	runs map[string][]schemas.GameEvent
	// maxRuns bounds the number of retained runs; zero is unbounded.
	maxRuns int
	order   []string
}

var _ store.EventStore = (*MemoryEventStore)(nil)

// NewMemoryEventStore creates an in-memory store. When maxRuns is positive
// the oldest runs are evicted once more than maxRuns are recorded.
func NewMemoryEventStore(maxRuns int) *MemoryEventStore {
	return &MemoryEventStore{
		runs:    make(map[string][]schemas.GameEvent),
		maxRuns: maxRuns,
	}
}

// Append records an event at the end of a run.
func (s *MemoryEventStore) Append(_ context.Context, runID string, event schemas.GameEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		s.order = append(s.order, runID)
		if s.maxRuns > 0 && len(s.order) > s.maxRuns {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.runs, oldest)
		}
	}
	s.runs[runID] = append(s.runs[runID], event)
	return nil
}

// List returns the events of a run in append order.
func (s *MemoryEventStore) List(_ context.Context, runID string) ([]schemas.GameEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.runs[runID]
	if !ok || len(events) == 0 {
		return nil, store.ErrRunNotFound
	}
	return slices.Clone(events), nil
}

// Runs returns all runs, most recently updated first.
func (s *MemoryEventStore) Runs(_ context.Context) ([]store.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]store.RunSummary, 0, len(s.runs))
	for runID, events := range s.runs {
		if len(events) == 0 {
			continue
		}
		summaries = append(summaries, store.RunSummary{
			RunID:     runID,
			Events:    len(events),
			StartedAt: events[0].Timestamp,
			UpdatedAt: events[len(events)-1].Timestamp,
		})
	}
	slices.SortFunc(summaries, func(a, b store.RunSummary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return summaries, nil
}

// Clear removes all events of a run.
func (s *MemoryEventStore) Clear(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runs, runID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == runID })
	return nil
}

// Close is a no-op.
func (s *MemoryEventStore) Close() error {
	return nil
}

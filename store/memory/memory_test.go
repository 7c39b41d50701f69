package memory

import (
	"context"
	"testing"
	"time"

	"github.com/smallnest/pixelgraph/schemas"
	"github.com/smallnest/pixelgraph/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventAt(t time.Time, et schemas.EventType) schemas.GameEvent {
	ev := schemas.NewGameEvent(et, "wizard", nil)
	ev.Timestamp = t
	return ev
}

func TestMemoryEventStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore(0)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, "run-1", eventAt(base, schemas.EventSimulationStart)))
	require.NoError(t, s.Append(ctx, "run-1", eventAt(base.Add(time.Second), schemas.EventAgentSpeak)))
	require.NoError(t, s.Append(ctx, "run-2", eventAt(base.Add(2*time.Second), schemas.EventSimulationStart)))

	events, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, schemas.EventSimulationStart, events[0].Type)
	assert.Equal(t, schemas.EventAgentSpeak, events[1].Type)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, store.RunSummary{RunID: "run-1", Events: 2, StartedAt: base, UpdatedAt: base.Add(time.Second)}, runs[1])

	require.NoError(t, s.Clear(ctx, "run-1"))
	_, err = s.List(ctx, "run-1")
	assert.ErrorIs(t, err, store.ErrRunNotFound)
	assert.NoError(t, s.Close())
}

func TestMemoryEventStore_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore(0)
	require.NoError(t, s.Append(ctx, "run", eventAt(time.Now(), schemas.EventAgentIdle)))

	events, err := s.List(ctx, "run")
	require.NoError(t, err)
	events[0].Type = schemas.EventError

	again, err := s.List(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, schemas.EventAgentIdle, again[0].Type)
}

func TestMemoryEventStore_Eviction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEventStore(2)
	now := time.Now()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Append(ctx, id, eventAt(now, schemas.EventSimulationStart)))
	}

	_, err := s.List(ctx, "a")
	assert.ErrorIs(t, err, store.ErrRunNotFound)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

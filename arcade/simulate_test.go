package arcade

import (
	"context"
	"errors"
	"testing"

	"github.com/smallnest/pixelgraph/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_Completed(t *testing.T) {
	sink := &recordingSink{}
	em := NewEmitter(sink, "run-7")

	err := Simulate(context.Background(), &DemoRunner{}, "hi", em)
	require.NoError(t, err)

	types := sink.types()
	require.Len(t, types, 7)
	assert.Equal(t, schemas.EventSimulationStart, types[0])
	assert.Equal(t, schemas.EventSimulationEnd, types[6])

	end := sink.find(t, schemas.EventSimulationEnd)
	assert.Equal(t, StatusCompleted, end.String(schemas.DataStatus))
	assert.Equal(t, "run-7", end.String(schemas.DataRunID))
}

func TestSimulate_Failed(t *testing.T) {
	boom := errors.New("boom")
	runner := RunnerFunc(func(ctx context.Context, input string, em *Emitter) error {
		return boom
	})

	sink := &recordingSink{}
	err := Simulate(context.Background(), runner, "hi", NewEmitter(sink, "run"))
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []schemas.EventType{
		schemas.EventSimulationStart,
		schemas.EventError,
		schemas.EventSimulationEnd,
	}, sink.types())
	errEvent := sink.find(t, schemas.EventError)
	assert.Equal(t, schemas.SystemAgentID, errEvent.AgentID)
	assert.Equal(t, "boom", errEvent.String(schemas.DataError))
	assert.Equal(t, StatusFailed, sink.find(t, schemas.EventSimulationEnd).String(schemas.DataStatus))
}

func TestSimulate_ReportedErrorNotDuplicated(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, input string, em *Emitter) error {
		err := errors.New("node failed")
		_ = em.Error(ctx, "chatbot", err)
		return err
	})

	sink := &recordingSink{}
	require.Error(t, Simulate(context.Background(), runner, "hi", NewEmitter(sink, "run")))

	count := 0
	for _, typ := range sink.types() {
		if typ == schemas.EventError {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := RunnerFunc(func(ctx context.Context, input string, em *Emitter) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	sink := &recordingSink{}
	err := Simulate(ctx, runner, "hi", NewEmitter(sink, "run"))
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []schemas.EventType{schemas.EventSimulationStart, schemas.EventSimulationEnd}, sink.types())
	assert.Equal(t, StatusCancelled, sink.find(t, schemas.EventSimulationEnd).String(schemas.DataStatus))
}

func TestSimulate_StartPublishFails(t *testing.T) {
	ran := false
	runner := RunnerFunc(func(ctx context.Context, input string, em *Emitter) error {
		ran = true
		return nil
	})

	sink := &recordingSink{failOn: schemas.EventSimulationStart}
	err := Simulate(context.Background(), runner, "hi", NewEmitter(sink, "run"))
	assert.ErrorIs(t, err, errSinkClosed)
	assert.False(t, ran)
}

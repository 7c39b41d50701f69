package arcade

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/smallnest/pixelgraph/schemas"
)

// recordingSink collects published events and can be told to fail.
type recordingSink struct {
	mu     sync.Mutex
	events []schemas.GameEvent
	failOn schemas.EventType
}

var errSinkClosed = errors.New("sink closed")

func (s *recordingSink) Publish(_ context.Context, event schemas.GameEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && event.Type == s.failOn {
		return errSinkClosed
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []schemas.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]schemas.EventType, len(s.events))
	for i, ev := range s.events {
		types[i] = ev.Type
	}
	return types
}

func (s *recordingSink) find(t *testing.T, eventType schemas.EventType) schemas.GameEvent {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.Type == eventType {
			return ev
		}
	}
	t.Fatalf("no %s event published", eventType)
	return schemas.GameEvent{}
}

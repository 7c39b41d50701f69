package graph

import (
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// StateSchema defines the structure and update logic for the graph state.
type StateSchema[S any] interface {
	// Init returns the initial state.
	Init() S

	// Update merges a node's output into the current state.
	Update(current, update S) (S, error)
}

// StructSchema is a StateSchema built from an initial value and a merge function.
type StructSchema[S any] struct {
	initial S
	merge   func(current, update S) (S, error)
}

// NewStructSchema creates a schema for struct states. A nil merge function
// replaces the state with the update.
func NewStructSchema[S any](initial S, merge func(current, update S) (S, error)) *StructSchema[S] {
	return &StructSchema[S]{initial: initial, merge: merge}
}

// Init returns the initial state.
func (s *StructSchema[S]) Init() S {
	return s.initial
}

// Update merges the update into the current state.
func (s *StructSchema[S]) Update(current, update S) (S, error) {
	if s.merge == nil {
		return update, nil
	}
	return s.merge(current, update)
}

// MessagesState is the state of conversational graphs: the message history.
// Nodes return only the messages they add.
type MessagesState struct {
	Messages []llms.MessageContent `json:"messages"`
}

// NewMessagesState creates a state holding a single human message.
func NewMessagesState(input string) MessagesState {
	return MessagesState{
		Messages: []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, input)},
	}
}

// MessagesSchema appends node messages to the history.
func MessagesSchema() *StructSchema[MessagesState] {
	return NewStructSchema(MessagesState{}, func(current, update MessagesState) (MessagesState, error) {
		merged := make([]llms.MessageContent, 0, len(current.Messages)+len(update.Messages))
		merged = append(merged, current.Messages...)
		merged = append(merged, update.Messages...)
		return MessagesState{Messages: merged}, nil
	})
}

// LastAIText returns the text of the most recent AI message, or "".
func (s MessagesState) LastAIText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		msg := s.Messages[i]
		if msg.Role != llms.ChatMessageTypeAI {
			continue
		}
		var sb strings.Builder
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}

package prebuilt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/smallnest/pixelgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel answers with one scripted choice per call and records
// what it was called with.
type scriptedModel struct {
	mu       sync.Mutex
	choices  []*llms.ContentChoice
	err      error
	calls    [][]llms.MessageContent
	withTool []bool
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	m.calls = append(m.calls, messages)
	m.withTool = append(m.withTool, len(opts.Tools) > 0)

	if m.err != nil {
		return nil, m.err
	}
	idx := len(m.calls) - 1
	if idx >= len(m.choices) {
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "default response"}}}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{m.choices[idx]}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// upperTool upper-cases its input.
type upperTool struct{}

func (upperTool) Name() string        { return "upper" }
func (upperTool) Description() string { return "upper-cases text" }
func (upperTool) Call(ctx context.Context, input string) (string, error) {
	return strings.ToUpper(input), nil
}

// failingTool always fails.
type failingTool struct{}

func (failingTool) Name() string        { return "broken" }
func (failingTool) Description() string { return "always fails" }
func (failingTool) Call(ctx context.Context, input string) (string, error) {
	return "", errors.New("out of order")
}

func toolCall(id, name, args string) llms.ToolCall {
	return llms.ToolCall{
		ID:           id,
		Type:         "function",
		FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
	}
}

func TestCreateChatbot_NilModel(t *testing.T) {
	_, err := CreateChatbot(nil)
	assert.ErrorIs(t, err, ErrNilModel)
}

func TestCreateChatbot_Answers(t *testing.T) {
	model := &scriptedModel{choices: []*llms.ContentChoice{{Content: "Hello, traveller!"}}}
	app, err := CreateChatbot(model, WithSystemPrompt("You are a wizard."))
	require.NoError(t, err)

	assert.Equal(t, "chatbot", app.GetGraph().Topology().EntryPoint)

	final, err := app.Invoke(context.Background(), graph.NewMessagesState("hi"))
	require.NoError(t, err)

	require.Len(t, final.Messages, 2)
	assert.Equal(t, llms.ChatMessageTypeHuman, final.Messages[0].Role)
	assert.Equal(t, "Hello, traveller!", final.LastAIText())

	require.Len(t, model.calls, 1)
	require.Len(t, model.calls[0], 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.calls[0][0].Role)
	assert.False(t, model.withTool[0])
}

func TestCreateChatbot_NodeName(t *testing.T) {
	app, err := CreateChatbot(&scriptedModel{}, WithNodeName("oracle"))
	require.NoError(t, err)
	topo := app.GetGraph().Topology()
	require.Len(t, topo.Nodes, 1)
	assert.Equal(t, "oracle", topo.Nodes[0].ID)
}

func TestCreateChatbot_ToolRound(t *testing.T) {
	model := &scriptedModel{choices: []*llms.ContentChoice{
		{ToolCalls: []llms.ToolCall{toolCall("call-1", "upper", `{"input":"quiet"}`)}},
		{Content: "It says QUIET."},
	}}
	app, err := CreateChatbot(model, WithTools(upperTool{}))
	require.NoError(t, err)

	var mu sync.Mutex
	var events []graph.NodeEvent
	var calls []graph.ToolCall
	listener := graph.NodeListenerFunc(func(ctx context.Context, event graph.NodeEvent, node string, state any, err error) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		if call, ok := state.(graph.ToolCall); ok {
			assert.Equal(t, "chatbot", node)
			calls = append(calls, call)
		}
	})

	final, err := app.InvokeWithConfig(context.Background(), graph.NewMessagesState("shout quiet"), &graph.Config{
		Listeners: []graph.NodeListener{listener},
	})
	require.NoError(t, err)

	assert.Equal(t, []graph.NodeEvent{
		graph.EventChainStart,
		graph.NodeEventStart,
		graph.EventToolStart,
		graph.EventToolEnd,
		graph.NodeEventComplete,
		graph.EventChainEnd,
	}, events)
	require.Len(t, calls, 2)
	assert.Equal(t, "quiet", calls[0].Input)
	assert.Equal(t, "QUIET", calls[1].Output)

	// human, AI tool request, tool response, AI answer
	require.Len(t, final.Messages, 4)
	assert.Equal(t, llms.ChatMessageTypeTool, final.Messages[2].Role)
	resp, ok := final.Messages[2].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call-1", resp.ToolCallID)
	assert.Equal(t, "QUIET", resp.Content)
	assert.Equal(t, "It says QUIET.", final.LastAIText())

	assert.Equal(t, []bool{true, true}, model.withTool)
	assert.Len(t, model.calls[1], 3)
}

func TestCreateChatbot_ToolFailuresGoBackToModel(t *testing.T) {
	model := &scriptedModel{choices: []*llms.ContentChoice{
		{ToolCalls: []llms.ToolCall{
			toolCall("a", "broken", `{"input":"x"}`),
			toolCall("b", "missing", `raw args`),
		}},
		{Content: "Both tools failed."},
	}}
	app, err := CreateChatbot(model, WithTools(failingTool{}))
	require.NoError(t, err)

	final, err := app.Invoke(context.Background(), graph.NewMessagesState("try"))
	require.NoError(t, err)

	first := final.Messages[2].Parts[0].(llms.ToolCallResponse)
	assert.Equal(t, "error: out of order", first.Content)
	second := final.Messages[3].Parts[0].(llms.ToolCallResponse)
	assert.Contains(t, second.Content, "unknown tool: missing")
	assert.Equal(t, "Both tools failed.", final.LastAIText())
}

func TestCreateChatbot_MaxToolRounds(t *testing.T) {
	loop := &llms.ContentChoice{ToolCalls: []llms.ToolCall{toolCall("c", "upper", `{"input":"again"}`)}}
	model := &scriptedModel{choices: []*llms.ContentChoice{loop, loop, {Content: "Giving up on tools."}}}
	app, err := CreateChatbot(model, WithTools(upperTool{}), WithMaxToolRounds(2))
	require.NoError(t, err)

	final, err := app.Invoke(context.Background(), graph.NewMessagesState("loop"))
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true, false}, model.withTool)
	assert.Equal(t, "Giving up on tools.", final.LastAIText())
}

func TestCreateChatbot_Errors(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		app, err := CreateChatbot(&scriptedModel{err: errors.New("rate limited")})
		require.NoError(t, err)
		_, err = app.Invoke(context.Background(), graph.NewMessagesState("hi"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("empty answer", func(t *testing.T) {
		app, err := CreateChatbot(&scriptedModel{choices: []*llms.ContentChoice{{}}})
		require.NoError(t, err)
		_, err = app.Invoke(context.Background(), graph.NewMessagesState("hi"))
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestToolInput(t *testing.T) {
	assert.Equal(t, "2 + 2", toolInput(`{"input":"2 + 2"}`))
	assert.Equal(t, "", toolInput(`{"input":""}`))
	assert.Equal(t, `{"other":1}`, toolInput(`{"other":1}`))
	assert.Equal(t, "plain", toolInput("plain"))
}

package prebuilt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/smallnest/pixelgraph/graph"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

const (
	// DefaultChatbotNode is the name of the chatbot node.
	DefaultChatbotNode = "chatbot"

	// DefaultMaxToolRounds bounds the tool calling rounds of one turn.
	DefaultMaxToolRounds = 3
)

var (
	// ErrNilModel is returned by CreateChatbot without a model.
	ErrNilModel = errors.New("chatbot requires a model")

	// ErrEmptyResponse is returned when the model answers with nothing.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrUnknownTool is reported to the model when it calls a tool that
	// was not registered.
	ErrUnknownTool = errors.New("unknown tool")
)

// ChatbotOption configures CreateChatbot.
type ChatbotOption func(*chatbot)

// WithTools lets the model call tools. Tool calls are reported to graph
// listeners as tool events.
func WithTools(ts ...tools.Tool) ChatbotOption {
	return func(c *chatbot) {
		c.tools = append(c.tools, ts...)
	}
}

// WithMaxToolRounds sets how many times the model may call tools before it
// must answer. Zero disables tools.
func WithMaxToolRounds(n int) ChatbotOption {
	return func(c *chatbot) {
		if n >= 0 {
			c.maxToolRounds = n
		}
	}
}

// WithSystemPrompt prepends a system message to every model call.
func WithSystemPrompt(prompt string) ChatbotOption {
	return func(c *chatbot) {
		c.systemPrompt = prompt
	}
}

// WithNodeName renames the chatbot node, which is also the agent ID shown
// by the front end.
func WithNodeName(name string) ChatbotOption {
	return func(c *chatbot) {
		if name != "" {
			c.nodeName = name
		}
	}
}

// WithCallOptions passes options such as llms.WithTemperature to every
// model call.
func WithCallOptions(opts ...llms.CallOption) ChatbotOption {
	return func(c *chatbot) {
		c.callOptions = append(c.callOptions, opts...)
	}
}

type chatbot struct {
	model         llms.Model
	tools         []tools.Tool
	maxToolRounds int
	systemPrompt  string
	nodeName      string
	callOptions   []llms.CallOption

	toolsByName map[string]tools.Tool
	toolDefs    []llms.Tool
}

// CreateChatbot builds the graph START -> chatbot -> END over
// graph.MessagesState. The node answers the conversation with model,
// executing tool calls in between when tools are configured.
func CreateChatbot(model llms.Model, opts ...ChatbotOption) (*graph.StateRunnable[graph.MessagesState], error) {
	if model == nil {
		return nil, ErrNilModel
	}

	c := &chatbot{
		model:         model,
		maxToolRounds: DefaultMaxToolRounds,
		nodeName:      DefaultChatbotNode,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.indexTools()

	workflow := graph.NewStateGraph[graph.MessagesState]()
	workflow.SetSchema(graph.MessagesSchema())
	workflow.AddNode(c.nodeName, "Answers the conversation", c.respond)
	workflow.AddEdge(graph.START, c.nodeName)
	workflow.AddEdge(c.nodeName, graph.END)

	return workflow.Compile()
}

func (c *chatbot) indexTools() {
	c.toolsByName = make(map[string]tools.Tool, len(c.tools))
	for _, t := range c.tools {
		c.toolsByName[t.Name()] = t
		c.toolDefs = append(c.toolDefs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": fmt.Sprintf("Input for the %s tool", t.Name()),
						},
					},
					"required": []string{"input"},
				},
			},
		})
	}
}

// respond returns only the messages added during this turn.
func (c *chatbot) respond(ctx context.Context, state graph.MessagesState) (graph.MessagesState, error) {
	var history []llms.MessageContent
	if c.systemPrompt != "" {
		history = append(history, llms.TextParts(llms.ChatMessageTypeSystem, c.systemPrompt))
	}
	history = append(history, state.Messages...)

	var added []llms.MessageContent
	for round := 0; ; round++ {
		offerTools := len(c.toolDefs) > 0 && round < c.maxToolRounds

		callOpts := slices.Clone(c.callOptions)
		if offerTools {
			callOpts = append(callOpts, llms.WithTools(c.toolDefs), llms.WithToolChoice("auto"))
		}

		resp, err := c.model.GenerateContent(ctx, append(slices.Clone(history), added...), callOpts...)
		if err != nil {
			return graph.MessagesState{}, fmt.Errorf("generate content: %w", err)
		}
		if len(resp.Choices) == 0 {
			return graph.MessagesState{}, ErrEmptyResponse
		}
		choice := resp.Choices[0]

		if !offerTools || len(choice.ToolCalls) == 0 {
			if choice.Content == "" {
				return graph.MessagesState{}, ErrEmptyResponse
			}
			added = append(added, llms.TextParts(llms.ChatMessageTypeAI, choice.Content))
			return graph.MessagesState{Messages: added}, nil
		}

		request := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			request.Parts = append(request.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			request.Parts = append(request.Parts, tc)
		}
		added = append(added, request)

		for _, tc := range choice.ToolCalls {
			result := c.callTool(ctx, tc)
			added = append(added, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       result.Name,
					Content:    result.Output,
				}},
			})
		}
	}
}

// callTool runs one tool call. Failures are returned to the model as text
// so it can recover.
func (c *chatbot) callTool(ctx context.Context, tc llms.ToolCall) graph.ToolCall {
	call := graph.ToolCall{ID: tc.ID}
	if tc.FunctionCall != nil {
		call.Name = tc.FunctionCall.Name
		call.Input = toolInput(tc.FunctionCall.Arguments)
	}

	graph.NotifyToolStart(ctx, call)
	start := time.Now()

	var err error
	t, ok := c.toolsByName[call.Name]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	} else {
		call.Output, err = t.Call(ctx, call.Input)
	}

	call.Duration = time.Since(start)
	graph.NotifyToolEnd(ctx, call, err)

	if err != nil {
		call.Output = "error: " + err.Error()
	}
	return call
}

// toolInput extracts the "input" argument, falling back to the raw arguments.
func toolInput(arguments string) string {
	var args struct {
		Input *string `json:"input"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || args.Input == nil {
		return arguments
	}
	return *args.Input
}

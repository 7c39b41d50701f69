package main

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/pixelgraph/arcade"
	"github.com/smallnest/pixelgraph/config"
	"github.com/smallnest/pixelgraph/graph"
	"github.com/smallnest/pixelgraph/llms/goopenai"
	"github.com/smallnest/pixelgraph/log"
	"github.com/smallnest/pixelgraph/prebuilt"
	"github.com/smallnest/pixelgraph/tool"
)

const defaultSystemPrompt = "You are a friendly wizard in a pixel-art dungeon. " +
	"Answer briefly. Use your tools when they help."

// newModel builds the chat model for cfg.Provider.
func newModel(cfg config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "", config.ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	case config.ProviderGoOpenAI:
		opts := []goopenai.Option{goopenai.WithAPIKey(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, goopenai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, goopenai.WithBaseURL(cfg.BaseURL))
		}
		return goopenai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func demoTools() []tools.Tool {
	return []tools.Tool{
		tool.Calculator{},
		tool.Clock{},
		tool.NewDice(nil),
		tool.NewWebFetch(),
	}
}

// newChatbotRunner compiles the chatbot graph for model. The returned
// runnable is also used to describe the graph over /api/graph.
func newChatbotRunner(model llms.Model, cfg config.LLMConfig, logger log.Logger) (*arcade.GraphRunner[graph.MessagesState], error) {
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	opts := []prebuilt.ChatbotOption{prebuilt.WithSystemPrompt(prompt)}
	if cfg.Tools {
		opts = append(opts, prebuilt.WithTools(demoTools()...))
	}

	app, err := prebuilt.CreateChatbot(model, opts...)
	if err != nil {
		return nil, fmt.Errorf("build chatbot graph: %w", err)
	}
	runner := arcade.NewMessagesRunner(app)
	runner.SetLogger(logger)
	return runner, nil
}

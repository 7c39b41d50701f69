package goopenai

import (
	"net/http"
	"os"

	"github.com/tmc/langchaingo/callbacks"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

type options struct {
	apiKey           string
	baseURL          string
	model            string
	organization     string
	httpClient       *http.Client
	callbacksHandler callbacks.Handler
}

// Option configures the LLM.
type Option func(*options)

// WithAPIKey sets the API key. Defaults to OPENAI_API_KEY.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint,
// e.g. "http://localhost:11434/v1". Defaults to OPENAI_BASE_URL.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithModel sets the default model. Defaults to OPENAI_MODEL, then DefaultModel.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithOrganization sets the OpenAI organization header.
func WithOrganization(org string) Option {
	return func(o *options) {
		o.organization = org
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithCallbacksHandler sets the langchaingo callbacks handler.
func WithCallbacksHandler(handler callbacks.Handler) Option {
	return func(o *options) {
		o.callbacksHandler = handler
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

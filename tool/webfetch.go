package tool

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmc/langchaingo/tools"
)

var _ tools.Tool = (*WebFetch)(nil)

// WebFetch downloads a web page and returns its visible text.
type WebFetch struct {
	Client    *http.Client
	MaxLength int
}

type WebFetchOption func(*WebFetch)

// WithWebFetchClient sets the HTTP client.
func WithWebFetchClient(client *http.Client) WebFetchOption {
	return func(w *WebFetch) {
		w.Client = client
	}
}

// WithWebFetchMaxLength caps the returned text, in runes.
func WithWebFetchMaxLength(n int) WebFetchOption {
	return func(w *WebFetch) {
		if n > 0 {
			w.MaxLength = n
		}
	}
}

// NewWebFetch creates a new WebFetch tool.
func NewWebFetch(opts ...WebFetchOption) *WebFetch {
	w := &WebFetch{
		Client:    &http.Client{Timeout: 15 * time.Second},
		MaxLength: 4000,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the name of the tool.
func (*WebFetch) Name() string {
	return "web_fetch"
}

// Description returns the description of the tool.
func (*WebFetch) Description() string {
	return "Fetches a web page and returns its text content. Input should be an http or https URL."
}

// Call fetches the page.
func (w *WebFetch) Call(ctx context.Context, input string) (string, error) {
	target := strings.TrimSpace(input)
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return "", fmt.Errorf("unsupported url %q", target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "pixelgraph-web-fetch/1.0")

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch url: status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		sb.WriteString(title)
		sb.WriteString("\n\n")
	}
	body := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if body == "" {
		return "", fmt.Errorf("no text content found")
	}
	sb.WriteString(body)

	text := []rune(sb.String())
	if w.MaxLength > 0 && len(text) > w.MaxLength {
		return string(text[:w.MaxLength]) + "...", nil
	}
	return string(text), nil
}

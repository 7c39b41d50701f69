package arcade

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Speech is an agent utterance prepared for the speech bubble.
type Speech struct {
	// Text is the utterance with markup stripped and whitespace collapsed.
	Text string
	// HTML is the markdown rendering, sanitised for direct insertion.
	HTML string
}

var speechPolicy = bluemonday.UGCPolicy()

// RenderSpeech renders markdown text to sanitised HTML and extracts its
// plain text.
func RenderSpeech(text string) Speech {
	if strings.TrimSpace(text) == "" {
		return Speech{}
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(text))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	safe := speechPolicy.SanitizeBytes(markdown.Render(doc, renderer))

	return Speech{
		Text: plainText(safe, text),
		HTML: strings.TrimSpace(string(safe)),
	}
}

func plainText(safeHTML []byte, fallback string) string {
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(safeHTML))
	if err != nil {
		return strings.Join(strings.Fields(fallback), " ")
	}
	// block elements are separated by newlines in the rendered HTML
	return strings.Join(strings.Fields(dom.Text()), " ")
}

// Preview truncates s to at most n runes, appending "..." when cut.
func Preview(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

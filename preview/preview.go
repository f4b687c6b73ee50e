// Package preview extracts a short readable excerpt from a story's URL so
// notifications can carry more than a bare title.
package preview

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

const maxExcerptRunes = 280

// Extractor fetches a page and pulls a plain-text excerpt.
type Extractor interface {
	Excerpt(ctx context.Context, url string) (string, error)
}

type httpExtractor struct {
	client *http.Client
}

// New creates an Extractor with the given timeout for HTTP requests.
func New(timeout time.Duration) Extractor {
	return &httpExtractor{client: &http.Client{Timeout: timeout}}
}

// NewWithClient creates an Extractor with a custom HTTP client (for testing).
func NewWithClient(client *http.Client) Extractor {
	return &httpExtractor{client: client}
}

// Excerpt fetches url and returns the leading readable text, truncated to a
// notification-sized snippet.
func (e *httpExtractor) Excerpt(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating excerpt request for %s: %w", url, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("excerpt for %s returned status %d", url, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, nil)
	if err != nil {
		return "", fmt.Errorf("extracting content from %s: %w", url, err)
	}

	return Trim(article.TextContent), nil
}

// Trim collapses whitespace and truncates the text to the excerpt limit on a
// rune boundary.
func Trim(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxExcerptRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxExcerptRunes]) + "…"
}

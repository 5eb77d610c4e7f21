// Package content provides extraction of plain text from user-submitted URLs.
// The service treats extraction as a black-box capability; this package ships
// a generic HTTP extractor that fetches a page and strips markup.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// maxExtractedChars bounds the amount of text handed to script generation.
const maxExtractedChars = 5000

// Static errors for extraction.
var (
	// ErrURLRequired is returned when no URL is provided.
	ErrURLRequired = errors.New("content: URL is required")
	// ErrFetchFailed is returned when the URL cannot be fetched.
	ErrFetchFailed = errors.New("content: failed to fetch URL")
	// ErrEmptyContent is returned when the page yields no usable text.
	ErrEmptyContent = errors.New("content: no text content found")
)

// Extractor turns a URL into plain text suitable for script generation.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

var (
	scriptRe = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// HTTPExtractor is a generic extractor that fetches a page over HTTP and
// strips scripts, styles, and tags from the body.
type HTTPExtractor struct {
	client *http.Client
}

// Compile-time check that HTTPExtractor implements Extractor.
var _ Extractor = (*HTTPExtractor)(nil)

// NewHTTPExtractor creates a generic HTTP content extractor.
// A nil client falls back to a default with a 15 second timeout.
func NewHTTPExtractor(client *http.Client) *HTTPExtractor {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPExtractor{client: client}
}

// Extract fetches the URL and returns the page's visible text, collapsed to
// single spaces and truncated to a bounded length.
func (e *HTTPExtractor) Extract(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", ErrURLRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("content: create request: %w", err)
	}
	req.Header.Set("User-Agent", "scriptreel/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("content: read body: %w", err)
	}

	text := StripHTML(string(body))
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// StripHTML removes scripts, styles, and markup from HTML and collapses
// whitespace. The result is truncated to a bounded length with an ellipsis.
func StripHTML(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = styleRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if len(text) > maxExtractedChars {
		text = text[:maxExtractedChars] + "..."
	}
	return text
}

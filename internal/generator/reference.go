package generator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// maxReferenceBytes bounds how much of a page is read before conversion.
const maxReferenceBytes = 2 << 20

// ReferenceFetcher turns a URL into markdown reference material.
type ReferenceFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// WebReference fetches pages over HTTP and converts their HTML to markdown.
type WebReference struct {
	client *http.Client
}

// NewWebReference creates a fetcher with a 30 second client timeout.
func NewWebReference() *WebReference {
	return &WebReference{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *WebReference) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "TimelineAI/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReferenceBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// FindURL returns the first http(s) URL in query, or "".
func FindURL(query string) string {
	u := urlPattern.FindString(query)
	return strings.TrimRight(u, ".,;:!?)")
}

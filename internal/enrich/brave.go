package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const defaultBraveURL = "https://api.search.brave.com/res/v1/images/search"

// Brave looks up images via the Brave Image Search API.
type Brave struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewBrave creates a client allowing requestsPerSecond lookups. A
// non-positive rate defaults to one per second.
func NewBrave(apiKey string, requestsPerSecond float64) *Brave {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Brave{
		apiKey:  apiKey,
		baseURL: defaultBraveURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

type braveResponse struct {
	Results []braveResult `json:"results"`
}

type braveResult struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail struct {
		Src string `json:"src"`
	} `json:"thumbnail"`
	Properties struct {
		URL string `json:"url"`
	} `json:"properties"`
}

// Lookup returns the thumbnail of the first image result for query.
func (b *Brave) Lookup(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(b.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", "1")
	q.Set("safesearch", "strict")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Brave API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result braveResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	for _, r := range result.Results {
		if r.Thumbnail.Src != "" {
			return r.Thumbnail.Src, nil
		}
		if r.Properties.URL != "" {
			return r.Properties.URL, nil
		}
	}
	return "", ErrNoImage
}

package reducer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/timelineai/internal/stream"
)

// StreamClient opens response streams against a server's /chat/stream
// endpoint.
type StreamClient struct {
	baseURL string
	client  *http.Client
}

// NewStreamClient creates a client for the server at baseURL. The HTTP
// client has no overall timeout; streams end through their context.
func NewStreamClient(baseURL string) *StreamClient {
	return &StreamClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: http.DefaultTransport},
	}
}

// Open starts a stream for query. Messages arrive in order on the first
// channel, which is closed when the stream ends or ctx is done. The second
// channel then yields the transport error, if any, and is closed.
func (c *StreamClient) Open(ctx context.Context, query string) (<-chan stream.Message, <-chan error) {
	msgs := make(chan stream.Message, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		err := c.read(ctx, query, msgs)
		close(msgs)
		if err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()
	return msgs, errs
}

func (c *StreamClient) read(ctx context.Context, query string, msgs chan<- stream.Message) error {
	u := c.baseURL + "/chat/stream?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("stream error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var data strings.Builder
	dispatch := func() bool {
		if data.Len() == 0 {
			return true
		}
		raw := data.String()
		data.Reset()
		m, err := stream.Decode([]byte(raw))
		if err != nil {
			slog.Debug("dropping malformed stream message", "error", err)
			return true
		}
		select {
		case msgs <- m:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if !dispatch() {
				return ctx.Err()
			}
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	if !dispatch() {
		return ctx.Err()
	}
	return nil
}

// Ping checks the server's /health endpoint.
func (c *StreamClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed (status %d)", resp.StatusCode)
	}
	return nil
}

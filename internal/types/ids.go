// internal/types/ids.go
package types

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// RequestID correlates every log line and message of one pipeline run.
type RequestID string

// SourceKey identifies where a query came from, e.g. "telegram:12345".
type SourceKey string

func NewRequestID() RequestID {
	return RequestID(uuid.New().String())
}

func NewSourceKey(parts ...string) SourceKey {
	return SourceKey(strings.Join(parts, ":"))
}

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id RequestID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id stored in ctx, or a fresh one.
func RequestIDFrom(ctx context.Context) RequestID {
	if id, ok := ctx.Value(requestIDKey{}).(RequestID); ok && id != "" {
		return id
	}
	return NewRequestID()
}

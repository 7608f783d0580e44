// internal/types/ids_test.go
package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequestID(t *testing.T) {
	id := NewRequestID()
	assert.NotEmpty(t, id)
	assert.Len(t, string(id), 36, "expected UUID format, got %s", id)
	assert.NotEqual(t, id, NewRequestID())
}

func TestSourceKeyFormat(t *testing.T) {
	assert.Equal(t, SourceKey("telegram:123:456"), NewSourceKey("telegram", "123", "456"))
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, RequestID("req-1"), RequestIDFrom(ctx))

	fresh := RequestIDFrom(context.Background())
	assert.Len(t, string(fresh), 36)
}

// Package enrich looks up illustrative images for timeline events.
package enrich

import (
	"context"
	"errors"
	"strings"

	"github.com/user/timelineai/internal/timeline"
)

// ErrNoImage is returned when a lookup finds nothing.
var ErrNoImage = errors.New("no image found")

// Enricher finds an image URL for a search query.
type Enricher interface {
	Lookup(ctx context.Context, query string) (string, error)
}

// Query builds the image search query for an event of entity.
func Query(entity string, ev timeline.Event) string {
	return strings.TrimSpace(entity + " " + ev.Title)
}

// Package timeline defines timeline events and the validator that turns
// untrusted structured output into typed values.
package timeline

import "slices"

// EventType separates past milestones from extrapolations.
type EventType string

const (
	Historical EventType = "historical"
	Prediction EventType = "prediction"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	return t == Historical || t == Prediction
}

// Sentiment is the tone of an event for its subject.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Neutral  Sentiment = "neutral"
	Negative Sentiment = "negative"
)

// Valid reports whether s is one of the known sentiments.
func (s Sentiment) Valid() bool {
	return s == Positive || s == Neutral || s == Negative
}

const (
	MinImpactScore = 0
	MaxImpactScore = 100
)

// Event is one dated, scored claim about a subject. Values are treated as
// immutable once validated; use WithImage to derive an enriched copy.
type Event struct {
	ID          string    `json:"id"`
	Year        int       `json:"year"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`
	Sentiment   Sentiment `json:"sentiment"`
	ImpactScore float64   `json:"impactScore"`
	MarketValue string    `json:"marketValue,omitempty"`
	Tags        []string  `json:"tags"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// WithImage returns a copy of e carrying url. The receiver's tag slice is
// not shared with the copy.
func (e Event) WithImage(url string) Event {
	e.Tags = slices.Clone(e.Tags)
	e.ImageURL = url
	return e
}

// Response is a validated timeline for one subject.
type Response struct {
	Entity string  `json:"entity"`
	Events []Event `json:"events"`
}

// Composition counts events by type.
func (r *Response) Composition() (historical, predictions int) {
	for _, e := range r.Events {
		switch e.Type {
		case Historical:
			historical++
		case Prediction:
			predictions++
		}
	}
	return historical, predictions
}

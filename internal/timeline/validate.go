package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// SchemaViolation reports the first field of a payload that does not
// conform to the timeline schema.
type SchemaViolation struct {
	Field  string
	Reason string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Field, e.Reason)
}

func violation(field, reason string) *SchemaViolation {
	return &SchemaViolation{Field: field, Reason: reason}
}

type object map[string]json.RawMessage

// Validate checks payload against the timeline schema and returns the typed
// response. The check is all-or-nothing: one bad event rejects the payload.
func Validate(payload []byte) (*Response, error) {
	var top object
	if err := json.Unmarshal(payload, &top); err != nil || top == nil {
		return nil, violation("$", "must be a JSON object")
	}

	entity, err := top.str("", "entity", false)
	if err != nil {
		return nil, err
	}

	raw, ok := top.present("events")
	if !ok {
		return nil, violation("events", "is required")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, violation("events", "must be an array")
	}
	if len(items) == 0 {
		return nil, violation("events", "must contain at least one event")
	}

	resp := &Response{Entity: strings.TrimSpace(entity), Events: make([]Event, 0, len(items))}
	seen := make(map[string]int, len(items))
	for i, item := range items {
		path := fmt.Sprintf("events[%d]", i)
		ev, err := validateEvent(path, item)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[ev.ID]; dup {
			return nil, violation(path+".id", fmt.Sprintf("duplicates events[%d].id %q", first, ev.ID))
		}
		seen[ev.ID] = i
		resp.Events = append(resp.Events, ev)
	}
	return resp, nil
}

func validateEvent(path string, raw json.RawMessage) (Event, error) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return Event{}, violation(path, "must be an object")
	}

	var (
		ev  Event
		err error
	)
	if ev.ID, err = obj.str(path, "id", true); err != nil {
		return Event{}, err
	}
	if ev.Year, err = obj.year(path); err != nil {
		return Event{}, err
	}
	if ev.Title, err = obj.str(path, "title", true); err != nil {
		return Event{}, err
	}
	if ev.Description, err = obj.str(path, "description", true); err != nil {
		return Event{}, err
	}

	typ, err := obj.str(path, "type", false)
	if err != nil {
		return Event{}, err
	}
	ev.Type = EventType(typ)
	if !ev.Type.Valid() {
		return Event{}, violation(path+".type", fmt.Sprintf("unknown value %q", typ))
	}

	sentiment, err := obj.str(path, "sentiment", false)
	if err != nil {
		return Event{}, err
	}
	ev.Sentiment = Sentiment(sentiment)
	if !ev.Sentiment.Valid() {
		return Event{}, violation(path+".sentiment", fmt.Sprintf("unknown value %q", sentiment))
	}

	if ev.ImpactScore, err = obj.number(path, "impactScore"); err != nil {
		return Event{}, err
	}
	if ev.ImpactScore < MinImpactScore || ev.ImpactScore > MaxImpactScore {
		return Event{}, violation(path+".impactScore", fmt.Sprintf("%v is outside [%d, %d]", ev.ImpactScore, MinImpactScore, MaxImpactScore))
	}

	if ev.MarketValue, err = obj.optionalStr(path, "marketValue"); err != nil {
		return Event{}, err
	}
	if ev.Tags, err = obj.tags(path); err != nil {
		return Event{}, err
	}
	if ev.ImageURL, err = obj.optionalStr(path, "imageUrl"); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// present returns the raw value for key unless it is absent or null.
func (o object) present(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func field(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func (o object) str(path, key string, nonEmpty bool) (string, error) {
	raw, ok := o.present(key)
	if !ok {
		return "", violation(field(path, key), "is required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", violation(field(path, key), "must be a string")
	}
	if nonEmpty && strings.TrimSpace(s) == "" {
		return "", violation(field(path, key), "must not be empty")
	}
	return s, nil
}

func (o object) optionalStr(path, key string) (string, error) {
	raw, ok := o.present(key)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", violation(field(path, key), "must be a string")
	}
	return strings.TrimSpace(s), nil
}

func (o object) number(path, key string) (float64, error) {
	raw, ok := o.present(key)
	if !ok {
		return 0, violation(field(path, key), "is required")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, violation(field(path, key), "must be a number")
	}
	return f, nil
}

// year accepts integral numbers only; 1998.0 is allowed, 1998.5 is not.
func (o object) year(path string) (int, error) {
	f, err := o.number(path, "year")
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, violation(field(path, "year"), "must be an integer")
	}
	return int(f), nil
}

func (o object) tags(path string) ([]string, error) {
	raw, ok := o.present("tags")
	if !ok {
		return nil, violation(field(path, "tags"), "is required")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, violation(field(path, "tags"), "must be an array")
	}
	tags := make([]string, 0, len(items))
	for j, item := range items {
		var s string
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) || json.Unmarshal(item, &s) != nil {
			return nil, violation(fmt.Sprintf("%s.tags[%d]", path, j), "must be a string")
		}
		tags = append(tags, s)
	}
	return tags, nil
}

package timeline_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/timelineai/internal/timeline"
	"github.com/user/timelineai/internal/timeline/timelinetest"
)

// payload returns the Nokia fixture as a generic map so tests can corrupt it.
func payload(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(timelinetest.NokiaJSON(), &m))
	return m
}

func event(m map[string]any, i int) map[string]any {
	return m["events"].([]any)[i].(map[string]any)
}

func encode(t *testing.T, m map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return data
}

func requireViolation(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var sv *timeline.SchemaViolation
	require.True(t, errors.As(err, &sv), "expected SchemaViolation, got %T: %v", err, err)
	assert.Equal(t, field, sv.Field, "reason: %s", sv.Reason)
}

func TestValidateAcceptsFixture(t *testing.T) {
	resp, err := timeline.Validate(timelinetest.NokiaJSON())
	require.NoError(t, err)
	assert.Equal(t, timelinetest.Nokia(), resp)

	hist, pred := resp.Composition()
	assert.Equal(t, 6, hist)
	assert.Equal(t, 2, pred)
}

func TestValidateOptionalFields(t *testing.T) {
	m := payload(t)
	event(m, 0)["marketValue"] = nil
	event(m, 1)["imageUrl"] = "https://img.example/1.jpg"
	delete(event(m, 2), "marketValue")

	resp, err := timeline.Validate(encode(t, m))
	require.NoError(t, err)
	assert.Empty(t, resp.Events[0].MarketValue)
	assert.Equal(t, "https://img.example/1.jpg", resp.Events[1].ImageURL)
	assert.Empty(t, resp.Events[2].MarketValue)
}

func TestValidateIntegralFloatYear(t *testing.T) {
	resp, err := timeline.Validate([]byte(`{"entity":"X","events":[{"id":"a","year":1998.0,"title":"t","description":"d","type":"historical","sentiment":"neutral","impactScore":0,"tags":[]}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1998, resp.Events[0].Year)
	assert.NotNil(t, resp.Events[0].Tags)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
		field  string
	}{
		{"impact above range", func(m map[string]any) { event(m, 3)["impactScore"] = 100.5 }, "events[3].impactScore"},
		{"impact below range", func(m map[string]any) { event(m, 0)["impactScore"] = -1 }, "events[0].impactScore"},
		{"impact as string", func(m map[string]any) { event(m, 0)["impactScore"] = "90" }, "events[0].impactScore"},
		{"unknown sentiment", func(m map[string]any) { event(m, 1)["sentiment"] = "mixed" }, "events[1].sentiment"},
		{"unknown type", func(m map[string]any) { event(m, 1)["type"] = "rumour" }, "events[1].type"},
		{"missing id", func(m map[string]any) { delete(event(m, 4), "id") }, "events[4].id"},
		{"blank id", func(m map[string]any) { event(m, 4)["id"] = "  " }, "events[4].id"},
		{"missing title", func(m map[string]any) { delete(event(m, 2), "title") }, "events[2].title"},
		{"empty description", func(m map[string]any) { event(m, 2)["description"] = "" }, "events[2].description"},
		{"fractional year", func(m map[string]any) { event(m, 0)["year"] = 1865.5 }, "events[0].year"},
		{"tag not a string", func(m map[string]any) { event(m, 0)["tags"] = []any{"ok", 7} }, "events[0].tags[1]"},
		{"missing tags", func(m map[string]any) { delete(event(m, 5), "tags") }, "events[5].tags"},
		{"image not a string", func(m map[string]any) { event(m, 0)["imageUrl"] = 12 }, "events[0].imageUrl"},
		{"duplicate id", func(m map[string]any) { event(m, 6)["id"] = "nokia-1865" }, "events[6].id"},
		{"missing entity", func(m map[string]any) { delete(m, "entity") }, "entity"},
		{"events not array", func(m map[string]any) { m["events"] = map[string]any{} }, "events"},
		{"events empty", func(m map[string]any) { m["events"] = []any{} }, "events"},
		{"event not object", func(m map[string]any) { m["events"].([]any)[1] = "nope" }, "events[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := payload(t)
			tt.mutate(m)
			_, err := timeline.Validate(encode(t, m))
			requireViolation(t, err, tt.field)
		})
	}
}

func TestValidateReportsFirstOffendingField(t *testing.T) {
	m := payload(t)
	event(m, 5)["sentiment"] = "bad"
	event(m, 2)["impactScore"] = 101
	delete(event(m, 2), "title")

	_, err := timeline.Validate(encode(t, m))
	requireViolation(t, err, "events[2].title")
}

func TestValidateNotAnObject(t *testing.T) {
	for _, in := range []string{``, `[]`, `null`, `"text"`, `{"entity":`} {
		_, err := timeline.Validate([]byte(in))
		requireViolation(t, err, "$")
	}
}

func TestWithImageDoesNotShareState(t *testing.T) {
	orig := timelinetest.Nokia().Events[0]
	enriched := orig.WithImage("https://img.example/a.png")

	enriched.Tags[0] = "changed"
	assert.Empty(t, orig.ImageURL)
	assert.Equal(t, "founding", orig.Tags[0])
	assert.Equal(t, orig.ID, enriched.ID)
}

func TestJSONSchemaIsValidJSON(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal(timeline.JSONSchema(), &schema))
	assert.Equal(t, "object", schema["type"])
}

package render

import (
	"fmt"
	"strings"

	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/reducer"
	"github.com/user/timelineai/internal/stream"
	"github.com/user/timelineai/internal/timeline"
)

// Plain renders a drained run as plain text for chat surfaces.
func Plain(r *stream.Result) string {
	if r == nil {
		return ""
	}
	if r.Error != "" {
		return r.Error
	}
	if r.Mode == intent.Chat {
		return r.Answer
	}
	return PlainTimeline(r.Entity, r.Events)
}

// PlainTimeline renders events as a plain-text list, past first.
func PlainTimeline(entity string, events []timeline.Event) string {
	var b strings.Builder
	if entity != "" {
		fmt.Fprintf(&b, "Timeline: %s\n", entity)
	}
	for _, ev := range events {
		b.WriteString("\n")
		marker := "•"
		if ev.Type == timeline.Prediction {
			marker = "→"
		}
		fmt.Fprintf(&b, "%s %d: %s\n", marker, ev.Year, ev.Title)
		if ev.Description != "" {
			fmt.Fprintf(&b, "%s\n", ev.Description)
		}
		fmt.Fprintf(&b, "Impact %.0f/100, %s", ev.ImpactScore, ev.Sentiment)
		if ev.MarketValue != "" {
			fmt.Fprintf(&b, ", %s", ev.MarketValue)
		}
		b.WriteString("\n")
		if tags := formatTags(ev.Tags); tags != "" {
			fmt.Fprintf(&b, "%s\n", tags)
		}
		if ev.ImageURL != "" {
			fmt.Fprintf(&b, "%s\n", ev.ImageURL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Progress is a one-line status for a client view.
func Progress(st reducer.State) string {
	return defaultStyles.RenderStatus(st)
}

// RenderStatus renders st as one line.
func (s Styles) RenderStatus(st reducer.State) string {
	switch st.Connection {
	case reducer.Errored:
		return s.Error.Render("error: " + st.Err)
	case reducer.Done:
		if st.Mode == reducer.ModeChat {
			return s.Progress.Render("done")
		}
		return s.Progress.Render(fmt.Sprintf("done: %d events", len(st.Events)))
	case reducer.Idle:
		return ""
	}
	text := st.Progress
	if text == "" {
		text = reducer.ProgressConnecting
	}
	if n := len(st.Events); n > 0 {
		text = fmt.Sprintf("%s (%d events)", text, n)
	}
	return s.Progress.Render(text)
}

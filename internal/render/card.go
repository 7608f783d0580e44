package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/timelineai/internal/timeline"
)

const (
	cardWidth = 60
	barCells  = 10
	maxTags   = 3
)

var defaultStyles = DefaultStyles()

// Card draws one event as a bordered card. Predictions get a double
// border; the border colour follows the event's sentiment.
func Card(ev timeline.Event) string {
	return defaultStyles.RenderCard(ev)
}

// Cards draws every event, one card per block.
func Cards(events []timeline.Event) string {
	blocks := make([]string, 0, len(events))
	for _, ev := range events {
		blocks = append(blocks, Card(ev))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// RenderCard draws ev with s.
func (s Styles) RenderCard(ev timeline.Event) string {
	box := s.Card
	if ev.Type == timeline.Prediction {
		box = s.Prediction
	}
	box = box.BorderForeground(SentimentColor(ev.Sentiment))

	header := s.Year.Render(fmt.Sprintf("%d", ev.Year)) + "  " + s.Title.Render(ev.Title)

	lines := []string{header, s.Description.Render(ev.Description), ""}
	lines = append(lines, s.Meta.Render("impact ")+s.bar(ev.ImpactScore)+s.Meta.Render(fmt.Sprintf(" %.0f", ev.ImpactScore)))
	if ev.MarketValue != "" {
		lines = append(lines, s.Meta.Render("value  ")+ev.MarketValue)
	}
	if tags := formatTags(ev.Tags); tags != "" {
		lines = append(lines, s.Tag.Render(tags))
	}
	if ev.Type == timeline.Prediction {
		lines = append(lines, s.Meta.Render("prediction"))
	}
	if ev.ImageURL != "" {
		lines = append(lines, s.Meta.Render(ev.ImageURL))
	}

	return box.Render(strings.Join(lines, "\n"))
}

func (s Styles) bar(score float64) string {
	filled := ImpactCells(score)
	return s.BarFill.Render(strings.Repeat("█", filled)) + s.BarEmpty.Render(strings.Repeat("░", barCells-filled))
}

// ImpactCells maps an impact score to the number of filled bar cells.
func ImpactCells(score float64) int {
	score = min(max(score, timeline.MinImpactScore), timeline.MaxImpactScore)
	return int(math.Round(score / timeline.MaxImpactScore * barCells))
}

// formatTags renders the first few tags as hashtags.
func formatTags(tags []string) string {
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, "#"+t)
		}
	}
	return strings.Join(parts, " ")
}

// Package render turns timelines and stream state into terminal and chat
// text.
package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/user/timelineai/internal/timeline"
)

// Colors used by cards.
var (
	ColorPositive = lipgloss.Color("42")
	ColorNeutral  = lipgloss.Color("245")
	ColorNegative = lipgloss.Color("203")
	ColorAccent   = lipgloss.Color("86")
	ColorDim      = lipgloss.Color("242")
	ColorBarEmpty = lipgloss.Color("236")
)

// Styles holds the Lip Gloss styles used to draw cards.
type Styles struct {
	Card        lipgloss.Style
	Prediction  lipgloss.Style
	Year        lipgloss.Style
	Title       lipgloss.Style
	Description lipgloss.Style
	Tag         lipgloss.Style
	Meta        lipgloss.Style
	BarFill     lipgloss.Style
	BarEmpty    lipgloss.Style
	Progress    lipgloss.Style
	Error       lipgloss.Style
}

// DefaultStyles returns the default look.
func DefaultStyles() Styles {
	s := Styles{}

	s.Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(cardWidth)
	s.Prediction = s.Card.
		BorderStyle(lipgloss.DoubleBorder())

	s.Year = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	s.Title = lipgloss.NewStyle().Bold(true)
	s.Description = lipgloss.NewStyle()
	s.Tag = lipgloss.NewStyle().Foreground(ColorAccent)
	s.Meta = lipgloss.NewStyle().Foreground(ColorDim)
	s.BarFill = lipgloss.NewStyle().Foreground(ColorAccent)
	s.BarEmpty = lipgloss.NewStyle().Foreground(ColorBarEmpty)

	s.Progress = lipgloss.NewStyle().Foreground(ColorDim).Italic(true)
	s.Error = lipgloss.NewStyle().Foreground(ColorNegative).Bold(true)

	return s
}

// SentimentColor is the border colour of a card for s.
func SentimentColor(s timeline.Sentiment) lipgloss.Color {
	switch s {
	case timeline.Positive:
		return ColorPositive
	case timeline.Negative:
		return ColorNegative
	default:
		return ColorNeutral
	}
}

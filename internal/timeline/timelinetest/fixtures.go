// Package timelinetest provides timeline fixtures shared by tests.
package timelinetest

import (
	"encoding/json"
	"fmt"

	"github.com/user/timelineai/internal/timeline"
)

// Nokia returns a well-formed timeline with six historical events and two
// predictions.
func Nokia() *timeline.Response {
	return &timeline.Response{
		Entity: "Nokia",
		Events: []timeline.Event{
			{ID: "nokia-1865", Year: 1865, Title: "Founded as a paper mill", Description: "Fredrik Idestam opens a pulp mill in Tampere.", Type: timeline.Historical, Sentiment: timeline.Positive, ImpactScore: 40, Tags: []string{"founding", "paper"}},
			{ID: "nokia-1992", Year: 1992, Title: "Focus on telecoms", Description: "Jorma Ollila refocuses the group on mobile phones.", Type: timeline.Historical, Sentiment: timeline.Positive, ImpactScore: 80, Tags: []string{"strategy"}},
			{ID: "nokia-1998", Year: 1998, Title: "World's largest phone maker", Description: "Nokia overtakes Motorola in handset sales.", Type: timeline.Historical, Sentiment: timeline.Positive, ImpactScore: 90, MarketValue: "$250B peak (2000)", Tags: []string{"market-share", "mobile"}},
			{ID: "nokia-2007", Year: 2007, Title: "iPhone launches", Description: "Touchscreen smartphones upend Symbian.", Type: timeline.Historical, Sentiment: timeline.Negative, ImpactScore: 85, Tags: []string{"competition", "smartphones"}},
			{ID: "nokia-2011", Year: 2011, Title: "Windows Phone bet", Description: "Nokia partners with Microsoft and drops Symbian.", Type: timeline.Historical, Sentiment: timeline.Negative, ImpactScore: 75, Tags: []string{"partnership"}},
			{ID: "nokia-2014", Year: 2014, Title: "Handset unit sold", Description: "Microsoft acquires the devices business.", Type: timeline.Historical, Sentiment: timeline.Neutral, ImpactScore: 70, MarketValue: "$7.2B", Tags: []string{"acquisition"}},
			{ID: "nokia-2028", Year: 2028, Title: "6G infrastructure leader", Description: "Network equipment becomes the core business.", Type: timeline.Prediction, Sentiment: timeline.Positive, ImpactScore: 60, Tags: []string{"6g", "networks"}},
			{ID: "nokia-2035", Year: 2035, Title: "Patent licensing giant", Description: "Licensing revenue rivals equipment sales.", Type: timeline.Prediction, Sentiment: timeline.Neutral, ImpactScore: 45, Tags: []string{"patents"}},
		},
	}
}

// NokiaJSON is Nokia encoded the way a generation backend returns it.
func NokiaJSON() []byte {
	data, err := json.Marshal(Nokia())
	if err != nil {
		panic(fmt.Sprintf("marshal fixture: %v", err))
	}
	return data
}

// Events returns n distinct historical events.
func Events(n int) []timeline.Event {
	out := make([]timeline.Event, 0, n)
	for i := range n {
		out = append(out, timeline.Event{
			ID:          fmt.Sprintf("ev-%d", i),
			Year:        2000 + i,
			Title:       fmt.Sprintf("Event %d", i),
			Description: "Something happened.",
			Type:        timeline.Historical,
			Sentiment:   timeline.Neutral,
			ImpactScore: 50,
			Tags:        []string{"t"},
		})
	}
	return out
}

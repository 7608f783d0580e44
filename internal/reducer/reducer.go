// Package reducer folds a response stream into client view state.
package reducer

import (
	"log/slog"
	"slices"

	"github.com/user/timelineai/internal/stream"
	"github.com/user/timelineai/internal/timeline"
)

// Mode is what the view is showing.
type Mode string

const (
	ModeTimeline Mode = "timeline"
	ModeChat     Mode = "chat"
)

// Connection is the lifecycle of the stream behind a view.
type Connection string

const (
	Idle       Connection = "idle"
	Connecting Connection = "connecting"
	Streaming  Connection = "streaming"
	Done       Connection = "done"
	Errored    Connection = "errored"
)

// Progress texts shown while a stream is in flight.
const (
	ProgressConnecting  = "Initializing connection..."
	ProgressAnalyzing   = "Analyzing your request..."
	ProgressIntent      = "Understanding intent..."
	ProgressStructuring = "Structuring timeline..."
	ProgressImages      = "Fetching images..."
)

// State is the view of one query.
type State struct {
	Topic      string
	Events     []timeline.Event
	ChatText   string
	Mode       Mode
	Progress   string
	Connection Connection
	Loading    bool
	// Err is the failure text of an errored stream.
	Err string
}

// Reducer applies stream messages to a State. One Reducer serves exactly
// one query; a new query gets a new Reducer.
type Reducer struct {
	state    State
	seen     map[string]int
	released bool
}

// New returns a Reducer in the connecting state.
func New() *Reducer {
	return &Reducer{
		state: State{
			Mode:       ModeTimeline,
			Progress:   ProgressConnecting,
			Connection: Connecting,
			Loading:    true,
		},
		seen: make(map[string]int),
	}
}

// Apply folds m into the state. It reports false when m was ignored
// because the stream has already ended.
func (r *Reducer) Apply(m stream.Message) bool {
	if r.released {
		return false
	}
	if r.state.Connection == Connecting && !m.Type().Terminal() {
		r.state.Connection = Streaming
	}
	m.Accept(r)
	return true
}

// Fail ends the stream because the transport broke.
func (r *Reducer) Fail(message string) bool {
	return r.Apply(stream.Error{Message: message})
}

// Released reports whether a terminal message has been applied.
func (r *Reducer) Released() bool { return r.released }

// State returns a snapshot that does not share memory with the reducer.
func (r *Reducer) State() State {
	s := r.state
	s.Events = slices.Clone(r.state.Events)
	return s
}

// Replay folds msgs into a fresh Reducer and returns the final state.
func Replay(msgs []stream.Message) State {
	r := New()
	for _, m := range msgs {
		r.Apply(m)
	}
	return r.State()
}

func (r *Reducer) VisitStart(stream.Start) { r.state.Progress = ProgressAnalyzing }

func (r *Reducer) VisitIntent(stream.Intent) { r.state.Progress = ProgressIntent }

func (r *Reducer) VisitTimeline(m stream.TimelineStart) {
	if m.Entity != "" {
		r.state.Topic = m.Entity
	}
	r.state.Progress = ProgressStructuring
}

func (r *Reducer) VisitImage(m stream.Image) {
	r.state.Progress = m.Message
	if r.state.Progress == "" {
		r.state.Progress = ProgressImages
	}
}

// VisitEvent appends events by id. A repeated id keeps the first copy,
// except that an image on the repeat fills in a missing one.
func (r *Reducer) VisitEvent(m stream.EventMessage) {
	ev := m.Event
	i, ok := r.seen[ev.ID]
	if !ok {
		r.seen[ev.ID] = len(r.state.Events)
		r.state.Events = append(r.state.Events, ev)
		return
	}
	if r.state.Events[i].ImageURL == "" && ev.ImageURL != "" {
		r.state.Events[i] = r.state.Events[i].WithImage(ev.ImageURL)
	}
}

func (r *Reducer) VisitChat(m stream.Chat) {
	r.state.Mode = ModeChat
	r.state.ChatText = m.Message
	r.state.Loading = false
}

func (r *Reducer) VisitDone(stream.Done) {
	r.state.Loading = false
	r.state.Progress = ""
	r.state.Connection = Done
	r.released = true
}

func (r *Reducer) VisitError(m stream.Error) {
	slog.Warn("stream error", "message", m.Message)
	r.state.Loading = false
	r.state.Connection = Errored
	r.state.Err = m.Message
	r.released = true
}

func (r *Reducer) VisitUnknown(m stream.Unknown) {
	slog.Debug("ignoring unknown stream message", "type", m.Kind)
}

package reducer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/stream"
)

// scriptOpener replays a script per query. A query with a gate keeps its
// stream open after the script, ignoring cancellation, until the gate is
// closed; its late messages are then sent.
type scriptOpener struct {
	mu      sync.Mutex
	opened  []string
	scripts map[string][]stream.Message
	gates   map[string]chan struct{}
	late    map[string][]stream.Message
	err     error
}

func (o *scriptOpener) Open(ctx context.Context, query string) (<-chan stream.Message, <-chan error) {
	o.mu.Lock()
	o.opened = append(o.opened, query)
	script := o.scripts[query]
	gate := o.gates[query]
	late := o.late[query]
	o.mu.Unlock()

	msgs := make(chan stream.Message, 32)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		for _, m := range script {
			msgs <- m
		}
		if gate != nil {
			<-gate
			for _, m := range late {
				msgs <- m
			}
		}
		close(msgs)
		if o.err != nil && ctx.Err() == nil {
			errs <- o.err
		}
	}()
	return msgs, errs
}

func (o *scriptOpener) queries() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

type updates struct {
	mu     sync.Mutex
	states []State
}

func (u *updates) record(s State) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.states = append(u.states, s)
}

func (u *updates) all() []State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]State(nil), u.states...)
}

func chatScript(answer string) []stream.Message {
	return []stream.Message{
		stream.Start{},
		stream.Intent{Intent: intent.Chat},
		stream.Chat{Message: answer},
		stream.Done{},
	}
}

func TestSessionSubmit(t *testing.T) {
	opener := &scriptOpener{scripts: map[string][]stream.Message{"hi": chatScript("hello!")}}
	u := &updates{}
	s := NewSession(opener, u.record, WithDebounce(0))
	defer s.Close()

	assert.Equal(t, Idle, s.State().Connection)
	s.Submit("  hi  ")

	require.Eventually(t, func() bool { return s.State().Connection == Done }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "hello!", s.State().ChatText)
	assert.Equal(t, []string{"hi"}, opener.queries())

	states := u.all()
	require.NotEmpty(t, states)
	assert.Equal(t, Connecting, states[0].Connection)
	assert.Equal(t, Done, states[len(states)-1].Connection)
}

func TestSessionDebounceCoalesces(t *testing.T) {
	opener := &scriptOpener{scripts: map[string][]stream.Message{
		"n":     chatScript("n"),
		"no":    chatScript("no"),
		"nokia": chatScript("nokia"),
	}}
	s := NewSession(opener, nil, WithDebounce(50*time.Millisecond))
	defer s.Close()

	s.Submit("n")
	s.Submit("no")
	s.Submit("nokia")

	require.Eventually(t, func() bool { return s.State().Connection == Done }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"nokia"}, opener.queries())
	assert.Equal(t, "nokia", s.State().ChatText)
}

func TestSessionReplacesActiveStream(t *testing.T) {
	gate := make(chan struct{})
	opener := &scriptOpener{
		scripts: map[string][]stream.Message{
			"slow": {stream.Start{}},
			"fast": {stream.Start{}, stream.Intent{Intent: intent.Timeline}, stream.TimelineStart{Entity: "Fast"}, stream.Done{}},
		},
		gates: map[string]chan struct{}{"slow": gate},
		late: map[string][]stream.Message{
			"slow": {stream.TimelineStart{Entity: "Slow"}, stream.Done{}},
		},
	}
	u := &updates{}
	s := NewSession(opener, u.record, WithDebounce(0))
	defer s.Close()

	s.Submit("slow")
	require.Eventually(t, func() bool { return s.State().Progress == ProgressAnalyzing }, 2*time.Second, 5*time.Millisecond)

	s.Submit("fast")
	require.Eventually(t, func() bool { return s.State().Topic == "Fast" && s.State().Connection == Done }, 2*time.Second, 5*time.Millisecond)

	close(gate)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, "Fast", s.State().Topic)
	for _, st := range u.all() {
		assert.NotEqual(t, "Slow", st.Topic, "replaced stream must never publish")
	}
}

func TestSessionTransportError(t *testing.T) {
	opener := &scriptOpener{
		scripts: map[string][]stream.Message{"nokia": {stream.Start{}}},
		err:     errors.New("connection reset"),
	}
	s := NewSession(opener, nil, WithDebounce(0))
	defer s.Close()

	s.Submit("nokia")
	require.Eventually(t, func() bool { return s.State().Connection == Errored }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, msgConnectionLost, s.State().Err)
	assert.False(t, s.State().Loading)
}

func TestSessionStreamEndsWithoutTerminal(t *testing.T) {
	opener := &scriptOpener{scripts: map[string][]stream.Message{"nokia": {stream.Start{}}}}
	s := NewSession(opener, nil, WithDebounce(0))
	defer s.Close()

	s.Submit("nokia")
	require.Eventually(t, func() bool { return s.State().Connection == Errored }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, msgConnectionLost, s.State().Err)
}

func TestSessionIgnoresBlankAndClosed(t *testing.T) {
	opener := &scriptOpener{scripts: map[string][]stream.Message{"hi": chatScript("hello")}}
	s := NewSession(opener, nil, WithDebounce(0))

	s.Submit("   ")
	s.Close()
	s.Submit("hi")
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, opener.queries())
	assert.Equal(t, Idle, s.State().Connection)
}

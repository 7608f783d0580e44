package reducer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/user/timelineai/internal/stream"
)

// DefaultDebounce is how long Submit waits for typing to settle.
const DefaultDebounce = 300 * time.Millisecond

// msgConnectionLost is shown when a stream ends without done or error.
const msgConnectionLost = "Connection lost. Please try again."

// Opener opens a response stream for a query.
type Opener interface {
	Open(ctx context.Context, query string) (<-chan stream.Message, <-chan error)
}

// Session owns at most one active stream. Each Submit replaces the previous
// stream and its state; updates from replaced streams are never published.
type Session struct {
	opener   Opener
	debounce time.Duration
	onUpdate func(State)

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	current *Reducer
	closed  bool
	wg      sync.WaitGroup
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDebounce overrides DefaultDebounce. Zero starts streams immediately.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// NewSession creates a Session. onUpdate receives every new state of the
// active stream; it runs with the session lock held and must not call back
// into the Session.
func NewSession(opener Opener, onUpdate func(State), opts ...SessionOption) *Session {
	s := &Session{
		opener:   opener,
		debounce: DefaultDebounce,
		onUpdate: onUpdate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit schedules query after the debounce delay, cancelling any pending
// or active stream first. Blank queries are ignored.
func (s *Session) Submit(query string) {
	q := strings.TrimSpace(query)
	if q == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	gen := s.replaceLocked()

	s.wg.Add(1)
	s.timer = time.AfterFunc(s.debounce, func() {
		defer s.wg.Done()
		s.run(gen, q)
	})
}

// replaceLocked invalidates the current stream and returns the new
// generation.
func (s *Session) replaceLocked() uint64 {
	s.gen++
	if s.timer != nil && s.timer.Stop() {
		s.wg.Done()
	}
	s.timer = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.gen
}

// State returns the state of the active stream, or an idle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return State{Mode: ModeTimeline, Connection: Idle}
	}
	return s.current.State()
}

// Close cancels any pending or active stream and waits for it to stop.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.replaceLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) run(gen uint64, query string) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	r := New()
	s.current = r
	s.publishLocked(r)
	s.mu.Unlock()
	defer cancel()

	msgs, errs := s.opener.Open(ctx, query)
	for m := range msgs {
		if !s.apply(gen, r, m) {
			return
		}
	}

	if err := <-errs; err != nil {
		s.apply(gen, r, stream.Error{Message: msgConnectionLost})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen && !r.Released() {
		r.Fail(msgConnectionLost)
		s.publishLocked(r)
	}
}

// apply folds m into r and publishes it. It returns false once the stream
// is finished or replaced.
func (s *Session) apply(gen uint64, r *Reducer, m stream.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	if r.Apply(m) {
		s.publishLocked(r)
	}
	if r.Released() {
		s.cancel()
		return false
	}
	return true
}

func (s *Session) publishLocked(r *Reducer) {
	if s.onUpdate != nil {
		s.onUpdate(r.State())
	}
}

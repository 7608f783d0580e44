// Package stream runs the per-request pipeline that turns a query into an
// ordered sequence of stream messages.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/timelineai/internal/enrich"
	"github.com/user/timelineai/internal/generator"
	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/timeline"
	"github.com/user/timelineai/internal/types"
)

// User-facing texts. Backend error strings never reach the consumer.
const (
	MsgStart         = "Analyzing your request..."
	MsgInvalidQuery  = "Please enter a topic or question."
	MsgGenerationErr = "Sorry, I couldn't build a timeline for that. Please try again."
	MsgChatErr       = "Sorry, I couldn't answer that right now. Please try again."
	MsgTimeout       = "The request took too long. Please try again."
	MsgBusy          = "The server is busy. Please try again shortly."
)

const (
	DefaultTimeout  = 45 * time.Second
	DefaultPrefetch = 3
	lookupTimeout   = 10 * time.Second
)

// ErrConsumerGone is returned when the consumer went away mid-stream.
var ErrConsumerGone = errors.New("stream consumer gone")

// Sink receives the messages of one run in order.
type Sink interface {
	Send(m Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(m Message) error

func (f SinkFunc) Send(m Message) error { return f(m) }

// Classifier decides the intent of a query.
type Classifier interface {
	Classify(ctx context.Context, query string) intent.Decision
}

// TimelineGenerator produces validated timelines.
type TimelineGenerator interface {
	CheckQuery(query string) (string, error)
	Generate(ctx context.Context, req generator.Request) (*timeline.Response, error)
}

// Answerer produces conversational replies.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// State is a step of the per-request state machine.
type State int

const (
	StateInit State = iota
	StateClassifying
	StateTimelineBuilding
	StateEmittingEvents
	StateChatAnswering
	StateDone
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateClassifying:
		return "classifying"
	case StateTimelineBuilding:
		return "timeline_building"
	case StateEmittingEvents:
		return "emitting_events"
	case StateChatAnswering:
		return "chat_answering"
	case StateDone:
		return "done"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Orchestrator drives classification, generation and enrichment for each
// request. It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	classifier Classifier
	generator  TimelineGenerator
	answerer   Answerer
	enricher   enrich.Enricher
	timeout    time.Duration
	prefetch   int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEnricher enables image lookups for timeline events.
func WithEnricher(e enrich.Enricher) Option { return func(o *Orchestrator) { o.enricher = e } }

// WithTimeout sets the overall request deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithPrefetch sets how many image lookups run ahead concurrently.
func WithPrefetch(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.prefetch = n
		}
	}
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(c Classifier, g TimelineGenerator, a Answerer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: c,
		generator:  g,
		answerer:   a,
		timeout:    DefaultTimeout,
		prefetch:   DefaultPrefetch,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes query and sends its messages to sink. Exactly one of done
// or error ends the stream unless the consumer goes away, in which case
// nothing more is sent. The returned error describes why a run did not
// finish with done.
func (o *Orchestrator) Run(ctx context.Context, query string, sink Sink) error {
	r := &run{
		parent: ctx,
		emit:   &emitter{sink: sink},
		log:    slog.With("request_id", types.RequestIDFrom(ctx)),
	}

	q, err := o.generator.CheckQuery(query)
	if err != nil {
		r.log.Info("query rejected", "error", err)
		r.enter(StateErrored)
		_ = r.emit.send(Error{Message: MsgInvalidQuery})
		return err
	}
	r.log = r.log.With("query", q)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := r.emit.send(Start{Message: MsgStart}); err != nil {
		return r.gone(err)
	}

	r.enter(StateClassifying)
	decision := o.classifier.Classify(ctx, q)
	if err := ctx.Err(); err != nil {
		return r.fail(err, MsgGenerationErr)
	}
	r.log.Info("intent classified", "intent", decision.Kind, "entity", decision.Entity, "fallback", decision.Fallback)
	if err := r.emit.send(Intent{Intent: decision.Kind}); err != nil {
		return r.gone(err)
	}

	if decision.Kind == intent.Chat {
		return o.chat(ctx, r, q)
	}
	return o.timeline(ctx, r, q, decision.Entity)
}

func (o *Orchestrator) chat(ctx context.Context, r *run, q string) error {
	r.enter(StateChatAnswering)
	answer, err := o.answerer.Answer(ctx, q)
	if err != nil {
		return r.fail(err, MsgChatErr)
	}
	if err := r.emit.send(Chat{Message: answer}); err != nil {
		return r.gone(err)
	}
	return r.finish()
}

func (o *Orchestrator) timeline(ctx context.Context, r *run, q, entity string) error {
	r.enter(StateTimelineBuilding)
	resp, err := o.generator.Generate(ctx, generator.Request{Query: q, Entity: entity})
	if err != nil {
		return r.fail(err, MsgGenerationErr)
	}
	historical, predictions := resp.Composition()
	r.log.Info("timeline generated", "entity", resp.Entity, "historical", historical, "predictions", predictions)

	if err := r.emit.send(TimelineStart{Entity: resp.Entity}); err != nil {
		return r.gone(err)
	}

	r.enter(StateEmittingEvents)
	if err := o.emitEvents(ctx, r, resp); err != nil {
		return err
	}
	return r.finish()
}

// emitEvents sends events in production order. Image lookups are prefetched
// concurrently, but each event waits for its own lookup before it is sent.
func (o *Orchestrator) emitEvents(ctx context.Context, r *run, resp *timeline.Response) error {
	if o.enricher == nil {
		for _, ev := range resp.Events {
			if err := ctx.Err(); err != nil {
				return r.fail(err, MsgGenerationErr)
			}
			if err := r.emit.send(EventMessage{Event: ev}); err != nil {
				return r.gone(err)
			}
		}
		return nil
	}

	images := o.startLookups(ctx, resp)
	defer images.stop()

	for i, ev := range resp.Events {
		if ev.ImageURL == "" {
			if err := r.emit.send(Image{Message: fmt.Sprintf("Fetching image for %s...", ev.Title)}); err != nil {
				return r.gone(err)
			}
			url, err := images.wait(ctx, i)
			if err != nil {
				return r.fail(err, MsgGenerationErr)
			}
			if url != "" {
				ev = ev.WithImage(url)
			}
		}
		if err := ctx.Err(); err != nil {
			return r.fail(err, MsgGenerationErr)
		}
		if err := r.emit.send(EventMessage{Event: ev}); err != nil {
			return r.gone(err)
		}
	}
	return nil
}

// lookups holds prefetched image URLs indexed like the events they belong to.
type lookups struct {
	urls   []string
	ready  []chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

func (o *Orchestrator) startLookups(ctx context.Context, resp *timeline.Response) *lookups {
	ctx, cancel := context.WithCancel(ctx)
	l := &lookups{
		urls:   make([]string, len(resp.Events)),
		ready:  make([]chan struct{}, len(resp.Events)),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for i := range l.ready {
		l.ready[i] = make(chan struct{})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.prefetch)
	go func() {
		defer close(l.done)
		for i, ev := range resp.Events {
			if ev.ImageURL != "" {
				close(l.ready[i])
				continue
			}
			g.Go(func() error {
				defer close(l.ready[i])
				lctx, cancel := context.WithTimeout(gctx, lookupTimeout)
				defer cancel()
				url, err := o.enricher.Lookup(lctx, enrich.Query(resp.Entity, ev))
				if err != nil {
					slog.Debug("image lookup failed", "event", ev.ID, "error", err)
					return nil
				}
				l.urls[i] = url
				return nil
			})
		}
		_ = g.Wait()
	}()
	return l
}

// wait blocks until the lookup for event i finished or ctx is done.
func (l *lookups) wait(ctx context.Context, i int) (string, error) {
	select {
	case <-l.ready[i]:
		return l.urls[i], nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// stop cancels outstanding lookups and waits for them to return.
func (l *lookups) stop() {
	l.cancel()
	<-l.done
}

// run is the state of one Orchestrator.Run call.
type run struct {
	parent context.Context
	emit   *emitter
	state  State
	log    *slog.Logger
}

func (r *run) enter(s State) {
	r.log.Debug("pipeline state", "from", r.state, "to", s)
	r.state = s
}

func (r *run) finish() error {
	r.enter(StateDone)
	if err := r.emit.send(Done{}); err != nil {
		return r.gone(err)
	}
	return nil
}

// fail ends the stream with a fixed message. When the consumer itself went
// away nothing is sent.
func (r *run) fail(err error, message string) error {
	if errors.Is(r.parent.Err(), context.Canceled) {
		return r.gone(r.parent.Err())
	}
	r.enter(StateErrored)
	if errors.Is(err, context.DeadlineExceeded) {
		message = MsgTimeout
		if !generator.IsFailure(err) {
			err = &generator.GenerationFailure{Err: err}
		}
	}
	r.log.Warn("pipeline failed", "error", err)
	if sendErr := r.emit.send(Error{Message: message}); sendErr != nil {
		return r.gone(sendErr)
	}
	return err
}

func (r *run) gone(err error) error {
	r.log.Debug("consumer gone", "state", r.state, "error", err)
	if errors.Is(err, ErrConsumerGone) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrConsumerGone, err)
}

// emitter enforces that nothing is sent after a terminal message or to a
// consumer that has failed a send.
type emitter struct {
	sink     Sink
	terminal bool
	broken   bool
}

var errTerminated = errors.New("stream already terminated")

func (e *emitter) send(m Message) error {
	if e.terminal {
		return errTerminated
	}
	if e.broken {
		return ErrConsumerGone
	}
	if err := e.sink.Send(m); err != nil {
		e.broken = true
		return fmt.Errorf("%w: %v", ErrConsumerGone, err)
	}
	if m.Type().Terminal() {
		e.terminal = true
	}
	return nil
}

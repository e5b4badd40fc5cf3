// Package dispatch turns arbitration outcomes into cast events and hands them
// to the effect-spawning side through a Sink.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/spellcast/internal/adapters/mq/queue"
	"github.com/okian/spellcast/internal/domain/arbiter"
	"github.com/okian/spellcast/internal/domain/model"
	"github.com/okian/spellcast/pkg/logger"
	"github.com/okian/spellcast/pkg/metrics"
)

// CastEvent is the record delivered to sinks.
type CastEvent = model.CastEvent

// Sink receives cast events. Implementations must not block the caller for
// long: dispatch runs on the tick thread.
type Sink interface {
	OnCast(ctx context.Context, e CastEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e CastEvent) error

// OnCast implements Sink.
func (f SinkFunc) OnCast(ctx context.Context, e CastEvent) error { return f(ctx, e) }

// Dispatcher builds cast events and forwards them to a Sink.
type Dispatcher struct {
	sink   Sink
	now    func() time.Time
	newID  func() uuid.UUID
	logger logger.Logger
}

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithClock sets the time source stamped on events.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithIDGenerator sets the cast id source.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(d *Dispatcher) {
		if gen != nil {
			d.newID = gen
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Dispatcher that delivers to sink.
func New(sink Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sink:   sink,
		now:    time.Now,
		newID:  uuid.New,
		logger: logger.OrDiscard().Named("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch builds the cast event for out and delivers it. The event is
// returned even when delivery fails.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID uuid.UUID, out arbiter.Outcome, points int) (CastEvent, error) {
	e := CastEvent{
		ID:        d.newID(),
		SessionID: sessionID,
		SpellID:   out.Spell.ID,
		Effect:    out.Spell.Effect,
		Damage:    out.Spell.Damage,
		Speed:     out.Spell.Speed,
		Score:     out.Score,
		Glitch:    out.Glitch,
		Fallback:  out.Fallback,
		Points:    points,
		CastAt:    d.now(),
	}
	if d.sink == nil {
		return e, ErrNoSink
	}
	if err := d.sink.OnCast(ctx, e); err != nil {
		return e, fmt.Errorf("deliver cast %s: %w", e.ID, err)
	}

	metrics.RecordCast(e.SpellID, e.Glitch, e.Fallback)
	d.logger.Debug(ctx, "cast dispatched",
		logger.String("cast_id", e.ID.String()),
		logger.String("spell", e.SpellID),
		logger.Int("accuracy", e.Accuracy()),
		logger.Bool("glitch", e.Glitch),
	)
	return e, nil
}

// QueueSink enqueues casts without blocking.
type QueueSink struct {
	q queue.Queue
}

// NewQueueSink creates a sink over q.
func NewQueueSink(q queue.Queue) *QueueSink {
	return &QueueSink{q: q}
}

// OnCast implements Sink. It returns ErrSinkFull on backpressure and
// queue.ErrClosed once the queue has shut down.
func (s *QueueSink) OnCast(ctx context.Context, e CastEvent) error {
	if s.q.IsClosed() {
		return queue.ErrClosed
	}
	if !s.q.Enqueue(ctx, e) {
		return ErrSinkFull
	}
	return nil
}

// LogSink writes each cast as a structured log entry.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a sink that logs to l, or discards when l is nil.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.Discard()
	}
	return &LogSink{logger: l}
}

// OnCast implements Sink.
func (s *LogSink) OnCast(ctx context.Context, e CastEvent) error {
	s.logger.Info(ctx, "casting",
		logger.String("spell", e.SpellID),
		logger.Int("accuracy", e.Accuracy()),
		logger.Bool("glitch", e.Glitch),
		logger.Bool("fallback", e.Fallback),
		logger.String("cast_id", e.ID.String()),
	)
	return nil
}

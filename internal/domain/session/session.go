// Package session implements the draw-mode state machine.
//
// A Machine moves between Idle and Drawing on the draw-mode signal and
// between Drawing and the nested Stroking state on the stroke signal. While
// Stroking, every Tick samples the pointer. Leaving Drawing judges the
// collected stroke and hands any cast to the dispatcher. Every Tick also
// eases the global time scale toward slow motion while drawing and back to
// normal speed otherwise.
//
// A Machine is driven from a single tick thread and is not safe for
// concurrent use.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/spellcast/internal/domain/arbiter"
	"github.com/okian/spellcast/internal/domain/geom"
	"github.com/okian/spellcast/internal/domain/model"
	"github.com/okian/spellcast/internal/domain/sampler"
	"github.com/okian/spellcast/pkg/logger"
	"github.com/okian/spellcast/pkg/metrics"
)

// Default time-dilation configuration constants.
const (
	DefaultSlowMotion     = 0.2
	DefaultBlendRate      = 8.0
	DefaultBaseFixedDelta = 0.02
)

// Surface is the presentation layer shown for the duration of a draw session.
type Surface interface {
	Show(ctx context.Context)
	Hide(ctx context.Context)
}

// Arbiter judges a finished stroke.
type Arbiter interface {
	Arbitrate(ctx context.Context, pts []geom.Point) (arbiter.Outcome, bool)
}

// Dispatcher forwards a cast to the effect-spawning side.
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID uuid.UUID, out arbiter.Outcome, points int) (model.CastEvent, error)
}

type nopSurface struct{}

func (nopSurface) Show(context.Context) {}
func (nopSurface) Hide(context.Context) {}

// Machine is the draw-session state machine.
type Machine struct {
	sampler    *sampler.Sampler
	arbiter    Arbiter
	dispatcher Dispatcher
	surface    Surface
	logger     logger.Logger

	slowMotion     float64
	blendRate      float64
	baseFixedDelta float64

	state     State
	tc        TimeContext
	pointer   geom.Point
	clock     time.Duration
	startedAt time.Duration
	sessionID uuid.UUID
}

// Option applies a configuration option to the Machine.
type Option func(*Machine)

// WithSurface sets the presentation surface toggled with Drawing.
func WithSurface(s Surface) Option {
	return func(m *Machine) {
		if s != nil {
			m.surface = s
		}
	}
}

// WithSlowMotion sets the time scale targeted while drawing.
func WithSlowMotion(scale float64) Option {
	return func(m *Machine) {
		if scale > 0 && scale <= 1 {
			m.slowMotion = scale
		}
	}
}

// WithBlendRate sets how fast, per second, the scale closes on its target.
func WithBlendRate(rate float64) Option {
	return func(m *Machine) {
		if rate > 0 {
			m.blendRate = rate
		}
	}
}

// WithBaseFixedDelta sets the fixed simulation step at scale 1, in seconds.
func WithBaseFixedDelta(seconds float64) Option {
	return func(m *Machine) {
		if seconds > 0 {
			m.baseFixedDelta = seconds
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates an idle Machine at normal speed. A nil sampler gets the
// default sampler; a nil dispatcher means casts are judged but not delivered.
func New(s *sampler.Sampler, a Arbiter, d Dispatcher, opts ...Option) *Machine {
	m := &Machine{
		sampler:        s,
		arbiter:        a,
		dispatcher:     d,
		surface:        nopSurface{},
		logger:         logger.OrDiscard().Named("session"),
		slowMotion:     DefaultSlowMotion,
		blendRate:      DefaultBlendRate,
		baseFixedDelta: DefaultBaseFixedDelta,
		state:          Idle,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sampler == nil {
		m.sampler = sampler.New()
	}
	m.tc = TimeContext{Scale: 1, Target: 1, FixedDelta: m.baseFixedDelta}
	return m
}

// BeginDrawing enters Drawing. It is a no-op unless the machine is Idle.
func (m *Machine) BeginDrawing(ctx context.Context) {
	if m.state != Idle {
		return
	}
	m.sampler.Reset(m.pointer)
	m.sessionID = uuid.New()
	m.startedAt = m.clock
	m.surface.Show(ctx)
	m.tc.Target = m.slowMotion
	m.setState(Drawing)

	metrics.RecordSessionStarted()
	m.logger.Debug(ctx, "draw session started",
		logger.String("session_id", m.sessionID.String()),
		logger.Float64("target_scale", m.tc.Target),
	)
}

// BeginStroke enters Stroking. It only applies while Drawing and reports
// whether the transition happened.
func (m *Machine) BeginStroke(ctx context.Context) bool {
	if m.state != Drawing {
		return false
	}
	m.sampler.Seed(m.pointer)
	m.setState(Stroking)
	m.logger.Debug(ctx, "stroke started", logger.Int("points", m.sampler.Len()))
	return true
}

// EndStroke returns from Stroking to Drawing. It is a no-op otherwise.
func (m *Machine) EndStroke(ctx context.Context) {
	if m.state != Stroking {
		return
	}
	m.setState(Drawing)
	m.logger.Debug(ctx, "stroke ended", logger.Int("points", m.sampler.Len()))
}

// EndDrawing leaves Drawing, judges the stroke and dispatches the cast if
// there is one. The machine is always Idle afterwards. Calling it while Idle
// is a no-op that returns false.
func (m *Machine) EndDrawing(ctx context.Context) (arbiter.Outcome, bool) {
	if !m.state.InDrawing() {
		return arbiter.Outcome{}, false
	}
	m.surface.Hide(ctx)

	pts := m.sampler.Points()
	var (
		out arbiter.Outcome
		ok  bool
	)
	if m.arbiter != nil {
		out, ok = m.arbiter.Arbitrate(ctx, pts)
	}
	if ok {
		m.logger.Info(ctx, "casting",
			logger.String("spell", out.Spell.ID),
			logger.Float64("accuracy", out.Score),
			logger.Bool("glitch", out.Glitch),
			logger.Bool("fallback", out.Fallback),
		)
		m.dispatch(ctx, out, len(pts))
	}

	metrics.RecordSessionEnded(len(pts), m.clock-m.startedAt)
	m.logger.Debug(ctx, "draw session ended",
		logger.String("session_id", m.sessionID.String()),
		logger.Int("points", len(pts)),
		logger.Bool("cast", ok),
	)

	m.sampler.Reset(m.pointer)
	m.sessionID = uuid.Nil
	m.tc.Target = 1
	m.setState(Idle)
	return out, ok
}

func (m *Machine) dispatch(ctx context.Context, out arbiter.Outcome, points int) {
	if m.dispatcher == nil {
		return
	}
	if _, err := m.dispatcher.Dispatch(ctx, m.sessionID, out, points); err != nil {
		m.logger.Error(ctx, "failed to dispatch cast",
			logger.String("spell", out.Spell.ID),
			logger.Error(err),
		)
	}
}

// Tick advances the machine by one frame. pointer is the current pointer
// position and dt the real, undilated time since the previous tick. Negative
// or zero dt leaves the clock and scale unchanged.
func (m *Machine) Tick(ctx context.Context, pointer geom.Point, dt time.Duration) TimeContext {
	if dt < 0 {
		dt = 0
	}
	if pointer.IsFinite() {
		m.pointer = pointer
	}
	m.clock += dt

	if m.state == Stroking {
		m.sampler.Sample(m.pointer, m.clock)
	}

	m.tc.advance(dt, m.blendRate, m.baseFixedDelta)
	metrics.UpdateTimeScale(m.tc.Scale)
	return m.tc
}

func (m *Machine) setState(s State) {
	m.state = s
	metrics.UpdateDrawingState(int(s))
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Time returns the current time context.
func (m *Machine) Time() TimeContext { return m.tc }

// Points returns a copy of the stroke collected in the current session.
func (m *Machine) Points() []geom.Point { return m.sampler.Points() }

// SessionID returns the current session id, or uuid.Nil when Idle.
func (m *Machine) SessionID() uuid.UUID { return m.sessionID }

// Clock returns the total unscaled time the machine has been ticked.
func (m *Machine) Clock() time.Duration { return m.clock }

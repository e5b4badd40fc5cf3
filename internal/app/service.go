// Package service wires the casting pipeline from configuration and exposes
// the dependencies the host and its HTTP surface need.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/spellcast/internal/adapters/dispatch"
	"github.com/okian/spellcast/internal/adapters/effect"
	castqueue "github.com/okian/spellcast/internal/adapters/mq/queue"
	workerpool "github.com/okian/spellcast/internal/adapters/mq/worker"
	"github.com/okian/spellcast/internal/config"
	"github.com/okian/spellcast/internal/domain/arbiter"
	"github.com/okian/spellcast/internal/domain/geom"
	"github.com/okian/spellcast/internal/domain/gesture"
	"github.com/okian/spellcast/internal/domain/sampler"
	"github.com/okian/spellcast/internal/domain/session"
	"github.com/okian/spellcast/internal/domain/spell"
	"github.com/okian/spellcast/pkg/logger"
	"github.com/okian/spellcast/pkg/metrics"
)

// ErrNotStarted is returned when the pipeline is used before Start.
var ErrNotStarted = errors.New("service not started")

// Service owns the casting pipeline: draw session, arbiter, dispatcher, cast
// queue and spawn workers.
type Service struct {
	mu sync.RWMutex

	cfg     *config.Config
	spawner workerpool.Spawner
	surface session.Surface

	registry   *spell.Registry
	castQueue  *castqueue.InMemoryQueue
	workerPool *workerpool.Pool
	machine    *session.Machine

	dispatched atomic.Int64
	glitched   atomic.Int64
	fallbacks  atomic.Int64
	dropped    atomic.Int64

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults from config.New are used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithSpawner replaces the default effect spawner.
func WithSpawner(sp workerpool.Spawner) Option {
	return func(s *Service) {
		if sp != nil {
			s.spawner = sp
		}
	}
}

// WithSurface sets the presentation surface shown while drawing.
func WithSurface(surface session.Surface) Option {
	return func(s *Service) {
		if surface != nil {
			s.surface = surface
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds and starts every component. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.OrDiscard()
	}
	cfg := s.cfg

	registry, err := spell.FromConfig(cfg.Spells)
	if err != nil {
		return fmt.Errorf("build spell registry: %w", err)
	}
	s.registry = registry

	classifier := gesture.NewClassifier(
		gesture.WithCircleRadius(cfg.CircleMinRadius, cfg.CircleMaxRadius),
		gesture.WithMinCirclePoints(cfg.CircleMinPoints),
		gesture.WithMinLinePoints(cfg.LineMinPoints),
		gesture.WithMatchThreshold(cfg.MatchThreshold),
	)
	arb := arbiter.New(registry, classifier,
		arbiter.WithGlitchThreshold(cfg.GlitchThreshold),
		arbiter.WithMinPoints(cfg.MinGesturePoints),
		arbiter.WithSeed(cfg.RandomSeed),
		arbiter.WithLogger(s.logger.Named("arbiter")),
	)

	s.castQueue = castqueue.NewInMemoryQueue(castqueue.WithCapacity(cfg.CastQueueSize))
	spawner := s.spawner
	if spawner == nil {
		spawner = effect.NewSpawner(effect.NewRoller(cfg.RandomSeed), effect.WithLogger(s.logger.Named("effect")))
	}
	s.workerPool = workerpool.NewPool(cfg.SpawnWorkers, s.castQueue, spawner,
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	// Workers outlive the start-up context; Stop ends them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool.Start(runCtx)

	dispatcher := dispatch.New(
		&countingSink{next: dispatch.NewQueueSink(s.castQueue), svc: s},
		dispatch.WithLogger(s.logger.Named("dispatch")),
	)

	ppu := cfg.PixelsPerUnit
	smp := sampler.New(
		sampler.WithMinDistance(cfg.SampleDistance),
		sampler.WithProjector(sampler.ProjectorFunc(func(p geom.Point) geom.Point { return p.Div(ppu) })),
	)

	opts := []session.Option{
		session.WithSlowMotion(cfg.SlowMotionScale),
		session.WithBlendRate(cfg.BlendRate),
		session.WithBaseFixedDelta(cfg.BaseFixedDelta),
		session.WithLogger(s.logger.Named("session")),
	}
	if s.surface != nil {
		opts = append(opts, session.WithSurface(s.surface))
	}
	s.machine = session.New(smp, arb, dispatcher, opts...)

	s.started = true
	s.logger.Info(ctx, "spellcast service started",
		logger.Int("spells", registry.Len()),
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.castQueue.Capacity()),
	)
	return nil
}

// Stop closes the cast queue and waits for the spawn workers to drain it.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping spellcast service...")

	err := s.workerPool.Shutdown(ctx)
	s.cancel()
	s.started = false

	s.logger.Info(ctx, "spellcast service stopped",
		logger.Int("spawned", int(s.workerPool.Spawned())),
	)
	if err != nil {
		return fmt.Errorf("stop workers: %w", err)
	}
	return nil
}

// Machine returns the draw-session state machine. The caller's tick thread
// owns it exclusively.
func (s *Service) Machine() (*session.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.machine, nil
}

// All returns the spell catalogue in priority order.
func (s *Service) All() []spell.Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.All()
}

// Spawned returns how many casts the spawn workers have materialized.
func (s *Service) Spawned() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workerPool == nil {
		return 0
	}
	return s.workerPool.Spawned()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"dispatched": s.dispatched.Load(),
		"glitched":   s.glitched.Load(),
		"fallbacks":  s.fallbacks.Load(),
		"dropped":    s.dropped.Load(),
	}
	if s.registry != nil {
		stats["spells"] = s.registry.Len()
	}
	if s.workerPool != nil {
		stats["workerCount"] = s.workerPool.Size()
		stats["spawned"] = s.workerPool.Spawned()
	}
	if s.started {
		queueLen := s.castQueue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["queueCapacity"] = s.castQueue.Capacity()
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

// countingSink tracks delivery outcomes for GetStats.
type countingSink struct {
	next dispatch.Sink
	svc  *Service
}

func (c *countingSink) OnCast(ctx context.Context, e dispatch.CastEvent) error { //nolint:gocritic // hugeParam: events are values end to end
	if err := c.next.OnCast(ctx, e); err != nil {
		c.svc.dropped.Add(1)
		return err
	}
	c.svc.dispatched.Add(1)
	if e.Glitch {
		c.svc.glitched.Add(1)
	}
	if e.Fallback {
		c.svc.fallbacks.Add(1)
	}
	return nil
}

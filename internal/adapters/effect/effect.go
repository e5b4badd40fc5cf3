// Package effect turns cast events into spawnable effect descriptors.
//
// Clean casts spawn exactly as defined. Glitched casts are unstable: their
// size and damage are rolled within fixed bands and their trail burns red.
package effect

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/spellcast/internal/domain/model"
	"github.com/okian/spellcast/pkg/logger"
)

// Glitch variance bands, lower bound inclusive and upper bound exclusive.
const (
	GlitchSizeMin   = 0.8
	GlitchSizeMax   = 1.5
	GlitchDamageMin = 0.5
	GlitchDamageMax = 2.0
)

// Color is a linear RGB trail tint.
type Color struct {
	R, G, B float64
}

// Trail tints.
var (
	TrailNormal = Color{R: 1, G: 0.5, B: 0}
	TrailGlitch = Color{R: 1, G: 0, B: 0}
)

// Projectile is the fully rolled effect handed to the host world.
type Projectile struct {
	CastID uuid.UUID
	Spell  string
	Effect string
	Damage float64
	Speed  float64
	Size   float64
	Trail  Color
	Glitch bool
}

// Roller rolls glitch variance. It is safe for concurrent use.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller creates a Roller. A zero seed uses the current time.
func NewRoller(seed int64) *Roller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Roller{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // gameplay randomness, not security
}

// Roll builds the projectile for e.
func (r *Roller) Roll(e model.CastEvent) Projectile { //nolint:gocritic // hugeParam: events are values end to end
	p := Projectile{
		CastID: e.ID,
		Spell:  e.SpellID,
		Effect: e.Effect,
		Damage: e.Damage,
		Speed:  e.Speed,
		Size:   1,
		Trail:  TrailNormal,
		Glitch: e.Glitch,
	}
	if !e.Glitch {
		return p
	}

	r.mu.Lock()
	size := uniform(r.rng, GlitchSizeMin, GlitchSizeMax)
	dmg := uniform(r.rng, GlitchDamageMin, GlitchDamageMax)
	r.mu.Unlock()

	p.Size = size
	p.Damage *= dmg
	p.Trail = TrailGlitch
	return p
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Handler receives rolled projectiles.
type Handler func(ctx context.Context, p Projectile) error

// Spawner rolls each cast and hands the projectile to a Handler. It
// satisfies the worker pool's spawner contract.
type Spawner struct {
	roller  *Roller
	handler Handler
	logger  logger.Logger
}

// SpawnerOption applies a configuration option to the Spawner.
type SpawnerOption func(*Spawner)

// WithHandler sets the projectile consumer.
func WithHandler(h Handler) SpawnerOption {
	return func(s *Spawner) {
		if h != nil {
			s.handler = h
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) SpawnerOption {
	return func(s *Spawner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSpawner creates a Spawner. Without a handler projectiles are only logged.
func NewSpawner(roller *Roller, opts ...SpawnerOption) *Spawner {
	if roller == nil {
		roller = NewRoller(0)
	}
	s := &Spawner{
		roller: roller,
		logger: logger.OrDiscard().Named("effect"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn rolls e and delivers the projectile.
func (s *Spawner) Spawn(ctx context.Context, e model.CastEvent) error { //nolint:gocritic // hugeParam: events are values end to end
	p := s.roller.Roll(e)
	s.logger.Info(ctx, "spawning effect",
		logger.String("spell", p.Spell),
		logger.String("effect", p.Effect),
		logger.Float64("damage", p.Damage),
		logger.Float64("size", p.Size),
		logger.Bool("glitch", p.Glitch),
	)
	if s.handler == nil {
		return nil
	}
	return s.handler(ctx, p)
}

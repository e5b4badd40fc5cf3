// Package arbiter decides which spell, if any, a finished gesture casts.
//
// Policy: registry order is priority and the first definition whose template
// score reaches its own minimum wins. A gesture long enough to evaluate that
// matches nothing still casts: a uniformly random definition is chosen with
// score 0, which always lands below the glitch threshold.
package arbiter

import (
	"context"
	"math/rand"
	"time"

	"github.com/okian/spellcast/internal/domain/geom"
	"github.com/okian/spellcast/internal/domain/gesture"
	"github.com/okian/spellcast/internal/domain/spell"
	"github.com/okian/spellcast/pkg/logger"
	"github.com/okian/spellcast/pkg/metrics"
)

// Default arbitration configuration constants.
const (
	DefaultGlitchThreshold = 0.5
	// DefaultMinPoints: gestures with this many samples or fewer are ignored.
	DefaultMinPoints = 10
)

// Arbitration results reported to metrics.
const (
	ResultMatched       = "matched"
	ResultFallback      = "fallback"
	ResultTooShort      = "too_short"
	ResultEmptyRegistry = "empty_registry"
)

// Scorer scores points against the template for kind.
type Scorer interface {
	Score(kind gesture.Kind, pts []geom.Point) float64
}

// Catalogue is the read-only view of the spell registry the arbiter needs.
type Catalogue interface {
	Len() int
	At(i int) spell.Definition
}

// Outcome is the arbitration result handed to the dispatcher.
type Outcome struct {
	Spell    spell.Definition
	Score    float64
	Glitch   bool
	Fallback bool
}

// Arbiter selects spells. It is not safe for concurrent use because the
// fallback generator is not.
type Arbiter struct {
	catalogue       Catalogue
	scorer          Scorer
	glitchThreshold float64
	minPoints       int
	rng             *rand.Rand
	logger          logger.Logger
}

// Option applies a configuration option to the Arbiter.
type Option func(*Arbiter)

// WithGlitchThreshold sets the score below which casts are glitched.
func WithGlitchThreshold(t float64) Option {
	return func(a *Arbiter) {
		if t >= 0 && t <= 1 {
			a.glitchThreshold = t
		}
	}
}

// WithMinPoints sets the exclusive lower bound on evaluated gesture length.
func WithMinPoints(n int) Option {
	return func(a *Arbiter) {
		if n >= 0 {
			a.minPoints = n
		}
	}
}

// WithRand sets the fallback random source.
func WithRand(r *rand.Rand) Option {
	return func(a *Arbiter) {
		if r != nil {
			a.rng = r
		}
	}
}

// WithSeed seeds the fallback random source. Zero keeps the time-based seed.
func WithSeed(seed int64) Option {
	return func(a *Arbiter) {
		if seed != 0 {
			a.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // gameplay randomness, not security
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Arbiter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Arbiter over catalogue using scorer for template matching.
func New(catalogue Catalogue, scorer Scorer, opts ...Option) *Arbiter {
	a := &Arbiter{
		catalogue:       catalogue,
		scorer:          scorer,
		glitchThreshold: DefaultGlitchThreshold,
		minPoints:       DefaultMinPoints,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // gameplay randomness
		logger:          logger.OrDiscard().Named("arbiter"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.scorer == nil {
		a.scorer = gesture.NewClassifier()
	}
	return a
}

// GlitchThreshold returns the configured threshold.
func (a *Arbiter) GlitchThreshold() float64 { return a.glitchThreshold }

// Arbitrate picks a spell for pts. The boolean is false when nothing should
// be cast: the gesture is too short or the catalogue is empty.
func (a *Arbiter) Arbitrate(ctx context.Context, pts []geom.Point) (Outcome, bool) {
	if len(pts) <= a.minPoints {
		metrics.RecordArbitration(ResultTooShort)
		a.logger.Debug(ctx, "gesture too short to evaluate",
			logger.Int("points", len(pts)),
			logger.Int("required", a.minPoints+1),
		)
		return Outcome{}, false
	}

	n := 0
	if a.catalogue != nil {
		n = a.catalogue.Len()
	}
	if n == 0 {
		metrics.RecordArbitration(ResultEmptyRegistry)
		a.logger.Warn(ctx, "no spells configured; gesture discarded", logger.Int("points", len(pts)))
		return Outcome{}, false
	}

	for i := 0; i < n; i++ {
		def := a.catalogue.At(i)
		score := a.scorer.Score(def.Gesture, pts)
		metrics.RecordClassificationScore(def.Gesture.String(), score)
		a.logger.Debug(ctx, "scored candidate",
			logger.String("spell", def.ID),
			logger.String("gesture", def.Gesture.String()),
			logger.Float64("score", score),
			logger.Float64("min_score", def.MinScore),
		)
		if score >= def.MinScore {
			metrics.RecordArbitration(ResultMatched)
			return a.outcome(def, score, false), true
		}
	}

	def := a.catalogue.At(a.rng.Intn(n))
	metrics.RecordArbitration(ResultFallback)
	a.logger.Info(ctx, "gesture unrecognized; casting random spell",
		logger.String("spell", def.ID),
		logger.Int("points", len(pts)),
	)
	return a.outcome(def, 0, true), true
}

func (a *Arbiter) outcome(def spell.Definition, score float64, fallback bool) Outcome {
	return Outcome{
		Spell:    def,
		Score:    score,
		Glitch:   score < a.glitchThreshold,
		Fallback: fallback,
	}
}

// Package sampler collects the de-duplicated stroke of a draw session.
//
// Filtering happens in pointer space (typically screen pixels) while the
// stored points live in the drawing plane produced by a Projector. The
// sampler performs no state checks of its own: callers decide when a stroke
// is active and only then call Sample.
package sampler

import (
	"time"

	"github.com/okian/spellcast/internal/domain/geom"
)

// DefaultMinDistance is the pointer travel, in pointer units, a sample must
// exceed before it is kept.
const DefaultMinDistance = 8.0

// defaultCapacity pre-sizes the sample buffer for a typical gesture.
const defaultCapacity = 64

// Projector maps a pointer position into the drawing plane.
type Projector interface {
	Project(pointer geom.Point) geom.Point
}

// ProjectorFunc adapts a function to Projector.
type ProjectorFunc func(geom.Point) geom.Point

// Project implements Projector.
func (f ProjectorFunc) Project(p geom.Point) geom.Point { return f(p) }

type identity struct{}

func (identity) Project(p geom.Point) geom.Point { return p }

// Sample is one accepted point and the session clock reading when it was taken.
type Sample struct {
	Pos geom.Point
	At  time.Duration
}

// Sampler accumulates an ordered stroke. It is not safe for concurrent use.
type Sampler struct {
	minDistance float64
	projector   Projector

	samples []Sample
	last    geom.Point
}

// Option applies a configuration option to the Sampler.
type Option func(*Sampler)

// WithMinDistance sets the filtering threshold.
func WithMinDistance(d float64) Option {
	return func(s *Sampler) {
		if d >= 0 {
			s.minDistance = d
		}
	}
}

// WithProjector sets the pointer-to-plane projection.
func WithProjector(p Projector) Option {
	return func(s *Sampler) {
		if p != nil {
			s.projector = p
		}
	}
}

// New creates a Sampler.
func New(opts ...Option) *Sampler {
	s := &Sampler{
		minDistance: DefaultMinDistance,
		projector:   identity{},
		samples:     make([]Sample, 0, defaultCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample appends the projected pointer position when it lies strictly farther
// than the threshold from the last accepted pointer position. It reports
// whether a point was appended.
func (s *Sampler) Sample(pointer geom.Point, at time.Duration) bool {
	if !pointer.IsFinite() {
		return false
	}
	if pointer.Distance(s.last) <= s.minDistance {
		return false
	}
	s.samples = append(s.samples, Sample{Pos: s.projector.Project(pointer), At: at})
	s.last = pointer
	return true
}

// Reset clears the stroke and seeds the last accepted position with pointer.
func (s *Sampler) Reset(pointer geom.Point) {
	s.samples = s.samples[:0]
	s.Seed(pointer)
}

// Seed replaces the last accepted position without touching the stroke, so
// resuming a stroke elsewhere does not register a spurious jump.
func (s *Sampler) Seed(pointer geom.Point) {
	if pointer.IsFinite() {
		s.last = pointer
	}
}

// Len returns the number of accepted samples.
func (s *Sampler) Len() int { return len(s.samples) }

// Points returns a copy of the accepted points in insertion order.
func (s *Sampler) Points() []geom.Point {
	pts := make([]geom.Point, len(s.samples))
	for i, smp := range s.samples {
		pts[i] = smp.Pos
	}
	return pts
}

// Samples returns a copy of the accepted samples.
func (s *Sampler) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Duration is the clock span between the first and last accepted samples.
func (s *Sampler) Duration() time.Duration {
	if len(s.samples) < 2 {
		return 0
	}
	return s.samples[len(s.samples)-1].At - s.samples[0].At
}

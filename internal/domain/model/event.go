// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// CastEvent is the immutable record of one cast handed to the effect spawner.
// It carries only values: no reference to the caster or any live actor.
type CastEvent struct {
	ID        uuid.UUID // unique per cast
	SessionID uuid.UUID // draw session that produced the gesture
	SpellID   string
	Effect    string  // opaque effect reference from the spell definition
	Damage    float64 // base damage before any glitch variation
	Speed     float64
	Score     float64 // template score in [0,1]; 0 for fallback casts
	Glitch    bool
	Fallback  bool
	Points    int // number of samples the gesture was judged on
	CastAt    time.Time
}

// Accuracy returns the score as a whole percentage.
func (e CastEvent) Accuracy() int {
	return int(e.Score*100 + 0.5)
}

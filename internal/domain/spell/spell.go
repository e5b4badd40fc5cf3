// Package spell holds the static, ordered catalogue of castable spells.
package spell

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/spellcast/internal/config"
	"github.com/okian/spellcast/internal/domain/gesture"
)

// Definition is one castable spell. Definitions are values; the registry
// hands out copies so callers cannot mutate the catalogue.
type Definition struct {
	ID       string
	Gesture  gesture.Kind
	MinScore float64
	Damage   float64
	Speed    float64
	// Effect is an opaque reference to the effect descriptor the spawner
	// resolves; the core never interprets it.
	Effect string
}

// Validate checks a single definition.
func (d Definition) Validate() error {
	switch {
	case strings.TrimSpace(d.ID) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidSpell)
	case !d.Gesture.Valid():
		return fmt.Errorf("%w: %s: gesture %s", ErrInvalidSpell, d.ID, d.Gesture)
	case math.IsNaN(d.MinScore) || d.MinScore < 0 || d.MinScore > 1:
		return fmt.Errorf("%w: %s: min score %g outside [0,1]", ErrInvalidSpell, d.ID, d.MinScore)
	}
	return nil
}

// Registry is an immutable ordered list of definitions. Order is priority:
// the arbiter accepts the first definition whose template clears its minimum.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry validates defs and builds a registry. An empty registry is valid.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.index[d.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSpell, d.ID)
		}
		r.index[d.ID] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// FromConfig resolves configured spell entries into a registry.
func FromConfig(entries []config.SpellConfig) (*Registry, error) {
	defs := make([]Definition, 0, len(entries))
	for _, e := range entries {
		kind, err := gesture.ParseKind(e.Gesture)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSpell, e.ID, err)
		}
		defs = append(defs, Definition{
			ID:       strings.TrimSpace(e.ID),
			Gesture:  kind,
			MinScore: e.MinScore,
			Damage:   e.Damage,
			Speed:    e.Speed,
			Effect:   e.Effect,
		})
	}
	return NewRegistry(defs...)
}

// Len returns the number of definitions. A nil registry is empty.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.defs)
}

// At returns the i-th definition in priority order.
func (r *Registry) At(i int) Definition {
	return r.defs[i]
}

// All returns a copy of every definition in priority order.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Lookup finds a definition by id.
func (r *Registry) Lookup(id string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	i, ok := r.index[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

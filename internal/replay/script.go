// Package replay drives a draw session from recorded or synthetic gestures.
//
// Gesture scripts are YAML files listing gestures as strokes of pointer
// positions:
//
//	name: smoke
//	tick: 16ms
//	gestures:
//	  - name: clean circle
//	    expect: fireball
//	    strokes:
//	      - [[500, 300], [497, 331], ...]
//
// expect names the spell the gesture must cast, "none" when it must not
// cast, or is left empty to accept any result.
package replay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/spellcast/internal/domain/geom"
)

// DefaultTick is the frame time used when a script does not set one.
const DefaultTick = 16 * time.Millisecond

// ExpectNone marks a gesture that must not cast.
const ExpectNone = "none"

const filePermission = 0o600

// Gesture is one draw session: one or more strokes in pointer space.
type Gesture struct {
	ID      uuid.UUID
	Name    string
	Shape   string
	Expect  string
	Strokes [][]geom.Point
}

// Points returns every stroke point in drawing order.
func (g Gesture) Points() []geom.Point {
	var out []geom.Point
	for _, s := range g.Strokes {
		out = append(out, s...)
	}
	return out
}

// Script is a named, ordered list of gestures.
type Script struct {
	Name     string
	Tick     time.Duration
	Gestures []Gesture
}

type scriptFile struct {
	Name     string        `koanf:"name"`
	Tick     time.Duration `koanf:"tick"`
	Gestures []gestureFile `koanf:"gestures"`
}

type gestureFile struct {
	Name    string        `koanf:"name"`
	Shape   string        `koanf:"shape"`
	Expect  string        `koanf:"expect"`
	Strokes [][][]float64 `koanf:"strokes"`
}

// LoadScript reads a YAML gesture script.
func LoadScript(path string) (*Script, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidScript, path, err)
	}

	var raw scriptFile
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidScript, path, err)
	}

	s := &Script{Name: raw.Name, Tick: raw.Tick}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if s.Tick <= 0 {
		s.Tick = DefaultTick
	}
	if len(raw.Gestures) == 0 {
		return nil, fmt.Errorf("%w: %s: no gestures", ErrInvalidScript, path)
	}

	for i, rg := range raw.Gestures {
		g, err := rg.gesture()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: gestures[%d]: %w", ErrInvalidScript, path, i, err)
		}
		if g.Name == "" {
			g.Name = fmt.Sprintf("gesture-%d", i)
		}
		s.Gestures = append(s.Gestures, g)
	}
	return s, nil
}

func (rg gestureFile) gesture() (Gesture, error) {
	g := Gesture{
		ID:     uuid.New(),
		Name:   rg.Name,
		Shape:  rg.Shape,
		Expect: strings.TrimSpace(rg.Expect),
	}
	if len(rg.Strokes) == 0 {
		return g, fmt.Errorf("no strokes")
	}
	for si, rs := range rg.Strokes {
		if len(rs) == 0 {
			return g, fmt.Errorf("stroke %d is empty", si)
		}
		stroke := make([]geom.Point, len(rs))
		for pi, xy := range rs {
			if len(xy) != 2 {
				return g, fmt.Errorf("stroke %d point %d: want [x, y], got %d values", si, pi, len(xy))
			}
			p := geom.Pt(xy[0], xy[1])
			if !p.IsFinite() {
				return g, fmt.Errorf("stroke %d point %d is not finite", si, pi)
			}
			stroke[pi] = p
		}
		g.Strokes = append(g.Strokes, stroke)
	}
	return g, nil
}

// SaveScript writes s as YAML to path, creating parent directories.
func SaveScript(path string, s *Script) error {
	if s == nil || len(s.Gestures) == 0 {
		return fmt.Errorf("%w: nothing to save", ErrInvalidScript)
	}

	gestures := make([]map[string]interface{}, 0, len(s.Gestures))
	for _, g := range s.Gestures {
		strokes := make([][][]float64, 0, len(g.Strokes))
		for _, stroke := range g.Strokes {
			pts := make([][]float64, len(stroke))
			for i, p := range stroke {
				pts[i] = []float64{p.X, p.Y}
			}
			strokes = append(strokes, pts)
		}
		entry := map[string]interface{}{
			"name":    g.Name,
			"strokes": strokes,
		}
		if g.Shape != "" {
			entry["shape"] = g.Shape
		}
		if g.Expect != "" {
			entry["expect"] = g.Expect
		}
		gestures = append(gestures, entry)
	}

	tick := s.Tick
	if tick <= 0 {
		tick = DefaultTick
	}

	k := koanf.New(".")
	for key, val := range map[string]interface{}{
		"name":     s.Name,
		"tick":     tick.String(),
		"gestures": gestures,
	} {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	b, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, b, filePermission); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

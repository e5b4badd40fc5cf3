// Package config defines spellcast configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation and load failures wrap this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// SpellConfig is the static description of one spell as it appears in YAML.
type SpellConfig struct {
	ID       string  `koanf:"id"`
	Gesture  string  `koanf:"gesture"`
	MinScore float64 `koanf:"min_score"`
	Damage   float64 `koanf:"damage"`
	Speed    float64 `koanf:"speed"`
	Effect   string  `koanf:"effect"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr is the host listen address for /healthz and /stats.
	// Empty disables the HTTP surface.
	MetricsAddr string `koanf:"metrics_addr"`

	// SampleDistance is the minimum pointer travel before a new sample is kept.
	SampleDistance float64 `koanf:"sample_distance"`

	// PixelsPerUnit converts pointer travel into drawing-plane units.
	PixelsPerUnit float64 `koanf:"pixels_per_unit"`

	// CircleMinRadius and CircleMaxRadius bound the accepted mean radius.
	CircleMinRadius float64 `koanf:"circle_min_radius"`
	CircleMaxRadius float64 `koanf:"circle_max_radius"`

	// CircleMinPoints and LineMinPoints reject sequences too short to score.
	CircleMinPoints int `koanf:"circle_min_points"`
	LineMinPoints   int `koanf:"line_min_points"`

	// MatchThreshold is the template score above which a shape matches.
	MatchThreshold float64 `koanf:"match_threshold"`

	// MinGesturePoints: sessions with this many samples or fewer never cast.
	MinGesturePoints int `koanf:"min_gesture_points"`

	// GlitchThreshold flags casts scoring below it as glitched.
	GlitchThreshold float64 `koanf:"glitch_threshold"`

	// SlowMotionScale is the time scale targeted while drawing.
	SlowMotionScale float64 `koanf:"slow_motion_scale"`

	// BlendRate is the exponential smoothing rate per real second.
	BlendRate float64 `koanf:"blend_rate"`

	// BaseFixedDelta is the fixed simulation step at time scale 1, in seconds.
	BaseFixedDelta float64 `koanf:"base_fixed_delta"`

	// CastQueueSize bounds casts waiting for the spawn workers.
	CastQueueSize int `koanf:"cast_queue_size"`

	// SpawnWorkers sets the number of effect spawn workers.
	SpawnWorkers int `koanf:"spawn_workers"`

	// RandomSeed seeds fallback selection and glitch rolls. Zero picks a
	// time-based seed.
	RandomSeed int64 `koanf:"random_seed"`

	// Spells is the ordered registry. Order encodes priority.
	Spells []SpellConfig `koanf:"spells"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		MetricsAddr:      ":9090",
		SampleDistance:   8,
		PixelsPerUnit:    200,
		CircleMinRadius:  0.3,
		CircleMaxRadius:  0.8,
		CircleMinPoints:  8,
		LineMinPoints:    5,
		MatchThreshold:   0.7,
		MinGesturePoints: 10,
		GlitchThreshold:  0.5,
		SlowMotionScale:  0.2,
		BlendRate:        8,
		BaseFixedDelta:   0.02,
		CastQueueSize:    64,
		SpawnWorkers:     runtime.NumCPU(),
		Spells: []SpellConfig{
			{ID: "fireball", Gesture: "circle", MinScore: 0.7, Damage: 50, Speed: 10, Effect: "fx/fireball"},
			{ID: "lance", Gesture: "line", MinScore: 0.8, Damage: 30, Speed: 25, Effect: "fx/lance"},
		},
	}
}

// Validate checks cross-field constraints. Spell entries are validated for
// shape only; gesture tags are resolved by the spell registry.
func (c *Config) Validate() error {
	switch {
	case c.SampleDistance <= 0:
		return fmt.Errorf("%w: sample_distance must be positive", ErrInvalidConfig)
	case c.PixelsPerUnit <= 0:
		return fmt.Errorf("%w: pixels_per_unit must be positive", ErrInvalidConfig)
	case c.CircleMinRadius < 0 || c.CircleMaxRadius <= c.CircleMinRadius:
		return fmt.Errorf("%w: circle radius range [%g, %g] is empty", ErrInvalidConfig, c.CircleMinRadius, c.CircleMaxRadius)
	case c.CircleMinPoints < 1 || c.LineMinPoints < 2:
		return fmt.Errorf("%w: point-count thresholds too small", ErrInvalidConfig)
	case c.MatchThreshold < 0 || c.MatchThreshold > 1:
		return fmt.Errorf("%w: match_threshold must be within [0,1]", ErrInvalidConfig)
	case c.GlitchThreshold < 0 || c.GlitchThreshold > 1:
		return fmt.Errorf("%w: glitch_threshold must be within [0,1]", ErrInvalidConfig)
	case c.MinGesturePoints < 0:
		return fmt.Errorf("%w: min_gesture_points must not be negative", ErrInvalidConfig)
	case c.SlowMotionScale <= 0 || c.SlowMotionScale > 1:
		return fmt.Errorf("%w: slow_motion_scale must be within (0,1]", ErrInvalidConfig)
	case c.BlendRate <= 0:
		return fmt.Errorf("%w: blend_rate must be positive", ErrInvalidConfig)
	case c.BaseFixedDelta <= 0:
		return fmt.Errorf("%w: base_fixed_delta must be positive", ErrInvalidConfig)
	}
	for i, s := range c.Spells {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: spells[%d] has no id", ErrInvalidConfig, i)
		}
	}
	return nil
}

package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/spellcast/internal/domain/arbiter"
	"github.com/okian/spellcast/internal/domain/geom"
	"github.com/okian/spellcast/internal/domain/session"
	"github.com/okian/spellcast/pkg/logger"
)

// Machine is the draw-session surface the runner drives.
type Machine interface {
	Tick(ctx context.Context, pointer geom.Point, dt time.Duration) session.TimeContext
	BeginDrawing(ctx context.Context)
	BeginStroke(ctx context.Context) bool
	EndStroke(ctx context.Context)
	EndDrawing(ctx context.Context) (arbiter.Outcome, bool)
}

// Result is the outcome of playing one gesture.
type Result struct {
	Gesture  string
	Shape    string
	Expect   string
	Cast     bool
	Spell    string
	Score    float64
	Glitch   bool
	Fallback bool
	OK       bool
}

// Report summarizes a run.
type Report struct {
	Played   int
	Cast     int
	Glitched int
	Fallback int
	Failed   []Result
	ByShape  map[string]int
	BySpell  map[string]int
	Duration time.Duration
}

// Passed reports whether every gesture met its expectation.
func (r Report) Passed() bool { return len(r.Failed) == 0 }

// Runner plays gestures through a Machine one frame per point.
type Runner struct {
	machine Machine
	tick    time.Duration
	settle  int
	logger  logger.Logger
}

// RunnerOption applies a configuration option to the Runner.
type RunnerOption func(*Runner)

// WithTick sets the simulated frame time.
func WithTick(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.tick = d
		}
	}
}

// WithSettleFrames sets how many idle frames follow each gesture.
func WithSettleFrames(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 0 {
			r.settle = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner over m.
func NewRunner(m Machine, opts ...RunnerOption) *Runner {
	r := &Runner{
		machine: m,
		tick:    DefaultTick,
		logger:  logger.OrDiscard().Named("replay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Play draws g as one session and judges the result against g.Expect.
func (r *Runner) Play(ctx context.Context, g Gesture) Result { //nolint:gocritic // hugeParam: gestures are values
	res := Result{Gesture: g.Name, Shape: g.Shape, Expect: g.Expect}
	if len(g.Strokes) == 0 || len(g.Strokes[0]) == 0 {
		res.OK = g.Expect == "" || g.Expect == ExpectNone
		return res
	}

	r.machine.Tick(ctx, g.Strokes[0][0], r.tick)
	r.machine.BeginDrawing(ctx)
	for _, stroke := range g.Strokes {
		if len(stroke) == 0 {
			continue
		}
		r.machine.Tick(ctx, stroke[0], r.tick)
		r.machine.BeginStroke(ctx)
		for _, p := range stroke[1:] {
			r.machine.Tick(ctx, p, r.tick)
		}
		r.machine.EndStroke(ctx)
	}
	out, ok := r.machine.EndDrawing(ctx)

	last := g.Strokes[len(g.Strokes)-1]
	for i := 0; i < r.settle; i++ {
		r.machine.Tick(ctx, last[len(last)-1], r.tick)
	}

	res.Cast = ok
	if ok {
		res.Spell = out.Spell.ID
		res.Score = out.Score
		res.Glitch = out.Glitch
		res.Fallback = out.Fallback
	}
	res.OK = expectationMet(g.Expect, res)
	return res
}

func expectationMet(expect string, res Result) bool { //nolint:gocritic // hugeParam: results are values
	switch expect {
	case "":
		return true
	case ExpectNone:
		return !res.Cast
	default:
		return res.Cast && res.Spell == expect
	}
}

// Run plays every gesture in order. It stops early with an error when ctx
// is cancelled.
func (r *Runner) Run(ctx context.Context, gestures []Gesture) (Report, error) {
	start := time.Now()
	rep := Report{
		ByShape: make(map[string]int),
		BySpell: make(map[string]int),
	}

	for _, g := range gestures {
		if err := ctx.Err(); err != nil {
			rep.Duration = time.Since(start)
			return rep, fmt.Errorf("replay interrupted after %d gestures: %w", rep.Played, err)
		}

		res := r.Play(ctx, g)
		rep.Played++
		if res.Shape != "" {
			rep.ByShape[res.Shape]++
		}
		if res.Cast {
			rep.Cast++
			rep.BySpell[res.Spell]++
			if res.Glitch {
				rep.Glitched++
			}
			if res.Fallback {
				rep.Fallback++
			}
		}
		if !res.OK {
			rep.Failed = append(rep.Failed, res)
			r.logger.Warn(ctx, "gesture did not meet expectation",
				logger.String("gesture", res.Gesture),
				logger.String("expect", res.Expect),
				logger.String("spell", res.Spell),
				logger.Bool("cast", res.Cast),
			)
		}
	}

	rep.Duration = time.Since(start)
	r.logger.Info(ctx, "replay finished",
		logger.Int("played", rep.Played),
		logger.Int("cast", rep.Cast),
		logger.Int("glitched", rep.Glitched),
		logger.Int("fallback", rep.Fallback),
		logger.Int("failed", len(rep.Failed)),
		logger.Duration("duration", rep.Duration),
	)
	return rep, nil
}

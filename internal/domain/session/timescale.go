package session

import (
	"math"
	"time"
)

// snapEpsilon is the distance at which the live scale jumps onto its target.
const snapEpsilon = 1e-4

// TimeContext is the global time dilation the host applies each frame.
type TimeContext struct {
	// Scale is the live, smoothed time scale.
	Scale float64
	// Target is the scale Scale converges toward.
	Target float64
	// FixedDelta is the fixed simulation step in seconds, proportional to Scale.
	FixedDelta float64
}

// advance moves Scale toward Target over an unscaled real-time step dt.
// Convergence is exponential and never overshoots.
func (tc *TimeContext) advance(dt time.Duration, rate, baseFixedDelta float64) {
	if secs := dt.Seconds(); secs > 0 && rate > 0 {
		alpha := 1 - math.Exp(-rate*secs)
		tc.Scale += (tc.Target - tc.Scale) * alpha
	}
	if math.Abs(tc.Target-tc.Scale) < snapEpsilon {
		tc.Scale = tc.Target
	}
	tc.FixedDelta = baseFixedDelta * tc.Scale
}

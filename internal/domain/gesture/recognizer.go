// Package gesture scores ordered point sequences against shape templates.
//
// Every function here is pure and total: short, degenerate or non-finite
// input yields a non-matching result with score 0, never an error.
package gesture

import (
	"math"

	"github.com/okian/spellcast/internal/domain/geom"
)

// Template defaults.
const (
	DefaultCircleMinRadius   = 0.3
	DefaultCircleMaxRadius   = 0.8
	DefaultCircle3DMinRadius = 0.5
	DefaultCircle3DMaxRadius = 2.0
	DefaultMatchThreshold    = 0.7
	MinCirclePoints          = 8
	MinLinePoints            = 5

	// degenerateLengthSq rejects lines whose endpoints nearly coincide.
	degenerateLengthSq = 0.001
)

// CircleResult describes how well a sequence fits a circle.
type CircleResult struct {
	Match  bool
	Score  float64
	Center geom.Point
	Radius float64
}

// LineResult describes how well a sequence fits a straight segment.
type LineResult struct {
	Match bool
	Score float64
	Start geom.Point
	End   geom.Point
}

// IsCircle2D scores pts against a circle whose mean radius lies within
// [minRadius, maxRadius], using the package default thresholds.
func IsCircle2D(pts []geom.Point, minRadius, maxRadius float64) CircleResult {
	return scoreCircle(pts, minRadius, maxRadius, MinCirclePoints, DefaultMatchThreshold)
}

// IsLine2D scores pts against the segment joining its first and last points.
func IsLine2D(pts []geom.Point) LineResult {
	return scoreLine(pts, MinLinePoints, DefaultMatchThreshold)
}

// IsCircle3D flattens pts onto the XY plane and scores them as IsCircle2D.
// The center is returned on Z=0.
func IsCircle3D(pts []geom.Point3, minRadius, maxRadius float64) (CircleResult, geom.Point3) {
	r := IsCircle2D(flatten(pts), minRadius, maxRadius)
	return r, geom.Lift(r.Center)
}

// IsLine3D flattens pts onto the XY plane and scores them as IsLine2D.
// Endpoints are returned on Z=0.
func IsLine3D(pts []geom.Point3) (LineResult, geom.Point3, geom.Point3) {
	r := IsLine2D(flatten(pts))
	return r, geom.Lift(r.Start), geom.Lift(r.End)
}

func flatten(pts []geom.Point3) []geom.Point {
	out := make([]geom.Point, len(pts))
	for i, p := range pts {
		out[i] = p.XY()
	}
	return out
}

func scoreCircle(pts []geom.Point, minRadius, maxRadius float64, minPoints int, threshold float64) CircleResult {
	if len(pts) < minPoints || len(pts) == 0 || !geom.AllFinite(pts) {
		return CircleResult{}
	}

	center := geom.Centroid(pts)

	var sum float64
	minR, maxR := math.MaxFloat64, 0.0
	for _, p := range pts {
		r := p.Distance(center)
		sum += r
		minR = math.Min(minR, r)
		maxR = math.Max(maxR, r)
	}
	avg := sum / float64(len(pts))

	if avg < minRadius || avg > maxRadius || avg <= 0 {
		return CircleResult{Center: center, Radius: avg}
	}

	score := clamp01(1 - (maxR-minR)/avg)
	return CircleResult{
		Match:  score > threshold,
		Score:  score,
		Center: center,
		Radius: avg,
	}
}

func scoreLine(pts []geom.Point, minPoints int, threshold float64) LineResult {
	if len(pts) < minPoints || len(pts) < 2 || !geom.AllFinite(pts) {
		return LineResult{}
	}

	start, end := pts[0], pts[len(pts)-1]
	dir := end.Sub(start)
	lengthSq := dir.LengthSquared()
	if lengthSq < degenerateLengthSq {
		return LineResult{Start: start, End: end}
	}

	var maxDev float64
	for _, p := range pts[1 : len(pts)-1] {
		t := p.Sub(start).Dot(dir) / lengthSq
		proj := start.Add(dir.Mul(t))
		maxDev = math.Max(maxDev, p.Distance(proj))
	}

	score := clamp01(1 - maxDev/math.Sqrt(lengthSq))
	return LineResult{
		Match: score > threshold,
		Score: score,
		Start: start,
		End:   end,
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

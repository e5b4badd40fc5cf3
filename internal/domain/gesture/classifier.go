package gesture

import "github.com/okian/spellcast/internal/domain/geom"

// Classifier scores a sequence against the template named by a Kind using
// configurable thresholds.
type Classifier struct {
	circleMinRadius float64
	circleMaxRadius float64
	circleMinPoints int
	lineMinPoints   int
	threshold       float64
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithCircleRadius bounds the accepted mean circle radius.
func WithCircleRadius(minRadius, maxRadius float64) Option {
	return func(c *Classifier) {
		if minRadius >= 0 && maxRadius > minRadius {
			c.circleMinRadius = minRadius
			c.circleMaxRadius = maxRadius
		}
	}
}

// WithMinCirclePoints sets the shortest sequence the circle template scores.
func WithMinCirclePoints(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.circleMinPoints = n
		}
	}
}

// WithMinLinePoints sets the shortest sequence the line template scores.
func WithMinLinePoints(n int) Option {
	return func(c *Classifier) {
		if n >= 2 {
			c.lineMinPoints = n
		}
	}
}

// WithMatchThreshold sets the score a template must exceed to match.
func WithMatchThreshold(t float64) Option {
	return func(c *Classifier) {
		if t >= 0 && t <= 1 {
			c.threshold = t
		}
	}
}

// NewClassifier creates a Classifier with the package defaults.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		circleMinRadius: DefaultCircleMinRadius,
		circleMaxRadius: DefaultCircleMaxRadius,
		circleMinPoints: MinCirclePoints,
		lineMinPoints:   MinLinePoints,
		threshold:       DefaultMatchThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Circle scores pts against the circle template.
func (c *Classifier) Circle(pts []geom.Point) CircleResult {
	return scoreCircle(pts, c.circleMinRadius, c.circleMaxRadius, c.circleMinPoints, c.threshold)
}

// Line scores pts against the line template.
func (c *Classifier) Line(pts []geom.Point) LineResult {
	return scoreLine(pts, c.lineMinPoints, c.threshold)
}

// Score returns the template score for kind. Kinds without a template score 0.
func (c *Classifier) Score(kind Kind, pts []geom.Point) float64 {
	switch kind {
	case Circle:
		return c.Circle(pts).Score
	case Line:
		return c.Line(pts).Score
	default:
		return 0
	}
}

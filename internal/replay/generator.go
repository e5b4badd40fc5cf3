package replay

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/spellcast/internal/domain/geom"
)

// Synthetic gesture shapes.
const (
	ShapeCircle   = "circle"
	ShapeLine     = "line"
	ShapeScribble = "scribble"
	ShapeTap      = "tap"
)

// Generator defaults, in pointer pixels.
const (
	defaultCircleRadius = 100.0
	defaultLineLength   = 300.0
	defaultJitter       = 2.0
	defaultStep         = 12.0
	tapPoints           = 4
)

// Generator produces synthetic gestures in pointer space. It is not safe for
// concurrent use.
type Generator struct {
	rng    *rand.Rand
	origin geom.Point
	jitter float64
	step   float64
}

// GeneratorOption applies a configuration option to the Generator.
type GeneratorOption func(*Generator)

// WithOrigin sets the pointer position gestures are centered on.
func WithOrigin(p geom.Point) GeneratorOption {
	return func(g *Generator) {
		if p.IsFinite() {
			g.origin = p
		}
	}
}

// WithJitter sets the maximum per-point hand tremor in pixels.
func WithJitter(px float64) GeneratorOption {
	return func(g *Generator) {
		if px >= 0 {
			g.jitter = px
		}
	}
}

// WithStep sets the nominal pointer travel between generated points.
func WithStep(px float64) GeneratorOption {
	return func(g *Generator) {
		if px > 0 {
			g.step = px
		}
	}
}

// NewGenerator creates a Generator. A zero seed uses the current time.
func NewGenerator(seed int64, opts ...GeneratorOption) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Generator{
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // test data, not security
		origin: geom.Pt(640, 360),
		jitter: defaultJitter,
		step:   defaultStep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Circle draws one closed loop of the given radius starting at a random angle.
func (g *Generator) Circle(radius float64) Gesture {
	if radius <= 0 {
		radius = defaultCircleRadius
	}
	n := int(math.Ceil(2 * math.Pi * radius / g.step))
	start := g.rng.Float64() * 2 * math.Pi
	dir := 1.0
	if g.rng.Intn(2) == 0 {
		dir = -1
	}
	pts := make([]geom.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		a := start + dir*2*math.Pi*float64(i)/float64(n)
		pts = append(pts, g.wobble(g.origin.Add(geom.Pt(radius*math.Cos(a), radius*math.Sin(a)))))
	}
	return g.gesture(ShapeCircle, pts)
}

// Line draws a straight stroke of the given length in a random direction.
func (g *Generator) Line(length float64) Gesture {
	if length <= 0 {
		length = defaultLineLength
	}
	angle := g.rng.Float64() * 2 * math.Pi
	dir := geom.Pt(math.Cos(angle), math.Sin(angle))
	from := g.origin.Sub(dir.Mul(length / 2))
	n := int(math.Ceil(length / g.step))
	pts := make([]geom.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, g.wobble(from.Add(dir.Mul(length*float64(i)/float64(n)))))
	}
	return g.gesture(ShapeLine, pts)
}

// Scribble draws n random zig-zag segments that fit no template.
func (g *Generator) Scribble(n int) Gesture {
	if n < 1 {
		n = 1
	}
	pts := make([]geom.Point, 0, n+1)
	p := g.origin
	pts = append(pts, p)
	for i := 0; i < n; i++ {
		amp := 150 + g.rng.Float64()*150
		if i%2 == 1 {
			amp = -amp
		}
		p = geom.Pt(p.X+20+g.rng.Float64()*20, g.origin.Y+amp)
		pts = append(pts, p)
	}
	return g.gesture(ShapeScribble, pts)
}

// Tap draws a gesture too short to ever cast.
func (g *Generator) Tap() Gesture {
	pts := make([]geom.Point, tapPoints)
	for i := range pts {
		pts[i] = g.origin.Add(geom.Pt(float64(i)*g.step, 0))
	}
	gst := g.gesture(ShapeTap, pts)
	gst.Expect = ExpectNone
	return gst
}

// Batch draws n gestures with shapes chosen uniformly at random.
func (g *Generator) Batch(n int) []Gesture {
	out := make([]Gesture, 0, n)
	for i := 0; i < n; i++ {
		switch g.rng.Intn(4) {
		case 0:
			out = append(out, g.Circle(defaultCircleRadius*(0.8+0.4*g.rng.Float64())))
		case 1:
			out = append(out, g.Line(defaultLineLength*(0.7+0.6*g.rng.Float64())))
		case 2:
			out = append(out, g.Scribble(12+g.rng.Intn(12)))
		default:
			out = append(out, g.Tap())
		}
	}
	return out
}

func (g *Generator) wobble(p geom.Point) geom.Point {
	if g.jitter == 0 {
		return p
	}
	return p.Add(geom.Pt((g.rng.Float64()*2-1)*g.jitter, (g.rng.Float64()*2-1)*g.jitter))
}

func (g *Generator) gesture(shape string, pts []geom.Point) Gesture {
	id := uuid.New()
	return Gesture{
		ID:      id,
		Name:    fmt.Sprintf("%s-%s", shape, id.String()[:8]),
		Shape:   shape,
		Strokes: [][]geom.Point{pts},
	}
}

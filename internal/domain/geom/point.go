// Package geom holds the small amount of 2D/3D vector algebra the gesture
// pipeline needs.
package geom

import "math"

// Point is a 2D coordinate in a session-local drawing plane.
type Point struct {
	X, Y float64
}

// Pt is a convenience constructor.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul scales p by s.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Div divides p by s.
func (p Point) Div(s float64) Point {
	return Point{X: p.X / s, Y: p.Y / s}
}

// Dot returns the dot product.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Length returns the Euclidean length of p as a vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// LengthSquared avoids the square root when only comparisons are needed.
func (p Point) LengthSquared() float64 {
	return p.X*p.X + p.Y*p.Y
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// IsFinite reports whether both coordinates are neither NaN nor infinite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Point3 is a 3D coordinate. The gesture plane is its XY projection.
type Point3 struct {
	X, Y, Z float64
}

// XY drops the Z component.
func (p Point3) XY() Point {
	return Point{X: p.X, Y: p.Y}
}

// Lift places a 2D point on the Z=0 plane.
func Lift(p Point) Point3 {
	return Point3{X: p.X, Y: p.Y}
}

// Centroid returns the arithmetic mean of pts. It returns the zero Point for
// an empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Div(float64(len(pts)))
}

// AllFinite reports whether every point in pts is finite.
func AllFinite(pts []Point) bool {
	for _, p := range pts {
		if !p.IsFinite() {
			return false
		}
	}
	return true
}

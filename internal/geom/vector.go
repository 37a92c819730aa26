// Package geom provides the 2-D vector and segment math shared by the
// physics world, combat intent resolution, and field-effect pipeline.
package geom

import "math"

// Vec2 is a 2-D point or direction.
type Vec2 struct {
	X float64
	Y float64
}

// Add returns v+other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns v-other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Length returns the Euclidean norm of v.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Dist returns the distance between v and other.
func (v Vec2) Dist(other Vec2) float64 {
	return v.Sub(other).Length()
}

// Normalized returns a unit vector in the direction of v, or the zero vector
// when v has negligible length.
func (v Vec2) Normalized() Vec2 {
	length := v.Length()
	if length < 1e-9 {
		return Vec2{}
	}
	return Vec2{X: v.X / length, Y: v.Y / length}
}

// Clamp restricts v's components to the given rectangle.
func (v Vec2) Clamp(minX, minY, maxX, maxY float64) Vec2 {
	return Vec2{
		X: math.Min(math.Max(v.X, minX), maxX),
		Y: math.Min(math.Max(v.Y, minY), maxY),
	}
}

// PointOnSegment returns the point at parameter t along [a,b], t in [0,1].
func PointOnSegment(a, b Vec2, t float64) Vec2 {
	return a.Add(b.Sub(a).Scale(t))
}

// ClosestPointOnSegment returns the closest point on segment [a,b] to p and
// the parametric distance t in [0,1] along the segment.
func ClosestPointOnSegment(a, b, p Vec2) (Vec2, float64) {
	ab := b.Sub(a)
	lenSq := ab.X*ab.X + ab.Y*ab.Y
	if lenSq < 1e-12 {
		return a, 0
	}
	t := (p.Sub(a).X*ab.X + p.Sub(a).Y*ab.Y) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return PointOnSegment(a, b, t), t
}

// CircleIntersectsSegment reports whether the segment [a,b] passes within
// radius r of center c, and the nearest distance-along-segment (t in [0,1])
// at which that occurs.
func CircleIntersectsSegment(a, b, c Vec2, r float64) (bool, float64) {
	closest, t := ClosestPointOnSegment(a, b, c)
	return closest.Dist(c) <= r, t
}

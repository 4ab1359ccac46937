// Package core provides the small geometry vocabulary shared by the state
// store, interpolators and placement checks. It has no dependencies so game
// logic stays pure and testable.
package core

import "math"

// Vec is a point or direction in world space.
type Vec struct {
	X, Y float64
}

// V is shorthand for Vec{X: x, Y: y}.
func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec {
	return Vec{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec {
	return Vec{v.X - o.X, v.Y - o.Y}
}

// Scale returns v * k.
func (v Vec) Scale(k float64) Vec {
	return Vec{v.X * k, v.Y * k}
}

// Len returns the Euclidean length.
func (v Vec) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dist returns the distance between two points.
func (v Vec) Dist(o Vec) float64 {
	return v.Sub(o).Len()
}

// Angle returns the direction of v in radians.
func (v Vec) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Lerp moves v towards o by t (0 keeps v, 1 returns o).
func (v Vec) Lerp(o Vec, t float64) Vec {
	return Vec{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Circle is the collision footprint of buildings, bases and rocks.
type Circle struct {
	Center Vec
	R      float64
}

// Overlaps returns true if the two circles intersect. Touching circles do
// not overlap.
func (c Circle) Overlaps(o Circle) bool {
	r := c.R + o.R
	d := c.Center.Sub(o.Center)
	return d.X*d.X+d.Y*d.Y < r*r
}

// Rect is an axis-aligned box, used for map bounds and the camera view.
type Rect struct {
	Min, Max Vec
}

// NewRect creates a rectangle from its top-left corner and size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{Min: Vec{x, y}, Max: Vec{x + w, y + h}}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the vertical extent.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Contains returns true if p lies inside the rectangle (edges included).
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ContainsCircle returns true if the whole circle fits inside.
func (r Rect) ContainsCircle(c Circle) bool {
	return c.Center.X-c.R >= r.Min.X && c.Center.X+c.R <= r.Max.X &&
		c.Center.Y-c.R >= r.Min.Y && c.Center.Y+c.R <= r.Max.Y
}

// Intersects returns true if the rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	if r.Min.X >= o.Max.X || o.Min.X >= r.Max.X {
		return false
	}
	if r.Min.Y >= o.Max.Y || o.Min.Y >= r.Max.Y {
		return false
	}
	return true
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Vec {
	return r.Min.Lerp(r.Max, 0.5)
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

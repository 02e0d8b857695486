package core

import (
	"fmt"
	"math"
)

// Point is a position in device-pixel space.
type Point struct {
	X float64
	Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Rounded returns the point snapped to the nearest whole pixel.
func (p Point) Rounded() Point {
	return Point{X: math.Round(p.X), Y: math.Round(p.Y)}
}

// Size is the window (viewport) size reported by the session.
type Size struct {
	Width  float64
	Height float64
}

// Contains reports whether p lies within the viewport. Pixels run from
// 0 to Width-1 and 0 to Height-1; the far edge is outside.
func (s Size) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.Width && p.Y < s.Height
}

// Resolve converts fractional (0.0-1.0) coordinates to pixels. A
// fraction of 1.0 maps onto the last pixel row or column.
func (s Size) Resolve(relX, relY float64) Point {
	p := Point{X: s.Width * relX, Y: s.Height * relY}.Rounded()
	return Point{X: lastPixel(p.X, s.Width), Y: lastPixel(p.Y, s.Height)}
}

func lastPixel(v, extent float64) float64 {
	if extent >= 1 && v > extent-1 {
		return extent - 1
	}
	return v
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// Rect is an element's position and size.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// PointAt returns the point at the given fractional offset within the rect.
func (r Rect) PointAt(xPct, yPct float64) Point {
	return Point{X: r.X + r.Width*xPct, Y: r.Y + r.Height*yPct}
}

// HasArea reports whether both dimensions are non-zero.
func (r Rect) HasArea() bool {
	return r.Width > 0 && r.Height > 0
}

// Contains checks if a point is within the rect.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g %gx%g]", r.X, r.Y, r.Width, r.Height)
}

// ValidFraction reports whether v is a usable relative coordinate.
func ValidFraction(v float64) bool {
	return v >= 0 && v <= 1 && !math.IsNaN(v)
}

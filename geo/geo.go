// Package geo provides the pixel-space geometry shared by the imaging,
// OCR, and text-editing packages. Coordinates use the image convention:
// the origin is the upper-left corner and y grows downward.
package geo

import "image"

// Point is a pixel coordinate.
type Point struct {
	X int
	Y int
}

// Rect is an axis-aligned rectangle in pixel coordinates. The rectangle
// spans [X0, X1) horizontally and [Y0, Y1) vertically, matching
// image.Rectangle semantics.
type Rect struct {
	X0 int
	Y0 int
	X1 int
	Y1 int
}

// NewRect returns the rectangle with the given corners in canonical order.
func NewRect(x0, y0, x1, y1 int) Rect {
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}.Canon()
}

// Canon returns r with X0 <= X1 and Y0 <= Y1.
func (r Rect) Canon() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Dx returns the width of r.
func (r Rect) Dx() int { return r.X1 - r.X0 }

// Dy returns the height of r.
func (r Rect) Dy() int { return r.Y1 - r.Y0 }

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool { return r.X0 >= r.X1 || r.Y0 >= r.Y1 }

// Contains reports whether the pixel (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1
}

// ClampTo limits r to an image of the given dimensions. Each coordinate is
// clamped independently, so a rectangle entirely outside the image collapses
// to an empty one on the nearest edge.
func (r Rect) ClampTo(width, height int) Rect {
	r = r.Canon()
	r.X0 = clamp(r.X0, 0, width)
	r.X1 = clamp(r.X1, 0, width)
	r.Y0 = clamp(r.Y0, 0, height)
	r.Y1 = clamp(r.Y1, 0, height)
	return r
}

// Pad grows r by n pixels on every side. Negative n shrinks it.
func (r Rect) Pad(n int) Rect {
	return Rect{X0: r.X0 - n, Y0: r.Y0 - n, X1: r.X1 + n, Y1: r.Y1 + n}
}

// Intersect returns the largest rectangle contained in both r and o.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		X0: max(r.X0, o.X0),
		Y0: max(r.Y0, o.Y0),
		X1: min(r.X1, o.X1),
		Y1: min(r.Y1, o.Y1),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Union returns the smallest rectangle containing both r and o. An empty
// rectangle contributes nothing.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		X0: min(r.X0, o.X0),
		Y0: min(r.Y0, o.Y0),
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
	}
}

// ToImageRect converts r to an image.Rectangle.
func (r Rect) ToImageRect() image.Rectangle {
	return image.Rect(r.X0, r.Y0, r.X1, r.Y1)
}

// FromImageRect converts an image.Rectangle to a Rect.
func FromImageRect(r image.Rectangle) Rect {
	return Rect{X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y}
}

// Quad is a four-point polygon in pixel coordinates, as produced by OCR text
// detectors. Points are conventionally ordered clockwise starting at the
// upper-left corner, but Bounds does not rely on the ordering.
type Quad [4]Point

// QuadFromRect returns the quad covering r.
func QuadFromRect(r Rect) Quad {
	r = r.Canon()
	return Quad{
		{X: r.X0, Y: r.Y0},
		{X: r.X1, Y: r.Y0},
		{X: r.X1, Y: r.Y1},
		{X: r.X0, Y: r.Y1},
	}
}

// Bounds returns the axis-aligned bounding rectangle of q.
func (q Quad) Bounds() Rect {
	r := Rect{X0: q[0].X, Y0: q[0].Y, X1: q[0].X, Y1: q[0].Y}
	for _, p := range q[1:] {
		r.X0 = min(r.X0, p.X)
		r.Y0 = min(r.Y0, p.Y)
		r.X1 = max(r.X1, p.X)
		r.Y1 = max(r.Y1, p.Y)
	}
	return r
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package geom provides the small value types shared by the layout engine,
// the drawing surface and the diagram: points, axis-aligned rectangles and
// the five named anchors of a node's bounding box.
package geom

import "math"

// Point is a 2D coordinate in canvas pixels.
type Point struct {
	X, Y float64
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

// Mid returns the midpoint between p and q.
func (p Point) Mid(q Point) Point { return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2} }

// Rect is an axis-aligned bounding box. X and Y are the top-left corner.
type Rect struct {
	X, Y, Width, Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool { return r.Width <= 0 && r.Height <= 0 }

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Union returns the smallest rectangle containing both r and o.
// An empty rectangle is the identity element.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  math.Max(r.Right(), o.Right()) - x,
		Height: math.Max(r.Bottom(), o.Bottom()) - y,
	}
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point { return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2} }

// Top returns the middle of the top edge.
func (r Rect) Top() Point { return Point{X: r.X + r.Width/2, Y: r.Y} }

// RightMid returns the middle of the right edge.
func (r Rect) RightMid() Point { return Point{X: r.Right(), Y: r.Y + r.Height/2} }

// BottomMid returns the middle of the bottom edge.
func (r Rect) BottomMid() Point { return Point{X: r.X + r.Width/2, Y: r.Bottom()} }

// LeftMid returns the middle of the left edge.
func (r Rect) LeftMid() Point { return Point{X: r.X, Y: r.Y + r.Height/2} }

// Anchor names one of the five connection points of a bounding box.
type Anchor int

const (
	AnchorTop Anchor = iota
	AnchorRight
	AnchorBottom
	AnchorLeft
	AnchorCenter
)

var anchorNames = [...]string{"top", "right", "bottom", "left", "center"}

func (a Anchor) String() string {
	if int(a) < len(anchorNames) {
		return anchorNames[a]
	}
	return "unknown"
}

// Anchor returns the coordinates of the named anchor on r.
func (r Rect) Anchor(a Anchor) Point {
	switch a {
	case AnchorTop:
		return r.Top()
	case AnchorRight:
		return r.RightMid()
	case AnchorBottom:
		return r.BottomMid()
	case AnchorLeft:
		return r.LeftMid()
	default:
		return r.Center()
	}
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

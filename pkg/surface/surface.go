// Package surface defines the drawing capability the flowchart core consumes.
//
// The core never draws pixels itself. It creates primitives (paths, text,
// rectangles, groups) through a [Surface], measures them, moves them with
// relative translations and registers pointer gestures on them. Any retained
// 2D canvas can back a Surface; [scene.Scene] is the in-memory implementation
// used by the renderers, the interactive server and the tests.
//
// # Coordinates
//
// Text created at (x, y) has its left edge at x and its vertical middle at y,
// matching how the built-in shape recipes center labels inside outlines.
// Newlines in text start additional lines.
//
// # Gestures
//
// Each shape holds at most one handler per gesture kind. Registering a second
// handler of the same kind replaces the first; fan-out to many listeners is the
// diagram's job.
package surface

import (
	"fmt"
	"time"

	"github.com/matzehuels/flowchart/pkg/geom"
)

// Shape is an opaque handle to a drawn element. The zero value is invalid.
type Shape int

// Valid reports whether s refers to an element.
func (s Shape) Valid() bool { return s > 0 }

// Attrs is a set of presentation attributes passed through to the surface
// (e.g. "stroke", "fill", "font-size"). Values are formatted with fmt.
type Attrs map[string]any

// String returns the attribute value formatted as text, or "" if unset.
func (a Attrs) String(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy of a. A nil map clones to an empty map.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Event describes a pointer event delivered by the host.
type Event struct {
	Target Shape      // element the gesture was registered on
	Point  geom.Point // pointer position in canvas coordinates, if known
}

// DragHandlers groups the three callbacks of a drag gesture.
// Move receives the accumulated delta since the drag started.
type DragHandlers struct {
	Start func(ev Event)
	Move  func(ev Event, dx, dy float64)
	End   func(ev Event)
}

// HoverHandlers groups the pointer enter and leave callbacks.
type HoverHandlers struct {
	In  func(ev Event)
	Out func(ev Event)
}

// Surface is the drawing capability consumed by the core.
type Surface interface {
	// Path creates a polyline through points.
	Path(points []geom.Point) Shape
	// Text creates a text element; see the package doc for placement.
	Text(x, y float64, text string) Shape
	// Rect creates a rectangle with corner radius.
	Rect(x, y, w, h, radius float64) Shape
	// Group creates a group owning shapes; transforms apply to all members.
	Group(shapes ...Shape) Shape

	// BBox measures the shape's current bounding box, translation included.
	BBox(s Shape) geom.Rect
	// SetAttrs merges attributes into the shape. The "text" attribute
	// replaces a text element's content.
	SetAttrs(s Shape, attrs Attrs)
	// Reshape replaces a path's points in place.
	Reshape(s Shape, points []geom.Point)
	// Translate moves the shape by (dx, dy) relative to its current position.
	Translate(s Shape, dx, dy float64)
	// Lower moves the shape behind its siblings.
	Lower(s Shape)
	// Remove deletes the shape (and a group's members).
	Remove(s Shape)
	// Clear removes every element and gesture handler.
	Clear()

	// Size returns the canvas size.
	Size() (w, h float64)
	// SetSize resizes the canvas.
	SetSize(w, h float64)
	// HostSize returns the size of the embedding element, which the canvas
	// never shrinks below.
	HostSize() (w, h float64)
	// SetViewport sets the visible region of the canvas.
	SetViewport(x, y, w, h float64)

	// Animate transitions the shape's attributes over d.
	Animate(s Shape, attrs Attrs, d time.Duration)

	OnClick(s Shape, fn func(ev Event))
	OnDoubleClick(s Shape, fn func(ev Event))
	OnDrag(s Shape, h DragHandlers)
	OnHover(s Shape, h HoverHandlers)
}

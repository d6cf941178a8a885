// Package scene is an in-memory, retained implementation of [surface.Surface].
//
// A Scene keeps an element tree (paths, text, rectangles, groups) with
// per-element translations, measures text with the embedded Go Regular font
// and stores one gesture handler per element and gesture kind. Hosts deliver
// pointer events with [Scene.Dispatch]; sinks in pkg/render/sink walk the tree
// with [Scene.Roots] and serialize it.
//
// A Scene is not safe for concurrent use. Hosts that serve several requests
// against one scene must serialize access themselves.
package scene

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/surface"
)

// Kind identifies the primitive an element represents.
type Kind int

const (
	KindPath Kind = iota
	KindText
	KindRect
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindText:
		return "text"
	case KindRect:
		return "rect"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Element is one node of the scene tree. Sinks read it; only the Scene
// mutates it.
type Element struct {
	ID     surface.Shape
	Kind   Kind
	Points []geom.Point // KindPath
	X, Y   float64      // KindRect top-left, KindText left/middle
	W, H   float64      // KindRect
	Radius float64      // KindRect
	Text   string       // KindText
	Attrs  surface.Attrs

	// DX, DY is the element's own translation.
	DX, DY float64
	// Transition is the duration of the last animation, zero if none.
	Transition time.Duration

	parent   surface.Shape
	children []surface.Shape
}

// Name returns the stable element identifier used in serialized output.
func (e *Element) Name() string { return "el-" + strconv.Itoa(int(e.ID)) }

// FontSize returns the element's font size in pixels.
func (e *Element) FontSize() float64 { return FontSize(e.Attrs["font-size"]) }

// Scene is a retained drawing surface held in memory.
type Scene struct {
	measurer *Measurer

	next  int
	elems map[surface.Shape]*Element
	roots []surface.Shape

	width, height float64
	hostW, hostH  float64
	viewport      geom.Rect
	hasViewport   bool

	click    map[surface.Shape]func(surface.Event)
	dblclick map[surface.Shape]func(surface.Event)
	drag     map[surface.Shape]surface.DragHandlers
	hover    map[surface.Shape]surface.HoverHandlers
}

var _ surface.Surface = (*Scene)(nil)

// New creates a scene hosted in an element of size hostW x hostH.
// The canvas starts at the host size.
func New(hostW, hostH float64) (*Scene, error) {
	m, err := NewMeasurer()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	s := &Scene{
		measurer: m,
		width:    hostW,
		height:   hostH,
		hostW:    hostW,
		hostH:    hostH,
	}
	s.reset()
	return s, nil
}

func (s *Scene) reset() {
	s.elems = make(map[surface.Shape]*Element)
	s.roots = nil
	s.click = make(map[surface.Shape]func(surface.Event))
	s.dblclick = make(map[surface.Shape]func(surface.Event))
	s.drag = make(map[surface.Shape]surface.DragHandlers)
	s.hover = make(map[surface.Shape]surface.HoverHandlers)
}

// Measurer returns the text measurer shared by this scene.
func (s *Scene) Measurer() *Measurer { return s.measurer }

func (s *Scene) add(e *Element) surface.Shape {
	s.next++
	e.ID = surface.Shape(s.next)
	if e.Attrs == nil {
		e.Attrs = surface.Attrs{}
	}
	s.elems[e.ID] = e
	s.roots = append(s.roots, e.ID)
	return e.ID
}

func (s *Scene) Path(points []geom.Point) surface.Shape {
	return s.add(&Element{Kind: KindPath, Points: slices.Clone(points)})
}

func (s *Scene) Text(x, y float64, text string) surface.Shape {
	return s.add(&Element{Kind: KindText, X: x, Y: y, Text: text})
}

func (s *Scene) Rect(x, y, w, h, radius float64) surface.Shape {
	return s.add(&Element{Kind: KindRect, X: x, Y: y, W: w, H: h, Radius: radius})
}

// Group moves shapes under a new group element, preserving their order.
// Unknown shapes are ignored.
func (s *Scene) Group(shapes ...surface.Shape) surface.Shape {
	g := s.add(&Element{Kind: KindGroup})
	ge := s.elems[g]
	for _, sh := range shapes {
		e, ok := s.elems[sh]
		if !ok || sh == g {
			continue
		}
		s.detach(e)
		e.parent = g
		ge.children = append(ge.children, sh)
	}
	return g
}

func (s *Scene) detach(e *Element) {
	if e.parent.Valid() {
		if p, ok := s.elems[e.parent]; ok {
			p.children = slices.DeleteFunc(p.children, func(c surface.Shape) bool { return c == e.ID })
		}
		e.parent = 0
		return
	}
	s.roots = slices.DeleteFunc(s.roots, func(c surface.Shape) bool { return c == e.ID })
}

// Element returns the element for shape.
func (s *Scene) Element(sh surface.Shape) (*Element, bool) {
	e, ok := s.elems[sh]
	return e, ok
}

// Lookup resolves an element by its serialized name (see [Element.Name]).
func (s *Scene) Lookup(name string) (*Element, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "el-"))
	if err != nil {
		return nil, false
	}
	return s.Element(surface.Shape(n))
}

// Roots returns the top-level elements in draw order.
func (s *Scene) Roots() []*Element { return s.resolve(s.roots) }

// Children returns a group's members in draw order.
func (s *Scene) Children(e *Element) []*Element { return s.resolve(e.children) }

func (s *Scene) resolve(ids []surface.Shape) []*Element {
	out := make([]*Element, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.elems[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of live elements.
func (s *Scene) Len() int { return len(s.elems) }

// Offset returns the accumulated translation of e's ancestors, excluding e's own.
func (s *Scene) Offset(e *Element) geom.Point {
	var off geom.Point
	for p := e.parent; p.Valid(); {
		pe, ok := s.elems[p]
		if !ok {
			break
		}
		off = off.Add(pe.DX, pe.DY)
		p = pe.parent
	}
	return off
}

func (s *Scene) BBox(sh surface.Shape) geom.Rect {
	e, ok := s.elems[sh]
	if !ok {
		return geom.Rect{}
	}
	off := s.Offset(e)
	return s.bounds(e).Translate(off.X, off.Y)
}

// bounds returns e's box including its own translation, in its parent's space.
func (s *Scene) bounds(e *Element) geom.Rect {
	var r geom.Rect
	switch e.Kind {
	case KindPath:
		r = pointsBounds(e.Points)
	case KindRect:
		r = geom.Rect{X: e.X, Y: e.Y, Width: e.W, Height: e.H}
	case KindText:
		r = s.textBounds(e)
	case KindGroup:
		for _, c := range s.Children(e) {
			r = r.Union(s.bounds(c))
		}
	}
	return r.Translate(e.DX, e.DY)
}

// TextMetrics measures a text element.
func (s *Scene) TextMetrics(e *Element) Metrics {
	return s.measurer.Measure(e.Text, e.FontSize())
}

func (s *Scene) textBounds(e *Element) geom.Rect {
	mt := s.TextMetrics(e)
	x := e.X
	switch e.Attrs.String("text-anchor") {
	case "middle":
		x -= mt.Width / 2
	case "end":
		x -= mt.Width
	}
	h := mt.Height()
	return geom.Rect{X: x, Y: e.Y - h/2, Width: mt.Width, Height: h}
}

func pointsBounds(pts []geom.Point) geom.Rect {
	if len(pts) == 0 {
		return geom.Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return geom.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// SetAttrs merges attrs into the element. "text" replaces text content;
// "x", "y", "width", "height" and "r" update geometry.
func (s *Scene) SetAttrs(sh surface.Shape, attrs surface.Attrs) {
	e, ok := s.elems[sh]
	if !ok {
		return
	}
	for k, v := range attrs {
		switch k {
		case "text":
			e.Text = fmt.Sprint(v)
			continue
		case "x", "y", "width", "height", "r":
			if f, ok := toFloat(v); ok && e.setGeometry(k, f) {
				continue
			}
		}
		e.Attrs[k] = v
	}
}

func (e *Element) setGeometry(key string, v float64) bool {
	if e.Kind != KindRect && e.Kind != KindText {
		return false
	}
	switch key {
	case "x":
		e.X = v
	case "y":
		e.Y = v
	case "width":
		e.W = v
	case "height":
		e.H = v
	case "r":
		e.Radius = v
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func (s *Scene) Reshape(sh surface.Shape, points []geom.Point) {
	if e, ok := s.elems[sh]; ok && e.Kind == KindPath {
		e.Points = slices.Clone(points)
	}
}

func (s *Scene) Translate(sh surface.Shape, dx, dy float64) {
	if e, ok := s.elems[sh]; ok {
		e.DX += dx
		e.DY += dy
	}
}

// Lower moves the shape to the back of its parent's draw order.
func (s *Scene) Lower(sh surface.Shape) {
	e, ok := s.elems[sh]
	if !ok {
		return
	}
	move := func(ids []surface.Shape) []surface.Shape {
		ids = slices.DeleteFunc(ids, func(c surface.Shape) bool { return c == sh })
		return slices.Insert(ids, 0, sh)
	}
	if p, ok := s.elems[e.parent]; ok {
		p.children = move(p.children)
		return
	}
	s.roots = move(s.roots)
}

func (s *Scene) Remove(sh surface.Shape) {
	e, ok := s.elems[sh]
	if !ok {
		return
	}
	for _, c := range slices.Clone(e.children) {
		s.Remove(c)
	}
	s.detach(e)
	delete(s.elems, sh)
	delete(s.click, sh)
	delete(s.dblclick, sh)
	delete(s.drag, sh)
	delete(s.hover, sh)
}

// Clear removes all elements and handlers. Canvas size and viewport are kept.
func (s *Scene) Clear() { s.reset() }

func (s *Scene) Size() (float64, float64) { return s.width, s.height }

func (s *Scene) SetSize(w, h float64) {
	s.width, s.height = w, h
}

func (s *Scene) HostSize() (float64, float64) { return s.hostW, s.hostH }

// SetHostSize changes the size of the embedding element, e.g. on window resize.
func (s *Scene) SetHostSize(w, h float64) { s.hostW, s.hostH = w, h }

func (s *Scene) SetViewport(x, y, w, h float64) {
	s.viewport = geom.Rect{X: x, Y: y, Width: w, Height: h}
	s.hasViewport = true
}

// Viewport returns the visible region, or the whole canvas if none was set.
func (s *Scene) Viewport() geom.Rect {
	if s.hasViewport {
		return s.viewport
	}
	return geom.Rect{Width: s.width, Height: s.height}
}

// Animate applies the target attributes and records the duration as the
// element's transition, which serialized output plays back.
func (s *Scene) Animate(sh surface.Shape, attrs surface.Attrs, d time.Duration) {
	e, ok := s.elems[sh]
	if !ok {
		return
	}
	s.SetAttrs(sh, attrs)
	e.Transition = d
}

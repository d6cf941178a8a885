package scene

import (
	"fmt"

	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/surface"
)

// Gesture is a pointer event kind a host can deliver.
type Gesture string

const (
	GestureClick       Gesture = "click"
	GestureDoubleClick Gesture = "dblclick"
	GestureDragStart   Gesture = "dragstart"
	GestureDragMove    Gesture = "dragmove"
	GestureDragEnd     Gesture = "dragend"
	GestureHoverIn     Gesture = "hoverin"
	GestureHoverOut    Gesture = "hoverout"
)

// ParseGesture validates a gesture name received from a host.
func ParseGesture(s string) (Gesture, error) {
	switch g := Gesture(s); g {
	case GestureClick, GestureDoubleClick, GestureDragStart, GestureDragMove,
		GestureDragEnd, GestureHoverIn, GestureHoverOut:
		return g, nil
	}
	return "", fmt.Errorf("unknown gesture %q", s)
}

func (s *Scene) OnClick(sh surface.Shape, fn func(surface.Event)) {
	if _, ok := s.elems[sh]; ok {
		s.click[sh] = fn
	}
}

func (s *Scene) OnDoubleClick(sh surface.Shape, fn func(surface.Event)) {
	if _, ok := s.elems[sh]; ok {
		s.dblclick[sh] = fn
	}
}

func (s *Scene) OnDrag(sh surface.Shape, h surface.DragHandlers) {
	if _, ok := s.elems[sh]; ok {
		s.drag[sh] = h
	}
}

func (s *Scene) OnHover(sh surface.Shape, h surface.HoverHandlers) {
	if _, ok := s.elems[sh]; ok {
		s.hover[sh] = h
	}
}

// Interactive reports which gesture kinds have handlers on sh.
func (s *Scene) Interactive(sh surface.Shape) (click, dblclick, drag, hover bool) {
	_, click = s.click[sh]
	_, dblclick = s.dblclick[sh]
	_, drag = s.drag[sh]
	_, hover = s.hover[sh]
	return
}

// Dispatch delivers a pointer gesture aimed at target. The event bubbles up
// the group hierarchy to the nearest element with a matching handler.
// dx and dy are only used by GestureDragMove. It reports whether a handler ran.
func (s *Scene) Dispatch(g Gesture, target surface.Shape, at geom.Point, dx, dy float64) bool {
	for sh := target; sh.Valid(); {
		e, ok := s.elems[sh]
		if !ok {
			return false
		}
		if s.invoke(g, sh, at, dx, dy) {
			return true
		}
		sh = e.parent
	}
	return false
}

func (s *Scene) invoke(g Gesture, sh surface.Shape, at geom.Point, dx, dy float64) bool {
	ev := surface.Event{Target: sh, Point: at}
	switch g {
	case GestureClick:
		if fn, ok := s.click[sh]; ok && fn != nil {
			fn(ev)
			return true
		}
	case GestureDoubleClick:
		if fn, ok := s.dblclick[sh]; ok && fn != nil {
			fn(ev)
			return true
		}
	case GestureDragStart, GestureDragMove, GestureDragEnd:
		h, ok := s.drag[sh]
		if !ok {
			return false
		}
		switch {
		case g == GestureDragStart && h.Start != nil:
			h.Start(ev)
		case g == GestureDragMove && h.Move != nil:
			h.Move(ev, dx, dy)
		case g == GestureDragEnd && h.End != nil:
			h.End(ev)
		}
		return true
	case GestureHoverIn, GestureHoverOut:
		h, ok := s.hover[sh]
		if !ok {
			return false
		}
		if g == GestureHoverIn && h.In != nil {
			h.In(ev)
		}
		if g == GestureHoverOut && h.Out != nil {
			h.Out(ev)
		}
		return true
	}
	return false
}

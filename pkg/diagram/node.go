package diagram

import (
	"time"

	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/shapes"
	"github.com/matzehuels/flowchart/pkg/surface"
)

const hoverDuration = 500 * time.Millisecond

var (
	hoverInAttrs  = surface.Attrs{"fill": "#00ffff", "fill-opacity": 0.5}
	hoverOutAttrs = surface.Attrs{"fill": "none", "fill-opacity": 0}
)

// Node is a drawn flowchart node. Its geometry is read from the surface on
// every call; the only way to move it is through translation.
type Node struct {
	Spec graph.NodeSpec

	s      surface.Surface
	shape  shapes.Result
	origin geom.Point
}

func newNode(s surface.Surface, spec graph.NodeSpec, res shapes.Result) *Node {
	return &Node{Spec: spec, s: s, shape: res}
}

// ID returns the node id from its spec.
func (n *Node) ID() int { return n.Spec.ID }

// Type returns the shape type tag.
func (n *Node) Type() string { return n.Spec.Type }

// Text returns the unwrapped label.
func (n *Node) Text() string { return n.Spec.Text }

// Group, Outline and Label return the drawn handles.
func (n *Node) Group() surface.Shape   { return n.shape.Group }
func (n *Node) Outline() surface.Shape { return n.shape.Outline }
func (n *Node) Label() surface.Shape   { return n.shape.Label }

// BBox returns the live bounding box of the node.
func (n *Node) BBox() geom.Rect { return n.s.BBox(n.shape.Group) }

func (n *Node) X() float64      { return n.BBox().X }
func (n *Node) Y() float64      { return n.BBox().Y }
func (n *Node) Width() float64  { return n.BBox().Width }
func (n *Node) Height() float64 { return n.BBox().Height }

func (n *Node) Top() geom.Point    { return n.BBox().Top() }
func (n *Node) Right() geom.Point  { return n.BBox().RightMid() }
func (n *Node) Bottom() geom.Point { return n.BBox().BottomMid() }
func (n *Node) Left() geom.Point   { return n.BBox().LeftMid() }
func (n *Node) Center() geom.Point { return n.BBox().Center() }

// Anchor returns the named connection point.
func (n *Node) Anchor(a geom.Anchor) geom.Point { return n.BBox().Anchor(a) }

// Set moves the node so its top-left corner is at (x, y). It does nothing
// unless both values are finite.
func (n *Node) Set(x, y float64) *Node {
	if !geom.Finite(x, y) {
		return n
	}
	b := n.BBox()
	n.s.Translate(n.shape.Group, x-b.X, y-b.Y)
	return n
}

// SetX moves the node horizontally, keeping its y.
func (n *Node) SetX(x float64) *Node { return n.Set(x, n.Y()) }

// SetY moves the node vertically, keeping its x.
func (n *Node) SetY(y float64) *Node { return n.Set(n.X(), y) }

// ShiftX moves the node by dx.
func (n *Node) ShiftX(dx float64) *Node {
	b := n.BBox()
	return n.Set(b.X+dx, b.Y)
}

// ShiftY moves the node by dy.
func (n *Node) ShiftY(dy float64) *Node {
	b := n.BBox()
	return n.Set(b.X, b.Y+dy)
}

// Click binds fn to clicks on the node, replacing any previous binding.
func (n *Node) Click(fn func(ev surface.Event)) *Node {
	n.s.OnClick(n.shape.Group, fn)
	return n
}

// DblClick binds fn to double clicks on the node.
func (n *Node) DblClick(fn func(ev surface.Event)) *Node {
	n.s.OnDoubleClick(n.shape.Group, fn)
	return n
}

// Draggable makes the node follow the pointer. The node is moved before h is
// called, so handlers observe the new position.
func (n *Node) Draggable(h surface.DragHandlers) *Node {
	n.s.OnDrag(n.shape.Group, surface.DragHandlers{
		Start: func(ev surface.Event) {
			b := n.BBox()
			n.origin = geom.Point{X: b.X, Y: b.Y}
			if h.Start != nil {
				h.Start(ev)
			}
		},
		Move: func(ev surface.Event, dx, dy float64) {
			n.Set(n.origin.X+dx, n.origin.Y+dy)
			if h.Move != nil {
				h.Move(ev, dx, dy)
			}
		},
		End: func(ev surface.Event) {
			if h.End != nil {
				h.End(ev)
			}
		},
	})
	return n
}

// Hover highlights the outline while the pointer is over the node.
func (n *Node) Hover(h surface.HoverHandlers) *Node {
	n.s.OnHover(n.shape.Group, surface.HoverHandlers{
		In: func(ev surface.Event) {
			n.s.Animate(n.shape.Outline, hoverInAttrs.Clone(), hoverDuration)
			if h.In != nil {
				h.In(ev)
			}
		},
		Out: func(ev surface.Event) {
			n.s.Animate(n.shape.Outline, hoverOutAttrs.Clone(), hoverDuration)
			if h.Out != nil {
				h.Out(ev)
			}
		},
	})
	return n
}

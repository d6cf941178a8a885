package layout

import (
	"math"

	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/graph"
)

// Config holds the inputs of [Auto] besides the graph.
type Config struct {
	CanvasWidth float64    // the root is centered on this width
	Padding     geom.Point // canvas padding, left/right and top/bottom
	Spacing     geom.Point // gap between columns (X) and rows (Y)
	Symmetric   bool       // mirror children of even-degree parents
}

// Size is a node's measured width and height.
type Size struct {
	Width, Height float64
}

// Auto computes top-left positions for every node reachable from the root.
// Unreachable nodes are absent from the result. ok is false when the graph
// has no root, in which case nothing should be repositioned.
func Auto(g *graph.Graph, sizes map[int]Size, cfg Config) (pos map[int]geom.Point, ok bool) {
	root, ok := g.Root()
	if !ok {
		return nil, false
	}

	pos = make(map[int]geom.Point, g.NodeCount())
	pos[root] = geom.Point{X: cfg.CanvasWidth/2 - sizes[root].Width/2, Y: cfg.Padding.Y}

	type frame struct {
		id   int
		next int
	}
	stack := []frame{{id: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := g.Edges(top.id)
		if top.next >= len(edges) {
			stack = stack[:len(stack)-1]
			continue
		}
		i := top.next
		top.next++

		child := edges[i].To
		if _, placed := pos[child]; placed {
			continue
		}
		index, declared := g.Slot(top.id, i)
		parent, ps := pos[top.id], sizes[top.id]
		cs := sizes[child]
		slot := cs.Width + cfg.Spacing.X
		pos[child] = geom.Point{
			X: parent.X + ps.Width/2 - cs.Width/2 + Offset(index, declared, cfg.Symmetric)*slot,
			Y: parent.Y + ps.Height + cfg.Spacing.Y,
		}
		stack = append(stack, frame{id: child})
	}

	boxes := make([]geom.Rect, 0, len(pos))
	for id, p := range pos {
		boxes = append(boxes, geom.Rect{X: p.X, Y: p.Y, Width: sizes[id].Width, Height: sizes[id].Height})
	}
	minX, minY := extent(boxes)
	dx, dy := cfg.Padding.X-minX, cfg.Padding.Y-minY
	for id, p := range pos {
		pos[id] = p.Add(dx, dy)
	}
	return pos, true
}

// Offset returns the sideways offset, in slots, of the i-th of n children.
func Offset(i, n int, symmetric bool) float64 {
	fi := float64(i)
	if symmetric && n%2 == 0 {
		if i%2 == 1 {
			return -(fi + 1) / 2
		}
		return math.Ceil((fi + 1) / 2)
	}
	if i%2 == 1 {
		return -math.Ceil(fi / 2)
	}
	return fi / 2
}

// PaddingShift returns the translation that moves the left-most box to
// padding.X and the top-most box to padding.Y. Each component is zero when
// the boxes already clear the padding on that side.
func PaddingShift(boxes []geom.Rect, padding geom.Point) (dx, dy float64) {
	if len(boxes) == 0 {
		return 0, 0
	}
	minX, minY := extent(boxes)
	if minX < padding.X {
		dx = padding.X - minX
	}
	if minY < padding.Y {
		dy = padding.Y - minY
	}
	return dx, dy
}

// extent returns the smallest left and top edge of boxes, which must not be
// empty.
func extent(boxes []geom.Rect) (minX, minY float64) {
	minX, minY = boxes[0].X, boxes[0].Y
	for _, b := range boxes[1:] {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
	}
	return minX, minY
}

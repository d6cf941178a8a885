package diagram

import (
	"math"

	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/shapes"
	"github.com/matzehuels/flowchart/pkg/surface"
)

// Route is the planned geometry of a connector.
type Route struct {
	From, To geom.Anchor
	// Points runs from the start anchor through three bend points to the
	// end anchor.
	Points []geom.Point
}

// Vertical reports whether the route leaves through the top or bottom.
func (r Route) Vertical() bool {
	return r.From == geom.AnchorTop || r.From == geom.AnchorBottom
}

// Mid returns the midpoint between the start and end anchors.
func (r Route) Mid() geom.Point {
	if len(r.Points) == 0 {
		return geom.Point{}
	}
	return r.Points[0].Mid(r.Points[len(r.Points)-1])
}

// Plan routes an orthogonal connector between two boxes. When the centers are
// further apart vertically than horizontally the route runs between top and
// bottom edges with its bends on the horizontal mid line; otherwise between
// left and right edges with its bends on the vertical mid line.
func Plan(from, to geom.Rect) Route {
	fc, tc := from.Center(), to.Center()
	dx, dy := fc.X-tc.X, fc.Y-tc.Y

	var r Route
	if math.Abs(dx) < math.Abs(dy) {
		if dy > 0 {
			r.From, r.To = geom.AnchorTop, geom.AnchorBottom
		} else {
			r.From, r.To = geom.AnchorBottom, geom.AnchorTop
		}
		a, b := from.Anchor(r.From), to.Anchor(r.To)
		my := (a.Y + b.Y) / 2
		r.Points = []geom.Point{a, {X: a.X, Y: my}, {X: (a.X + b.X) / 2, Y: my}, {X: b.X, Y: my}, b}
		return r
	}

	if tc.X-fc.X < 0 {
		r.From, r.To = geom.AnchorLeft, geom.AnchorRight
	} else {
		r.From, r.To = geom.AnchorRight, geom.AnchorLeft
	}
	a, b := from.Anchor(r.From), to.Anchor(r.To)
	mx := (a.X + b.X) / 2
	r.Points = []geom.Point{a, {X: mx, Y: a.Y}, {X: mx, Y: (a.Y + b.Y) / 2}, {X: mx, Y: b.Y}, b}
	return r
}

// Connector is a drawn edge between two nodes. It does not own its nodes.
type Connector struct {
	ID   int
	Type string
	Text string
	Data any
	From *Node
	To   *Node

	s        surface.Surface
	style    LineStyle
	maxWidth float64

	path  surface.Shape
	label surface.Shape
	route Route
}

// Render routes the connector from the nodes' current geometry. The first
// call creates the path and label; later calls update them in place.
func (c *Connector) Render() *Connector {
	c.route = Plan(c.From.BBox(), c.To.BBox())

	if !c.path.Valid() {
		if c.Text != "" {
			c.label = c.s.Text(0, 0, "")
			c.s.SetAttrs(c.label, c.style.Text.Clone())
			c.s.SetAttrs(c.label, surface.Attrs{"text-anchor": "start"})
			shapes.Wrap(c.s, c.label, c.Text, c.maxWidth)
		}
		c.path = c.s.Path(c.route.Points)
		c.s.SetAttrs(c.path, c.style.Line.Clone())
	} else {
		c.s.Reshape(c.path, c.route.Points)
	}

	if c.label.Valid() {
		mid := c.route.Mid()
		b := c.s.BBox(c.label)
		c.s.Translate(c.label, mid.X-b.Width/2-b.X, mid.Y-b.Center().Y)
	}
	return c
}

// Refresh re-routes the connector after either endpoint moved.
func (c *Connector) Refresh() *Connector { return c.Render() }

// Route returns the geometry of the last render.
func (c *Connector) Route() Route { return c.route }

// Path and Label return the drawn handles. Label is invalid for connectors
// without text.
func (c *Connector) Path() surface.Shape  { return c.path }
func (c *Connector) Label() surface.Shape { return c.label }

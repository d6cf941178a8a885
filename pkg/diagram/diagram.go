package diagram

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/layout"
	"github.com/matzehuels/flowchart/pkg/shapes"
	"github.com/matzehuels/flowchart/pkg/surface"
)

// Phase is a step of the render cycle.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseOptionsMerge
	PhaseDataNormalize
	PhaseBuildNodes
	PhaseLayout
	PhaseFit
	PhaseDrawConnectors
	PhaseIdle
)

var phaseNames = [...]string{
	"init", "options-merge", "data-normalize", "build-nodes",
	"layout", "fit", "draw-connectors", "idle",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Diagram is a rendered flowchart bound to one surface. It is not safe for
// concurrent use.
type Diagram struct {
	s        surface.Surface
	registry *shapes.Registry
	logger   *log.Logger
	opts     Options
	graph    *graph.Graph

	nodes      []*Node
	byID       map[int]*Node
	connectors []*Connector
	touching   map[int][]*Connector

	phase     Phase
	listeners listeners
}

// New draws nodes on s and returns the diagram. Options are merged over
// [DefaultOptions] in the order given.
//
// New fails with a CONFIGURATION error if a node references an unregistered
// shape type, before anything is drawn, and with DUPLICATE_NODE or
// DANGLING_REFERENCE errors if the node list is not a valid graph.
func New(s surface.Surface, nodes []graph.NodeSpec, opts ...Option) (*Diagram, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &Diagram{
		s:        s,
		registry: cfg.registry,
		logger:   cfg.logger,
	}
	if d.registry == nil {
		d.registry = shapes.Default()
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	d.enter(PhaseInit)

	d.enter(PhaseOptionsMerge)
	o, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	d.opts = o

	d.enter(PhaseDataNormalize)
	if err := d.normalize(nodes); err != nil {
		return nil, err
	}

	if err := d.render(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Diagram) enter(p Phase) {
	d.phase = p
	d.logger.Debug("diagram phase", "phase", p)
}

func (d *Diagram) normalize(nodes []graph.NodeSpec) error {
	var gopts []graph.Option
	if d.opts.AllowDangling {
		gopts = append(gopts, graph.AllowDangling(func(from int, e graph.Edge) {
			d.logger.Warn("dropping edge to unknown node", "from", from, "to", e.To)
		}))
	}
	g, err := graph.New(nodes, gopts...)
	if err != nil {
		return err
	}
	for _, n := range g.Nodes() {
		if _, ok := d.registry.Lookup(n.Type); !ok {
			return ferrors.Wrap(ferrors.ErrCodeConfiguration, shapes.ErrUnknownShape, "node %d: type %q", n.ID, n.Type)
		}
	}
	d.graph = g
	return nil
}

// render runs BuildNodes through Idle.
func (d *Diagram) render() error {
	d.enter(PhaseBuildNodes)
	if err := d.buildNodes(); err != nil {
		d.s.Clear()
		d.nodes, d.byID, d.connectors, d.touching = nil, nil, nil, nil
		return err
	}

	d.enter(PhaseLayout)
	if d.opts.AutoLayout {
		d.AutoLayout()
	} else {
		dx, dy := layout.PaddingShift(d.boxes(), d.padding())
		d.Shift(dx, dy)
	}

	d.enter(PhaseFit)
	d.Resize()

	d.enter(PhaseDrawConnectors)
	d.drawConnectors()

	d.enter(PhaseIdle)
	d.logger.Debug("diagram rendered", "nodes", len(d.nodes), "connectors", len(d.connectors))
	return nil
}

func (d *Diagram) buildNodes() error {
	d.nodes = make([]*Node, 0, d.graph.NodeCount())
	d.byID = make(map[int]*Node, d.graph.NodeCount())
	d.connectors, d.touching = nil, nil

	for _, spec := range d.graph.Nodes() {
		res, err := d.registry.Render(d.s, spec, d.opts.style(spec.Type))
		if err != nil {
			return err
		}
		n := newNode(d.s, spec, res)
		if x, y, ok := spec.Position(); ok {
			n.Set(x, y)
		}
		d.bind(n)
		d.nodes = append(d.nodes, n)
		d.byID[spec.ID] = n
	}
	return nil
}

func (d *Diagram) drawConnectors() {
	d.connectors = d.connectors[:0]
	d.touching = make(map[int][]*Connector)
	for _, from := range d.nodes {
		for _, e := range d.graph.Edges(from.ID()) {
			to := d.byID[e.To]
			c := &Connector{
				ID: e.ID, Type: e.Type, Text: e.Text, Data: e.Data,
				From: from, To: to,
				s: d.s, style: d.opts.Line, maxWidth: d.opts.MaxWidth,
			}
			c.Render()
			d.connectors = append(d.connectors, c)
			d.touching[from.ID()] = append(d.touching[from.ID()], c)
			if to != from {
				d.touching[to.ID()] = append(d.touching[to.ID()], c)
			}
		}
	}
}

// Refresh clears the surface and draws the diagram again from its nodes.
// Listeners stay registered.
func (d *Diagram) Refresh() error {
	d.s.Clear()
	return d.render()
}

// Phase returns the current render phase; PhaseIdle once New returns.
func (d *Diagram) Phase() Phase { return d.phase }

// Options returns the merged options.
func (d *Diagram) Options() Options { return d.opts }

// Graph returns the validated node graph.
func (d *Diagram) Graph() *graph.Graph { return d.graph }

// Surface returns the surface the diagram draws on.
func (d *Diagram) Surface() surface.Surface { return d.s }

// Nodes returns the nodes in input order.
func (d *Diagram) Nodes() []*Node { return slices.Clone(d.nodes) }

// Node returns the node with the given id.
func (d *Diagram) Node(id int) (*Node, bool) {
	n, ok := d.byID[id]
	return n, ok
}

// NodeAt returns the node whose group is sh, for hosts that resolve pointer
// targets.
func (d *Diagram) NodeAt(sh surface.Shape) (*Node, bool) {
	for _, n := range d.nodes {
		if n.Group() == sh {
			return n, true
		}
	}
	return nil, false
}

// Connectors returns the connectors in drawing order: by source node in
// input order, then by edge order.
func (d *Diagram) Connectors() []*Connector { return slices.Clone(d.connectors) }

// ConnectorsOf returns the connectors that start or end at node id.
func (d *Diagram) ConnectorsOf(id int) []*Connector { return d.touching[id] }

// Snapshot returns the node list with every node's current top-left corner
// as its manual position, so a laid out or dragged diagram can be saved and
// reloaded with autolayout off.
func (d *Diagram) Snapshot() []graph.NodeSpec {
	out := make([]graph.NodeSpec, 0, len(d.nodes))
	for _, n := range d.nodes {
		spec := n.Spec
		b := n.BBox()
		spec.X, spec.Y = graph.Float(b.X), graph.Float(b.Y)
		out = append(out, spec)
	}
	return out
}

// Content returns the union of all node boxes.
func (d *Diagram) Content() geom.Rect {
	var r geom.Rect
	for _, n := range d.nodes {
		r = r.Union(n.BBox())
	}
	return r
}

func (d *Diagram) boxes() []geom.Rect {
	out := make([]geom.Rect, len(d.nodes))
	for i, n := range d.nodes {
		out[i] = n.BBox()
	}
	return out
}

func (d *Diagram) padding() geom.Point {
	return geom.Point{X: d.opts.PaperPadding.X, Y: d.opts.PaperPadding.Y}
}

// Width returns the canvas width.
func (d *Diagram) Width() float64 {
	w, _ := d.s.Size()
	return w
}

// Height returns the canvas height.
func (d *Diagram) Height() float64 {
	_, h := d.s.Size()
	return h
}

// SetWidth resizes the canvas, never below the host width or the content
// extent plus padding.
func (d *Diagram) SetWidth(w float64) *Diagram { return d.setSize(w, d.Height()) }

// SetHeight resizes the canvas, never below the host height or the content
// extent plus padding.
func (d *Diagram) SetHeight(h float64) *Diagram { return d.setSize(d.Width(), h) }

func (d *Diagram) setSize(w, h float64) *Diagram {
	if !geom.Finite(w, h) {
		return d
	}
	hw, hh := d.s.HostSize()
	w, h = max(w, hw), max(h, hh)
	if len(d.nodes) > 0 {
		c, pad := d.Content(), d.padding()
		w = max(w, c.Width+2*pad.X)
		h = max(h, c.Bottom()+pad.Y)
	}
	d.s.SetSize(w, h)
	d.refreshConnectors()
	return d
}

func (d *Diagram) refreshConnectors() {
	for _, c := range d.connectors {
		c.Refresh()
	}
}

// Resize fits the canvas to the content: the width spans the left-most to the
// right-most node plus padding and the viewport is moved onto that span. The
// height is kept.
func (d *Diagram) Resize() *Diagram {
	if len(d.nodes) == 0 {
		d.setSize(d.Width(), d.Height())
		d.s.SetViewport(0, 0, d.Width(), d.Height())
		return d
	}
	c, pad := d.Content(), d.padding()
	x := c.X - pad.X
	width := c.Right() + pad.X - x
	d.SetWidth(width)
	d.s.SetViewport(x, 0, width, d.Height())
	return d
}

// Shift moves every node by (dx, dy) and grows the canvas to keep them inside
// the padding.
func (d *Diagram) Shift(dx, dy float64) *Diagram {
	if !geom.Finite(dx, dy) {
		return d
	}
	w, h := d.s.HostSize()
	pad := d.padding()
	for _, n := range d.nodes {
		n.ShiftX(dx)
		n.ShiftY(dy)
		b := n.BBox()
		w = max(w, b.Right()+pad.X)
		h = max(h, b.Bottom()+pad.Y)
	}
	d.setSize(w, h)
	return d
}

// AutoLayout positions the nodes as a tree below the first root and then
// shifts the whole drawing onto the padding. It does nothing if every node
// has an incoming edge.
func (d *Diagram) AutoLayout() *Diagram {
	sizes := make(map[int]layout.Size, len(d.nodes))
	for _, n := range d.nodes {
		b := n.BBox()
		sizes[n.ID()] = layout.Size{Width: b.Width, Height: b.Height}
	}
	pos, ok := layout.Auto(d.graph, sizes, layout.Config{
		CanvasWidth: d.Width(),
		Padding:     d.padding(),
		Spacing:     geom.Point{X: d.opts.Spacing.X, Y: d.opts.Spacing.Y},
		Symmetric:   d.opts.SymmetricalLayout,
	})
	if !ok {
		d.logger.Debug("auto layout skipped: no root")
		return d
	}
	for _, n := range d.nodes {
		if p, placed := pos[n.ID()]; placed {
			n.Set(p.X, p.Y)
		}
	}
	// Nodes the walk never reached keep their own positions; the whole
	// drawing moves so its top-left corner sits on the padding.
	c, pad := d.Content(), d.padding()
	return d.Shift(pad.X-c.X, pad.Y-c.Y)
}

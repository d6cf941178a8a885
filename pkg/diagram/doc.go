// Package diagram renders a flowchart onto a drawing surface and keeps it
// interactive.
//
// [New] runs one render cycle:
//
//	init -> options-merge -> data-normalize -> build-nodes
//	     -> layout -> fit -> draw-connectors -> idle
//
// Options are merged first because allowDangling decides how the node list
// is validated. Every node type is checked against the shape registry before
// anything is drawn. [Diagram.Refresh] clears the surface and re-enters at
// build-nodes.
//
// # Layout
//
// With autolayout on, nodes are arranged as a tree below the first node
// without incoming edges (see pkg/layout). With it off, nodes keep their
// x/y from the input and the whole drawing is shifted right or down if it
// sticks out of the padding.
//
// # Events
//
// The diagram keeps one listener list per gesture. Each node gets a single
// handler per enabled gesture that fans out to the list in registration
// order:
//
//	d.Click(func(ev diagram.Event, n *diagram.Node) {
//	    fmt.Println("clicked", n.ID())
//	}).DragMove(func(ev diagram.Event, n *diagram.Node, dx, dy float64) {
//	    fmt.Println("moved", n.ID(), dx, dy)
//	})
//
// Dragging a node re-routes only the connectors attached to it.
//
// # Options
//
// [DefaultOptions] lists every setting. Overrides come from maps
// ([WithOverrides]), files ([WithConfigFile]; TOML, YAML or JSON) and typed
// options such as [WithAutoLayout]. Map and file layers are deep-merged in
// order; typed options are applied last.
package diagram

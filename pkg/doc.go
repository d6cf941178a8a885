// Package pkg provides the core libraries for flowchart rendering.
//
// # Overview
//
// A flowchart is a list of typed nodes (start, end, operation, condition or
// any type registered in a [shapes] registry) whose edges point at other
// nodes by id. The libraries draw each node as a shape with a wrapped label,
// lay the nodes out as a tree or keep their manual positions, route
// orthogonal connectors between them and serialize the result.
//
// # Architecture
//
// The typical data flow:
//
//	Node list (JSON, YAML, TOML)
//	         ↓
//	    [io] package (decode into graph.NodeSpec)
//	         ↓
//	    [graph] package (validate ids and edges)
//	         ↓
//	    [diagram] package (shapes, layout, connectors on a surface)
//	         ↓
//	    [render/sink] package (SVG, PNG, PDF, JSON geometry)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/flowchart/pkg/diagram"
//	    fio "github.com/matzehuels/flowchart/pkg/io"
//	    "github.com/matzehuels/flowchart/pkg/render/sink"
//	    "github.com/matzehuels/flowchart/pkg/surface/scene"
//	)
//
//	nodes, _ := fio.ImportFile("login.yaml")
//	sc, _ := scene.New(800, 600)
//	d, _ := diagram.New(sc, nodes, diagram.WithSpacing(30, 40))
//	svg := sink.RenderSVG(sc)
//
// # Main Packages
//
// ## Drawing
//
// [geom] - Points, rectangles and the five box anchors.
//
// [surface] - The drawing surface interface: shapes, attributes, transforms,
// text measurement and pointer gestures. [surface/scene] is the in-memory
// implementation every renderer reads from.
//
// [shapes] - The shape registry. Each node type maps to a recipe that draws an
// outline around a wrapped label.
//
// [layout] - The tree auto layout and the padding shift for manual layouts.
//
// [diagram] - The render cycle: options merge, validation, node building,
// layout, fit, connectors, and the node and connector handles hosts interact
// with.
//
// ## Output
//
// [render/sink] - SVG (svgo), PNG (gg or rsvg-convert), PDF (rsvg-convert)
// and JSON geometry.
//
// [render/nodelink] - The node graph as Graphviz DOT.
//
// ## Infrastructure
//
// [pipeline] - Load → layout → render with artifact caching, shared by the CLI
// and the viewer server.
//
// [cache] - File, Redis and null caches with content-addressed keys.
//
// [session] - Live diagrams held by the viewer server between gestures.
//
// [observability] - Hooks for pipeline, cache and server events.
//
// [errors] - Coded errors shared by every package.
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/geom
// [surface]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/surface
// [surface/scene]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/surface/scene
// [shapes]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/shapes
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/layout
// [diagram]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/diagram
// [io]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/io
// [graph]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/graph
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/session
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowchart/pkg/errors
package pkg

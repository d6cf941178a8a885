// Package nodelink renders flow graphs with Graphviz.
//
// # Overview
//
// This package produces the same flow graph as a Graphviz node-link diagram,
// laid out by the dot engine instead of the built-in tree layout. It is useful
// for comparing layouts and for handing a flowchart to Graphviz tooling.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{RankByLevel: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x scale
//
// # Shapes
//
// start and end nodes are rounded boxes (end has a double border),
// operation nodes are boxes and condition nodes are diamonds. Edge texts
// become edge labels and http(s) hrefs become node URLs.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink

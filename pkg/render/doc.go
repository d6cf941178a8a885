// Package render turns drawn flowcharts into files.
//
// # Overview
//
// A [diagram.Diagram] draws onto a [scene.Scene]. The subpackages serialize
// that scene or the underlying graph:
//
//   - [sink]: SVG, PNG, PDF and JSON output of a drawn scene
//   - [nodelink]: Graphviz DOT export of the flow graph, for comparison
//     with the built-in layout
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG with the external rsvg-convert tool
// (from librsvg). The PDF sink always goes through it; the PNG sink uses it
// only when asked to, and otherwise rasterizes the scene directly.
//
//	svg := sink.RenderSVG(scene)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [diagram.Diagram]: github.com/matzehuels/flowchart/pkg/diagram.Diagram
// [scene.Scene]: github.com/matzehuels/flowchart/pkg/surface/scene.Scene
package render

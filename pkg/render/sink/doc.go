// Package sink provides output format renderers for drawn flowcharts.
//
// # Overview
//
// A "sink" serializes a [scene.Scene] that a diagram has drawn onto, or the
// diagram's computed geometry. This package provides renderers for:
//
//   - SVG: vector output of the scene tree, optionally annotated for a host
//     page that routes pointer events back to the scene
//   - PNG: raster output drawn directly with fogleman/gg, or via rsvg-convert
//   - PDF: print-ready output (requires rsvg-convert)
//   - JSON: node boxes and connector routes for external tools
//
// # SVG Output
//
// [RenderSVG] walks the scene in draw order. Groups become <g> elements with
// their translation, rectangles and polylines become paths, and text becomes
// one <text> per line placed with the same font metrics the scene measured.
// Connector arrow heads ("arrow-end": "classic", "block", "open", "diamond",
// "oval") become shared markers. Labels with an http(s) href become links;
// other hrefs are ignored.
//
//	svg := sink.RenderSVG(sc,
//	    sink.WithTitle("checkout"),
//	    sink.WithGestures(),
//	)
//
// # Raster and PDF Output
//
//	png, err := sink.RenderPNG(ctx, sc, sink.WithScale(2))
//	pdf, err := sink.RenderPDF(ctx, sc)
//
// [RenderPNG] covers the scene's viewport, so the fitted diagram fills the
// image. Pass [WithRSVG] to rasterize the SVG output instead.
//
// # JSON Output
//
// [RenderJSON] exports node boxes in input order and connector routes with
// their exit and entry anchors:
//
//	data, err := sink.RenderJSON(d, sink.WithJSONOptions())
//
// [scene.Scene]: github.com/matzehuels/flowchart/pkg/surface/scene.Scene
package sink

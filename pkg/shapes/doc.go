// Package shapes draws flowchart nodes.
//
// A [Registry] maps a shape type tag ("start", "condition", ...) to a
// [Recipe]. A recipe draws one node at the origin of a [surface.Surface]: it
// wraps the label to the configured maximum width, sizes the outline to the
// text box plus padding, puts the outline behind the label and returns the
// handles as a [Result]. Positioning is the caller's job.
//
// [Default] returns a registry with the built-in types:
//
//	start, end   rounded rectangle, corner radius 20
//	operation    rectangle
//	condition    diamond
//
// Registering a type twice, or rendering a type that was never registered,
// fails with a CONFIGURATION error from pkg/errors. Unknown types are
// rejected before anything is drawn.
package shapes

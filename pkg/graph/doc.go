// Package graph provides the input model of a flowchart and its validated,
// explicit graph form.
//
// # Input Model
//
// A flowchart is a list of [NodeSpec] records. Each record names a shape type,
// carries its label and lists its outgoing [Edge]s by target id:
//
//	[
//	  {"id": 1, "type": "start", "text": "Begin", "to": [{"to": 2}]},
//	  {"id": 2, "type": "operation", "text": "Work", "to": [{"to": 3, "text": "done"}]},
//	  {"id": 3, "type": "end", "text": "Stop"}
//	]
//
// Optional fields: x and y (manual layout), level (grouping), href (makes the
// label a link). Edges may carry an id, type, text label and opaque data.
//
// # Validation
//
// [New] builds the id index, ordered adjacency and in-degrees once and checks
// the node list eagerly:
//
//   - duplicate ids fail with [ErrDuplicateNodeID]
//   - edges to missing ids fail with [ErrUnknownTargetNode], unless
//     [AllowDangling] is passed, in which case they are dropped
//
// Both errors are wrapped in coded pkg/errors values so callers can switch on
// DUPLICATE_NODE and DANGLING_REFERENCE.
//
// # Roots
//
// [Graph.Root] is the first node with in-degree zero in input order. It is
// where auto layout starts; a graph where every node has an incoming edge has
// no root.
package graph

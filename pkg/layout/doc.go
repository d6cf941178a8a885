// Package layout positions flowchart nodes.
//
// Both functions are pure: they take node sizes and return positions, and
// never touch a drawing surface. pkg/diagram measures nodes, calls into this
// package and applies the result.
//
// # Auto Layout
//
// [Auto] grows a tree downward from the root, the first node without incoming
// edges. Children are visited depth-first in edge order. A child sits one row
// spacing below its parent and is offset sideways by its index among the
// parent's declared edges, counting edges dropped by graph.AllowDangling:
//
//	index:       0    1    2    3    4
//	centered:    0   -1   +1   -2   +2    (slots)
//	symmetric:  +1   -1   +2   -2         (even edge count only)
//
// where one slot is the child's width plus the column spacing. A node reached
// through several edges keeps the position of the first. Finally the whole
// drawing is shifted so its left and top edges sit on the padding.
//
// # Manual Layout
//
// [PaddingShift] computes the translation that moves manually placed nodes
// inside the padding when any of them stick out to the left or top.
package layout

// Package io reads and writes flowchart node lists.
//
// # Formats
//
// Node lists can be stored as JSON, YAML or TOML. The document is either a
// sequence of node records or an object with a "nodes" sequence:
//
//	[
//	  {"id": 1, "type": "start", "text": "Begin", "to": [{"to": 2}]},
//	  {"id": 2, "type": "end", "text": "Done"}
//	]
//
// TOML has no top-level arrays, so TOML files always use the object form:
//
//	[[nodes]]
//	id = 1
//	type = "start"
//	text = "Begin"
//	to = [{ to = 2 }]
//
// # Normalization
//
// A document that parses but is not a node sequence (a scalar, an object
// without "nodes", null) is read as an empty node list. Syntax errors and
// records of the wrong shape are reported as INVALID_INPUT errors.
//
// # Import
//
// Use [ImportFile] to read a file, choosing the format by extension, or one
// of [ReadJSON], [ReadYAML] and [ReadTOML] for any io.Reader:
//
//	nodes, err := io.ImportFile("login.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Export
//
// [WriteJSON] and [WriteYAML] write a node list back out. After a layout the
// caller can fill X and Y from the rendered diagram and export a file that
// reproduces the same picture with manual layout.
package io

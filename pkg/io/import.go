package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	ferrors "github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/graph"
)

// Format identifies a node list encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions
// default to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Read decodes a node list in the given format.
func Read(r io.Reader, f Format) ([]graph.NodeSpec, error) {
	switch f {
	case FormatYAML:
		return ReadYAML(r)
	case FormatTOML:
		return ReadTOML(r)
	case FormatJSON:
		return ReadJSON(r)
	}
	return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported format %q", f)
}

// ReadJSON decodes a JSON node list from r. It does not close r.
func ReadJSON(r io.Reader) ([]graph.NodeSpec, error) {
	var doc any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "decode json")
	}
	return normalize(doc)
}

// ReadYAML decodes a YAML node list from r. It does not close r.
func ReadYAML(r io.Reader) ([]graph.NodeSpec, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "decode yaml")
	}
	return normalize(doc)
}

// ReadTOML decodes a TOML node list from r. It does not close r.
func ReadTOML(r io.Reader) ([]graph.NodeSpec, error) {
	var doc map[string]any
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "decode toml")
	}
	return normalize(doc)
}

// ImportFile reads the node list at path, choosing the format by extension.
func ImportFile(path string) ([]graph.NodeSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	nodes, err := Read(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nodes, nil
}

// normalize turns a generic document into node specs. Anything that is not a
// sequence, or an object holding a "nodes" sequence, becomes an empty list.
func normalize(doc any) ([]graph.NodeSpec, error) {
	if m, ok := doc.(map[string]any); ok {
		doc = m["nodes"]
	}
	items, ok := asSlice(doc)
	if !ok {
		return nil, nil
	}

	// Route through JSON so all three formats share NodeSpec's json tags and
	// number handling.
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(items); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "encode nodes")
	}
	var nodes []graph.NodeSpec
	if err := json.Unmarshal(buf.Bytes(), &nodes); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "decode nodes")
	}
	return nodes, nil
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

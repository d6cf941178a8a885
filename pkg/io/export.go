package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowchart/pkg/graph"
)

// WriteJSON encodes nodes as an indented JSON array.
func WriteJSON(nodes []graph.NodeSpec, w io.Writer) error {
	if nodes == nil {
		nodes = []graph.NodeSpec{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nodes); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes nodes as a YAML sequence.
func WriteYAML(nodes []graph.NodeSpec, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(nodes); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// WriteTOML encodes nodes as a TOML array of tables under "nodes".
func WriteTOML(nodes []graph.NodeSpec, w io.Writer) error {
	doc := struct {
		Nodes []graph.NodeSpec `toml:"nodes"`
	}{nodes}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Write encodes nodes in the given format.
func Write(nodes []graph.NodeSpec, w io.Writer, f Format) error {
	switch f {
	case FormatYAML:
		return WriteYAML(nodes, w)
	case FormatTOML:
		return WriteTOML(nodes, w)
	default:
		return WriteJSON(nodes, w)
	}
}

// ExportFile writes nodes to path, choosing the format by extension.
func ExportFile(nodes []graph.NodeSpec, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(nodes, f, FormatFromPath(path))
}

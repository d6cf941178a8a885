package graph

// NodeSpec is one input record of a flowchart. It is the wire format shared by
// the JSON, YAML and TOML readers in pkg/io.
//
// X and Y are only consulted by manual layout; nil means "not placed" and the
// node stays at the origin until auto layout or a drag moves it.
type NodeSpec struct {
	ID    int      `json:"id" yaml:"id" toml:"id"`
	Type  string   `json:"type" yaml:"type" toml:"type"`
	Text  string   `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	X     *float64 `json:"x,omitempty" yaml:"x,omitempty" toml:"x,omitempty"`
	Y     *float64 `json:"y,omitempty" yaml:"y,omitempty" toml:"y,omitempty"`
	To    []Edge   `json:"to,omitempty" yaml:"to,omitempty" toml:"to,omitempty"`
	Level int      `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	Href  string   `json:"href,omitempty" yaml:"href,omitempty" toml:"href,omitempty"`
}

// Position returns the manual position of the node, or ok=false if either
// coordinate is missing.
func (n NodeSpec) Position() (x, y float64, ok bool) {
	if n.X == nil || n.Y == nil {
		return 0, 0, false
	}
	return *n.X, *n.Y, true
}

// Edge is a directed connection from the enclosing NodeSpec to the node with
// id To. Edge order within a node is significant: it drives both the
// auto-layout child offsets and the order connectors are drawn.
type Edge struct {
	ID   int    `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Type string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	To   int    `json:"to" yaml:"to" toml:"to"`
	Text string `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	Data any    `json:"data,omitempty" yaml:"data,omitempty" toml:"data,omitempty"`
}

// Float returns a pointer to v, for building NodeSpec literals.
func Float(v float64) *float64 { return &v }

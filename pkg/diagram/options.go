package diagram

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	ferrors "github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/shapes"
	"github.com/matzehuels/flowchart/pkg/surface"
)

// XY is a horizontal and vertical pair of distances.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LineStyle holds the attributes of connector paths and labels.
type LineStyle struct {
	Line surface.Attrs `json:"line"`
	Text surface.Attrs `json:"text"`
}

// TypeOptions holds per shape type settings.
type TypeOptions struct {
	Radius *float64 `json:"radius,omitempty"`
}

// Options configures a diagram. Field names follow the JSON keys accepted
// in override maps and config files.
type Options struct {
	PaperPadding      XY                     `json:"paperPadding"`
	Spacing           XY                     `json:"spacing"`
	AutoLayout        bool                   `json:"autolayout"`
	SymmetricalLayout bool                   `json:"symmetricalLayout"`
	Clickable         bool                   `json:"clickable"`
	DblClickable      bool                   `json:"dblclickable"`
	Draggable         bool                   `json:"draggable"`
	Hoverable         bool                   `json:"hoverable"`
	MaxWidth          float64                `json:"maxWidth"`
	TextPadding       float64                `json:"textPadding"`
	AllowDangling     bool                   `json:"allowDangling"`
	Text              surface.Attrs          `json:"text"`
	Shape             surface.Attrs          `json:"shape"`
	Line              LineStyle              `json:"line"`
	Types             map[string]TypeOptions `json:"types"`
}

// DefaultOptions returns the built-in configuration.
func DefaultOptions() Options {
	return Options{
		PaperPadding:      XY{X: 20, Y: 20},
		Spacing:           XY{X: 20, Y: 30},
		AutoLayout:        true,
		SymmetricalLayout: false,
		Clickable:         true,
		DblClickable:      true,
		Draggable:         true,
		Hoverable:         true,
		MaxWidth:          120,
		TextPadding:       10,
		Text: surface.Attrs{
			"font-size":   14,
			"font-family": "Go, sans-serif",
			"fill":        "#333",
		},
		Shape: surface.Attrs{
			"stroke":       "#333",
			"stroke-width": 1.5,
			"fill":         "none",
			"fill-opacity": 0,
		},
		Line: LineStyle{
			Line: surface.Attrs{
				"stroke":       "#333",
				"stroke-width": 1.5,
				"arrow-end":    "classic",
			},
			Text: surface.Attrs{
				"font-size": 12,
				"fill":      "#666",
			},
		},
		Types: map[string]TypeOptions{},
	}
}

// style returns the recipe style for a shape type.
func (o Options) style(typ string) shapes.Style {
	st := shapes.Style{
		TextPadding: o.TextPadding,
		MaxWidth:    o.MaxWidth,
		Text:        o.Text,
		Shape:       o.Shape,
	}
	if t, ok := o.Types[typ]; ok {
		st.Radius = t.Radius
	}
	return st
}

// Option configures [New].
type Option func(*config)

type config struct {
	layers   []func(map[string]any) error
	edits    []func(*Options)
	registry *shapes.Registry
	logger   *log.Logger
}

// WithOverrides deep-merges m over the options built so far: nested maps
// merge key by key, any other value replaces.
func WithOverrides(m map[string]any) Option {
	return func(c *config) {
		c.layers = append(c.layers, func(dst map[string]any) error {
			mergeMaps(dst, m)
			return nil
		})
	}
}

// WithConfigFile merges an options file (TOML, YAML or JSON by extension)
// like [WithOverrides].
func WithConfigFile(path string) Option {
	return func(c *config) {
		c.layers = append(c.layers, func(dst map[string]any) error {
			m, err := LoadOverrides(path)
			if err != nil {
				return err
			}
			mergeMaps(dst, m)
			return nil
		})
	}
}

// WithAutoLayout enables or disables auto layout.
func WithAutoLayout(on bool) Option {
	return edit(func(o *Options) { o.AutoLayout = on })
}

// WithSymmetricalLayout enables mirrored child placement.
func WithSymmetricalLayout(on bool) Option {
	return edit(func(o *Options) { o.SymmetricalLayout = on })
}

// WithPaperPadding sets the canvas padding.
func WithPaperPadding(x, y float64) Option {
	return edit(func(o *Options) { o.PaperPadding = XY{X: x, Y: y} })
}

// WithSpacing sets the gap between columns and rows.
func WithSpacing(x, y float64) Option {
	return edit(func(o *Options) { o.Spacing = XY{X: x, Y: y} })
}

// WithMaxWidth sets the label wrap width.
func WithMaxWidth(w float64) Option {
	return edit(func(o *Options) { o.MaxWidth = w })
}

// WithAllowDangling drops edges to unknown nodes instead of failing.
func WithAllowDangling(on bool) Option {
	return edit(func(o *Options) { o.AllowDangling = on })
}

// WithInteractions gates which gestures are bound on nodes.
func WithInteractions(click, dblclick, drag, hover bool) Option {
	return edit(func(o *Options) {
		o.Clickable, o.DblClickable, o.Draggable, o.Hoverable = click, dblclick, drag, hover
	})
}

// WithRegistry draws nodes with r instead of [shapes.Default].
func WithRegistry(r *shapes.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithLogger sets the logger used for phase and layout diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Resolve merges opts over [DefaultOptions] the way [New] does, without
// drawing anything.
func Resolve(opts ...Option) (Options, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg.resolve()
}

func edit(fn func(*Options)) Option {
	return func(c *config) { c.edits = append(c.edits, fn) }
}

// resolve merges override layers over the defaults, in order, then applies
// typed edits.
func (c *config) resolve() (Options, error) {
	base, err := toMap(DefaultOptions())
	if err != nil {
		return Options{}, err
	}
	for _, layer := range c.layers {
		if err := layer(base); err != nil {
			return Options{}, err
		}
	}
	var out Options
	data, err := json.Marshal(base)
	if err != nil {
		return Options{}, ferrors.Wrap(ferrors.ErrCodeInvalidOptions, err, "encode options")
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return Options{}, ferrors.Wrap(ferrors.ErrCodeInvalidOptions, err, "decode options")
	}
	for _, fn := range c.edits {
		fn(&out)
	}
	if out.Types == nil {
		out.Types = map[string]TypeOptions{}
	}
	return out, nil
}

func toMap(o Options) (map[string]any, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidOptions, err, "encode defaults")
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidOptions, err, "decode defaults")
	}
	return m, nil
}

// mergeMaps merges src into dst recursively.
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		sm, ok := asMap(v)
		if !ok {
			dst[k] = v
			continue
		}
		dm, ok := asMap(dst[k])
		if !ok {
			dm = map[string]any{}
		}
		mergeMaps(dm, sm)
		dst[k] = dm
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case surface.Attrs:
		return map[string]any(m), true
	}
	return nil, false
}

// LoadOverrides reads an options file into a generic map. The format is
// chosen by extension: .toml, .yaml/.yml, anything else is JSON.
func LoadOverrides(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "read options %s", path)
	}
	m := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&m)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidOptions, err, "parse options %s", path)
	}
	return m, nil
}

// Package pipeline provides the load → layout → render pipeline shared by the
// CLI and the interactive server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a node list from a file, raw bytes or memory
//  2. Layout: Draw the nodes on an in-memory scene and lay them out
//  3. Render: Serialize the scene (SVG, PNG, PDF), its geometry (JSON) or the
//     graph itself (DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "flow.yaml",
//	    Formats: []string{"svg", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Artifacts are cached by the hash of the node list, the merged diagram
// options, the canvas size and the per-format render options. A run where
// every requested format hits the cache skips layout entirely.
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowchart/pkg/cache"
	"github.com/matzehuels/flowchart/pkg/diagram"
	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/graph"
	fio "github.com/matzehuels/flowchart/pkg/io"
	"github.com/matzehuels/flowchart/pkg/shapes"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWidth is the default host width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default host height in pixels.
	DefaultHeight = 600.0

	// DefaultScale is the default PNG scale factor.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// Rasterizers for PNG output.
const (
	RasterGG   = "gg"
	RasterRSVG = "rsvg"
)

// =============================================================================
// Options
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Load options. Exactly one source is used: Nodes, then Data, then Input.
	Input       string           `json:"input,omitempty"`
	Data        []byte           `json:"-"`
	InputFormat string           `json:"input_format,omitempty"` // json, yaml or toml; for Data
	Nodes       []graph.NodeSpec `json:"nodes,omitempty"`

	// Layout options
	Width      float64        `json:"width,omitempty"`
	Height     float64        `json:"height,omitempty"`
	ConfigFile string         `json:"config_file,omitempty"`
	Overrides  map[string]any `json:"overrides,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	Gestures    bool     `json:"gestures,omitempty"`
	Title       string   `json:"title,omitempty"`
	Background  string   `json:"background,omitempty"`
	Rasterizer  string   `json:"rasterizer,omitempty"`
	RankByLevel bool     `json:"rank_by_level,omitempty"` // DOT output only
	Refresh     bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger      `json:"-"`
	Registry *shapes.Registry `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Nodes is the loaded node list.
	Nodes []graph.NodeSpec

	// InputHash is the content hash of the node list.
	InputHash string

	// Diagram and Scene are nil when every artifact came from the cache.
	Diagram *diagram.Diagram
	Scene   *scene.Scene

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount      int
	ConnectorCount int
	LoadTime       time.Duration
	LayoutTime     time.Duration
	RenderTime     time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInputFormat checks an explicit input encoding.
func ValidateInputFormat(format string) error {
	switch fio.Format(format) {
	case fio.FormatJSON, fio.FormatYAML, fio.FormatTOML:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat,
		"invalid input format: %q (must be one of: json, yaml, toml)", format)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a node source is set.
func (o *Options) ValidateForLoad() error {
	if o.Nodes == nil && o.Data == nil && o.Input == "" {
		return errors.New(errors.ErrCodeInvalidOptions, "input is required")
	}
	if o.Nodes == nil && o.Data != nil {
		if o.InputFormat == "" {
			o.InputFormat = string(fio.FormatJSON)
		}
		if err := ValidateInputFormat(o.InputFormat); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// ValidateForLayout checks the host size and applies its defaults.
func (o *Options) ValidateForLayout() error {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if !positive(o.Width) || !positive(o.Height) {
		return errors.New(errors.ErrCodeInvalidOptions,
			"size must be positive, got %vx%v", o.Width, o.Height)
	}
	o.setLogger()
	return nil
}

// ValidateForRender checks render options and applies their defaults.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Rasterizer == "" {
		o.Rasterizer = RasterGG
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if !positive(o.Scale) {
		return errors.New(errors.ErrCodeInvalidOptions, "scale must be positive, got %v", o.Scale)
	}
	if o.Rasterizer != RasterGG && o.Rasterizer != RasterRSVG {
		return errors.New(errors.ErrCodeInvalidOptions,
			"invalid rasterizer: %q (must be one of: gg, rsvg)", o.Rasterizer)
	}
	o.setLogger()
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Source describes where the node list comes from, for logs and hooks.
func (o *Options) Source() string {
	switch {
	case o.Nodes != nil:
		return "memory"
	case o.Data != nil:
		return "data:" + o.InputFormat
	default:
		return o.Input
	}
}

// ArtifactKeyOpts returns cache key options for one output format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG, FormatPDF:
		k.Gestures, k.Title, k.Background = o.Gestures, o.Title, o.Background
	case FormatPNG:
		k.Scale, k.Background, k.Rasterizer = o.Scale, o.Background, o.Rasterizer
	case FormatJSON:
		k.Title = o.Title
	case FormatDOT:
		k.RankByLevel = o.RankByLevel
	}
	return k
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

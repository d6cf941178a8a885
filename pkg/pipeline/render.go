package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowchart/pkg/diagram"
	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/render/nodelink"
	"github.com/matzehuels/flowchart/pkg/render/sink"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, d *diagram.Diagram, sc *scene.Scene, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := renderFormat(ctx, d, sc, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, d *diagram.Diagram, sc *scene.Scene, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(sc, buildSVGOptions(opts)...), nil
	case FormatPNG:
		return sink.RenderPNG(ctx, sc, buildPNGOptions(opts)...)
	case FormatPDF:
		return sink.RenderPDF(ctx, sc, sink.WithPDFSVGOptions(buildSVGOptions(opts)...))
	case FormatJSON:
		return sink.RenderJSON(d, sink.WithJSONOptions(), sink.WithJSONTitle(opts.Title))
	case FormatDOT:
		return []byte(nodelink.ToDOT(d.Graph(), nodelink.Options{RankByLevel: opts.RankByLevel})), nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
}

// buildSVGOptions builds SVG rendering options.
func buildSVGOptions(opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.Gestures {
		svgOpts = append(svgOpts, sink.WithGestures())
	}
	if opts.Title != "" {
		svgOpts = append(svgOpts, sink.WithTitle(opts.Title))
	}
	if opts.Background != "" {
		svgOpts = append(svgOpts, sink.WithBackground(opts.Background))
	}
	return svgOpts
}

func buildPNGOptions(opts Options) []sink.PNGOption {
	pngOpts := []sink.PNGOption{sink.WithScale(opts.Scale)}
	if opts.Background != "" {
		pngOpts = append(pngOpts, sink.WithPNGBackground(opts.Background))
	}
	if opts.Rasterizer == RasterRSVG {
		pngOpts = append(pngOpts, sink.WithRSVG(buildSVGOptions(opts)...))
	}
	return pngOpts
}

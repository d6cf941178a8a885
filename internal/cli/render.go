package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/pipeline"
)

// stdinInput names standard input as the node source.
const stdinInput = "-"

// sourceFlags are the input flags shared by commands that load a node list.
type sourceFlags struct {
	inputFormat string
	configFile  string
	sets        []string
	width       float64
	height      float64
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.inputFormat, "input-format", "", "encoding of stdin input: json (default), yaml, toml")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "diagram options file (TOML, YAML or JSON)")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "override a diagram option, e.g. --set autolayout=false --set spacing.y=50")
	cmd.Flags().Float64Var(&f.width, "width", pipeline.DefaultWidth, "host width")
	cmd.Flags().Float64Var(&f.height, "height", pipeline.DefaultHeight, "host height")
}

// apply fills the load and layout fields of opts. input is a path, "-" to
// read the node list from stdin, or empty to leave the source unset.
func (f *sourceFlags) apply(opts *pipeline.Options, input string, stdin io.Reader) error {
	switch {
	case input == stdinInput:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		opts.Data = data
		opts.InputFormat = f.inputFormat
	case f.inputFormat != "":
		return errors.New(errors.ErrCodeInvalidOptions, "--input-format applies to stdin only")
	default:
		opts.Input = input
	}

	overrides, err := parseOverrides(f.sets)
	if err != nil {
		return err
	}
	opts.Overrides = overrides
	opts.ConfigFile = f.configFile
	opts.Width, opts.Height = f.width, f.height
	return nil
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		formats string
		src     sourceFlags
		cf      cacheFlags
	)
	opts := pipeline.Options{
		Scale:      pipeline.DefaultScale,
		Rasterizer: pipeline.RasterGG,
	}

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a node list to SVG, PNG, PDF, JSON or DOT",
		Long: `Render a node list to one or more output formats.

The node list is a JSON, YAML or TOML file (or stdin with "-"). Diagram options
come from the defaults, then --config, then each --set in order.

With one format, -o names the output file ("-" writes to stdout). With several,
-o is a base path and each output gets the format as extension.

Renders are cached by node list, options and size. Use --refresh to render
again or --no-cache to bypass the cache entirely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := src.apply(&opts, args[0], cmd.InOrStdin()); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, cf)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	src.register(cmd)
	cf.register(cmd)

	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG scale factor")
	cmd.Flags().StringVar(&opts.Rasterizer, "rasterizer", opts.Rasterizer, "PNG rasterizer: gg (default), rsvg (needs rsvg-convert)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "document title (SVG, PDF, JSON)")
	cmd.Flags().StringVar(&opts.Background, "background", "", "background color")
	cmd.Flags().BoolVar(&opts.Gestures, "gestures", false, "annotate interactive elements in SVG output")
	cmd.Flags().BoolVar(&opts.RankByLevel, "rank-by-level", false, "group DOT nodes by depth")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached renders")

	return cmd
}

// runRender runs the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, cf cacheFlags) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner, err := c.newRunner(ctx, cf)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+displayName(input)+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if spinner.Cancelled() {
		spinner.Stop()
		return ctx.Err()
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if output == stdinInput {
		if len(opts.Formats) != 1 {
			return errors.New(errors.ErrCodeInvalidOptions, "-o - needs exactly one format, got %d", len(opts.Formats))
		}
		_, err := c.out.Write(result.Artifacts[opts.Formats[0]])
		return err
	}

	paths := make([]string, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		path := outputPath(output, input, format, len(opts.Formats) > 1)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	prog.done("Rendered "+displayName(input), "formats", strings.Join(opts.Formats, ","))

	printSuccess(c.out, "Render complete")
	for _, p := range paths {
		printFile(c.out, p)
	}
	printStats(c.out, len(result.Nodes), result.Stats.ConnectorCount, result.CacheInfo.RenderHit)
	if input != stdinInput {
		printNewline(c.out)
		printNextStep(c.out, "Explore", appName+" inspect "+input)
	}
	return nil
}

// outputPath derives the file for one format. A single format writes to
// output as given; several formats treat output as a base path. A derived
// path never replaces the input file.
func outputPath(output, input, format string, multi bool) string {
	if output != "" && !multi {
		return output
	}
	base := basePath(output, input)
	if path := base + "." + format; filepath.Clean(path) != filepath.Clean(input) {
		return path
	}
	return base + ".out." + format
}

// basePath strips a known format extension from output, or derives the base
// from the input file when output is empty.
func basePath(output, input string) string {
	if output == "" {
		if input == stdinInput {
			return appName
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func displayName(input string) string {
	if input == stdinInput {
		return "stdin"
	}
	return filepath.Base(input)
}

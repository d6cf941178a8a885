package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	fio "github.com/matzehuels/flowchart/pkg/io"
	"github.com/matzehuels/flowchart/pkg/pipeline"
)

// layoutCommand creates the layout command, which freezes an auto layout
// into manual positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		format string
		src    sourceFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [file|-]",
		Short: "Write the node list with computed positions",
		Long: `Lay out a node list and write it back with every node's x and y set.

The output loads with autolayout off and reproduces the same picture, so it is
a starting point for hand-tuned positions:

  flowchart layout flow.yaml -o flow.pinned.yaml
  flowchart render flow.pinned.yaml --set autolayout=false

The output encoding follows the -o extension, or --format when writing to
stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts pipeline.Options
			if err := src.apply(&opts, args[0], cmd.InOrStdin()); err != nil {
				return err
			}
			if format != "" {
				if err := pipeline.ValidateInputFormat(format); err != nil {
					return err
				}
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, fio.Format(format))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file (default: <input>.layout.<ext>, "-" for stdout)`)
	cmd.Flags().StringVar(&format, "format", "", "encoding for stdout: json (default), yaml, toml")
	src.register(cmd)

	return cmd
}

// runLayout lays out the node list and writes its snapshot.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, format fio.Format) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	defer runner.Close()

	result, err := runner.Layout(ctx, opts)
	if err != nil {
		return err
	}
	nodes := result.Diagram.Snapshot()

	if output == stdinInput {
		if format == "" {
			format = fio.FormatJSON
		}
		return fio.Write(nodes, c.out, format)
	}

	if output == "" {
		output = layoutPath(input, format)
	}
	if err := fio.ExportFile(nodes, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	prog.done("Wrote layout", "nodes", len(nodes), "path", output)

	printSuccess(c.out, "Layout complete")
	printFile(c.out, output)
	printStats(c.out, result.Stats.NodeCount, result.Stats.ConnectorCount, false)
	printNewline(c.out)
	printNextStep(c.out, "Render", appName+" render "+output+" --set autolayout=false")
	return nil
}

// layoutPath derives "<base>.layout.<ext>" from the input path, keeping the
// input encoding unless format is set.
func layoutPath(input string, format fio.Format) string {
	if input == stdinInput {
		input = appName + ".json"
	}
	ext := filepath.Ext(input)
	if format != "" {
		ext = "." + string(format)
	} else if ext == "" {
		ext = ".json"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".layout" + ext
}

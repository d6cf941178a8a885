package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowchart/internal/server"
	"github.com/matzehuels/flowchart/pkg/pipeline"
	"github.com/matzehuels/flowchart/pkg/session"
)

const defaultAddr = "localhost:8080"

// serveCommand creates the serve command for the interactive viewer.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		ttl   time.Duration
		title string
		src   sourceFlags
		cf    cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the interactive viewer",
		Long: `Serve the interactive flowchart viewer and its HTTP API.

With a file, the root page shows it as a draggable diagram. Without one, only
the API is available:

  POST /api/render              render a posted node list
  POST /api/sessions            start an interactive session
  POST /api/sessions/{id}/events  forward pointer gestures

Diagram options (--config, --set) and the host size apply to every session.
Idle sessions expire after --ttl.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			if input == stdinInput {
				return fmt.Errorf("serve reads its node list from a file, not stdin")
			}
			defaults := pipeline.Options{Title: title}
			if err := src.apply(&defaults, input, cmd.InOrStdin()); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), addr, ttl, defaults, cf)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().DurationVar(&ttl, "ttl", session.DefaultTTL, "idle lifetime of a viewer session")
	cmd.Flags().StringVar(&title, "title", "", "page title (default: file name)")
	src.register(cmd)
	cf.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, ttl time.Duration, defaults pipeline.Options, cf cacheFlags) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	runner, err := c.newRunner(ctx, cf)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if defaults.Input != "" && defaults.Title == "" {
		defaults.Title = displayName(defaults.Input)
	}

	srv := server.New(server.Deps{
		Runner:   runner,
		Store:    session.NewMemoryStore(),
		Defaults: defaults,
		TTL:      ttl,
		Logger:   loggerFromContext(ctx),
	})

	printSuccess(c.out, "Viewer ready")
	printKeyValue(c.out, "Address", StyleLink.Render("http://"+addr+"/"))
	if defaults.Input != "" {
		printKeyValue(c.out, "Diagram", defaults.Input)
	} else {
		printInfo(c.out, "No file given; serving the API only")
	}
	printDetail(c.out, "Press Ctrl+C to stop")

	return srv.Run(ctx, addr)
}

// Package cli implements the flowchart command-line interface.
//
// The CLI renders node lists (JSON, YAML or TOML) into flowchart diagrams,
// writes their computed layout, browses them in a terminal UI and serves the
// interactive browser viewer. It is built on cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - render: Generate SVG, PNG, PDF, JSON geometry or DOT output
//   - layout: Write the laid out node list with manual positions
//   - inspect: Browse nodes and connectors in the terminal
//   - serve: Run the interactive viewer server
//   - cache: Manage the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowchart/pkg/buildinfo"
	"github.com/matzehuels/flowchart/pkg/cache"
	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flowchart"

	// redisURLEnv names a Redis instance to cache renders in instead of the
	// local cache directory.
	redisURLEnv = "FLOWCHART_REDIS_URL"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	out    io.Writer
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output (rendered data, tables) from stdout.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
// --verbose switches the logger to debug level before any command runs.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "Flowchart renders node lists as flowchart diagrams",
		Long: `Flowchart lays out a list of typed nodes (start, operation, condition,
end) as a flowchart with orthogonal connectors and renders it to SVG, PNG,
PDF, JSON geometry or Graphviz DOT.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags selects the cache backend of a command.
type cacheFlags struct {
	noCache  bool
	redisURL string
	scope    string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&f.redisURL, "redis-url", os.Getenv(redisURLEnv), "cache renders in Redis instead of the cache directory (env "+redisURLEnv+")")
	cmd.Flags().StringVar(&f.scope, "cache-scope", "", "prefix cache keys, to share one cache between setups")
}

// keyer returns the cache keyer, scoped when --cache-scope is set.
func (f cacheFlags) keyer() cache.Keyer {
	if f.scope == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), f.scope+":")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f cacheFlags) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, f)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, f.keyer(), c.Logger), nil
}

// newCache opens the configured backend. An unusable cache directory falls
// back to no caching; an unreachable Redis is an error.
func newCache(ctx context.Context, f cacheFlags) (cache.Cache, error) {
	if f.noCache {
		return cache.NewNullCache(), nil
	}
	if f.redisURL != "" {
		return cache.NewRedisCache(ctx, f.redisURL, appName+":")
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowchart/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseOverrides turns "path.to.key=value" assignments into a nested
// override map. Values are YAML scalars or flow collections, so
// "autolayout=false" sets a bool and "spacing={x: 40, y: 60}" a map.
func parseOverrides(sets []string) (map[string]any, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	out := map[string]any{}
	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidOptions, "invalid --set %q: want key=value", s)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid --set %q", s)
		}
		if v == nil && strings.TrimSpace(raw) == "" {
			v = ""
		}
		if err := setPath(out, strings.Split(key, "."), v); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid --set %q", s)
		}
	}
	return out, nil
}

func setPath(m map[string]any, path []string, v any) error {
	for _, p := range path[:len(path)-1] {
		if p == "" {
			return errors.New(errors.ErrCodeInvalidOptions, "empty key segment")
		}
		next, ok := m[p].(map[string]any)
		if !ok {
			if _, exists := m[p]; exists {
				return errors.New(errors.ErrCodeInvalidOptions, "%s is not a map", p)
			}
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	last := path[len(path)-1]
	if last == "" {
		return errors.New(errors.ErrCodeInvalidOptions, "empty key segment")
	}
	if sub, ok := v.(map[string]any); ok {
		if dst, ok := m[last].(map[string]any); ok {
			for k, sv := range sub {
				dst[k] = sv
			}
			return nil
		}
	}
	m[last] = v
	return nil
}

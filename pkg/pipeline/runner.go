package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowchart/pkg/cache"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the server use it so caching behaves the same everywhere.
//
// The Runner holds no pipeline results. Multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	hooks := observability.Pipeline()
	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	hooks.OnLoadStart(ctx, opts.Source())
	nodes, err := Load(opts)
	result.Stats.LoadTime = time.Since(loadStart)
	hooks.OnLoadComplete(ctx, opts.Source(), len(nodes), result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Nodes = nodes
	result.Stats.NodeCount = len(nodes)

	r.Logger.Info("loaded nodes",
		"source", opts.Source(),
		"nodes", len(nodes),
		"duration", result.Stats.LoadTime)

	dopts, err := DiagramOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	optsHash, resolved, err := OptionsHash(dopts)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	result.InputHash, err = cache.HashValue(nodes)
	if err != nil {
		return nil, fmt.Errorf("hash input: %w", err)
	}
	layoutKey := r.Keyer.LayoutKey(result.InputHash, cache.LayoutKeyOpts{
		OptionsHash: optsHash,
		Width:       opts.Width,
		Height:      opts.Height,
	})

	// All formats cached: skip layout.
	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, layoutKey, opts); ok {
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			r.Logger.Info("served from cache", "formats", opts.Formats)
			return result, nil
		}
	}

	// Stage 2: Layout
	mode := layoutMode(resolved)
	layoutStart := time.Now()
	hooks.OnLayoutStart(ctx, mode, len(nodes))
	d, sc, err := layout(nodes, opts, dopts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	hooks.OnLayoutComplete(ctx, mode, result.Stats.LayoutTime, err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Diagram, result.Scene = d, sc
	result.Stats.ConnectorCount = len(d.Connectors())

	r.Logger.Info("computed layout",
		"mode", mode,
		"width", d.Width(),
		"height", d.Height(),
		"connectors", result.Stats.ConnectorCount,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	artifacts, err := Render(ctx, d, sc, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts

	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(layoutKey, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// cachedArtifacts returns every requested format from the cache, or false if
// any one is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, layoutKey string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutKey, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn("cache read failed", "format", format, "error", err)
		}
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			return nil, false
		}
		observability.Cache().OnCacheHit(ctx, "artifact")
		artifacts[format] = data
	}
	return artifacts, true
}

// Layout loads the node list and lays it out without rendering or caching.
func (r *Runner) Layout(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	nodes, err := Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return r.LayoutNodes(ctx, nodes, opts)
}

// LayoutNodes lays out an already loaded node list.
func (r *Runner) LayoutNodes(ctx context.Context, nodes []graph.NodeSpec, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	d, sc, err := GenerateLayout(nodes, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	r.Logger.Debug("computed layout", "nodes", len(nodes), "duration", time.Since(start))
	return &Result{
		Nodes:   nodes,
		Diagram: d,
		Scene:   sc,
		Stats: Stats{
			NodeCount:      len(nodes),
			ConnectorCount: len(d.Connectors()),
			LayoutTime:     time.Since(start),
		},
	}, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

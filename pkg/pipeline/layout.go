package pipeline

import (
	"github.com/matzehuels/flowchart/pkg/cache"
	"github.com/matzehuels/flowchart/pkg/diagram"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

// Layout mode names reported to hooks and logs.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// DiagramOptions turns the config file and overrides in opts into diagram
// options. The file is read once, here.
func DiagramOptions(opts Options) ([]diagram.Option, error) {
	var dopts []diagram.Option
	if opts.ConfigFile != "" {
		m, err := diagram.LoadOverrides(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		dopts = append(dopts, diagram.WithOverrides(m))
	}
	if len(opts.Overrides) > 0 {
		dopts = append(dopts, diagram.WithOverrides(opts.Overrides))
	}
	if opts.Registry != nil {
		dopts = append(dopts, diagram.WithRegistry(opts.Registry))
	}
	if opts.Logger != nil {
		dopts = append(dopts, diagram.WithLogger(opts.Logger))
	}
	return dopts, nil
}

// OptionsHash hashes the merged diagram options, so files and overrides that
// resolve to the same configuration share cache entries.
func OptionsHash(dopts []diagram.Option) (string, diagram.Options, error) {
	o, err := diagram.Resolve(dopts...)
	if err != nil {
		return "", diagram.Options{}, err
	}
	h, err := cache.HashValue(o)
	if err != nil {
		return "", diagram.Options{}, err
	}
	return h, o, nil
}

// GenerateLayout draws nodes on a fresh scene of the requested host size and
// lays them out.
func GenerateLayout(nodes []graph.NodeSpec, opts Options) (*diagram.Diagram, *scene.Scene, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, nil, err
	}
	dopts, err := DiagramOptions(opts)
	if err != nil {
		return nil, nil, err
	}
	return layout(nodes, opts, dopts)
}

func layout(nodes []graph.NodeSpec, opts Options, dopts []diagram.Option) (*diagram.Diagram, *scene.Scene, error) {
	sc, err := scene.New(opts.Width, opts.Height)
	if err != nil {
		return nil, nil, err
	}
	d, err := diagram.New(sc, nodes, dopts...)
	if err != nil {
		return nil, nil, err
	}
	return d, sc, nil
}

func layoutMode(o diagram.Options) string {
	if o.AutoLayout {
		return ModeAuto
	}
	return ModeManual
}

package pipeline

import (
	"bytes"

	"github.com/matzehuels/flowchart/pkg/graph"
	fio "github.com/matzehuels/flowchart/pkg/io"
)

// Load returns the node list named by opts: Nodes as given, Data decoded in
// InputFormat, or the file at Input decoded by extension.
func Load(opts Options) ([]graph.NodeSpec, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	switch {
	case opts.Nodes != nil:
		return opts.Nodes, nil
	case opts.Data != nil:
		return fio.Read(bytes.NewReader(opts.Data), fio.Format(opts.InputFormat))
	default:
		return fio.ImportFile(opts.Input)
	}
}

package graph

import (
	"errors"
	"fmt"
	"slices"

	ferrors "github.com/matzehuels/flowchart/pkg/errors"
)

var (
	// ErrDuplicateNodeID is returned by [New] when two specs share an id.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownTargetNode is returned by [New] when an edge points at an id
	// that is not in the node list and [AllowDangling] is not set.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Option configures graph construction.
type Option func(*config)

type config struct {
	allowDangling bool
	onDrop        func(from int, e Edge)
}

// AllowDangling makes [New] drop edges whose target is missing instead of
// failing. onDrop, if non-nil, is called for every dropped edge.
func AllowDangling(onDrop func(from int, e Edge)) Option {
	return func(c *config) {
		c.allowDangling = true
		c.onDrop = onDrop
	}
}

// Graph is the explicit, validated form of a node list: an id index, ordered
// adjacency and in-degrees, built once. Node order is input order.
//
// The zero value is an empty graph. Graph is immutable after [New] and safe
// for concurrent reads.
type Graph struct {
	nodes    []NodeSpec
	index    map[int]int
	edges    map[int][]Edge
	slots    map[int][]int
	declared map[int]int
	indegree map[int]int
	count    int
}

// New validates nodes and builds a Graph. Every edge target must resolve to a
// node id of the same list; duplicate ids are rejected.
//
// Errors wrap [ErrDuplicateNodeID] or [ErrUnknownTargetNode] inside a coded
// pkg/errors error (DUPLICATE_NODE, DANGLING_REFERENCE).
func New(nodes []NodeSpec, opts ...Option) (*Graph, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Graph{
		nodes:    slices.Clone(nodes),
		index:    make(map[int]int, len(nodes)),
		edges:    make(map[int][]Edge, len(nodes)),
		slots:    make(map[int][]int, len(nodes)),
		declared: make(map[int]int, len(nodes)),
		indegree: make(map[int]int, len(nodes)),
	}
	for i, n := range g.nodes {
		if _, dup := g.index[n.ID]; dup {
			return nil, ferrors.Wrap(ferrors.ErrCodeDuplicateNode, ErrDuplicateNodeID, "node %d", n.ID)
		}
		g.index[n.ID] = i
	}

	for i, n := range g.nodes {
		kept := make([]Edge, 0, len(n.To))
		slots := make([]int, 0, len(n.To))
		for j, e := range n.To {
			if _, ok := g.index[e.To]; !ok {
				if !cfg.allowDangling {
					return nil, ferrors.Wrap(ferrors.ErrCodeDanglingReference, ErrUnknownTargetNode,
						"edge %d->%d", n.ID, e.To)
				}
				if cfg.onDrop != nil {
					cfg.onDrop(n.ID, e)
				}
				continue
			}
			kept = append(kept, e)
			slots = append(slots, j)
			g.indegree[e.To]++
		}
		g.declared[n.ID] = len(n.To)
		g.nodes[i].To = kept
		g.edges[n.ID] = kept
		g.slots[n.ID] = slots
		g.count += len(kept)
	}
	return g, nil
}

// Nodes returns the node specs in input order. Dropped dangling edges are
// absent from the returned specs.
func (g *Graph) Nodes() []NodeSpec { return g.nodes }

// Node returns the NodeSpec with the given id.
func (g *Graph) Node(id int) (NodeSpec, bool) {
	i, ok := g.index[id]
	if !ok {
		return NodeSpec{}, false
	}
	return g.nodes[i], true
}

// Has reports whether id names a node.
func (g *Graph) Has(id int) bool {
	_, ok := g.index[id]
	return ok
}

// Edges returns the outgoing edges of id in input order.
func (g *Graph) Edges(id int) []Edge { return g.edges[id] }

// Slot returns the position of the i-th edge of [Graph.Edges](id) in the
// node's declared edge list, and the length of that list. The two differ from
// i and len(Edges(id)) only when [AllowDangling] dropped edges.
func (g *Graph) Slot(id, i int) (index, declared int) {
	return g.slots[id][i], g.declared[id]
}

// InDegree returns the number of edges pointing at id.
func (g *Graph) InDegree(id int) int { return g.indegree[id] }

// Roots returns the ids of nodes with in-degree zero, in input order.
func (g *Graph) Roots() []int {
	var out []int
	for _, n := range g.nodes {
		if g.indegree[n.ID] == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}

// Root returns the first node with in-degree zero in input order.
func (g *Graph) Root() (int, bool) {
	for _, n := range g.nodes {
		if g.indegree[n.ID] == 0 {
			return n.ID, true
		}
	}
	return 0, false
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of kept edges.
func (g *Graph) EdgeCount() int { return g.count }

// Levels groups nodes by their Level field. Groups are ordered by level and
// each group is sorted by id.
func (g *Graph) Levels() [][]NodeSpec {
	byLevel := make(map[int][]NodeSpec)
	for _, n := range g.nodes {
		byLevel[n.Level] = append(byLevel[n.Level], n)
	}
	keys := make([]int, 0, len(byLevel))
	for k := range byLevel {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([][]NodeSpec, 0, len(keys))
	for _, k := range keys {
		lvl := byLevel[k]
		slices.SortStableFunc(lvl, func(a, b NodeSpec) int { return a.ID - b.ID })
		out = append(out, lvl)
	}
	return out
}

// String summarizes the graph for logs.
func (g *Graph) String() string {
	return fmt.Sprintf("graph(%d nodes, %d edges)", g.NodeCount(), g.EdgeCount())
}

package graph

import (
	"errors"
	"slices"
	"testing"

	ferrors "github.com/matzehuels/flowchart/pkg/errors"
)

func chain() []NodeSpec {
	return []NodeSpec{
		{ID: 1, Type: "start", Text: "A", To: []Edge{{To: 2}}},
		{ID: 2, Type: "operation", Text: "B", To: []Edge{{To: 3}}},
		{ID: 3, Type: "end", Text: "C"},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		nodes     []NodeSpec
		opts      []Option
		wantErr   error
		wantCode  ferrors.Code
		wantNodes int
		wantEdges int
	}{
		{
			name:      "Empty",
			nodes:     nil,
			wantNodes: 0,
		},
		{
			name:      "Chain",
			nodes:     chain(),
			wantNodes: 3,
			wantEdges: 2,
		},
		{
			name: "DuplicateID",
			nodes: []NodeSpec{
				{ID: 1, Type: "start"},
				{ID: 1, Type: "end"},
			},
			wantErr:  ErrDuplicateNodeID,
			wantCode: ferrors.ErrCodeDuplicateNode,
		},
		{
			name: "DanglingStrict",
			nodes: []NodeSpec{
				{ID: 1, Type: "start", To: []Edge{{To: 9}}},
			},
			wantErr:  ErrUnknownTargetNode,
			wantCode: ferrors.ErrCodeDanglingReference,
		},
		{
			name: "DanglingAllowed",
			nodes: []NodeSpec{
				{ID: 1, Type: "start", To: []Edge{{To: 9}, {To: 2}}},
				{ID: 2, Type: "end"},
			},
			opts:      []Option{AllowDangling(nil)},
			wantNodes: 2,
			wantEdges: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.nodes, tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				if !ferrors.Is(err, tt.wantCode) {
					t.Errorf("New() code = %v, want %v", ferrors.GetCode(err), tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if g.NodeCount() != tt.wantNodes {
				t.Errorf("NodeCount() = %d, want %d", g.NodeCount(), tt.wantNodes)
			}
			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), tt.wantEdges)
			}
		})
	}
}

func TestAllowDanglingReportsDrops(t *testing.T) {
	var dropped []int
	nodes := []NodeSpec{{ID: 1, To: []Edge{{To: 7}, {To: 8}}}}
	g, err := New(nodes, AllowDangling(func(from int, e Edge) { dropped = append(dropped, e.To) }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !slices.Equal(dropped, []int{7, 8}) {
		t.Errorf("dropped = %v, want [7 8]", dropped)
	}
	if n, _ := g.Node(1); len(n.To) != 0 {
		t.Errorf("node 1 kept %d edges, want 0", len(n.To))
	}
	if len(nodes[0].To) != 2 {
		t.Error("New mutated the caller's node list")
	}
}

func TestSlotKeepsDeclaredPositions(t *testing.T) {
	nodes := []NodeSpec{
		{ID: 1, To: []Edge{{To: 99}, {To: 2}, {To: 98}, {To: 3}}},
		{ID: 2}, {ID: 3},
	}
	g, err := New(nodes, AllowDangling(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		i, wantIndex int
	}{
		{0, 1},
		{1, 3},
	}
	for _, tt := range tests {
		index, declared := g.Slot(1, tt.i)
		if index != tt.wantIndex || declared != 4 {
			t.Errorf("Slot(1, %d) = (%d, %d), want (%d, 4)", tt.i, index, declared, tt.wantIndex)
		}
	}

	strict := mustNewGraph(t, []NodeSpec{{ID: 1, To: []Edge{{To: 2}}}, {ID: 2}})
	if index, declared := strict.Slot(1, 0); index != 0 || declared != 1 {
		t.Errorf("Slot without drops = (%d, %d), want (0, 1)", index, declared)
	}
}

func mustNewGraph(t *testing.T, nodes []NodeSpec) *Graph {
	t.Helper()
	g, err := New(nodes)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func TestRoots(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []NodeSpec
		want     []int
		wantRoot int
		hasRoot  bool
	}{
		{"Chain", chain(), []int{1}, 1, true},
		{
			name: "TieBreakInputOrder",
			nodes: []NodeSpec{
				{ID: 5, To: []Edge{{To: 1}}},
				{ID: 1},
				{ID: 3},
			},
			want:     []int{5, 3},
			wantRoot: 5,
			hasRoot:  true,
		},
		{
			name: "Cycle",
			nodes: []NodeSpec{
				{ID: 1, To: []Edge{{To: 2}}},
				{ID: 2, To: []Edge{{To: 1}}},
			},
			want:    nil,
			hasRoot: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.nodes)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := g.Roots(); !slices.Equal(got, tt.want) {
				t.Errorf("Roots() = %v, want %v", got, tt.want)
			}
			root, ok := g.Root()
			if ok != tt.hasRoot || (ok && root != tt.wantRoot) {
				t.Errorf("Root() = %d, %v, want %d, %v", root, ok, tt.wantRoot, tt.hasRoot)
			}
		})
	}
}

func TestEdgesKeepOrder(t *testing.T) {
	g, err := New([]NodeSpec{
		{ID: 1, To: []Edge{{To: 4, Text: "a"}, {To: 2, Text: "b"}, {To: 3, Text: "c"}}},
		{ID: 2}, {ID: 3}, {ID: 4},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var got []string
	for _, e := range g.Edges(1) {
		got = append(got, e.Text)
	}
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Edges(1) order = %v", got)
	}
	if g.InDegree(4) != 1 || g.InDegree(1) != 0 {
		t.Errorf("InDegree(4)=%d InDegree(1)=%d", g.InDegree(4), g.InDegree(1))
	}
}

func TestLevels(t *testing.T) {
	g, err := New([]NodeSpec{
		{ID: 4, Level: 1},
		{ID: 1, Level: 0},
		{ID: 3, Level: 1},
		{ID: 2, Level: 2},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var got [][]int
	for _, lvl := range g.Levels() {
		var ids []int
		for _, n := range lvl {
			ids = append(ids, n.ID)
		}
		got = append(got, ids)
	}
	want := [][]int{{1}, {3, 4}, {2}}
	if !slices.EqualFunc(got, want, slices.Equal[[]int]) {
		t.Errorf("Levels() = %v, want %v", got, want)
	}
}

func TestPosition(t *testing.T) {
	n := NodeSpec{X: Float(10)}
	if _, _, ok := n.Position(); ok {
		t.Error("Position() with missing y reported ok")
	}
	n.Y = Float(20)
	if x, y, ok := n.Position(); !ok || x != 10 || y != 20 {
		t.Errorf("Position() = %v, %v, %v", x, y, ok)
	}
}

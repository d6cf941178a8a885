package shapes

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/surface"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

const eps = 1e-9

func newScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.New(800, 600)
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	return s
}

func TestDefaultTypes(t *testing.T) {
	got := Default().Types()
	want := []string{"condition", "end", "operation", "start"}
	if !slices.Equal(got, want) {
		t.Errorf("Types() = %v, want %v", got, want)
	}
}

func TestRegister(t *testing.T) {
	noop := RecipeFunc(func(surface.Surface, graph.NodeSpec, Style) (Result, error) { return Result{}, nil })

	tests := []struct {
		name    string
		typ     string
		recipe  Recipe
		wantErr error
	}{
		{"New", "sub-process", noop, nil},
		{"Duplicate", "start", noop, ErrDuplicateShape},
		{"InvalidName", "Bad Name", noop, nil},
		{"NilRecipe", "empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			err := r.Register(tt.typ, tt.recipe)
			if tt.name == "New" {
				if err != nil {
					t.Fatalf("Register() error = %v", err)
				}
				if _, ok := r.Lookup(tt.typ); !ok {
					t.Error("Lookup() after Register failed")
				}
				return
			}
			if !ferrors.Is(err, ferrors.ErrCodeConfiguration) {
				t.Errorf("Register() error = %v, want CONFIGURATION", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegister did not panic")
		}
	}()
	Default().MustRegister("end", Rounded(0))
}

func TestRenderUnknownTypeDrawsNothing(t *testing.T) {
	s := newScene(t)
	_, err := Default().Render(s, graph.NodeSpec{ID: 1, Type: "loop", Text: "x"}, DefaultStyle())
	if !errors.Is(err, ErrUnknownShape) || !ferrors.Is(err, ferrors.ErrCodeConfiguration) {
		t.Fatalf("Render() error = %v, want unknown shape configuration error", err)
	}
	if s.Len() != 0 {
		t.Errorf("surface has %d elements, want 0", s.Len())
	}
}

func TestRounded(t *testing.T) {
	s := newScene(t)
	st := DefaultStyle()
	res, err := Default().Render(s, graph.NodeSpec{ID: 1, Type: "start", Text: "Begin"}, st)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lb := s.BBox(res.Label)
	ob := s.BBox(res.Outline)
	p := st.TextPadding

	if math.Abs(ob.Width-(lb.Width+2*p)) > eps || math.Abs(ob.Height-(lb.Height+2*p)) > eps {
		t.Errorf("outline %+v is not label %+v plus padding %v", ob, lb, p)
	}
	if math.Abs(lb.X-p) > eps || math.Abs(lb.Y-p) > eps {
		t.Errorf("label origin = (%v, %v), want (%v, %v)", lb.X, lb.Y, p, p)
	}
	if math.Abs(lb.Center().Y-ob.Center().Y) > eps {
		t.Errorf("label not vertically centered: %v vs %v", lb.Center().Y, ob.Center().Y)
	}

	e, _ := s.Element(res.Outline)
	if e.Kind != scene.KindRect || e.Radius != 20 {
		t.Errorf("outline kind=%v radius=%v, want rect radius 20", e.Kind, e.Radius)
	}
	if gb := s.BBox(res.Group); gb != ob {
		t.Errorf("group bbox %+v != outline bbox %+v", gb, ob)
	}
}

func TestOutlineBehindLabel(t *testing.T) {
	s := newScene(t)
	for _, typ := range Default().Types() {
		res, err := Default().Render(s, graph.NodeSpec{ID: 1, Type: typ, Text: "x"}, DefaultStyle())
		if err != nil {
			t.Fatalf("%s: Render() error = %v", typ, err)
		}
		g, _ := s.Element(res.Group)
		kids := s.Children(g)
		if len(kids) != 2 || kids[0].ID != res.Outline || kids[1].ID != res.Label {
			t.Errorf("%s: draw order is not outline, label", typ)
		}
	}
}

func TestOperationAndRadiusOverride(t *testing.T) {
	s := newScene(t)
	res, _ := Default().Render(s, graph.NodeSpec{ID: 1, Type: "operation", Text: "Work"}, DefaultStyle())
	if e, _ := s.Element(res.Outline); e.Radius != 0 {
		t.Errorf("operation radius = %v, want 0", e.Radius)
	}

	st := DefaultStyle()
	r := 4.0
	st.Radius = &r
	res, _ = Default().Render(s, graph.NodeSpec{ID: 2, Type: "end", Text: "Stop"}, st)
	if e, _ := s.Element(res.Outline); e.Radius != 4 {
		t.Errorf("overridden radius = %v, want 4", e.Radius)
	}
}

func TestDiamond(t *testing.T) {
	s := newScene(t)
	st := DefaultStyle()
	p := st.TextPadding

	probe := s.Text(0, 0, "Ready?")
	tb := s.BBox(probe)
	s.Remove(probe)

	res, err := Default().Render(s, graph.NodeSpec{ID: 1, Type: "condition", Text: "Ready?"}, st)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	w := (tb.Width + 3*p) * 1.5
	h := max(w*0.5, (tb.Height+2*p)*1.5)
	ob := s.BBox(res.Outline)
	if math.Abs(ob.Width-w) > eps || math.Abs(ob.Height-h) > eps {
		t.Errorf("diamond = %vx%v, want %vx%v", ob.Width, ob.Height, w, h)
	}
	if lb := s.BBox(res.Label); math.Abs(lb.X-(w/4+p/2)) > eps {
		t.Errorf("label x = %v, want %v", lb.X, w/4+p/2)
	}
	if lb := s.BBox(res.Label); math.Abs(lb.Center().Y-h/2) > eps {
		t.Errorf("label center y = %v, want %v", lb.Center().Y, h/2)
	}
}

func TestDiamondPoints(t *testing.T) {
	pts := DiamondPoints(100, 60)
	want := []geom.Point{{X: 25, Y: 15}, {X: 0, Y: 30}, {X: 50, Y: 60}, {X: 100, Y: 30}, {X: 50, Y: 0}, {X: 0, Y: 30}}
	if !slices.Equal(pts, want) {
		t.Errorf("DiamondPoints = %v, want %v", pts, want)
	}
}

func TestWrap(t *testing.T) {
	s := newScene(t)
	m := s.Measurer()
	const maxWidth = 60.0

	tests := []struct {
		name  string
		text  string
		lines int // minimum expected
	}{
		{"Short", "ok", 1},
		{"Long", "the quick brown fox jumps over the lazy dog", 3},
		{"Explicit", "one\ntwo", 2},
		{"Empty", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := s.Text(0, 0, "")
			got := Wrap(s, label, tt.text, maxWidth)

			if e, _ := s.Element(label); e.Text != got {
				t.Errorf("label text = %q, want wrapped %q", e.Text, got)
			}
			if strings.ReplaceAll(got, "\n", "") != strings.ReplaceAll(tt.text, "\n", "") {
				t.Errorf("Wrap changed content: %q", got)
			}
			lines := strings.Split(got, "\n")
			if len(lines) < tt.lines {
				t.Errorf("lines = %d, want >= %d", len(lines), tt.lines)
			}
			for _, line := range lines {
				if w := m.Measure(line, scene.DefaultFontSize).Width; w > maxWidth && len([]rune(line)) > 1 {
					t.Errorf("line %q width %v exceeds %v", line, w, maxWidth)
				}
			}
		})
	}
}

func TestWrapWideRuneDoesNotLeadWithBreak(t *testing.T) {
	s := newScene(t)
	label := s.Text(0, 0, "")
	got := Wrap(s, label, "WW", 1)
	if got != "W\nW" {
		t.Errorf("Wrap = %q, want %q", got, "W\nW")
	}
}

func TestStyleAttrsAndHref(t *testing.T) {
	s := newScene(t)
	st := DefaultStyle()
	st.Text = surface.Attrs{"font-size": 20, "fill": "#333"}
	st.Shape = surface.Attrs{"stroke": "#000", "fill": "none"}

	res, err := Default().Render(s, graph.NodeSpec{ID: 1, Type: "end", Text: "Docs", Href: "https://example.com"}, st)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	lbl, _ := s.Element(res.Label)
	if lbl.FontSize() != 20 || lbl.Attrs.String("fill") != "#333" || lbl.Attrs.String("href") != "https://example.com" {
		t.Errorf("label attrs = %v", lbl.Attrs)
	}
	out, _ := s.Element(res.Outline)
	if out.Attrs.String("stroke") != "#000" {
		t.Errorf("outline attrs = %v", out.Attrs)
	}
}

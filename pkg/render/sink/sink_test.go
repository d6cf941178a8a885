package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/flowchart/pkg/diagram"
	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/render"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

func chart(t *testing.T, nodes []graph.NodeSpec, opts ...diagram.Option) (*scene.Scene, *diagram.Diagram) {
	t.Helper()
	sc, err := scene.New(400, 300)
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	d, err := diagram.New(sc, nodes, opts...)
	if err != nil {
		t.Fatalf("diagram.New: %v", err)
	}
	return sc, d
}

func chain() []graph.NodeSpec {
	return []graph.NodeSpec{
		{ID: 1, Type: "start", Text: "Begin", To: []graph.Edge{{To: 2}}},
		{ID: 2, Type: "condition", Text: "Ready?", To: []graph.Edge{{To: 3, Text: "yes & go"}}},
		{ID: 3, Type: "end", Text: "Done"},
	}
}

func wellFormed(t *testing.T, doc []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		if err != nil {
			t.Fatalf("SVG is not well-formed: %v\n%s", err, doc)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	sc, _ := chart(t, chain())
	out := RenderSVG(sc, WithTitle("chain"))
	wellFormed(t, out)
	doc := string(out)

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`<title>chain</title>`,
		`viewBox="`,
		`<marker id="arrow-0"`,
		`marker-end="url(#arrow-0)"`,
		`>Begin</text>`,
		`>Ready?</text>`,
		`yes &amp; go`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if n := strings.Count(doc, "<marker "); n != 1 {
		t.Errorf("markers = %d, want 1 shared marker", n)
	}
	if strings.Contains(doc, `data-gestures="`) {
		t.Error("gesture annotations emitted without WithGestures")
	}
	if strings.Contains(doc, "[data-gestures]") {
		t.Error("gesture CSS emitted without WithGestures")
	}
	if !strings.Contains(doc, "white-space: pre") {
		t.Error("text CSS missing")
	}
}

func TestRenderSVGGestures(t *testing.T) {
	tests := []struct {
		name string
		opts []diagram.Option
		want string
	}{
		{"All", nil, `data-gestures="click dblclick drag hover"`},
		{"ClickOnly", []diagram.Option{diagram.WithInteractions(true, false, false, false)}, `data-gestures="click"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := chart(t, chain(), tt.opts...)
			doc := string(RenderSVG(sc, WithGestures()))
			if got := strings.Count(doc, tt.want); got != 3 {
				t.Errorf("count(%s) = %d, want 3", tt.want, got)
			}
			if !strings.Contains(doc, `[data-gestures~="drag"]`) {
				t.Error("gesture CSS missing")
			}
		})
	}
}

func TestRenderSVGLinks(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		wantLink bool
	}{
		{"HTTPS", "https://example.com/docs?a=1&b=2", true},
		{"Script", "javascript:alert(1)", false},
		{"Relative", "/docs", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := chart(t, []graph.NodeSpec{{ID: 1, Type: "operation", Text: "Docs", Href: tt.href}})
			out := RenderSVG(sc)
			wellFormed(t, out)
			if got := strings.Contains(string(out), "<a xlink:href="); got != tt.wantLink {
				t.Errorf("link emitted = %v, want %v", got, tt.wantLink)
			}
		})
	}
}

func TestRenderSVGHoverTransition(t *testing.T) {
	sc, d := chart(t, chain())
	n, _ := d.Node(1)
	sc.Dispatch(scene.GestureHoverIn, n.Outline(), n.Center(), 0, 0)

	doc := string(RenderSVG(sc))
	if !strings.Contains(doc, `style="transition: all 0.5s"`) {
		t.Error("hovered outline has no transition")
	}
	if !strings.Contains(doc, `fill="#00ffff"`) {
		t.Error("hovered outline is not highlighted")
	}
}

func TestRenderSVGBackgroundAndScript(t *testing.T) {
	sc, _ := chart(t, chain())
	doc := string(RenderSVG(sc, WithBackground("white"), WithScript("console.log(1)")))
	if !strings.Contains(doc, `fill="white"`) {
		t.Error("background not drawn")
	}
	if !strings.Contains(doc, "console.log(1)") {
		t.Error("script not embedded")
	}
}

func TestRectPath(t *testing.T) {
	tests := []struct {
		name          string
		x, y, w, h, r float64
		want          string
	}{
		{"Square", 0, 0, 10, 20, 0, "M0,0 h10 v20 h-10 z"},
		{"Fractional", 1.5, 2.25, 3, 4, 0, "M1.5,2.25 h3 v4 h-3 z"},
		{"Rounded", 0, 0, 40, 20, 5, "M5,0 h30 a5,5 0 0 1 5,5 v10 a5,5 0 0 1 -5,5 h-30 a5,5 0 0 1 -5,-5 v-10 a5,5 0 0 1 5,-5 z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rectPath(tt.x, tt.y, tt.w, tt.h, tt.r); got != tt.want {
				t.Errorf("rectPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNum(t *testing.T) {
	tests := map[float64]string{
		0:        "0",
		10:       "10",
		-0.001:   "0",
		1.5:      "1.5",
		2.126:    "2.13",
		-3.25:    "-3.25",
		100.0001: "100",
	}
	for in, want := range tests {
		if got := num(in); got != want {
			t.Errorf("num(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderPNG(t *testing.T) {
	sc, _ := chart(t, chain())
	vp := sc.Viewport()

	data, err := RenderPNG(context.Background(), sc, WithScale(1.5))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != int(math.Ceil(vp.Width*1.5)) || b.Dy() != int(math.Ceil(vp.Height*1.5)) {
		t.Errorf("size = %dx%d, want viewport %vx%v at 1.5x", b.Dx(), b.Dy(), vp.Width, vp.Height)
	}

	inked := false
	for y := b.Min.Y; y < b.Max.Y && !inked; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, g, bl, _ := img.At(x, y).RGBA(); r != 0xffff || g != 0xffff || bl != 0xffff {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Error("PNG is blank")
	}
}

func TestRenderPNGInvalidScale(t *testing.T) {
	sc, _ := chart(t, chain())
	_, err := RenderPNG(context.Background(), sc, WithScale(0))
	if !errors.Is(err, errors.ErrCodeInvalidOptions) {
		t.Errorf("error = %v, want INVALID_OPTIONS", err)
	}
}

func TestRenderPDF(t *testing.T) {
	if !render.Available() {
		t.Skip("rsvg-convert not installed")
	}
	sc, _ := chart(t, chain())
	data, err := RenderPDF(context.Background(), sc)
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		opacity float64
		want    color.NRGBA
		ok      bool
	}{
		{"#333", 1, color.NRGBA{0x33, 0x33, 0x33, 0xff}, true},
		{"#00FFFF", 0.5, color.NRGBA{0x00, 0xff, 0xff, 0x80}, true},
		{"red", 1, color.NRGBA{0xff, 0x00, 0x00, 0xff}, true},
		{"none", 1, color.NRGBA{}, false},
		{"#12", 1, color.NRGBA{}, false},
		{"#333", 0, color.NRGBA{}, false},
		{"chartreuse-ish", 1, color.NRGBA{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseColor(tt.in, tt.opacity)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseColor(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRenderJSON(t *testing.T) {
	_, d := chart(t, chain())

	data, err := RenderJSON(d, WithJSONTitle("chain.json"), WithJSONOptions())
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}

	if out.Title != "chain.json" {
		t.Errorf("Title = %q", out.Title)
	}
	if len(out.Nodes) != 3 || len(out.Connectors) != 2 {
		t.Fatalf("nodes=%d connectors=%d, want 3 and 2", len(out.Nodes), len(out.Connectors))
	}
	for i, n := range out.Nodes {
		if n.ID != i+1 {
			t.Errorf("node %d has id %d, want input order", i, n.ID)
		}
		if n.Width <= 0 || n.Height <= 0 {
			t.Errorf("node %d has empty box %+v", n.ID, n.jsonBox)
		}
	}

	c := out.Connectors[1]
	if c.From != 2 || c.To != 3 || c.Text != "yes & go" {
		t.Errorf("connector = %+v", c)
	}
	if c.Exit != "bottom" || c.Entry != "top" || len(c.Points) != 5 {
		t.Errorf("route = %s->%s with %d points, want bottom->top with 5", c.Exit, c.Entry, len(c.Points))
	}
	if out.Options == nil || out.Options.MaxWidth != 120 {
		t.Errorf("Options = %+v, want merged defaults", out.Options)
	}
}

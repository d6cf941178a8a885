package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/flowchart/pkg/diagram"
	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/observability"
)

func chain() []graph.NodeSpec {
	return []graph.NodeSpec{
		{ID: 1, Type: "start", Text: "Begin", To: []graph.Edge{{To: 2}}},
		{ID: 2, Type: "condition", Text: "Ready?", To: []graph.Edge{{To: 3, Text: "yes"}}},
		{ID: 3, Type: "end", Text: "Done"},
	}
}

// memCache is an in-memory cache.Cache that counts reads and writes.
type memCache struct {
	mu         sync.Mutex
	data       map[string][]byte
	gets, sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v", tt.format, errors.GetCode(err))
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Nodes: chain()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("size = %vx%v, want %vx%v", opts.Width, opts.Height, DefaultWidth, DefaultHeight)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Scale != DefaultScale || opts.Rasterizer != RasterGG {
		t.Errorf("Scale = %v, Rasterizer = %q", opts.Scale, opts.Rasterizer)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"NoInput", Options{}, errors.ErrCodeInvalidOptions},
		{"BadInputFormat", Options{Data: []byte("[]"), InputFormat: "xml"}, errors.ErrCodeInvalidFormat},
		{"NegativeWidth", Options{Nodes: chain(), Width: -1}, errors.ErrCodeInvalidOptions},
		{"BadFormat", Options{Nodes: chain(), Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"BadScale", Options{Nodes: chain(), Scale: -2}, errors.ErrCodeInvalidOptions},
		{"BadRasterizer", Options{Nodes: chain(), Rasterizer: "cairo"}, errors.ErrCodeInvalidOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.toml")
	toml := "[[nodes]]\nid = 1\ntype = \"start\"\n\n[[nodes]]\nid = 2\ntype = \"end\"\n"
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"Nodes", Options{Nodes: chain()}, 3},
		{"Data", Options{Data: []byte("- id: 1\n  type: start\n"), InputFormat: "yaml"}, 1},
		{"DataDefaultsToJSON", Options{Data: []byte(`[{"id":1,"type":"end"}]`)}, 1},
		{"File", Options{Input: path}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := Load(tt.opts)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(nodes) != tt.want {
				t.Errorf("Load() = %d nodes, want %d", len(nodes), tt.want)
			}
		})
	}

	if _, err := Load(Options{Input: filepath.Join(dir, "missing.json")}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestExecuteCachesArtifacts(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	opts := Options{Nodes: chain(), Formats: []string{FormatSVG, FormatJSON, FormatDOT}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first run hit the cache")
	}
	if first.Diagram == nil || first.Scene == nil {
		t.Fatal("first run returned no diagram")
	}
	if first.Stats.NodeCount != 3 || first.Stats.ConnectorCount != 2 {
		t.Errorf("Stats = %+v", first.Stats)
	}
	if !strings.Contains(string(first.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact missing")
	}
	if !strings.HasPrefix(string(first.Artifacts[FormatDOT]), "digraph") {
		t.Errorf("dot artifact = %.40q", first.Artifacts[FormatDOT])
	}
	if c.sets != 3 {
		t.Errorf("cache sets = %d, want 3", c.sets)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !second.CacheInfo.RenderHit || second.Diagram != nil {
		t.Errorf("second run RenderHit = %v, Diagram = %v", second.CacheInfo.RenderHit, second.Diagram)
	}
	for _, f := range opts.Formats {
		if string(second.Artifacts[f]) != string(first.Artifacts[f]) {
			t.Errorf("cached %s differs", f)
		}
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh run hit the cache")
	}
}

func TestExecuteKeysOnRenderOptions(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	r := NewRunner(c, nil, nil)

	if _, err := r.Execute(ctx, Options{Nodes: chain()}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, Options{Nodes: chain(), Title: "Other"})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("a different title reused the cached svg")
	}
	res, err = r.Execute(ctx, Options{Nodes: chain(), Width: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("a different host size reused the cached svg")
	}
}

func TestOptionsHashResolvesSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.yaml")
	if err := os.WriteFile(path, []byte("maxWidth: 200\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fromFile, err := DiagramOptions(Options{ConfigFile: path})
	if err != nil {
		t.Fatal(err)
	}
	fromMap, err := DiagramOptions(Options{Overrides: map[string]any{"maxWidth": 200}})
	if err != nil {
		t.Fatal(err)
	}
	h1, o1, err := OptionsHash(fromFile)
	if err != nil {
		t.Fatal(err)
	}
	h2, _, err := OptionsHash(fromMap)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("equal configurations hashed differently")
	}
	if o1.MaxWidth != 200 {
		t.Errorf("MaxWidth = %v, want 200", o1.MaxWidth)
	}
	h3, _, _ := OptionsHash(nil)
	if h3 == h1 {
		t.Error("defaults hashed like an override")
	}
}

func TestExecuteErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	tests := []struct {
		name  string
		nodes []graph.NodeSpec
		code  errors.Code
	}{
		{"UnknownType", []graph.NodeSpec{{ID: 1, Type: "loop"}}, errors.ErrCodeConfiguration},
		{"Duplicate", []graph.NodeSpec{{ID: 1, Type: "start"}, {ID: 1, Type: "end"}}, errors.ErrCodeDuplicateNode},
		{"Dangling", []graph.NodeSpec{{ID: 1, Type: "start", To: []graph.Edge{{To: 5}}}}, errors.ErrCodeDanglingReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), Options{Nodes: tt.nodes})
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.code)
			}
		})
	}

	_, err := r.Execute(context.Background(), Options{
		Nodes:     []graph.NodeSpec{{ID: 1, Type: "start", To: []graph.Edge{{To: 5}}}},
		Overrides: map[string]any{"allowDangling": true},
	})
	if err != nil {
		t.Errorf("Execute() with allowDangling error = %v", err)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	events []string
}

func (h *recordingHooks) OnLoadStart(_ context.Context, source string) {
	h.events = append(h.events, "load:"+source)
}

func (h *recordingHooks) OnLayoutStart(_ context.Context, mode string, _ int) {
	h.events = append(h.events, "layout:"+mode)
}

func (h *recordingHooks) OnRenderStart(_ context.Context, formats []string) {
	h.events = append(h.events, "render:"+strings.Join(formats, ","))
}

func TestExecuteHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{
		Nodes:     chain(),
		Overrides: map[string]any{"autolayout": false},
		Formats:   []string{FormatJSON},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"load:memory", "layout:manual", "render:json"}
	if strings.Join(h.events, " ") != strings.Join(want, " ") {
		t.Errorf("events = %v, want %v", h.events, want)
	}
}

func TestLayoutNodes(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.LayoutNodes(context.Background(), chain(), Options{Width: 300, Height: 200})
	if err != nil {
		t.Fatal(err)
	}
	if res.Artifacts != nil {
		t.Error("LayoutNodes rendered artifacts")
	}
	n, ok := res.Diagram.Node(1)
	if !ok {
		t.Fatal("node 1 missing")
	}
	if n.BBox().Y < diagram.DefaultOptions().PaperPadding.Y {
		t.Errorf("root placed above the padding: %+v", n.BBox())
	}
	if w, h := res.Scene.HostSize(); w != 300 || h != 200 {
		t.Errorf("host size = %vx%v", w, h)
	}
}

func TestRenderPNG(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Nodes:   chain(),
		Formats: []string{FormatPNG},
		Scale:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatPNG]), "\x89PNG") {
		t.Error("png artifact has no PNG signature")
	}
}

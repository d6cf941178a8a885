package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"slices"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/surface"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

const textCSS = `
    text { white-space: pre; user-select: none; }
    a text { text-decoration: underline; }`

// gestureCSS is only emitted alongside data-gestures annotations.
const gestureCSS = `
    [data-gestures] { cursor: pointer; }
    [data-gestures~="drag"] { cursor: move; }`

// Attributes the surface understands but SVG does not, or that are emitted
// through dedicated markup.
var internalAttrs = map[string]bool{
	"text":        true,
	"href":        true,
	"arrow-end":   true,
	"arrow-start": true,
}

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	gestures   bool
	title      string
	background string
	script     string
}

// WithGestures annotates elements that carry gesture handlers with a
// data-gestures attribute listing them, so a host page can route pointer
// events back to the scene.
func WithGestures() SVGOption { return func(r *svgRenderer) { r.gestures = true } }

// WithTitle sets the document title.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// WithBackground fills the viewport with a color before drawing.
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// WithScript embeds a script at the end of the document.
func WithScript(js string) SVGOption { return func(r *svgRenderer) { r.script = js } }

// RenderSVG serializes the scene. The document size is the canvas size and
// the viewBox is the scene's viewport.
func RenderSVG(sc *scene.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := sc.Size()
	vp := sc.Viewport()
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = geom.Rect{Width: w, Height: h}
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	// svgo's Startview takes integer sizes; canvas and viewport are fractional.
	fmt.Fprintf(canvas.Writer,
		`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="%s %s %s %s">`+"\n",
		num(w), num(h), num(vp.X), num(vp.Y), num(vp.Width), num(vp.Height))

	if r.title != "" {
		canvas.Title(r.title)
	}

	markers := collectMarkers(sc)
	if len(markers) > 0 {
		canvas.Def()
		for _, m := range markers {
			writeMarker(canvas, m)
		}
		canvas.DefEnd()
	}
	css := textCSS
	if r.gestures {
		css += gestureCSS
	}
	canvas.Style("text/css", css)

	if r.background != "" {
		canvas.Path(rectPath(vp.X, vp.Y, vp.Width, vp.Height, 0), attr("fill", r.background))
	}

	ids := markerIndex(markers)
	for _, e := range sc.Roots() {
		r.element(canvas, sc, e, ids)
	}

	if r.script != "" {
		canvas.Script("application/javascript", r.script)
	}
	canvas.End()
	return buf.Bytes()
}

func (r *svgRenderer) element(canvas *svg.SVG, sc *scene.Scene, e *scene.Element, markers map[markerKey]string) {
	attrs := r.attrs(sc, e, markers)

	switch e.Kind {
	case scene.KindGroup:
		canvas.Group(attrs...)
		for _, c := range sc.Children(e) {
			r.element(canvas, sc, c, markers)
		}
		canvas.Gend()
	case scene.KindPath:
		if len(e.Points) == 0 {
			return
		}
		canvas.Path(pointsPath(e.Points), attrs...)
	case scene.KindRect:
		canvas.Path(rectPath(e.X, e.Y, e.W, e.H, e.Radius), attrs...)
	case scene.KindText:
		r.text(canvas, sc, e, attrs)
	}
}

// text writes one <text> per line. Each line is positioned with a translate
// so fractional coordinates survive svgo's integer text API.
func (r *svgRenderer) text(canvas *svg.SVG, sc *scene.Scene, e *scene.Element, attrs []string) {
	href := e.Attrs.String("href")
	linked := href != "" && errors.ValidateURL(href) == nil
	if linked {
		canvas.Link(escape(href), e.Text)
	}

	if _, ok := e.Attrs["font-size"]; !ok {
		attrs = append(attrs, attr("font-size", num(scene.DefaultFontSize)))
	}
	canvas.Group(attrs...)
	mt := sc.TextMetrics(e)
	top := e.Y - mt.Height()/2
	for i, line := range mt.Lines {
		baseline := top + float64(i)*mt.LineHeight + mt.Ascent
		canvas.Text(0, 0, line, attr("transform", translate(e.X, baseline)))
	}
	canvas.Gend()

	if linked {
		canvas.LinkEnd()
	}
}

func (r *svgRenderer) attrs(sc *scene.Scene, e *scene.Element, markers map[markerKey]string) []string {
	out := []string{attr("id", e.Name())}
	if e.DX != 0 || e.DY != 0 {
		out = append(out, attr("transform", translate(e.DX, e.DY)))
	}

	eff := effectiveAttrs(e)
	keys := make([]string, 0, len(eff))
	for k := range eff {
		if !internalAttrs[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		out = append(out, attr(k, eff.String(k)))
	}

	if e.Kind == scene.KindPath {
		if id, ok := markers[arrowKey(e, "arrow-end")]; ok {
			out = append(out, attr("marker-end", "url(#"+id+")"))
		}
		if id, ok := markers[arrowKey(e, "arrow-start")]; ok {
			out = append(out, attr("marker-start", "url(#"+id+")"))
		}
	}

	if e.Transition > 0 {
		out = append(out, attr("style", fmt.Sprintf("transition: all %gs", e.Transition.Seconds())))
	}
	if r.gestures {
		if g := gestureList(sc, e); g != "" {
			out = append(out, attr("data-gestures", g))
		}
	}
	return out
}

// Paths and rectangles are outlines unless styled otherwise; text is filled.
var kindDefaults = map[scene.Kind]surface.Attrs{
	scene.KindPath: {"fill": "none", "stroke": "#000"},
	scene.KindRect: {"fill": "none", "stroke": "#000"},
	scene.KindText: {"fill": "#000"},
}

// effectiveAttrs returns e's attributes with the kind defaults filled in.
func effectiveAttrs(e *scene.Element) surface.Attrs {
	out := e.Attrs.Clone()
	for k, v := range kindDefaults[e.Kind] {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func gestureList(sc *scene.Scene, e *scene.Element) string {
	click, dbl, drag, hover := sc.Interactive(e.ID)
	var g []string
	if click {
		g = append(g, "click")
	}
	if dbl {
		g = append(g, "dblclick")
	}
	if drag {
		g = append(g, "drag")
	}
	if hover {
		g = append(g, "hover")
	}
	return strings.Join(g, " ")
}

// Arrow markers are shared by every path with the same head type, stroke
// color and direction.
type markerKey struct {
	head   string
	stroke string
	start  bool
}

type marker struct {
	key markerKey
	id  string
}

func arrowKey(e *scene.Element, attrName string) markerKey {
	head := e.Attrs.String(attrName)
	stroke := e.Attrs.String("stroke")
	if stroke == "" {
		stroke = "#000"
	}
	return markerKey{head: head, stroke: stroke, start: attrName == "arrow-start"}
}

func collectMarkers(sc *scene.Scene) []marker {
	var out []marker
	seen := make(map[markerKey]bool)
	var walk func(es []*scene.Element)
	walk = func(es []*scene.Element) {
		for _, e := range es {
			if e.Kind == scene.KindGroup {
				walk(sc.Children(e))
				continue
			}
			if e.Kind != scene.KindPath {
				continue
			}
			for _, name := range []string{"arrow-end", "arrow-start"} {
				k := arrowKey(e, name)
				if k.head == "" || k.head == "none" || seen[k] {
					continue
				}
				seen[k] = true
				out = append(out, marker{key: k, id: "arrow-" + strconv.Itoa(len(out))})
			}
		}
	}
	walk(sc.Roots())
	return out
}

func markerIndex(ms []marker) map[markerKey]string {
	idx := make(map[markerKey]string, len(ms))
	for _, m := range ms {
		idx[m.key] = m.id
	}
	return idx
}

func writeMarker(canvas *svg.SVG, m marker) {
	orient := "auto"
	if m.key.start {
		orient = "auto-start-reverse"
	}
	canvas.Marker(m.id, 9, 5, 6, 6,
		attr("viewBox", "0 0 10 10"), attr("orient", orient), attr("markerUnits", "strokeWidth"))
	fill := attr("fill", m.key.stroke)
	switch m.key.head {
	case "open":
		canvas.Path("M0,0 L10,5 L0,10", attr("fill", "none"), attr("stroke", m.key.stroke), attr("stroke-width", "1.5"))
	case "block":
		canvas.Path("M0,0 L10,5 L0,10 z", fill)
	case "diamond":
		canvas.Path("M0,5 L5,0 L10,5 L5,10 z", fill)
	case "oval":
		canvas.Path("M0,5 a5,5 0 1,0 10,0 a5,5 0 1,0 -10,0", fill)
	default:
		canvas.Path("M0,0 L10,5 L0,10 L3,5 z", fill)
	}
	canvas.MarkerEnd()
}

func pointsPath(pts []geom.Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(p.X))
		b.WriteString(",")
		b.WriteString(num(p.Y))
	}
	return b.String()
}

// rectPath draws a rectangle as a path so fractional geometry and rounded
// corners need no integer rounding.
func rectPath(x, y, w, h, r float64) string {
	r = min(r, w/2, h/2)
	if r <= 0 {
		return fmt.Sprintf("M%s,%s h%s v%s h%s z", num(x), num(y), num(w), num(h), num(-w))
	}
	return fmt.Sprintf("M%s,%s h%s a%s,%s 0 0 1 %s,%s v%s a%s,%s 0 0 1 %s,%s h%s a%s,%s 0 0 1 %s,%s v%s a%s,%s 0 0 1 %s,%s z",
		num(x+r), num(y),
		num(w-2*r), num(r), num(r), num(r), num(r),
		num(h-2*r), num(r), num(r), num(-r), num(r),
		num(-(w - 2*r)), num(r), num(r), num(-r), num(-r),
		num(-(h - 2*r)), num(r), num(r), num(r), num(-r))
}

func translate(dx, dy float64) string {
	return "translate(" + num(dx) + "," + num(dy) + ")"
}

func attr(k, v string) string { return k + `="` + escape(v) + `"` }

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

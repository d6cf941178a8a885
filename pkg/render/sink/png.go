package sink

import (
	"bytes"
	"context"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/colornames"

	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/render"
	"github.com/matzehuels/flowchart/pkg/surface"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	svgOpts    []SVGOption
	scale      float64
	background string
	rsvg       bool
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// WithPNGBackground fills the image before drawing. The default is white.
func WithPNGBackground(color string) PNGOption {
	return func(r *pngRenderer) { r.background = color }
}

// WithRSVG rasterizes through rsvg-convert instead of drawing the scene
// directly. svgOpts are passed to the SVG renderer.
func WithRSVG(svgOpts ...SVGOption) PNGOption {
	return func(r *pngRenderer) {
		r.rsvg = true
		r.svgOpts = svgOpts
	}
}

// RenderPNG rasterizes the scene's viewport.
func RenderPNG(ctx context.Context, sc *scene.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0, background: "white"}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 || math.IsNaN(r.scale) || math.IsInf(r.scale, 0) {
		return nil, errors.New(errors.ErrCodeInvalidOptions, "png scale must be positive, got %v", r.scale)
	}
	if r.rsvg {
		return render.ToPNG(ctx, RenderSVG(sc, r.svgOpts...), r.scale)
	}

	w, h := sc.Size()
	vp := sc.Viewport()
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = geom.Rect{Width: w, Height: h}
	}
	pw := max(1, int(math.Ceil(vp.Width*r.scale)))
	ph := max(1, int(math.Ceil(vp.Height*r.scale)))

	p := &painter{
		sc:    sc,
		dc:    gg.NewContext(pw, ph),
		vp:    vp,
		scale: r.scale,
	}
	if c, ok := parseColor(r.background, 1); ok {
		p.dc.SetColor(c)
		p.dc.Clear()
	}
	for _, e := range sc.Roots() {
		if err := p.draw(e, geom.Point{}); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := p.dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSurface, err, "encode png")
	}
	return buf.Bytes(), nil
}

type painter struct {
	sc    *scene.Scene
	dc    *gg.Context
	vp    geom.Rect
	scale float64
}

// pt maps a canvas coordinate to an image pixel.
func (p *painter) pt(x, y float64) (float64, float64) {
	return (x - p.vp.X) * p.scale, (y - p.vp.Y) * p.scale
}

func (p *painter) draw(e *scene.Element, off geom.Point) error {
	off = off.Add(e.DX, e.DY)
	attrs := effectiveAttrs(e)

	switch e.Kind {
	case scene.KindGroup:
		for _, c := range p.sc.Children(e) {
			if err := p.draw(c, off); err != nil {
				return err
			}
		}
	case scene.KindRect:
		x, y := p.pt(e.X+off.X, e.Y+off.Y)
		w, h := e.W*p.scale, e.H*p.scale
		if e.Radius > 0 {
			p.dc.DrawRoundedRectangle(x, y, w, h, min(e.Radius*p.scale, w/2, h/2))
		} else {
			p.dc.DrawRectangle(x, y, w, h)
		}
		p.paint(attrs)
	case scene.KindPath:
		if len(e.Points) == 0 {
			return nil
		}
		for i, pt := range e.Points {
			x, y := p.pt(pt.X+off.X, pt.Y+off.Y)
			if i == 0 {
				p.dc.MoveTo(x, y)
			} else {
				p.dc.LineTo(x, y)
			}
		}
		p.paint(attrs)
		p.arrow(e, off, attrs)
	case scene.KindText:
		return p.text(e, off, attrs)
	}
	return nil
}

// paint fills then strokes the current path.
func (p *painter) paint(attrs surface.Attrs) {
	if c, ok := parseColor(attrs.String("fill"), attrFloat(attrs, "fill-opacity", 1)); ok {
		p.dc.SetColor(c)
		p.dc.FillPreserve()
	}
	if c, ok := parseColor(attrs.String("stroke"), attrFloat(attrs, "stroke-opacity", 1)); ok {
		p.dc.SetColor(c)
		p.dc.SetLineWidth(attrFloat(attrs, "stroke-width", 1) * p.scale)
		p.dc.StrokePreserve()
	}
	p.dc.ClearPath()
}

// arrow draws a filled head at the last point, aligned with the last segment.
func (p *painter) arrow(e *scene.Element, off geom.Point, attrs surface.Attrs) {
	head := attrs.String("arrow-end")
	if head == "" || head == "none" || len(e.Points) < 2 {
		return
	}
	c, ok := parseColor(attrs.String("stroke"), 1)
	if !ok {
		return
	}
	n := len(e.Points)
	var from geom.Point
	for i := n - 2; i >= 0; i-- {
		if e.Points[i] != e.Points[n-1] {
			from = e.Points[i]
			break
		}
		if i == 0 {
			return
		}
	}
	tip := e.Points[n-1]
	angle := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	size := 3 * attrFloat(attrs, "stroke-width", 1)

	tx, ty := p.pt(tip.X+off.X, tip.Y+off.Y)
	s := size * p.scale
	p.dc.MoveTo(tx, ty)
	p.dc.LineTo(tx-s*math.Cos(angle-math.Pi/6), ty-s*math.Sin(angle-math.Pi/6))
	p.dc.LineTo(tx-s*math.Cos(angle+math.Pi/6), ty-s*math.Sin(angle+math.Pi/6))
	p.dc.ClosePath()
	p.dc.SetColor(c)
	if head == "open" {
		p.dc.SetLineWidth(attrFloat(attrs, "stroke-width", 1) * p.scale)
		p.dc.Stroke()
		return
	}
	p.dc.Fill()
}

func (p *painter) text(e *scene.Element, off geom.Point, attrs surface.Attrs) error {
	c, ok := parseColor(attrs.String("fill"), attrFloat(attrs, "fill-opacity", 1))
	if !ok {
		return nil
	}
	face, err := p.sc.Measurer().Face(e.FontSize() * p.scale)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSurface, err, "font face %v", e.FontSize())
	}
	p.dc.SetFontFace(face)
	p.dc.SetColor(c)

	mt := p.sc.TextMetrics(e)
	top := e.Y - mt.Height()/2
	for i, line := range mt.Lines {
		x := e.X
		switch attrs.String("text-anchor") {
		case "middle":
			x -= mt.Widths[i] / 2
		case "end":
			x -= mt.Widths[i]
		}
		px, py := p.pt(x+off.X, top+float64(i)*mt.LineHeight+mt.Ascent+off.Y)
		p.dc.DrawString(line, px, py)
	}
	return nil
}

// parseColor resolves "#rgb", "#rrggbb" and CSS color names. "none",
// "transparent" and unknown values report false.
func parseColor(s string, opacity float64) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" || s == "transparent" || opacity <= 0 {
		return color.NRGBA{}, false
	}
	a := uint8(math.Round(math.Min(opacity, 1) * 255))
	if named, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: named.R, G: named.G, B: named.B, A: a}, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: a}, true
}

func attrFloat(attrs surface.Attrs, key string, def float64) float64 {
	switch v := attrs[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64); err == nil {
			return f
		}
	}
	return def
}

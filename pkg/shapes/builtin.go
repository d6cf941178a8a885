package shapes

import (
	"github.com/matzehuels/flowchart/pkg/geom"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/surface"
)

// label creates the wrapped, left-anchored label at (x, 0).
func label(s surface.Surface, spec graph.NodeSpec, st Style, x float64) surface.Shape {
	t := s.Text(x, 0, "")
	s.SetAttrs(t, st.Text.Clone())
	s.SetAttrs(t, surface.Attrs{"text-anchor": "start"})
	Wrap(s, t, spec.Text, st.MaxWidth)
	if spec.Href != "" {
		s.SetAttrs(t, surface.Attrs{"href": spec.Href})
	}
	return t
}

// finish puts the outline behind the label, centers the label vertically on
// the outline and groups both.
func finish(s surface.Surface, outline, text surface.Shape, st Style) Result {
	s.SetAttrs(outline, st.Shape.Clone())
	s.Lower(outline)
	s.SetAttrs(text, surface.Attrs{"y": s.BBox(outline).Height / 2})
	g := s.Group(outline, text)
	return Result{Group: g, Outline: outline, Label: text}
}

// Rounded returns a recipe drawing a rectangle with the given corner radius
// around the label. Style.Radius overrides radius when set.
func Rounded(radius float64) Recipe {
	return RecipeFunc(func(s surface.Surface, spec graph.NodeSpec, st Style) (Result, error) {
		p := st.TextPadding
		t := label(s, spec, st, p)
		tb := s.BBox(t)

		r := radius
		if st.Radius != nil {
			r = *st.Radius
		}
		rect := s.Rect(0, 0, tb.Width+2*p, tb.Height+2*p, r)
		return finish(s, rect, t, st), nil
	})
}

// Diamond returns the decision recipe: a rhombus wide enough that the label
// fits between its left and right corners.
func Diamond() Recipe {
	return RecipeFunc(func(s surface.Surface, spec graph.NodeSpec, st Style) (Result, error) {
		p := st.TextPadding
		t := label(s, spec, st, 0)
		tb := s.BBox(t)

		w := (tb.Width + 3*p) * 1.5
		h := max(w*0.5, (tb.Height+2*p)*1.5)
		s.SetAttrs(t, surface.Attrs{"x": w/4 + p/2})

		path := s.Path(DiamondPoints(w, h))
		return finish(s, path, t, st), nil
	})
}

// DiamondPoints returns the closed outline of a w x h diamond, starting at
// the first quarter point.
func DiamondPoints(w, h float64) []geom.Point {
	return []geom.Point{
		{X: w / 4, Y: h / 4},
		{X: 0, Y: h / 2},
		{X: w / 2, Y: h},
		{X: w, Y: h / 2},
		{X: w / 2, Y: 0},
		{X: 0, Y: h / 2},
	}
}

package sink

import (
	"encoding/json"

	"github.com/matzehuels/flowchart/pkg/diagram"
	"github.com/matzehuels/flowchart/pkg/geom"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	options bool
	title   string
}

// WithJSONOptions includes the merged diagram options in the output so a
// layout can be re-rendered with the same settings.
func WithJSONOptions() JSONOption { return func(r *jsonRenderer) { r.options = true } }

// WithJSONTitle records a title, usually the input file name.
func WithJSONTitle(t string) JSONOption { return func(r *jsonRenderer) { r.title = t } }

type jsonOutput struct {
	Title      string           `json:"title,omitempty"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Content    jsonBox          `json:"content"`
	Nodes      []jsonNode       `json:"nodes"`
	Connectors []jsonConnector  `json:"connectors"`
	Options    *diagram.Options `json:"options,omitempty"`
}

type jsonBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type jsonNode struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Href string `json:"href,omitempty"`
	jsonBox
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonConnector struct {
	ID     int         `json:"id,omitempty"`
	Type   string      `json:"type,omitempty"`
	Text   string      `json:"text,omitempty"`
	Data   any         `json:"data,omitempty"`
	From   int         `json:"from"`
	To     int         `json:"to"`
	Exit   string      `json:"exit"`
	Entry  string      `json:"entry"`
	Points []jsonPoint `json:"points"`
}

// RenderJSON serializes the computed geometry of a drawn diagram: node boxes
// in input order and connector routes in drawing order.
func RenderJSON(d *diagram.Diagram, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Title:      r.title,
		Width:      d.Width(),
		Height:     d.Height(),
		Content:    box(d.Content()),
		Nodes:      make([]jsonNode, 0, len(d.Nodes())),
		Connectors: make([]jsonConnector, 0, len(d.Connectors())),
	}
	for _, n := range d.Nodes() {
		out.Nodes = append(out.Nodes, jsonNode{
			ID:      n.ID(),
			Type:    n.Type(),
			Text:    n.Text(),
			Href:    n.Spec.Href,
			jsonBox: box(n.BBox()),
		})
	}
	for _, c := range d.Connectors() {
		route := c.Route()
		jc := jsonConnector{
			ID:     c.ID,
			Type:   c.Type,
			Text:   c.Text,
			Data:   c.Data,
			From:   c.From.ID(),
			To:     c.To.ID(),
			Exit:   route.From.String(),
			Entry:  route.To.String(),
			Points: make([]jsonPoint, 0, len(route.Points)),
		}
		for _, p := range route.Points {
			jc.Points = append(jc.Points, jsonPoint{X: p.X, Y: p.Y})
		}
		out.Connectors = append(out.Connectors, jc)
	}
	if r.options {
		o := d.Options()
		out.Options = &o
	}

	return json.MarshalIndent(out, "", "  ")
}

func box(r geom.Rect) jsonBox {
	return jsonBox{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

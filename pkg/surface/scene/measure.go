package scene

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultFontSize is used for text elements without a "font-size" attribute.
const DefaultFontSize = 14.0

// Measurer computes text extents with the embedded Go Regular font.
// Faces are created lazily per font size and cached.
type Measurer struct {
	font  *opentype.Font
	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewMeasurer parses the embedded font.
func NewMeasurer() (*Measurer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &Measurer{font: f, faces: make(map[float64]font.Face)}, nil
}

// Face returns the font face for size, creating it on first use.
func (m *Measurer) Face(size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

// Metrics describes the extent of a block of text.
type Metrics struct {
	Width      float64   // widest line
	LineHeight float64   // distance between baselines
	Ascent     float64   // baseline offset from the top of a line
	Lines      []string  // text split on newlines
	Widths     []float64 // width of each line
}

// Height returns the total height of all lines.
func (mt Metrics) Height() float64 { return mt.LineHeight * float64(len(mt.Lines)) }

// Measure returns the metrics of text rendered at size.
func (m *Measurer) Measure(text string, size float64) Metrics {
	face, err := m.Face(size)
	if err != nil {
		return approximate(text, size)
	}
	fm := face.Metrics()
	mt := Metrics{
		LineHeight: fromFixed(fm.Height),
		Ascent:     fromFixed(fm.Ascent),
		Lines:      strings.Split(text, "\n"),
	}
	mt.Widths = make([]float64, len(mt.Lines))
	for i, line := range mt.Lines {
		mt.Widths[i] = fromFixed(font.MeasureString(face, line))
		mt.Width = math.Max(mt.Width, mt.Widths[i])
	}
	return mt
}

// approximate is used only if a face cannot be built for size.
func approximate(text string, size float64) Metrics {
	mt := Metrics{LineHeight: size * 1.2, Ascent: size * 0.9, Lines: strings.Split(text, "\n")}
	mt.Widths = make([]float64, len(mt.Lines))
	for i, line := range mt.Lines {
		mt.Widths[i] = float64(len([]rune(line))) * size * 0.55
		mt.Width = math.Max(mt.Width, mt.Widths[i])
	}
	return mt
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

// FontSize parses a "font-size" attribute value such as 14, "14" or "14px".
func FontSize(v any) float64 {
	switch x := v.(type) {
	case float64:
		if x > 0 {
			return x
		}
	case int:
		if x > 0 {
			return float64(x)
		}
	case int64:
		if x > 0 {
			return float64(x)
		}
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(x), "px"))
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			return f
		}
	}
	return DefaultFontSize
}

package shapes

import (
	"strings"

	"github.com/matzehuels/flowchart/pkg/surface"
)

// Wrap breaks content into lines no wider than maxWidth, one rune at a time,
// measuring through the surface so the label's font attributes apply. The
// label ends up holding the wrapped text, which is also returned.
//
// A rune that alone exceeds maxWidth still starts its own line; it is never
// split further.
func Wrap(s surface.Surface, label surface.Shape, content string, maxWidth float64) string {
	var b strings.Builder
	lineEmpty := true
	for _, r := range content {
		if r == '\n' {
			b.WriteRune(r)
			lineEmpty = true
			continue
		}
		s.SetAttrs(label, surface.Attrs{"text": b.String() + string(r)})
		if !lineEmpty && s.BBox(label).Width > maxWidth {
			b.WriteByte('\n')
		}
		b.WriteRune(r)
		lineEmpty = false
	}
	out := b.String()
	s.SetAttrs(label, surface.Attrs{"text": out})
	return out
}

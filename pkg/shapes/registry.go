package shapes

import (
	"errors"
	"slices"
	"sync"

	ferrors "github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/surface"
)

var (
	// ErrDuplicateShape is returned by [Registry.Register] for a type that is
	// already registered.
	ErrDuplicateShape = errors.New("shape type already registered")

	// ErrUnknownShape is returned by [Registry.Render] for a type without a
	// recipe.
	ErrUnknownShape = errors.New("unknown shape type")
)

// Style carries the per-diagram options a recipe needs.
type Style struct {
	TextPadding float64       // gap between label and outline
	MaxWidth    float64       // label wrap width
	Text        surface.Attrs // applied to every label
	Shape       surface.Attrs // applied to every outline
	// Radius overrides a rounded recipe's corner radius when non-nil.
	Radius *float64
}

// DefaultStyle returns the built-in padding and wrap width.
func DefaultStyle() Style {
	return Style{TextPadding: 10, MaxWidth: 120}
}

// Result holds the handles of a drawn node.
type Result struct {
	Group   surface.Shape // owns Outline and Label; translate this to move the node
	Outline surface.Shape
	Label   surface.Shape
}

// Recipe draws one node type.
type Recipe interface {
	Draw(s surface.Surface, spec graph.NodeSpec, st Style) (Result, error)
}

// RecipeFunc adapts a function to [Recipe].
type RecipeFunc func(s surface.Surface, spec graph.NodeSpec, st Style) (Result, error)

func (f RecipeFunc) Draw(s surface.Surface, spec graph.NodeSpec, st Style) (Result, error) {
	return f(s, spec, st)
}

// Registry maps shape type tags to recipes. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	recipes map[string]Recipe
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{recipes: make(map[string]Recipe)}
}

// Default returns a new registry holding the built-in shape types.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister("start", Rounded(20))
	r.MustRegister("end", Rounded(20))
	r.MustRegister("operation", Rounded(0))
	r.MustRegister("condition", Diamond())
	return r
}

// Register adds a recipe for typ.
func (r *Registry) Register(typ string, rc Recipe) error {
	if err := ferrors.ValidateShapeType(typ); err != nil {
		return err
	}
	if rc == nil {
		return ferrors.New(ferrors.ErrCodeConfiguration, "nil recipe for shape type %q", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.recipes[typ]; exists {
		return ferrors.Wrap(ferrors.ErrCodeConfiguration, ErrDuplicateShape, "shape type %q", typ)
	}
	r.recipes[typ] = rc
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// package initialization.
func (r *Registry) MustRegister(typ string, rc Recipe) {
	if err := r.Register(typ, rc); err != nil {
		panic(err)
	}
}

// Lookup returns the recipe for typ.
func (r *Registry) Lookup(typ string) (Recipe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rc, ok := r.recipes[typ]
	return rc, ok
}

// Types returns the registered type tags, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.recipes))
	for t := range r.recipes {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Render draws spec with the recipe registered for spec.Type.
func (r *Registry) Render(s surface.Surface, spec graph.NodeSpec, st Style) (Result, error) {
	rc, ok := r.Lookup(spec.Type)
	if !ok {
		return Result{}, ferrors.Wrap(ferrors.ErrCodeConfiguration, ErrUnknownShape, "node %d: type %q", spec.ID, spec.Type)
	}
	return rc.Draw(s, spec, st)
}

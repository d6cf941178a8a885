package cache

// LayoutKeyOpts are the inputs besides the node list that change computed
// geometry.
type LayoutKeyOpts struct {
	OptionsHash string  `json:"options"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Scale       float64 `json:"scale,omitempty"`
	Gestures    bool    `json:"gestures,omitempty"`
	Title       string  `json:"title,omitempty"`
	Background  string  `json:"background,omitempty"`
	Rasterizer  string  `json:"rasterizer,omitempty"`
	RankByLevel bool    `json:"rank_by_level,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey keys the computed geometry of a node list.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys one output format rendered from a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

package cache

// RenderKeyOpts are the render options that change an artifact's bytes.
type RenderKeyOpts struct {
	Format   string  `json:"format"`
	Hue      float64 `json:"hue"`
	Scheme   string  `json:"scheme,omitempty"`
	Palette  string  `json:"palette,omitempty"` // hash of the category colors
	CellSize float64 `json:"cell_size,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Title    string  `json:"title,omitempty"`
	Links    string  `json:"links,omitempty"`
	NoStats  bool    `json:"no_stats,omitempty"`
}

// Keyer builds cache keys for rendered artifacts. Keys include the dataset
// fingerprint, so a changed dataset never hits a stale entry.
type Keyer interface {
	// QuarterKey addresses a rendered quarter heatmap.
	QuarterKey(fingerprint, quarter string, opts RenderKeyOpts) string
	// DayKey addresses a rendered day treemap.
	DayKey(fingerprint, day string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) QuarterKey(fingerprint, quarter string, opts RenderKeyOpts) string {
	return hashKey("quarter", fingerprint, quarter, opts)
}

func (DefaultKeyer) DayKey(fingerprint, day string, opts RenderKeyOpts) string {
	return hashKey("day", fingerprint, day, opts)
}
